package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort    string
	DatabaseDSN   string
	KafkaBroker   string
	KafkaTopic    string
	KafkaUsername string
	KafkaPassword string
	CloudinaryUrl string
	UploadDir     string
	VisionApiKey  string
	VisionApiUrl  string
	VisionModel   string
}

func LoadConfig() Config {
	if os.Getenv("ENV") != "prod" {
		if err := godotenv.Overload(); err != nil {
			log.Println("Warning: env file not found or could not be loaded:", err)
		}
	}

	cfg := Config{
		ServerPort:    os.Getenv("SERVER_PORT"),
		DatabaseDSN:   os.Getenv("DATABASE_DSN"),
		KafkaBroker:   os.Getenv("KAFKA_BROKER"),
		KafkaTopic:    os.Getenv("KAFKA_TOPIC"),
		KafkaUsername: os.Getenv("KAFKA_USERNAME"),
		KafkaPassword: os.Getenv("KAFKA_PASSWORD"),
		CloudinaryUrl: os.Getenv("CLOUDINARY_URL"),
		UploadDir:     os.Getenv("UPLOAD_DIR"),
		VisionApiKey:  os.Getenv("VISION_API_KEY"),
		VisionApiUrl:  os.Getenv("VISION_API_URL"),
		VisionModel:   os.Getenv("VISION_MODEL"),
	}

	if cfg.ServerPort == "" {
		cfg.ServerPort = ":3000"
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads/assets"
	}
	if cfg.VisionApiUrl == "" {
		cfg.VisionApiUrl = "https://api.openai.com/v1/chat/completions"
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = "gpt-4-vision-preview"
	}
	if cfg.VisionApiKey == "" {
		log.Println("VISION_API_KEY not set - vision analysis runs in offline mode")
	}

	return cfg
}
