package api

import (
	"log"

	"github.com/SundayYogurt/asset_audit_service/config"
	"github.com/SundayYogurt/asset_audit_service/infra/queue"
	"github.com/SundayYogurt/asset_audit_service/internal/api/rest/handlers"
	"github.com/SundayYogurt/asset_audit_service/internal/clients/vision"
	"github.com/SundayYogurt/asset_audit_service/internal/domain"
	"github.com/SundayYogurt/asset_audit_service/internal/interfaces"
	"github.com/SundayYogurt/asset_audit_service/internal/repository"
	"github.com/SundayYogurt/asset_audit_service/internal/services"
	"github.com/SundayYogurt/asset_audit_service/pkg/cloudinary"
	"github.com/SundayYogurt/asset_audit_service/pkg/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func StartServer(cfg config.Config) {
	app := fiber.New(fiber.Config{
		BodyLimit: handlers.MaxImageSize,
	})

	// ---------- CORS ----------
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	// ---------- DB ----------
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseDSN,
		PreferSimpleProtocol: true,
	}), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("database connection error: %v", err)
	}
	log.Println("database connected")

	// ---------- MIGRATION (guarded by advisory lock) ----------
	const migrateLockID int64 = 20260831

	if err := db.Exec("SELECT pg_advisory_lock(?)", migrateLockID).Error; err != nil {
		log.Fatalf("migration lock error: %v", err)
	}
	defer func() {
		_ = db.Exec("SELECT pg_advisory_unlock(?)", migrateLockID).Error
	}()

	if err := db.AutoMigrate(
		&domain.Asset{},
		&domain.Audit{},
	); err != nil {
		log.Fatalf("migration error: %v", err)
	}
	log.Println("migration successful")

	// ---------- Infra ----------
	kafkaProducer := queue.NewProducer(
		cfg.KafkaBroker,
		cfg.KafkaTopic,
		cfg.KafkaUsername,
		cfg.KafkaPassword,
	)

	var images interfaces.ImageStore
	if cfg.CloudinaryUrl != "" {
		cld, err := cloudinary.New()
		if err != nil {
			log.Fatalf("cloudinary init error: %v", err)
		}
		images = cloudinary.NewCloudinaryStore(cld)
		log.Println("image store: cloudinary")
	} else {
		local, err := storage.NewLocalStore(cfg.UploadDir)
		if err != nil {
			log.Fatalf("local store init error: %v", err)
		}
		images = local
		log.Println("image store: local dir", cfg.UploadDir)
	}

	visionClient := vision.New(vision.Config{
		ApiKey: cfg.VisionApiKey,
		ApiUrl: cfg.VisionApiUrl,
		Model:  cfg.VisionModel,
	})

	// ---------- Repositories ----------
	assetRepo := repository.NewAssetRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// ---------- Service ----------
	auditSvc := services.NewAssetAuditService(
		assetRepo,
		auditRepo,
		visionClient,
		images,
		kafkaProducer,
	)

	// ---------- Handler ----------
	auditHandler := handlers.NewAuditHandler(auditSvc)
	auditHandler.SetupRoutes(app)

	// ---------- Health ----------
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// ---------- Listen ----------
	addr := cfg.ServerPort
	log.Println("listening on", addr)
	log.Fatal(app.Listen(addr))
}
