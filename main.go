package main

import (
	"github.com/SundayYogurt/asset_audit_service/config"
	"github.com/SundayYogurt/asset_audit_service/internal/api"
)

func main() {
	cfg := config.LoadConfig()
	api.StartServer(cfg)
}
