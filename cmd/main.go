package main

import (
	"io"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"giftexchange/internal/config"
	"giftexchange/internal/exchange"
	"giftexchange/internal/handlers"
	"giftexchange/internal/storage"
	"giftexchange/internal/suggest"
)

func main() {
	// 1. Load configuration from the environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize logging
	defer logger.Init("giftexchange", true, false, io.Discard).Close()

	// 3. Open the snapshot store
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open snapshot store: %v", err)
	}
	defer store.Close()

	// 4. Initialize the exchange service and restore the persisted session
	service := exchange.NewService(store, cfg.RevealDwell, nil)
	snap, err := store.Load()
	if err != nil {
		logger.Warningf("Snapshot load failed, starting from an empty session: %v", err)
	}
	service.Restore(snap)

	// 5. Initialize the suggestion client (fallback-only when unconfigured)
	suggester := suggest.NewClient(cfg.SuggestAPIKey, cfg.SuggestModel)

	// 6. Initialize the HTTP handler
	httpHandler := handlers.NewHTTPHandler(service, suggester, cfg.AdminPIN, cfg.EventDate)

	// 7. Set up the Gin router and register routes
	r := gin.Default()
	httpHandler.RegisterRoutes(r)

	// 8. Run the server
	logger.Infof("Server starting on %s", cfg.Addr)
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
