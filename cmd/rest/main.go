package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"subshare-be/internal/bootstrap"
	"subshare-be/internal/config"
	"subshare-be/internal/server"
	"subshare-be/internal/tracer"
	"subshare-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	shutdownTracer := tracer.InitTracer(cfg.App.OtelEnabled, cfg.App.OtelEndpoint, "subshare-be")
	defer shutdownTracer(context.Background())

	// 2. Initialize Database
	gormDB, err := database.Open(cfg.Database.Driver, cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Start Background Services
	go container.Hub.Run(ctx)

	if container.ConsumerService != nil {
		if err := container.ConsumerService.Consume(ctx); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	// 6. Run Server
	if err := srv.Run(); err != nil {
		log.Fatal(err)
	}
}
