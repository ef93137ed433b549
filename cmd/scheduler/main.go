package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"subshare-be/internal/bootstrap"
	"subshare-be/internal/config"
	"subshare-be/internal/scheduler"
	"subshare-be/pkg/database"
)

// Runs the periodic billing jobs. Several replicas may run; the Redis lease
// lets one of them execute each tick.
func main() {
	cfg := config.Load()

	gormDB, err := database.Open(cfg.Database.Driver, cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if container.ConsumerService != nil {
		if err := container.ConsumerService.Consume(ctx); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}

	s := scheduler.NewScheduler(container.Jobs, cfg.Scheduler, container.Logger)
	if err := s.Register(); err != nil {
		log.Fatalf("Invalid schedule: %v", err)
	}
	s.Start()
	log.Println("Scheduler started")

	<-ctx.Done()
	log.Println("Scheduler stopping, waiting for running jobs...")
	<-s.Stop().Done()
}
