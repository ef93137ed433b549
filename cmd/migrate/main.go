package main

import (
	"log"
	"os"

	"subshare-be/internal/model"
	"subshare-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}
	driver := os.Getenv("DB_DRIVER")

	// 2. Connect to Database using existing GORM helpers
	db, err := database.Open(driver, dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	// 3. Tables and partial unique indexes
	log.Printf("Running AutoMigrate for %d tables...", len(model.All()))
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	log.Println("Success: Database migration completed.")
}
