package main

import (
	"log"
	"os"

	"pharmacy-assistant-be/internal/model"
	"pharmacy-assistant-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Setting up extensions...")
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS pg_trgm;`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	log.Println("Step 2: Running AutoMigrate...")
	if err := db.AutoMigrate(&model.Category{}, &model.Product{}); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// trigram indexes keep the ILIKE inventory search off sequential scans
	log.Println("Step 3: Creating search indexes...")
	indexSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_products_name_trgm ON products USING gin (name gin_trgm_ops);`,
		`CREATE INDEX IF NOT EXISTS idx_products_brand_name_trgm ON products USING gin (brand_name gin_trgm_ops);`,
		`CREATE INDEX IF NOT EXISTS idx_products_generic_name_trgm ON products USING gin (generic_name gin_trgm_ops);`,
	}
	for _, sql := range indexSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to create index: %v", err)
		}
	}

	log.Println("Migration completed")
}
