package main

import (
	"context"
	"log"
	"os"
	"time"

	"pharmacy-assistant-be/internal/entity"
	"pharmacy-assistant-be/internal/repository/specification"
	"pharmacy-assistant-be/internal/repository/unitofwork"
	"pharmacy-assistant-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
)

type seedProduct struct {
	Name, Brand, Generic, Form, Strength, Category string
	Stock                                          int
	Price                                          float64
	ExpiresInMonths                                int
}

var catalog = []seedProduct{
	{"Biogesic", "Biogesic", "Paracetamol", "tablet", "500mg", "Analgesics", 120, 4.5, 24},
	{"Calpol Suspension", "Calpol", "Paracetamol", "suspension", "250mg/5ml", "Analgesics", 30, 185, 18},
	{"Advil", "Advil", "Ibuprofen", "capsule", "200mg", "Analgesics", 80, 9.75, 24},
	{"Aspirin 80", "Aspilets", "Aspirin", "tablet", "80mg", "Analgesics", 60, 3.2, 12},
	{"Cetirizine 10", "Allerta", "Cetirizine", "tablet", "10mg", "Antihistamines", 90, 6, 24},
	{"Amoxil", "Amoxil", "Amoxicillin", "capsule", "500mg", "Antibiotics", 40, 12, 18},
	{"Himox", "Himox", "Amoxicillin", "capsule", "500mg", "Antibiotics", 25, 9, 18},
	{"Coumadin", "Coumadin", "Warfarin", "tablet", "5mg", "Anticoagulants", 15, 22, 12},
	{"Losartan 50", "Cozaar", "Losartan", "tablet", "50mg", "Antihypertensives", 70, 14, 24},
	{"Loperamide 2", "Imodium", "Loperamide", "capsule", "2mg", "Gastrointestinal", 50, 7.5, 24},
	{"Moisturizing Lotion", "", "", "lotion", "", "Skin Care", 35, 250, 36},
	{"Cough Syrup (expired batch)", "Robitussin", "Guaifenesin", "syrup", "100mg/5ml", "Respiratory", 10, 160, -1},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		log.Fatalf("Error: Failed to begin transaction: %v", err)
	}
	defer uow.Rollback()

	log.Println("Seeding inventory...")
	bar := progressbar.Default(int64(len(catalog)), "products")
	created := 0
	for _, p := range catalog {
		existing, err := uow.ProductRepository().Count(ctx, specification.ByExactName{Name: p.Name})
		if err != nil {
			log.Fatalf("Error: Failed to check product %q: %v", p.Name, err)
		}
		if existing > 0 {
			_ = bar.Add(1)
			continue
		}

		category, err := uow.CategoryRepository().FirstOrCreate(ctx, p.Category)
		if err != nil {
			log.Fatalf("Error: Failed to create category %q: %v", p.Category, err)
		}

		expiry := time.Now().AddDate(0, p.ExpiresInMonths, 0)
		product := entity.Product{
			Id:           uuid.New(),
			Name:         p.Name,
			BrandName:    p.Brand,
			GenericName:  p.Generic,
			DosageForm:   p.Form,
			Strength:     p.Strength,
			CategoryId:   &category.Id,
			CategoryName: category.Name,
			Stock:        p.Stock,
			Price:        p.Price,
			ExpiryDate:   &expiry,
			CreatedAt:    time.Now(),
		}
		if err := uow.ProductRepository().Create(ctx, &product); err != nil {
			log.Fatalf("Error: Failed to create product %q: %v", p.Name, err)
		}
		created++
		_ = bar.Add(1)
	}

	if err := uow.Commit(); err != nil {
		log.Fatalf("Error: Failed to commit: %v", err)
	}
	log.Printf("Inventory seeding completed: %d new products", created)
}
