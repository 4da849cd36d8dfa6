package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"relaydesk/internal/config"
	"relaydesk/internal/domain"
	"relaydesk/internal/repository"
	"relaydesk/pkg/database"
)

const usage = `
Relaydesk - Database CLI Tool

Usage:
  migrate [command] [flags]

Commands:
  up          Run schema migrations
  status      Show database connection status
  seed-dev    Seed with development/test data

Flags:
  -business-name string    Business name for dev seeding (default "Demo Workspace")
  -provider-number string  Provider phone number for dev seeding (default "+15550001111")

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go seed-dev
`

func main() {
	businessName := flag.String("business-name", "Demo Workspace", "Business name for dev seeding")
	providerNumber := flag.String("provider-number", "+15550001111", "Provider phone number for dev seeding")

	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}

	switch command {
	case "up":
		runMigrationsUp(db)
	case "status":
		showStatus(db)
	case "seed-dev":
		runSeedDevelopment(db, *businessName, *providerNumber)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runMigrationsUp(db *gorm.DB) {
	log.Println("🚀 Running migrations UP...")

	if err := repository.InitSchema(db); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	log.Println("✅ Migrations completed successfully!")
}

func showStatus(db *gorm.DB) {
	log.Println("🔍 Checking database status...")

	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	log.Println("✅ Database connection: OK")

	tables := []string{"businesses", "contacts", "conversations", "participants", "messages"}
	for _, table := range tables {
		if !db.Migrator().HasTable(table) {
			log.Printf("❌ Table %-16s does not exist", table)
			continue
		}
		var count int64
		db.Table(table).Count(&count)
		log.Printf("✅ Table %-16s exists (%d rows)", table, count)
	}
}

func runSeedDevelopment(db *gorm.DB, businessName, providerNumber string) {
	log.Println("🌱 Seeding database (development mode)...")

	business := domain.Business{
		ID:                  uuid.New(),
		Name:                businessName,
		ProviderPhoneNumber: &providerNumber,
		CreatedAt:           time.Now().UTC(),
	}
	if err := db.Where("provider_phone_number = ?", providerNumber).
		FirstOrCreate(&business, domain.Business{ProviderPhoneNumber: &providerNumber}).Error; err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	contactPhone := "+15557772222"
	contact := domain.Contact{
		ID:          uuid.New(),
		BusinessID:  business.ID,
		PhoneNumber: contactPhone,
		OptedIn:     true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.Where("business_id = ? AND phone_number = ?", business.ID, contactPhone).
		FirstOrCreate(&contact).Error; err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("📊 Seed Summary:")
	log.Printf("   - Business: %s (ID: %s)", business.Name, business.ID)
	log.Printf("   - Contact:  %s (ID: %s)", contact.PhoneNumber, contact.ID)
	log.Println("✅ Development seeding completed!")
}
