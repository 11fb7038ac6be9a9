package database

import (
	"fmt"
	"os"

	"canteen-bot/logger"
	logModel "canteen-bot/models/log"
	menuModel "canteen-bot/models/menu"
	orderModel "canteen-bot/models/order"
	sessionModel "canteen-bot/models/session"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// InitDB initializes the database connection with auto migration and indexing
func InitDB() (*gorm.DB, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logger.Error("Error loading .env file", err)
	}

	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	database := os.Getenv("DB_DATABASE")
	user := os.Getenv("DB_USERNAME")
	password := os.Getenv("DB_PASSWORD")
	sslmode := os.Getenv("DB_SSLMODE")
	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, database, sslmode)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return nil, err
	}
	logger.Success("Successfully connected to the database")

	if err := Migrate(DB); err != nil {
		logger.Error("Failed to run migrations", err)
		return nil, err
	}
	logger.Success("All migrations completed successfully")

	if err := createIndexes(DB); err != nil {
		logger.Error("Failed to create indexes", err)
		return nil, err
	}
	logger.Success("All indexes created successfully")

	return DB, nil
}

// Migrate runs the schema migration in dependency order. It is exported so
// the test suites can run the same schema against their own database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&menuModel.Item{},
		&sessionModel.Session{},
		&orderModel.Order{},
		&orderModel.StatusEvent{},
		&orderModel.DailyCounter{},
		&logModel.Log{},
	)
}

// createIndexes adds the indexes AutoMigrate cannot express. The expression
// index on lower(name) backs the case-insensitive menu upsert; it is
// Postgres syntax and skipped elsewhere.
func createIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}

	statements := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_menu_items_lower_name ON menu_items (lower(name))",
		"CREATE INDEX IF NOT EXISTS idx_orders_customer_status ON orders (customer_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_payment_link_ref ON orders (payment_link_ref)",
		"CREATE INDEX IF NOT EXISTS idx_order_status_events_order_id ON order_status_events (order_id)",
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
