package database

import (
	"fmt"

	"github.com/borrowd/backend/internal/config"
	"github.com/borrowd/backend/internal/models"
	"github.com/borrowd/backend/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if err := seedCategories(db); err != nil {
		return nil, err
	}

	if err := seedAdminUser(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates the schema. Exported so the test harness can run it
// against an in-memory database.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.CommunityGroup{},
		&models.GroupMembership{},
		&models.ItemCategory{},
		&models.Item{},
		&models.ItemPhoto{},
		&models.GroupItemLink{},
		&models.Transaction{},
		&models.TransactionReview{},
		&models.Notification{},
	); err != nil {
		return err
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}

	// Lend and return legs always carry a pair reference; gifts never do.
	constraint := `
DO $$
BEGIN
  IF NOT EXISTS (
    SELECT 1
    FROM pg_constraint
    WHERE conname = 'transaction_pair_check'
  ) THEN
    ALTER TABLE transactions
    ADD CONSTRAINT transaction_pair_check
    CHECK (
      (type IN ('LEND', 'SUB_LEND', 'RETURN') AND pair_id IS NOT NULL)
      OR
      (type = 'GIVE' AND pair_id IS NULL)
    );
  END IF;
END $$;`

	return db.Exec(constraint).Error
}

var defaultCategories = []models.ItemCategory{
	{Name: "Tools"},
	{Name: "Kitchen"},
	{Name: "Books"},
	{Name: "Electronics"},
	{Name: "Outdoors"},
	{Name: "Games"},
	{Name: "Other"},
}

func seedCategories(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.ItemCategory{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for i := range defaultCategories {
		if err := db.Create(&defaultCategories[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedAdminUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword("admin123")
	if err != nil {
		return err
	}

	admin := models.User{
		Email:        "admin@borrowd.local",
		PasswordHash: hash,
		FirstName:    "System",
		LastName:     "Admin",
		Role:         models.UserRoleAdmin,
	}

	return db.Create(&admin).Error
}
