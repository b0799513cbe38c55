package services

import (
	"database/sql/driver"
	"sync"
	"testing"
	"time"

	"github.com/borrowd/backend/internal/database"
	"github.com/borrowd/backend/internal/models"
	"github.com/borrowd/backend/pkg/logger"
	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

var testSetupOnce sync.Once

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testSetupOnce.Do(func() {
		gosqlite.MustRegisterScalarFunction("NOW", 0, func(ctx *gosqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			return time.Now().UTC(), nil
		})
		logger.Init()
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed migrating schema: %v", err)
	}

	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{
		Email:        email,
		PasswordHash: "irrelevant",
		FirstName:    "Test",
		LastName:     "User",
		Role:         models.UserRoleUser,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating user %s: %v", email, err)
	}
	return user
}

// createGroup makes a group with the owner enrolled at HIGH trust as
// moderator, mirroring what the create-group endpoint does.
func createGroup(t *testing.T, db *gorm.DB, owner *models.User, disposition models.SharingDisposition) *models.CommunityGroup {
	t.Helper()

	group := &models.CommunityGroup{
		Name:               "Test Group",
		SharingDisposition: disposition,
		OwnerID:            owner.ID,
	}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("failed creating group: %v", err)
	}

	membership := &models.GroupMembership{
		UserID:      owner.ID,
		GroupID:     group.ID,
		TrustLevel:  models.TrustLevelHigh,
		IsModerator: true,
		Status:      models.MembershipStatusActive,
	}
	if err := db.Create(membership).Error; err != nil {
		t.Fatalf("failed enrolling group owner: %v", err)
	}

	return group
}

func addMembership(t *testing.T, db *gorm.DB, user *models.User, group *models.CommunityGroup, trust models.TrustLevel) *models.GroupMembership {
	t.Helper()

	membership := &models.GroupMembership{
		UserID:     user.ID,
		GroupID:    group.ID,
		TrustLevel: trust,
		Status:     models.MembershipStatusActive,
	}
	if err := db.Create(membership).Error; err != nil {
		t.Fatalf("failed adding membership: %v", err)
	}
	return membership
}

func setMembershipStatus(t *testing.T, db *gorm.DB, membership *models.GroupMembership, status models.MembershipStatus) {
	t.Helper()

	if err := db.Model(membership).Update("status", status).Error; err != nil {
		t.Fatalf("failed setting membership status: %v", err)
	}
}

func setDispositionOverride(t *testing.T, db *gorm.DB, membership *models.GroupMembership, disposition models.SharingDisposition) {
	t.Helper()

	if err := db.Model(membership).Update("disposition_override", disposition).Error; err != nil {
		t.Fatalf("failed setting disposition override: %v", err)
	}
}

func createItem(t *testing.T, db *gorm.DB, owner *models.User, name string, trust models.TrustLevel) *models.Item {
	t.Helper()

	category := &models.ItemCategory{}
	if err := db.FirstOrCreate(category, models.ItemCategory{Name: "Tools"}).Error; err != nil {
		t.Fatalf("failed creating category: %v", err)
	}

	item := &models.Item{
		Name:        name,
		Description: "a test item",
		OwnerID:     owner.ID,
		CategoryID:  category.ID,
		TrustLevel:  trust,
		Available:   true,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed creating item %s: %v", name, err)
	}
	return item
}

func linkItem(t *testing.T, db *gorm.DB, group *models.CommunityGroup, item *models.Item) {
	t.Helper()

	link := &models.GroupItemLink{GroupID: group.ID, ItemID: item.ID}
	if err := db.Create(link).Error; err != nil {
		t.Fatalf("failed linking item to group: %v", err)
	}
}

func reloadItem(t *testing.T, db *gorm.DB, item *models.Item) *models.Item {
	t.Helper()

	var fresh models.Item
	if err := db.First(&fresh, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("failed reloading item: %v", err)
	}
	return &fresh
}

func reloadTransaction(t *testing.T, db *gorm.DB, txn *models.Transaction) *models.Transaction {
	t.Helper()

	var fresh models.Transaction
	if err := db.First(&fresh, "id = ?", txn.ID).Error; err != nil {
		t.Fatalf("failed reloading transaction: %v", err)
	}
	return &fresh
}

func notificationsFor(t *testing.T, db *gorm.DB, userID interface{}, notificationType models.NotificationType) []models.Notification {
	t.Helper()

	var notifications []models.Notification
	if err := db.Where("user_id = ? AND type = ?", userID, notificationType).Find(&notifications).Error; err != nil {
		t.Fatalf("failed loading notifications: %v", err)
	}
	return notifications
}
