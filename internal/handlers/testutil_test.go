package handlers

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/borrowd/backend/internal/database"
	"github.com/borrowd/backend/internal/middleware"
	"github.com/borrowd/backend/internal/models"
	"github.com/borrowd/backend/internal/services"
	"github.com/borrowd/backend/pkg/logger"
	"github.com/borrowd/backend/pkg/utils"
	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		gosqlite.MustRegisterScalarFunction("NOW", 0, func(ctx *gosqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			return time.Now().UTC(), nil
		})
		logger.Init()
		utils.ConfigureJWT("test-secret", 24)
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

	visibilityService := services.NewVisibilityService(db)
	notificationService := services.NewNotificationService(db)
	lendingService := services.NewLendingService(db, visibilityService, notificationService)

	authHandler := NewAuthHandler(db)
	usersHandler := NewUsersHandler(db)
	groupsHandler := NewGroupsHandler(db)
	itemsHandler := NewItemsHandler(db, nil, visibilityService)
	transactionsHandler := NewTransactionsHandler(db, lendingService)
	notificationsHandler := NewNotificationsHandler(db, notificationService)
	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 25 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)
	authRoutes.Put("/me", authMiddleware.RequireAuth, authHandler.UpdateMe)
	authRoutes.Put("/password", authMiddleware.RequireAuth, authHandler.ChangePassword)

	api.Get("/users/search", authMiddleware.RequireAuth, usersHandler.Search)

	userRoutes := api.Group("/users", authMiddleware.RequireAuth, middleware.AdminOnly)
	userRoutes.Get("/", usersHandler.List)
	userRoutes.Get("/:id", usersHandler.Get)
	userRoutes.Put("/:id", usersHandler.Update)
	userRoutes.Delete("/:id", usersHandler.Delete)

	groupRoutes := api.Group("/groups", authMiddleware.RequireAuth)
	groupRoutes.Post("/", groupsHandler.Create)
	groupRoutes.Get("/", groupsHandler.List)
	groupRoutes.Get("/:id", groupsHandler.Get)
	groupRoutes.Put("/:id", groupsHandler.Update)
	groupRoutes.Delete("/:id", groupsHandler.Delete)
	groupRoutes.Post("/:id/join", groupsHandler.Join)
	groupRoutes.Post("/:id/members", groupsHandler.AddMember)
	groupRoutes.Delete("/:id/members/:userId", groupsHandler.RemoveMember)
	groupRoutes.Put("/:id/members/:userId", groupsHandler.UpdateMember)
	groupRoutes.Post("/:id/members/:userId/approve", groupsHandler.ApproveMember)
	groupRoutes.Post("/:id/items", groupsHandler.LinkItem)
	groupRoutes.Delete("/:id/items/:itemId", groupsHandler.UnlinkItem)

	api.Get("/categories", authMiddleware.RequireAuth, itemsHandler.ListCategories)

	itemRoutes := api.Group("/items", authMiddleware.RequireAuth)
	itemRoutes.Post("/", itemsHandler.Create)
	itemRoutes.Get("/", itemsHandler.List)
	itemRoutes.Post("/:id/photos", itemsHandler.UploadPhoto)
	itemRoutes.Get("/:id/photos/:photoId/url", itemsHandler.PhotoURL)
	itemRoutes.Delete("/:id/photos/:photoId", itemsHandler.DeletePhoto)
	itemRoutes.Post("/:id/request", transactionsHandler.Request)
	itemRoutes.Post("/:id/give", transactionsHandler.Give)
	itemRoutes.Get("/:id", itemsHandler.Get)
	itemRoutes.Put("/:id", itemsHandler.Update)
	itemRoutes.Delete("/:id", itemsHandler.Delete)

	transactionRoutes := api.Group("/transactions", authMiddleware.RequireAuth)
	transactionRoutes.Get("/", transactionsHandler.List)
	transactionRoutes.Get("/:id", transactionsHandler.Get)
	transactionRoutes.Post("/:id/complete", transactionsHandler.Complete)
	transactionRoutes.Post("/:id/review", transactionsHandler.Review)
	transactionRoutes.Delete("/:id", transactionsHandler.Cancel)

	notificationRoutes := api.Group("/notifications", authMiddleware.RequireAuth)
	notificationRoutes.Get("/", notificationsHandler.List)
	notificationRoutes.Get("/pending-count", notificationsHandler.PendingCount)
	notificationRoutes.Put("/:id/status", middleware.AdminOnly, notificationsHandler.UpdateStatus)

	return &testEnv{app: app, db: db}
}

func createTestUser(t *testing.T, db *gorm.DB, email, password string, role models.UserRole) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

// createTestGroup makes a group with the owner enrolled at HIGH trust
// as moderator, the same shape the create endpoint produces.
func createTestGroup(t *testing.T, db *gorm.DB, owner *models.User, disposition models.SharingDisposition) *models.CommunityGroup {
	t.Helper()

	group := &models.CommunityGroup{
		Name:               "Neighborhood",
		SharingDisposition: disposition,
		OwnerID:            owner.ID,
	}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("failed creating test group: %v", err)
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

func addTestMembership(t *testing.T, db *gorm.DB, user *models.User, group *models.CommunityGroup, trust models.TrustLevel) *models.GroupMembership {
	t.Helper()

	membership := &models.GroupMembership{
		UserID:     user.ID,
		GroupID:    group.ID,
		TrustLevel: trust,
		Status:     models.MembershipStatusActive,
	}
	if err := db.Create(membership).Error; err != nil {
		t.Fatalf("failed adding test membership: %v", err)
	}
	return membership
}

func createTestItem(t *testing.T, db *gorm.DB, owner *models.User, name string, trust models.TrustLevel) *models.Item {
	t.Helper()

	category := &models.ItemCategory{}
	if err := db.FirstOrCreate(category, models.ItemCategory{Name: "Tools"}).Error; err != nil {
		t.Fatalf("failed creating test category: %v", err)
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
		t.Fatalf("failed creating test item: %v", err)
	}
	return item
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}

func dataMap(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object in response, got %+v", body)
	}
	return data
}
