package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/borrowd/backend/internal/config"
	"github.com/borrowd/backend/internal/database"
	"github.com/borrowd/backend/internal/handlers"
	"github.com/borrowd/backend/internal/middleware"
	"github.com/borrowd/backend/internal/services"
	"github.com/borrowd/backend/internal/storage"
	"github.com/borrowd/backend/pkg/logger"
	"github.com/borrowd/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	storageClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("minio initialization failed: %v", err)
	}
	if err := storageClient.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("failed ensuring minio bucket: %v", err)
	}

	visibilityService := services.NewVisibilityService(db)
	notificationService := services.NewNotificationService(db)
	lendingService := services.NewLendingService(db, visibilityService, notificationService)

	authHandler := handlers.NewAuthHandler(db)
	usersHandler := handlers.NewUsersHandler(db)
	groupsHandler := handlers.NewGroupsHandler(db)
	itemsHandler := handlers.NewItemsHandler(db, storageClient, visibilityService)
	transactionsHandler := handlers.NewTransactionsHandler(db, lendingService)
	notificationsHandler := handlers.NewNotificationsHandler(db, notificationService)

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

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
