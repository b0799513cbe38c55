package handlers

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/borrowd/backend/internal/middleware"
	"github.com/borrowd/backend/internal/models"
	"github.com/borrowd/backend/internal/services"
	"github.com/borrowd/backend/internal/storage"
	"github.com/borrowd/backend/pkg/logger"
	"github.com/borrowd/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const photoURLExpiry = 15 * time.Minute

type ItemsHandler struct {
	DB         *gorm.DB
	Storage    *storage.MinIOClient
	Visibility *services.VisibilityService
}

func NewItemsHandler(db *gorm.DB, storageClient *storage.MinIOClient, visibility *services.VisibilityService) *ItemsHandler {
	return &ItemsHandler{DB: db, Storage: storageClient, Visibility: visibility}
}

type createItemRequest struct {
	Name        string            `json:"name" validate:"required,max=100"`
	Description string            `json:"description" validate:"required,max=500"`
	CategoryID  uuid.UUID         `json:"categoryID" validate:"required"`
	TrustLevel  models.TrustLevel `json:"trustLevel" validate:"required,oneof=LOW MEDIUM HIGH"`
}

func (h *ItemsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createItemRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid item payload")
	}

	var category models.ItemCategory
	if err := h.DB.First(&category, "id = ?", req.CategoryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusBadRequest, "unknown category")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading category")
	}

	item := models.Item{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     currentUser.ID,
		CategoryID:  req.CategoryID,
		TrustLevel:  req.TrustLevel,
		Available:   true,
	}
	if err := h.DB.Create(&item).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating item")
	}

	logger.InfoWithUser(currentUser.ID.String(), "item_created", map[string]interface{}{
		"item_id":     item.ID.String(),
		"item_name":   item.Name,
		"trust_level": string(item.TrustLevel),
	})

	return utils.Success(c, fiber.StatusCreated, item)
}

// List returns what the viewer may browse: their own items plus every
// item reachable through a qualifying group.
func (h *ItemsHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	items, err := h.Visibility.VisibleItems(c.Context(), currentUser.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing items")
	}

	return utils.Success(c, fiber.StatusOK, items)
}

func (h *ItemsHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	itemID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	visible, err := h.Visibility.CanView(c.Context(), currentUser.ID, itemID)
	if err != nil {
		return domainError(c, err, "failed checking visibility")
	}
	if !visible {
		return domainError(c, services.ErrVisibilityDenied, "failed checking visibility")
	}

	var item models.Item
	if err := h.DB.Preload("Category").Preload("Photos").Preload("Owner").First(&item, "id = ?", itemID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading item")
	}

	return utils.Success(c, fiber.StatusOK, item)
}

type updateItemRequest struct {
	Name        *string            `json:"name"`
	Description *string            `json:"description"`
	CategoryID  *uuid.UUID         `json:"categoryID"`
	TrustLevel  *models.TrustLevel `json:"trustLevel"`
}

func (h *ItemsHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	item, resp := h.ownedItem(c, currentUser.ID)
	if item == nil {
		return resp
	}

	var req updateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		if *req.Name == "" {
			return utils.Error(c, fiber.StatusBadRequest, "name cannot be empty")
		}
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.CategoryID != nil {
		var category models.ItemCategory
		if err := h.DB.First(&category, "id = ?", *req.CategoryID).Error; err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "unknown category")
		}
		updates["category_id"] = *req.CategoryID
	}
	if req.TrustLevel != nil {
		if !req.TrustLevel.Valid() {
			return utils.Error(c, fiber.StatusBadRequest, "invalid trust level")
		}
		updates["trust_level"] = *req.TrustLevel
	}

	if len(updates) > 0 {
		if err := h.DB.Model(item).Updates(updates).Error; err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed updating item")
		}
	}

	return utils.Success(c, fiber.StatusOK, item)
}

func (h *ItemsHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	item, resp := h.ownedItem(c, currentUser.ID)
	if item == nil {
		return resp
	}

	var pending int64
	if err := h.DB.Model(&models.Transaction{}).
		Where("item_id = ? AND status = ?", item.ID, models.TransactionStatusPending).
		Count(&pending).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking transactions")
	}
	if pending > 0 {
		return utils.Error(c, fiber.StatusConflict, "item has pending transactions")
	}

	var photos []models.ItemPhoto
	if err := h.DB.Find(&photos, "item_id = ?", item.ID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading photos")
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.ItemPhoto{}, "item_id = ?", item.ID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.GroupItemLink{}, "item_id = ?", item.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Item{}, "id = ?", item.ID).Error
	})
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting item")
	}

	// Row deletion already committed; storage cleanup is best effort.
	if h.Storage != nil {
		for _, photo := range photos {
			_ = h.Storage.Delete(c.Context(), photo.ObjectKey)
		}
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "item deleted"})
}

func (h *ItemsHandler) UploadPhoto(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	item, resp := h.ownedItem(c, currentUser.ID)
	if item == nil {
		return resp
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "photo file is required")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType != "image/jpeg" && contentType != "image/png" && contentType != "image/webp" {
		return utils.Error(c, fiber.StatusBadRequest, "unsupported photo type")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed reading upload")
	}
	defer file.Close()

	objectKey := fmt.Sprintf("items/%s/%s%s", item.ID, uuid.New(), filepath.Ext(fileHeader.Filename))
	if h.Storage != nil {
		if err := h.Storage.Upload(c.Context(), objectKey, file, fileHeader.Size, contentType); err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed storing photo")
		}
	}

	photo := models.ItemPhoto{
		ItemID:      item.ID,
		ObjectKey:   objectKey,
		Size:        fileHeader.Size,
		ContentType: contentType,
	}
	if err := h.DB.Create(&photo).Error; err != nil {
		if h.Storage != nil {
			_ = h.Storage.Delete(c.Context(), objectKey)
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed saving photo")
	}

	return utils.Success(c, fiber.StatusCreated, photo)
}

func (h *ItemsHandler) PhotoURL(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	itemID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid item id")
	}
	photoID, err := parseUUID(c.Params("photoId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid photo id")
	}

	visible, err := h.Visibility.CanView(c.Context(), currentUser.ID, itemID)
	if err != nil {
		return domainError(c, err, "failed checking visibility")
	}
	if !visible {
		return domainError(c, services.ErrVisibilityDenied, "failed checking visibility")
	}

	var photo models.ItemPhoto
	if err := h.DB.First(&photo, "id = ? AND item_id = ?", photoID, itemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "photo not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading photo")
	}

	if h.Storage == nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "photo storage unavailable")
	}

	url, err := h.Storage.PresignedGetURL(c.Context(), photo.ObjectKey, photoURLExpiry)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating photo url")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"url": url})
}

func (h *ItemsHandler) DeletePhoto(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	item, resp := h.ownedItem(c, currentUser.ID)
	if item == nil {
		return resp
	}

	photoID, err := parseUUID(c.Params("photoId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid photo id")
	}

	var photo models.ItemPhoto
	if err := h.DB.First(&photo, "id = ? AND item_id = ?", photoID, item.ID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "photo not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading photo")
	}

	if err := h.DB.Delete(&models.ItemPhoto{}, "id = ?", photo.ID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting photo")
	}
	if h.Storage != nil {
		_ = h.Storage.Delete(c.Context(), photo.ObjectKey)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "photo deleted"})
}

func (h *ItemsHandler) ListCategories(c *fiber.Ctx) error {
	var categories []models.ItemCategory
	if err := h.DB.Order("name ASC").Find(&categories).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing categories")
	}
	return utils.Success(c, fiber.StatusOK, categories)
}

// ownedItem loads the :id item and enforces ownership. On failure it
// writes the response itself and returns a nil item.
func (h *ItemsHandler) ownedItem(c *fiber.Ctx, ownerID uuid.UUID) (*models.Item, error) {
	itemID, err := parseUUID(c.Params("id"))
	if err != nil {
		return nil, utils.Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	var item models.Item
	if err := h.DB.First(&item, "id = ?", itemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.Error(c, fiber.StatusNotFound, "item not found")
		}
		return nil, utils.Error(c, fiber.StatusInternalServerError, "failed loading item")
	}

	if item.OwnerID != ownerID {
		return nil, utils.Error(c, fiber.StatusForbidden, "only the item owner can do this")
	}

	return &item, nil
}
