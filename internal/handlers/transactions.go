package handlers

import (
	"time"

	"github.com/borrowd/backend/internal/middleware"
	"github.com/borrowd/backend/internal/models"
	"github.com/borrowd/backend/internal/services"
	"github.com/borrowd/backend/pkg/logger"
	"github.com/borrowd/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionsHandler struct {
	DB      *gorm.DB
	Lending *services.LendingService
}

func NewTransactionsHandler(db *gorm.DB, lending *services.LendingService) *TransactionsHandler {
	return &TransactionsHandler{DB: db, Lending: lending}
}

type requestLendRequest struct {
	ExpectedAt time.Time `json:"expectedAt"`
	SubLend    bool      `json:"subLend"`
}

func (h *TransactionsHandler) Request(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	itemID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	var req requestLendRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.ExpectedAt.IsZero() || req.ExpectedAt.Before(time.Now()) {
		return utils.Error(c, fiber.StatusBadRequest, "expectedAt must be in the future")
	}

	lend, err := h.Lending.RequestLend(c.Context(), currentUser.ID, itemID, req.ExpectedAt, req.SubLend)
	if err != nil {
		return domainError(c, err, "failed creating borrow request")
	}

	logger.InfoWithUser(currentUser.ID.String(), "borrow_requested", map[string]interface{}{
		"transaction_id": lend.ID.String(),
		"item_id":        itemID.String(),
		"type":           string(lend.Type),
	})

	return utils.Success(c, fiber.StatusCreated, lend)
}

type giveRequest struct {
	ToUserID   uuid.UUID `json:"toUserID"`
	ExpectedAt time.Time `json:"expectedAt"`
}

func (h *TransactionsHandler) Give(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	itemID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	var req giveRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.ToUserID == uuid.Nil {
		return utils.Error(c, fiber.StatusBadRequest, "toUserID is required")
	}
	if req.ToUserID == currentUser.ID {
		return utils.Error(c, fiber.StatusBadRequest, "cannot give an item to yourself")
	}

	expectedAt := req.ExpectedAt
	if expectedAt.IsZero() {
		expectedAt = time.Now()
	}

	var recipient models.User
	if err := h.DB.First(&recipient, "id = ?", req.ToUserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "recipient not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading recipient")
	}

	give, err := h.Lending.Give(c.Context(), currentUser.ID, itemID, req.ToUserID, expectedAt)
	if err != nil {
		return domainError(c, err, "failed creating gift")
	}

	logger.InfoWithUser(currentUser.ID.String(), "gift_created", map[string]interface{}{
		"transaction_id": give.ID.String(),
		"item_id":        itemID.String(),
		"to_user_id":     req.ToUserID.String(),
	})

	return utils.Success(c, fiber.StatusCreated, give)
}

// List returns the caller's transactions, optionally filtered by
// role=lender|borrower or status.
func (h *TransactionsHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	p := utils.ParsePagination(c)

	query := h.DB.Model(&models.Transaction{})
	switch c.Query("role") {
	case "lender":
		query = query.Where("from_user_id = ?", currentUser.ID)
	case "borrower":
		query = query.Where("to_user_id = ?", currentUser.ID)
	default:
		query = query.Where("from_user_id = ? OR to_user_id = ?", currentUser.ID, currentUser.ID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting transactions")
	}

	var transactions []models.Transaction
	if err := utils.ApplyPagination(query.Preload("Item").Preload("FromUser").Preload("ToUser").Order("created_at DESC"), p).
		Find(&transactions).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing transactions")
	}

	return utils.Paginated(c, transactions, p.Page, p.Limit, total)
}

func (h *TransactionsHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	transactionID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid transaction id")
	}

	var txn models.Transaction
	if err := h.DB.Preload("Item").Preload("FromUser").Preload("ToUser").First(&txn, "id = ?", transactionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "transaction not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading transaction")
	}

	if !txn.Involves(currentUser.ID) {
		return utils.Error(c, fiber.StatusForbidden, "not a party to this transaction")
	}

	return utils.Success(c, fiber.StatusOK, txn)
}

func (h *TransactionsHandler) Complete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	transactionID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid transaction id")
	}

	txn, err := h.Lending.Complete(c.Context(), currentUser.ID, transactionID)
	if err != nil {
		return domainError(c, err, "failed completing transaction")
	}

	logger.InfoWithUser(currentUser.ID.String(), "transaction_completed", map[string]interface{}{
		"transaction_id": txn.ID.String(),
		"type":           string(txn.Type),
	})

	return utils.Success(c, fiber.StatusOK, txn)
}

func (h *TransactionsHandler) Cancel(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	transactionID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid transaction id")
	}

	txn, err := h.Lending.Cancel(c.Context(), currentUser.ID, transactionID)
	if err != nil {
		return domainError(c, err, "failed canceling transaction")
	}

	logger.InfoWithUser(currentUser.ID.String(), "transaction_canceled", map[string]interface{}{
		"transaction_id": txn.ID.String(),
		"type":           string(txn.Type),
	})

	return utils.Success(c, fiber.StatusOK, txn)
}

type reviewRequest struct {
	ItemCondition int     `json:"itemCondition" validate:"required,min=1,max=5"`
	Timeliness    int     `json:"timeliness" validate:"required,min=1,max=5"`
	Cordiality    int     `json:"cordiality" validate:"required,min=1,max=5"`
	Comment       *string `json:"comment" validate:"omitempty,max=500"`
}

func (h *TransactionsHandler) Review(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	transactionID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid transaction id")
	}

	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "ratings must be between 1 and 5")
	}

	review, err := h.Lending.SubmitReview(c.Context(), currentUser.ID, transactionID, services.ReviewRatings{
		ItemCondition: req.ItemCondition,
		Timeliness:    req.Timeliness,
		Cordiality:    req.Cordiality,
	}, req.Comment)
	if err != nil {
		return domainError(c, err, "failed submitting review")
	}

	return utils.Success(c, fiber.StatusCreated, review)
}
