package handlers

import (
	"errors"
	"strings"

	"github.com/borrowd/backend/internal/services"
	"github.com/borrowd/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

// domainError maps service sentinel errors onto HTTP responses; any
// other error falls through to the given 500 message.
func domainError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return utils.Error(c, fiber.StatusNotFound, "not found")
	case errors.Is(err, services.ErrVisibilityDenied):
		return utils.Error(c, fiber.StatusForbidden, "item access denied")
	case errors.Is(err, services.ErrNotParticipant):
		return utils.Error(c, fiber.StatusForbidden, "not a party to this transaction")
	case errors.Is(err, services.ErrUnavailableItem):
		return utils.Error(c, fiber.StatusConflict, "item is not available")
	case errors.Is(err, services.ErrOwnItem):
		return utils.Error(c, fiber.StatusConflict, "cannot borrow your own item")
	case errors.Is(err, services.ErrInvalidStateTransition):
		return utils.Error(c, fiber.StatusConflict, "invalid transaction state")
	case errors.Is(err, services.ErrDuplicateMembership):
		return utils.Error(c, fiber.StatusConflict, "user is already a member")
	case errors.Is(err, services.ErrDuplicateReview):
		return utils.Error(c, fiber.StatusConflict, "transaction already reviewed")
	default:
		return utils.Error(c, fiber.StatusInternalServerError, fallback)
	}
}
