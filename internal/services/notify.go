package services

import (
	"context"

	"github.com/borrowd/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationService creates notification records. Delivery is an
// external collaborator: rows always start PENDING and the delivery
// worker moves them to SENT or FAILED afterwards.
type NotificationService struct {
	DB *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{DB: db}
}

// NotificationRefs carries the optional entities a notification
// points back at.
type NotificationRefs struct {
	TransactionID *uuid.UUID
	ItemID        *uuid.UUID
	GroupID       *uuid.UUID
}

// Emit writes one PENDING notification row. When tx is non-nil the
// row joins the caller's transaction so it commits or rolls back with
// the domain mutation that triggered it.
func (s *NotificationService) Emit(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
	notificationType models.NotificationType,
	message string,
	refs NotificationRefs,
) (*models.Notification, error) {
	db := tx
	if db == nil {
		db = s.DB
	}

	notification := models.Notification{
		UserID:        userID,
		Type:          notificationType,
		Status:        models.NotificationStatusPending,
		Message:       message,
		TransactionID: refs.TransactionID,
		ItemID:        refs.ItemID,
		GroupID:       refs.GroupID,
	}

	if err := db.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

// MarkDelivered records the delivery collaborator's outcome for a row.
// errorMessage is only persisted for FAILED outcomes.
func (s *NotificationService) MarkDelivered(
	ctx context.Context,
	notificationID uuid.UUID,
	status models.NotificationStatus,
	errorMessage *string,
) (*models.Notification, error) {
	var notification models.Notification
	if err := s.DB.WithContext(ctx).First(&notification, "id = ?", notificationID).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"status": status}
	if status == models.NotificationStatusFailed && errorMessage != nil {
		updates["error_message"] = *errorMessage
	}

	if err := s.DB.WithContext(ctx).Model(&notification).Updates(updates).Error; err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).First(&notification, "id = ?", notificationID).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}
