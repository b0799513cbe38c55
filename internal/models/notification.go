package models

import "github.com/google/uuid"

type NotificationType string

const (
	NotificationTypeBorrowRequest   NotificationType = "BORROW_REQUEST"
	NotificationTypeLendCompleted   NotificationType = "LEND_COMPLETED"
	NotificationTypeReturnCompleted NotificationType = "RETURN_COMPLETED"
	NotificationTypeReviewPosted    NotificationType = "REVIEW_POSTED"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "PENDING"
	NotificationStatusSent    NotificationStatus = "SENT"
	NotificationStatusFailed  NotificationStatus = "FAILED"
)

// Notification is a pending delivery record. Rows are created by the
// domain core in PENDING status; an external delivery worker moves
// them to SENT or FAILED.
type Notification struct {
	BaseModel
	UserID        uuid.UUID          `json:"userID" gorm:"type:uuid;not null;index"`
	Type          NotificationType   `json:"type" gorm:"type:varchar(30);not null"`
	Status        NotificationStatus `json:"status" gorm:"type:varchar(10);not null;default:'PENDING';index"`
	Message       string             `json:"message" gorm:"type:text;not null"`
	TransactionID *uuid.UUID         `json:"transactionID,omitempty" gorm:"type:uuid"`
	ItemID        *uuid.UUID         `json:"itemID,omitempty" gorm:"type:uuid"`
	GroupID       *uuid.UUID         `json:"groupID,omitempty" gorm:"type:uuid"`
	ErrorMessage  *string            `json:"errorMessage,omitempty" gorm:"type:text"`
	User          User               `json:"-" gorm:"foreignKey:UserID;references:ID"`
}
