package models

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeLend    TransactionType = "LEND"
	TransactionTypeSubLend TransactionType = "SUB_LEND"
	TransactionTypeReturn  TransactionType = "RETURN"
	TransactionTypeGive    TransactionType = "GIVE"
)

type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "PENDING"
	TransactionStatusComplete TransactionStatus = "COMPLETE"
	TransactionStatusCanceled TransactionStatus = "CANCELED"
)

// Transaction is one directional movement of an item between two
// users. A LEND or SUB_LEND leg is always created together with a
// RETURN leg holding the same PairID and reversed parties; GIVE rows
// stand alone.
type Transaction struct {
	BaseModel
	ItemID      uuid.UUID         `json:"itemID" gorm:"type:uuid;not null;index"`
	FromUserID  uuid.UUID         `json:"fromUserID" gorm:"type:uuid;not null;index"`
	ToUserID    uuid.UUID         `json:"toUserID" gorm:"type:uuid;not null;index"`
	Type        TransactionType   `json:"type" gorm:"type:varchar(10);not null"`
	Status      TransactionStatus `json:"status" gorm:"type:varchar(10);not null;default:'PENDING';index"`
	PairID      *uuid.UUID        `json:"pairID,omitempty" gorm:"type:uuid;index"`
	ExpectedAt  time.Time         `json:"expectedAt" gorm:"not null"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
	Item        Item              `json:"item,omitempty" gorm:"foreignKey:ItemID;references:ID"`
	FromUser    User              `json:"fromUser,omitempty" gorm:"foreignKey:FromUserID;references:ID"`
	ToUser      User              `json:"toUser,omitempty" gorm:"foreignKey:ToUserID;references:ID"`
}

// IsLendLeg reports whether this row is the outbound leg of a loan,
// the only leg a review may attach to.
func (t *Transaction) IsLendLeg() bool {
	return t.Type == TransactionTypeLend || t.Type == TransactionTypeSubLend
}

// Involves reports whether the given user is one of the two parties.
func (t *Transaction) Involves(userID uuid.UUID) bool {
	return t.FromUserID == userID || t.ToUserID == userID
}
