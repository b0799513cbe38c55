package models

import "github.com/google/uuid"

// TransactionReview rates a completed loan. At most one review exists
// per transaction and it always attaches to the lend leg of a pair.
type TransactionReview struct {
	BaseModel
	TransactionID uuid.UUID   `json:"transactionID" gorm:"type:uuid;not null;uniqueIndex"`
	ReviewerID    uuid.UUID   `json:"reviewerID" gorm:"type:uuid;not null;index"`
	ItemCondition int         `json:"itemCondition" gorm:"not null"`
	Timeliness    int         `json:"timeliness" gorm:"not null"`
	Cordiality    int         `json:"cordiality" gorm:"not null"`
	Comment       *string     `json:"comment,omitempty" gorm:"type:varchar(500)"`
	Transaction   Transaction `json:"transaction,omitempty" gorm:"foreignKey:TransactionID;references:ID"`
	Reviewer      User        `json:"reviewer,omitempty" gorm:"foreignKey:ReviewerID;references:ID"`
}

func (TransactionReview) TableName() string {
	return "transaction_reviews"
}
