package models

import "github.com/google/uuid"

type ItemCategory struct {
	BaseModel
	Name        string  `json:"name" gorm:"type:varchar(50);uniqueIndex;not null"`
	Description *string `json:"description,omitempty" gorm:"type:varchar(100)"`
}

func (ItemCategory) TableName() string {
	return "item_categories"
}

type Item struct {
	BaseModel
	Name        string       `json:"name" gorm:"type:varchar(100);not null"`
	Description string       `json:"description" gorm:"type:varchar(500);not null"`
	OwnerID     uuid.UUID    `json:"ownerID" gorm:"type:uuid;not null;index"`
	CategoryID  uuid.UUID    `json:"categoryID" gorm:"type:uuid;not null;index"`
	TrustLevel  TrustLevel   `json:"trustLevel" gorm:"type:varchar(10);not null;default:'HIGH'"`
	Available   bool         `json:"available" gorm:"not null;default:true;index"`
	Owner       User         `json:"owner,omitempty" gorm:"foreignKey:OwnerID;references:ID"`
	Category    ItemCategory `json:"category,omitempty" gorm:"foreignKey:CategoryID;references:ID"`
	Photos      []ItemPhoto  `json:"photos,omitempty" gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
}

// ItemPhoto holds object-storage metadata only; the binary lives in
// the photo bucket under ObjectKey.
type ItemPhoto struct {
	BaseModel
	ItemID      uuid.UUID `json:"itemID" gorm:"type:uuid;not null;index"`
	ObjectKey   string    `json:"objectKey" gorm:"type:text;not null"`
	Size        int64     `json:"size" gorm:"not null;default:0"`
	ContentType string    `json:"contentType" gorm:"type:varchar(255);not null"`
}

func (ItemPhoto) TableName() string {
	return "item_photos"
}
