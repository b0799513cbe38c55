package models

import "github.com/google/uuid"

// SharingDisposition controls how a group exposes its members' items.
// OPEN groups share implicitly by per-item trust level; CLOSED groups
// share only items explicitly linked via GroupItemLink.
type SharingDisposition string

const (
	SharingDispositionOpen   SharingDisposition = "OPEN"
	SharingDispositionClosed SharingDisposition = "CLOSED"
)

func (d SharingDisposition) Valid() bool {
	return d == SharingDispositionOpen || d == SharingDispositionClosed
}

type CommunityGroup struct {
	BaseModel
	Name               string             `json:"name" gorm:"type:varchar(100);not null"`
	Description        *string            `json:"description,omitempty" gorm:"type:text"`
	SharingDisposition SharingDisposition `json:"sharingDisposition" gorm:"type:varchar(10);not null;default:'OPEN'"`
	RequiresApproval   bool               `json:"requiresApproval" gorm:"not null;default:false"`
	OwnerID            uuid.UUID          `json:"ownerID" gorm:"type:uuid;not null;index"`
	Owner              User               `json:"owner,omitempty" gorm:"foreignKey:OwnerID;references:ID"`
	Memberships        []GroupMembership  `json:"memberships,omitempty" gorm:"foreignKey:GroupID"`
	ItemLinks          []GroupItemLink    `json:"-" gorm:"foreignKey:GroupID"`
}

func (CommunityGroup) TableName() string {
	return "community_groups"
}
