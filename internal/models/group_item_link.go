package models

import "github.com/google/uuid"

// GroupItemLink explicitly exposes one item to one group. Links are
// only consulted when the effective sharing disposition in play is
// CLOSED; they stay in place, inert, if the group later flips to OPEN.
type GroupItemLink struct {
	BaseModel
	GroupID uuid.UUID      `json:"groupID" gorm:"type:uuid;not null;index;uniqueIndex:idx_group_item"`
	ItemID  uuid.UUID      `json:"itemID" gorm:"type:uuid;not null;index;uniqueIndex:idx_group_item"`
	Group   CommunityGroup `json:"group,omitempty" gorm:"foreignKey:GroupID"`
	Item    Item           `json:"item,omitempty" gorm:"foreignKey:ItemID"`
}
