package models

import "github.com/google/uuid"

// MembershipStatus tracks where a membership stands in its lifecycle.
// Only ACTIVE memberships grant access to the group or count toward
// item visibility.
type MembershipStatus string

const (
	MembershipStatusPending   MembershipStatus = "PENDING"
	MembershipStatusActive    MembershipStatus = "ACTIVE"
	MembershipStatusSuspended MembershipStatus = "SUSPENDED"
)

func (s MembershipStatus) Valid() bool {
	switch s {
	case MembershipStatusPending, MembershipStatusActive, MembershipStatusSuspended:
		return true
	}
	return false
}

// GroupMembership joins a user to a community group. It carries the
// trust level assigned within that group and an optional sharing
// disposition override; when the override is set it takes precedence
// over the group default for that member's items.
type GroupMembership struct {
	BaseModel
	UserID              uuid.UUID           `json:"userID" gorm:"type:uuid;not null;index;uniqueIndex:idx_user_group"`
	GroupID             uuid.UUID           `json:"groupID" gorm:"type:uuid;not null;index;uniqueIndex:idx_user_group"`
	TrustLevel          TrustLevel          `json:"trustLevel" gorm:"type:varchar(10);not null"`
	DispositionOverride *SharingDisposition `json:"dispositionOverride,omitempty" gorm:"type:varchar(10)"`
	IsModerator         bool                `json:"isModerator" gorm:"not null;default:false"`
	Status              MembershipStatus    `json:"status" gorm:"type:varchar(10);not null;default:'ACTIVE';index"`
	User                User                `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Group               CommunityGroup      `json:"group,omitempty" gorm:"foreignKey:GroupID"`
}

// EffectiveDisposition resolves the sharing disposition for this
// member within the group: the membership override if present, else
// the group default.
func (m *GroupMembership) EffectiveDisposition() SharingDisposition {
	if m.DispositionOverride != nil {
		return *m.DispositionOverride
	}
	return m.Group.SharingDisposition
}
