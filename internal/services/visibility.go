package services

import (
	"context"

	"github.com/borrowd/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VisibilityService decides which items a viewer may see and request.
// An item is visible when the viewer owns it, when viewer and owner
// share a group whose effective disposition for the owner is OPEN and
// the viewer's trust there meets the item's required level, or when
// the item is explicitly linked to a shared CLOSED group the viewer
// belongs to with sufficient trust. Any one qualifying group is
// enough. The check is a pure per-request filter; nothing is cached.
type VisibilityService struct {
	DB *gorm.DB
}

func NewVisibilityService(db *gorm.DB) *VisibilityService {
	return &VisibilityService{DB: db}
}

func (s *VisibilityService) CanView(ctx context.Context, viewerID, itemID uuid.UUID) (bool, error) {
	var item models.Item
	if err := s.DB.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		return false, err
	}

	if item.OwnerID == viewerID {
		return true, nil
	}

	memberships, err := s.viewerMemberships(ctx, viewerID)
	if err != nil {
		return false, err
	}

	return s.itemVisible(ctx, &item, memberships)
}

// VisibleItems returns the viewer's own items plus every item
// reachable through a qualifying group, each with category and photos
// loaded.
func (s *VisibilityService) VisibleItems(ctx context.Context, viewerID uuid.UUID) ([]models.Item, error) {
	var items []models.Item
	if err := s.DB.WithContext(ctx).
		Preload("Category").
		Preload("Photos").
		Where("owner_id = ?", viewerID).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}

	memberships, err := s.viewerMemberships(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return items, nil
	}

	groupIDs := make([]uuid.UUID, 0, len(memberships))
	for _, m := range memberships {
		groupIDs = append(groupIDs, m.GroupID)
	}

	// Candidates: items owned by co-members of the viewer's groups,
	// plus items explicitly linked into those groups.
	var coMemberItems []models.Item
	if err := s.DB.WithContext(ctx).
		Preload("Category").
		Preload("Photos").
		Distinct("items.*").
		Joins("JOIN group_memberships ON group_memberships.user_id = items.owner_id AND group_memberships.group_id IN ? AND group_memberships.status = ?", groupIDs, models.MembershipStatusActive).
		Where("items.owner_id <> ?", viewerID).
		Find(&coMemberItems).Error; err != nil {
		return nil, err
	}

	var linkedItems []models.Item
	if err := s.DB.WithContext(ctx).
		Preload("Category").
		Preload("Photos").
		Distinct("items.*").
		Joins("JOIN group_item_links ON group_item_links.item_id = items.id AND group_item_links.group_id IN ?", groupIDs).
		Where("items.owner_id <> ?", viewerID).
		Find(&linkedItems).Error; err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		seen[item.ID] = true
	}

	candidates := append(coMemberItems, linkedItems...)
	for i := range candidates {
		candidate := candidates[i]
		if seen[candidate.ID] {
			continue
		}
		seen[candidate.ID] = true

		visible, err := s.itemVisible(ctx, &candidate, memberships)
		if err != nil {
			return nil, err
		}
		if visible {
			items = append(items, candidate)
		}
	}

	return items, nil
}

func (s *VisibilityService) viewerMemberships(ctx context.Context, viewerID uuid.UUID) ([]models.GroupMembership, error) {
	var memberships []models.GroupMembership
	err := s.DB.WithContext(ctx).
		Preload("Group").
		Where("user_id = ? AND status = ?", viewerID, models.MembershipStatusActive).
		Find(&memberships).Error
	return memberships, err
}

// itemVisible evaluates the non-owner rules for one item against the
// viewer's memberships.
func (s *VisibilityService) itemVisible(ctx context.Context, item *models.Item, viewerMemberships []models.GroupMembership) (bool, error) {
	if len(viewerMemberships) == 0 {
		return false, nil
	}

	groupIDs := make([]uuid.UUID, 0, len(viewerMemberships))
	for _, m := range viewerMemberships {
		groupIDs = append(groupIDs, m.GroupID)
	}

	var ownerMemberships []models.GroupMembership
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND group_id IN ? AND status = ?", item.OwnerID, groupIDs, models.MembershipStatusActive).
		Find(&ownerMemberships).Error; err != nil {
		return false, err
	}
	ownerByGroup := make(map[uuid.UUID]*models.GroupMembership, len(ownerMemberships))
	for i := range ownerMemberships {
		ownerByGroup[ownerMemberships[i].GroupID] = &ownerMemberships[i]
	}

	var links []models.GroupItemLink
	if err := s.DB.WithContext(ctx).
		Where("item_id = ? AND group_id IN ?", item.ID, groupIDs).
		Find(&links).Error; err != nil {
		return false, err
	}
	linkedGroups := make(map[uuid.UUID]bool, len(links))
	for _, link := range links {
		linkedGroups[link.GroupID] = true
	}

	for _, membership := range viewerMemberships {
		if !membership.TrustLevel.AtLeast(item.TrustLevel) {
			continue
		}

		// Effective disposition is the owner's, not the viewer's: the
		// owner's membership override in this group when present, else
		// the group default.
		disposition := membership.Group.SharingDisposition
		ownerMembership := ownerByGroup[membership.GroupID]
		if ownerMembership != nil {
			ownerMembership.Group = membership.Group
			disposition = ownerMembership.EffectiveDisposition()
		}

		switch disposition {
		case models.SharingDispositionOpen:
			if ownerMembership != nil {
				return true, nil
			}
		case models.SharingDispositionClosed:
			if linkedGroups[membership.GroupID] {
				return true, nil
			}
		}
	}

	return false, nil
}
