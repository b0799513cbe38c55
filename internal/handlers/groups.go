package handlers

import (
	"strings"

	"github.com/borrowd/backend/internal/middleware"
	"github.com/borrowd/backend/internal/models"
	"github.com/borrowd/backend/internal/services"
	"github.com/borrowd/backend/pkg/logger"
	"github.com/borrowd/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GroupsHandler struct {
	DB *gorm.DB
}

func NewGroupsHandler(db *gorm.DB) *GroupsHandler {
	return &GroupsHandler{DB: db}
}

type createGroupRequest struct {
	Name               string                     `json:"name"`
	Description        *string                    `json:"description"`
	SharingDisposition *models.SharingDisposition `json:"sharingDisposition"`
	RequiresApproval   bool                       `json:"requiresApproval"`
}

func (h *GroupsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return utils.Error(c, fiber.StatusBadRequest, "name is required")
	}

	disposition := models.SharingDispositionOpen
	if req.SharingDisposition != nil {
		if !req.SharingDisposition.Valid() {
			return utils.Error(c, fiber.StatusBadRequest, "invalid sharing disposition")
		}
		disposition = *req.SharingDisposition
	}

	group := models.CommunityGroup{
		Name:               req.Name,
		Description:        req.Description,
		SharingDisposition: disposition,
		RequiresApproval:   req.RequiresApproval,
		OwnerID:            currentUser.ID,
	}

	// The founder joins their own group at HIGH trust in the same
	// commit that creates it.
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return err
		}

		membership := models.GroupMembership{
			UserID:      currentUser.ID,
			GroupID:     group.ID,
			TrustLevel:  models.TrustLevelHigh,
			IsModerator: true,
			Status:      models.MembershipStatusActive,
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating group")
	}

	logger.InfoWithUser(currentUser.ID.String(), "group_created", map[string]interface{}{
		"group_id":   group.ID.String(),
		"group_name": group.Name,
	})

	return utils.Success(c, fiber.StatusCreated, group)
}

func (h *GroupsHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var groups []models.CommunityGroup
	if err := h.DB.
		Model(&models.CommunityGroup{}).
		Preload("Memberships").
		Joins("JOIN group_memberships ON group_memberships.group_id = community_groups.id").
		Where("group_memberships.user_id = ?", currentUser.ID).
		Order("community_groups.created_at DESC").
		Find(&groups).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing groups")
	}

	return utils.Success(c, fiber.StatusOK, groups)
}

func (h *GroupsHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	if _, err := h.getActiveMembership(groupID, currentUser.ID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusForbidden, "group access denied")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed validating membership")
	}

	var group models.CommunityGroup
	if err := h.DB.Preload("Memberships.User").First(&group, "id = ?", groupID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "group not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading group")
	}

	return utils.Success(c, fiber.StatusOK, group)
}

type updateGroupRequest struct {
	Name               *string                    `json:"name"`
	Description        *string                    `json:"description"`
	SharingDisposition *models.SharingDisposition `json:"sharingDisposition"`
	RequiresApproval   *bool                      `json:"requiresApproval"`
}

func (h *GroupsHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	var group models.CommunityGroup
	if err := h.DB.First(&group, "id = ?", groupID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "group not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading group")
	}

	if group.OwnerID != currentUser.ID {
		return utils.Error(c, fiber.StatusForbidden, "only the group owner can update it")
	}

	var req updateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return utils.Error(c, fiber.StatusBadRequest, "name cannot be empty")
		}
		updates["name"] = name
	}
	if req.Description != nil {
		trimmed := strings.TrimSpace(*req.Description)
		if trimmed == "" {
			updates["description"] = nil
		} else {
			updates["description"] = trimmed
		}
	}
	if req.SharingDisposition != nil {
		if !req.SharingDisposition.Valid() {
			return utils.Error(c, fiber.StatusBadRequest, "invalid sharing disposition")
		}
		// Existing item links are left in place on a disposition
		// change; they only take effect while the group is CLOSED.
		updates["sharing_disposition"] = *req.SharingDisposition
	}
	if req.RequiresApproval != nil {
		// Only affects future join requests; pending memberships keep
		// waiting for a moderator.
		updates["requires_approval"] = *req.RequiresApproval
	}

	if len(updates) > 0 {
		if err := h.DB.Model(&group).Updates(updates).Error; err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed updating group")
		}
	}

	return utils.Success(c, fiber.StatusOK, group)
}

func (h *GroupsHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	var group models.CommunityGroup
	if err := h.DB.First(&group, "id = ?", groupID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "group not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading group")
	}

	if group.OwnerID != currentUser.ID {
		return utils.Error(c, fiber.StatusForbidden, "only the group owner can delete it")
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.GroupMembership{}, "group_id = ?", groupID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.GroupItemLink{}, "group_id = ?", groupID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.CommunityGroup{}, "id = ?", groupID).Error
	})
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting group")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "group deleted"})
}

type addMemberRequest struct {
	UserID     uuid.UUID         `json:"userID"`
	TrustLevel models.TrustLevel `json:"trustLevel"`
}

func (h *GroupsHandler) AddMember(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	actorMembership, err := h.getActiveMembership(groupID, currentUser.ID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusForbidden, "group access denied")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed validating membership")
	}
	if !actorMembership.IsModerator {
		return utils.Error(c, fiber.StatusForbidden, "only moderators can add members")
	}

	var req addMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if !req.TrustLevel.Valid() {
		return utils.Error(c, fiber.StatusBadRequest, "invalid trust level")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", req.UserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading user")
	}

	var existing int64
	if err := h.DB.Model(&models.GroupMembership{}).
		Where("group_id = ? AND user_id = ?", groupID, req.UserID).
		Count(&existing).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking membership")
	}
	if existing > 0 {
		return domainError(c, services.ErrDuplicateMembership, "failed adding member")
	}

	// Added by a moderator, so no approval round trip.
	membership := models.GroupMembership{
		UserID:     req.UserID,
		GroupID:    groupID,
		TrustLevel: req.TrustLevel,
		Status:     models.MembershipStatusActive,
	}
	if err := h.DB.Create(&membership).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed adding member")
	}

	logger.InfoWithUser(currentUser.ID.String(), "group_member_added", map[string]interface{}{
		"group_id":    groupID.String(),
		"member_id":   req.UserID.String(),
		"trust_level": string(req.TrustLevel),
	})

	return utils.Success(c, fiber.StatusCreated, membership)
}

// Join files a membership request on the caller's own behalf. Groups
// that require approval park the request in PENDING until a moderator
// approves it; anyone may join an open-enrollment group directly.
func (h *GroupsHandler) Join(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	var group models.CommunityGroup
	if err := h.DB.First(&group, "id = ?", groupID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "group not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading group")
	}

	var existing int64
	if err := h.DB.Model(&models.GroupMembership{}).
		Where("group_id = ? AND user_id = ?", groupID, currentUser.ID).
		Count(&existing).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking membership")
	}
	if existing > 0 {
		return domainError(c, services.ErrDuplicateMembership, "failed joining group")
	}

	status := models.MembershipStatusActive
	if group.RequiresApproval {
		status = models.MembershipStatusPending
	}

	membership := models.GroupMembership{
		UserID:     currentUser.ID,
		GroupID:    groupID,
		TrustLevel: models.TrustLevelLow,
		Status:     status,
	}
	if err := h.DB.Create(&membership).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed joining group")
	}

	logger.InfoWithUser(currentUser.ID.String(), "group_join_requested", map[string]interface{}{
		"group_id": groupID.String(),
		"status":   string(status),
	})

	return utils.Success(c, fiber.StatusCreated, membership)
}

// ApproveMember moves a PENDING membership to ACTIVE. Denial is a
// moderator removing the pending membership instead.
func (h *GroupsHandler) ApproveMember(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	userID, err := parseUUID(c.Params("userId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	actorMembership, err := h.getActiveMembership(groupID, currentUser.ID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusForbidden, "group access denied")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed validating membership")
	}
	if !actorMembership.IsModerator {
		return utils.Error(c, fiber.StatusForbidden, "only moderators can approve members")
	}

	targetMembership, err := h.getMembership(groupID, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "member not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading target membership")
	}
	if targetMembership.Status != models.MembershipStatusPending {
		return utils.Error(c, fiber.StatusConflict, "membership is not pending approval")
	}

	if err := h.DB.Model(targetMembership).
		Update("status", models.MembershipStatusActive).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed approving member")
	}

	logger.InfoWithUser(currentUser.ID.String(), "group_member_approved", map[string]interface{}{
		"group_id":  groupID.String(),
		"member_id": userID.String(),
	})

	return utils.Success(c, fiber.StatusOK, targetMembership)
}

func (h *GroupsHandler) RemoveMember(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	userID, err := parseUUID(c.Params("userId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var group models.CommunityGroup
	if err := h.DB.First(&group, "id = ?", groupID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "group not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading group")
	}

	// Members may leave (or withdraw a pending request) on their own;
	// removing or denying someone else takes an active moderator.
	if userID != currentUser.ID {
		actorMembership, err := h.getActiveMembership(groupID, currentUser.ID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return utils.Error(c, fiber.StatusForbidden, "group access denied")
			}
			return utils.Error(c, fiber.StatusInternalServerError, "failed validating membership")
		}
		if !actorMembership.IsModerator {
			return utils.Error(c, fiber.StatusForbidden, "only moderators can remove members")
		}
	}
	if userID == group.OwnerID {
		return utils.Error(c, fiber.StatusForbidden, "cannot remove the group owner")
	}

	targetMembership, err := h.getMembership(groupID, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "member not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading target membership")
	}

	if err := h.DB.Delete(&models.GroupMembership{}, "id = ?", targetMembership.ID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed removing member")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "member removed"})
}

type updateMemberRequest struct {
	TrustLevel          *models.TrustLevel         `json:"trustLevel"`
	DispositionOverride *models.SharingDisposition `json:"dispositionOverride"`
	ClearOverride       bool                       `json:"clearOverride"`
	IsModerator         *bool                      `json:"isModerator"`
	Status              *models.MembershipStatus   `json:"status"`
}

func (h *GroupsHandler) UpdateMember(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	userID, err := parseUUID(c.Params("userId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	actorMembership, err := h.getActiveMembership(groupID, currentUser.ID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusForbidden, "group access denied")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed validating membership")
	}

	var req updateMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	// The disposition override is the member's own call for their
	// items; trust, moderator and status changes take a moderator.
	changingOwnOverride := userID == currentUser.ID &&
		req.TrustLevel == nil && req.IsModerator == nil && req.Status == nil
	if !changingOwnOverride && !actorMembership.IsModerator {
		return utils.Error(c, fiber.StatusForbidden, "only moderators can update members")
	}

	targetMembership, err := h.getMembership(groupID, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "member not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading target membership")
	}

	updates := map[string]interface{}{}
	if req.TrustLevel != nil {
		if !req.TrustLevel.Valid() {
			return utils.Error(c, fiber.StatusBadRequest, "invalid trust level")
		}
		updates["trust_level"] = *req.TrustLevel
	}
	if req.ClearOverride {
		updates["disposition_override"] = nil
	} else if req.DispositionOverride != nil {
		if !req.DispositionOverride.Valid() {
			return utils.Error(c, fiber.StatusBadRequest, "invalid sharing disposition")
		}
		updates["disposition_override"] = *req.DispositionOverride
	}
	if req.IsModerator != nil {
		updates["is_moderator"] = *req.IsModerator
	}
	if req.Status != nil {
		// Moderators suspend and reinstate here; PENDING only ever
		// comes from a join request, and approval has its own route.
		if *req.Status != models.MembershipStatusActive && *req.Status != models.MembershipStatusSuspended {
			return utils.Error(c, fiber.StatusBadRequest, "invalid membership status")
		}
		if targetMembership.Status == models.MembershipStatusPending {
			return utils.Error(c, fiber.StatusConflict, "membership is pending approval")
		}
		updates["status"] = *req.Status
	}

	if len(updates) > 0 {
		if err := h.DB.Model(&models.GroupMembership{}).
			Where("id = ?", targetMembership.ID).
			Updates(updates).Error; err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed updating member")
		}
	}

	if err := h.DB.First(targetMembership, "id = ?", targetMembership.ID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed reloading membership")
	}
	return utils.Success(c, fiber.StatusOK, targetMembership)
}

type linkItemRequest struct {
	ItemID uuid.UUID `json:"itemID"`
}

// LinkItem exposes one of the caller's items to a group explicitly,
// the sharing path for CLOSED groups.
func (h *GroupsHandler) LinkItem(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	if _, err := h.getActiveMembership(groupID, currentUser.ID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusForbidden, "group access denied")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed validating membership")
	}

	var req linkItemRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	var item models.Item
	if err := h.DB.First(&item, "id = ?", req.ItemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "item not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading item")
	}
	if item.OwnerID != currentUser.ID {
		return utils.Error(c, fiber.StatusForbidden, "only the item owner can link it")
	}

	var existing int64
	if err := h.DB.Model(&models.GroupItemLink{}).
		Where("group_id = ? AND item_id = ?", groupID, req.ItemID).
		Count(&existing).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking link")
	}
	if existing > 0 {
		return utils.Error(c, fiber.StatusConflict, "item already linked to this group")
	}

	link := models.GroupItemLink{GroupID: groupID, ItemID: req.ItemID}
	if err := h.DB.Create(&link).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed linking item")
	}

	return utils.Success(c, fiber.StatusCreated, link)
}

func (h *GroupsHandler) UnlinkItem(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	itemID, err := parseUUID(c.Params("itemId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	var item models.Item
	if err := h.DB.First(&item, "id = ?", itemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "item not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading item")
	}
	if item.OwnerID != currentUser.ID {
		return utils.Error(c, fiber.StatusForbidden, "only the item owner can unlink it")
	}

	if err := h.DB.Delete(&models.GroupItemLink{}, "group_id = ? AND item_id = ?", groupID, itemID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed unlinking item")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "item unlinked"})
}

func (h *GroupsHandler) getMembership(groupID, userID uuid.UUID) (*models.GroupMembership, error) {
	var membership models.GroupMembership
	err := h.DB.First(&membership, "group_id = ? AND user_id = ?", groupID, userID).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// getActiveMembership is the access-control variant: pending and
// suspended memberships do not open the group.
func (h *GroupsHandler) getActiveMembership(groupID, userID uuid.UUID) (*models.GroupMembership, error) {
	var membership models.GroupMembership
	err := h.DB.First(&membership,
		"group_id = ? AND user_id = ? AND status = ?", groupID, userID, models.MembershipStatusActive).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}
