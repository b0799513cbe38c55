package services

import (
	"context"
	"testing"

	"github.com/borrowd/backend/internal/models"
	"github.com/google/uuid"
)

func TestCanViewOwnerAlwaysSees(t *testing.T) {
	db := openTestDB(t)
	svc := NewVisibilityService(db)

	owner := createUser(t, db, "owner@example.com")
	item := createItem(t, db, owner, "Drill", models.TrustLevelHigh)

	visible, err := svc.CanView(context.Background(), owner.ID, item.ID)
	if err != nil {
		t.Fatalf("CanView failed: %v", err)
	}
	if !visible {
		t.Fatal("expected owner to see their own item")
	}
}

func TestCanViewNoSharedGroup(t *testing.T) {
	db := openTestDB(t)
	svc := NewVisibilityService(db)

	owner := createUser(t, db, "owner@example.com")
	stranger := createUser(t, db, "stranger@example.com")
	item := createItem(t, db, owner, "Drill", models.TrustLevelLow)

	// The stranger has a group of their own, just not one shared with
	// the owner.
	createGroup(t, db, stranger, models.SharingDispositionOpen)

	visible, err := svc.CanView(context.Background(), stranger.ID, item.ID)
	if err != nil {
		t.Fatalf("CanView failed: %v", err)
	}
	if visible {
		t.Fatal("expected item to be invisible without a shared group")
	}
}

func TestCanViewOpenGroupTrustGate(t *testing.T) {
	db := openTestDB(t)
	svc := NewVisibilityService(db)

	owner := createUser(t, db, "owner@example.com")
	viewer := createUser(t, db, "viewer@example.com")
	group := createGroup(t, db, owner, models.SharingDispositionOpen)
	addMembership(t, db, viewer, group, models.TrustLevelMedium)

	mediumItem := createItem(t, db, owner, "Ladder", models.TrustLevelMedium)
	highItem := createItem(t, db, owner, "Camera", models.TrustLevelHigh)

	visible, err := svc.CanView(context.Background(), viewer.ID, mediumItem.ID)
	if err != nil {
		t.Fatalf("CanView failed: %v", err)
	}
	if !visible {
		t.Fatal("expected MEDIUM viewer to see MEDIUM item in open group")
	}

	visible, err = svc.CanView(context.Background(), viewer.ID, highItem.ID)
	if err != nil {
		t.Fatalf("CanView failed: %v", err)
	}
	if visible {
		t.Fatal("expected MEDIUM viewer not to see HIGH item")
	}
}

func TestCanViewClosedGroupRequiresLink(t *testing.T) {
	db := openTestDB(t)
	svc := NewVisibilityService(db)

	owner := createUser(t, db, "owner@example.com")
	viewer := createUser(t, db, "viewer@example.com")
	group := createGroup(t, db, owner, models.SharingDispositionClosed)
	addMembership(t, db, viewer, group, models.TrustLevelHigh)

	item := createItem(t, db, owner, "Tent", models.TrustLevelLow)

	visible, err := svc.CanView(context.Background(), viewer.ID, item.ID)
	if err != nil {
		t.Fatalf("CanView failed: %v", err)
	}
	if visible {
		t.Fatal("expected unlinked item to be invisible in closed group")
	}

	linkItem(t, db, group, item)

	visible, err = svc.CanView(context.Background(), viewer.ID, item.ID)
	if err != nil {
		t.Fatalf("CanView failed: %v", err)
	}
	if !visible {
		t.Fatal("expected linked item to be visible in closed group")
	}
}

func TestCanViewClosedGroupLinkStillTrustGated(t *testing.T) {
	db := openTestDB(t)
	svc := NewVisibilityService(db)

	owner := createUser(t, db, "owner@example.com")
	viewer := createUser(t, db, "viewer@example.com")
	group := createGroup(t, db, owner, models.SharingDispositionClosed)
	addMembership(t, db, viewer, group, models.TrustLevelLow)

	item := createItem(t, db, owner, "Projector", models.TrustLevelHigh)
	linkItem(t, db, group, item)

	visible, err := svc.CanView(context.Background(), viewer.ID, item.ID)
	if err != nil {
		t.Fatalf("CanView failed: %v", err)
	}
	if visible {
		t.Fatal("expected link not to bypass the trust requirement")
	}
}

func TestCanViewOwnerOverrideClosesOpenGroup(t *testing.T) {
	db := openTestDB(t)
	svc := NewVisibilityService(db)

	owner := createUser(t, db, "owner@example.com")
	viewer := createUser(t, db, "viewer@example.com")
	group := createGroup(t, db, owner, models.SharingDispositionOpen)
	addMembership(t, db, viewer, group, models.TrustLevelHigh)

	var ownerMembership models.GroupMembership
	if err := db.First(&ownerMembership, "group_id = ? AND user_id = ?", group.ID, owner.ID).Error; err != nil {
		t.Fatalf("failed loading owner membership: %v", err)
	}
	setDispositionOverride(t, db, &ownerMembership, models.SharingDispositionClosed)

	item := createItem(t, db, owner, "Mixer", models.TrustLevelLow)

	visible, err := svc.CanView(context.Background(), viewer.ID, item.ID)
	if err != nil {
		t.Fatalf("CanView failed: %v", err)
	}
	if visible {
		t.Fatal("expected owner's CLOSED override to hide unlinked items")
	}

	linkItem(t, db, group, item)

	visible, err = svc.CanView(context.Background(), viewer.ID, item.ID)
	if err != nil {
		t.Fatalf("CanView failed: %v", err)
	}
	if !visible {
		t.Fatal("expected linked item to be visible under CLOSED override")
	}
}

func TestCanViewOwnerOverrideOpensClosedGroup(t *testing.T) {
	db := openTestDB(t)
	svc := NewVisibilityService(db)

	owner := createUser(t, db, "owner@example.com")
	viewer := createUser(t, db, "viewer@example.com")
	group := createGroup(t, db, owner, models.SharingDispositionClosed)
	addMembership(t, db, viewer, group, models.TrustLevelHigh)

	var ownerMembership models.GroupMembership
	if err := db.First(&ownerMembership, "group_id = ? AND user_id = ?", group.ID, owner.ID).Error; err != nil {
		t.Fatalf("failed loading owner membership: %v", err)
	}
	setDispositionOverride(t, db, &ownerMembership, models.SharingDispositionOpen)

	item := createItem(t, db, owner, "Blender", models.TrustLevelLow)

	visible, err := svc.CanView(context.Background(), viewer.ID, item.ID)
	if err != nil {
		t.Fatalf("CanView failed: %v", err)
	}
	if !visible {
		t.Fatal("expected owner's OPEN override to share without a link")
	}
}

func TestCanViewLinkIgnoredInOpenGroup(t *testing.T) {
	db := openTestDB(t)
	svc := NewVisibilityService(db)

	owner := createUser(t, db, "owner@example.com")
	viewer := createUser(t, db, "viewer@example.com")

	// The viewer's group is OPEN but the item's owner never joined it;
	// a stray link row alone must not expose the item.
	group := createGroup(t, db, viewer, models.SharingDispositionOpen)
	item := createItem(t, db, owner, "Saw", models.TrustLevelLow)
	linkItem(t, db, group, item)

	visible, err := svc.CanView(context.Background(), viewer.ID, item.ID)
	if err != nil {
		t.Fatalf("CanView failed: %v", err)
	}
	if visible {
		t.Fatal("expected link to be inert while the group is OPEN")
	}
}

func TestCanViewOnlyActiveMembershipsCount(t *testing.T) {
	db := openTestDB(t)
	svc := NewVisibilityService(db)

	owner := createUser(t, db, "owner@example.com")
	viewer := createUser(t, db, "viewer@example.com")
	group := createGroup(t, db, owner, models.SharingDispositionOpen)
	membership := addMembership(t, db, viewer, group, models.TrustLevelHigh)

	item := createItem(t, db, owner, "Drill", models.TrustLevelLow)

	for _, status := range []models.MembershipStatus{
		models.MembershipStatusPending,
		models.MembershipStatusSuspended,
	} {
		setMembershipStatus(t, db, membership, status)

		visible, err := svc.CanView(context.Background(), viewer.ID, item.ID)
		if err != nil {
			t.Fatalf("CanView failed: %v", err)
		}
		if visible {
			t.Fatalf("expected %s membership not to grant visibility", status)
		}
	}

	setMembershipStatus(t, db, membership, models.MembershipStatusActive)

	visible, err := svc.CanView(context.Background(), viewer.ID, item.ID)
	if err != nil {
		t.Fatalf("CanView failed: %v", err)
	}
	if !visible {
		t.Fatal("expected ACTIVE membership to grant visibility")
	}
}

func TestCanViewOwnerMembershipMustBeActive(t *testing.T) {
	db := openTestDB(t)
	svc := NewVisibilityService(db)

	owner := createUser(t, db, "owner@example.com")
	viewer := createUser(t, db, "viewer@example.com")
	group := createGroup(t, db, owner, models.SharingDispositionOpen)
	addMembership(t, db, viewer, group, models.TrustLevelHigh)

	var ownerMembership models.GroupMembership
	if err := db.First(&ownerMembership, "group_id = ? AND user_id = ?", group.ID, owner.ID).Error; err != nil {
		t.Fatalf("failed loading owner membership: %v", err)
	}
	setMembershipStatus(t, db, &ownerMembership, models.MembershipStatusSuspended)

	item := createItem(t, db, owner, "Sander", models.TrustLevelLow)

	visible, err := svc.CanView(context.Background(), viewer.ID, item.ID)
	if err != nil {
		t.Fatalf("CanView failed: %v", err)
	}
	if visible {
		t.Fatal("expected a suspended owner's items to drop out of the open group")
	}
}

func TestCanViewAnyQualifyingGroupSuffices(t *testing.T) {
	db := openTestDB(t)
	svc := NewVisibilityService(db)

	owner := createUser(t, db, "owner@example.com")
	viewer := createUser(t, db, "viewer@example.com")

	// Group one fails the trust gate; group two passes.
	lowTrustGroup := createGroup(t, db, owner, models.SharingDispositionOpen)
	addMembership(t, db, viewer, lowTrustGroup, models.TrustLevelLow)

	highTrustGroup := createGroup(t, db, owner, models.SharingDispositionOpen)
	addMembership(t, db, viewer, highTrustGroup, models.TrustLevelHigh)

	item := createItem(t, db, owner, "Telescope", models.TrustLevelHigh)

	visible, err := svc.CanView(context.Background(), viewer.ID, item.ID)
	if err != nil {
		t.Fatalf("CanView failed: %v", err)
	}
	if !visible {
		t.Fatal("expected one qualifying group to be enough")
	}
}

func TestVisibleItemsListing(t *testing.T) {
	db := openTestDB(t)
	svc := NewVisibilityService(db)

	viewer := createUser(t, db, "viewer@example.com")
	openOwner := createUser(t, db, "open-owner@example.com")
	closedOwner := createUser(t, db, "closed-owner@example.com")
	stranger := createUser(t, db, "stranger@example.com")

	openGroup := createGroup(t, db, openOwner, models.SharingDispositionOpen)
	addMembership(t, db, viewer, openGroup, models.TrustLevelMedium)

	closedGroup := createGroup(t, db, closedOwner, models.SharingDispositionClosed)
	addMembership(t, db, viewer, closedGroup, models.TrustLevelHigh)

	ownItem := createItem(t, db, viewer, "My Bike", models.TrustLevelHigh)
	openItem := createItem(t, db, openOwner, "Shared Drill", models.TrustLevelMedium)
	tooTrusted := createItem(t, db, openOwner, "Rare Lens", models.TrustLevelHigh)
	linkedItem := createItem(t, db, closedOwner, "Linked Kayak", models.TrustLevelLow)
	unlinkedItem := createItem(t, db, closedOwner, "Hidden Canoe", models.TrustLevelLow)
	strangerItem := createItem(t, db, stranger, "Unreachable", models.TrustLevelLow)

	linkItem(t, db, closedGroup, linkedItem)

	items, err := svc.VisibleItems(context.Background(), viewer.ID)
	if err != nil {
		t.Fatalf("VisibleItems failed: %v", err)
	}

	got := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		got[item.ID] = true
	}

	for _, want := range []*models.Item{ownItem, openItem, linkedItem} {
		if !got[want.ID] {
			t.Errorf("expected %s in visible items", want.Name)
		}
	}
	for _, hidden := range []*models.Item{tooTrusted, unlinkedItem, strangerItem} {
		if got[hidden.ID] {
			t.Errorf("did not expect %s in visible items", hidden.Name)
		}
	}
	if len(items) != 3 {
		t.Fatalf("expected exactly 3 visible items, got %d", len(items))
	}
}
