package services

import (
	"context"
	"fmt"
	"time"

	"github.com/borrowd/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LendingService drives the transaction lifecycle: borrow requests
// create a PENDING lend/return pair atomically, gifts create a single
// row, and completion/cancellation move rows between PENDING and the
// terminal COMPLETE/CANCELED states while keeping the item's
// availability flag in sync.
type LendingService struct {
	DB         *gorm.DB
	Visibility *VisibilityService
	Notifier   *NotificationService
}

func NewLendingService(db *gorm.DB, visibility *VisibilityService, notifier *NotificationService) *LendingService {
	return &LendingService{DB: db, Visibility: visibility, Notifier: notifier}
}

// RequestLend starts a loan of the item to the requester. The item
// must be visible to the requester and currently available. Both legs
// of the pair, the availability flip and the owner's notification
// commit together or not at all.
func (s *LendingService) RequestLend(
	ctx context.Context,
	requesterID, itemID uuid.UUID,
	expectedAt time.Time,
	subLend bool,
) (*models.Transaction, error) {
	var item models.Item
	if err := s.DB.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}

	if item.OwnerID == requesterID {
		return nil, ErrOwnItem
	}

	visible, err := s.Visibility.CanView(ctx, requesterID, itemID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, ErrVisibilityDenied
	}

	if !item.Available {
		return nil, ErrUnavailableItem
	}

	var requester models.User
	if err := s.DB.WithContext(ctx).First(&requester, "id = ?", requesterID).Error; err != nil {
		return nil, err
	}

	lendType := models.TransactionTypeLend
	if subLend {
		lendType = models.TransactionTypeSubLend
	}

	pairID := uuid.New()
	lend := models.Transaction{
		ItemID:     item.ID,
		FromUserID: item.OwnerID,
		ToUserID:   requesterID,
		Type:       lendType,
		Status:     models.TransactionStatusPending,
		PairID:     &pairID,
		ExpectedAt: expectedAt,
	}
	ret := models.Transaction{
		ItemID:     item.ID,
		FromUserID: requesterID,
		ToUserID:   item.OwnerID,
		Type:       models.TransactionTypeReturn,
		Status:     models.TransactionStatusPending,
		PairID:     &pairID,
		ExpectedAt: expectedAt,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&lend).Error; err != nil {
			return err
		}
		if err := tx.Create(&ret).Error; err != nil {
			return err
		}
		// The availability read above ran outside this transaction; a
		// concurrent borrow may have claimed the item since.
		if err := claimItem(tx, item.ID); err != nil {
			return err
		}

		message := fmt.Sprintf("%s %s requested to borrow %s", requester.FirstName, requester.LastName, item.Name)
		_, err := s.Notifier.Emit(ctx, tx, item.OwnerID, models.NotificationTypeBorrowRequest, message, NotificationRefs{
			TransactionID: &lend.ID,
			ItemID:        &item.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return &lend, nil
}

// Give starts a transfer of ownership. Gifts have no return leg and
// do not touch the availability flag while pending.
func (s *LendingService) Give(
	ctx context.Context,
	ownerID, itemID, toUserID uuid.UUID,
	expectedAt time.Time,
) (*models.Transaction, error) {
	var item models.Item
	if err := s.DB.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}

	if item.OwnerID != ownerID {
		return nil, ErrVisibilityDenied
	}
	if !item.Available {
		return nil, ErrUnavailableItem
	}

	give := models.Transaction{
		ItemID:     item.ID,
		FromUserID: ownerID,
		ToUserID:   toUserID,
		Type:       models.TransactionTypeGive,
		Status:     models.TransactionStatusPending,
		ExpectedAt: expectedAt,
	}

	if err := s.DB.WithContext(ctx).Create(&give).Error; err != nil {
		return nil, err
	}
	return &give, nil
}

// Complete moves a PENDING transaction to COMPLETE. Lend legs leave
// the item out on loan; return legs put it back in circulation; gifts
// hand the item over to the recipient.
func (s *LendingService) Complete(ctx context.Context, actorID, transactionID uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.DB.WithContext(ctx).First(&txn, "id = ?", transactionID).Error; err != nil {
		return nil, err
	}

	if !txn.Involves(actorID) {
		return nil, ErrNotParticipant
	}
	if txn.Status != models.TransactionStatusPending {
		return nil, ErrInvalidStateTransition
	}

	var item models.Item
	if err := s.DB.WithContext(ctx).First(&item, "id = ?", txn.ItemID).Error; err != nil {
		return nil, err
	}

	now := time.Now()

	switch txn.Type {
	case models.TransactionTypeLend, models.TransactionTypeSubLend:
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := transition(tx, txn.ID, models.TransactionStatusPending, map[string]interface{}{
				"status":       models.TransactionStatusComplete,
				"completed_at": now,
			}); err != nil {
				return err
			}

			message := fmt.Sprintf("Your loan of %s has been handed over", item.Name)
			_, err := s.Notifier.Emit(ctx, tx, txn.ToUserID, models.NotificationTypeLendCompleted, message, NotificationRefs{
				TransactionID: &txn.ID,
				ItemID:        &item.ID,
			})
			return err
		})
		if err != nil {
			return nil, err
		}

	case models.TransactionTypeReturn:
		// Completing the return while the lend leg is still pending
		// would mark the item available with an open loan against it.
		lendLeg, err := s.pairCounterpart(ctx, &txn)
		if err != nil {
			return nil, err
		}
		if lendLeg.Status != models.TransactionStatusComplete {
			return nil, ErrInvalidStateTransition
		}

		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := transition(tx, txn.ID, models.TransactionStatusPending, map[string]interface{}{
				"status":       models.TransactionStatusComplete,
				"completed_at": now,
			}); err != nil {
				return err
			}
			if err := tx.Model(&models.Item{}).Where("id = ?", item.ID).Update("available", true).Error; err != nil {
				return err
			}

			message := fmt.Sprintf("%s has been returned to you", item.Name)
			_, err := s.Notifier.Emit(ctx, tx, txn.ToUserID, models.NotificationTypeReturnCompleted, message, NotificationRefs{
				TransactionID: &txn.ID,
				ItemID:        &item.ID,
			})
			return err
		})
		if err != nil {
			return nil, err
		}

	case models.TransactionTypeGive:
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := transition(tx, txn.ID, models.TransactionStatusPending, map[string]interface{}{
				"status":       models.TransactionStatusComplete,
				"completed_at": now,
			}); err != nil {
				return err
			}
			// A loan started after the gift was created holds the item;
			// ownership cannot change hands mid-loan.
			res := tx.Model(&models.Item{}).
				Where("id = ? AND available = ?", item.ID, true).
				Update("owner_id", txn.ToUserID)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrUnavailableItem
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

	default:
		return nil, ErrInvalidStateTransition
	}

	if err := s.DB.WithContext(ctx).First(&txn, "id = ?", transactionID).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

// Cancel moves a PENDING transaction to CANCELED. Canceling a lend
// leg cancels the paired return leg with it and frees the item; the
// return leg cannot be canceled on its own.
func (s *LendingService) Cancel(ctx context.Context, actorID, transactionID uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.DB.WithContext(ctx).First(&txn, "id = ?", transactionID).Error; err != nil {
		return nil, err
	}

	if !txn.Involves(actorID) {
		return nil, ErrNotParticipant
	}
	if txn.Status != models.TransactionStatusPending {
		return nil, ErrInvalidStateTransition
	}

	switch txn.Type {
	case models.TransactionTypeLend, models.TransactionTypeSubLend:
		returnLeg, err := s.pairCounterpart(ctx, &txn)
		if err != nil {
			return nil, err
		}

		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := transition(tx, txn.ID, models.TransactionStatusPending, map[string]interface{}{
				"status": models.TransactionStatusCanceled,
			}); err != nil {
				return err
			}
			if returnLeg.Status == models.TransactionStatusPending {
				if err := tx.Model(returnLeg).Update("status", models.TransactionStatusCanceled).Error; err != nil {
					return err
				}
			}
			return tx.Model(&models.Item{}).Where("id = ?", txn.ItemID).Update("available", true).Error
		})
		if err != nil {
			return nil, err
		}

	case models.TransactionTypeReturn:
		// Canceling the return alone would strand the loan; the whole
		// pair is canceled through the lend leg instead.
		return nil, ErrInvalidStateTransition

	case models.TransactionTypeGive:
		if err := transition(s.DB.WithContext(ctx), txn.ID, models.TransactionStatusPending, map[string]interface{}{
			"status": models.TransactionStatusCanceled,
		}); err != nil {
			return nil, err
		}

	default:
		return nil, ErrInvalidStateTransition
	}

	if err := s.DB.WithContext(ctx).First(&txn, "id = ?", transactionID).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

// ReviewRatings carries the three 1..5 scores of a review.
type ReviewRatings struct {
	ItemCondition int
	Timeliness    int
	Cordiality    int
}

// SubmitReview attaches a review to a completed lend leg. Only the
// two parties may review, only the lend leg accepts one, and a second
// submission fails without touching the first.
func (s *LendingService) SubmitReview(
	ctx context.Context,
	reviewerID, transactionID uuid.UUID,
	ratings ReviewRatings,
	comment *string,
) (*models.TransactionReview, error) {
	var txn models.Transaction
	if err := s.DB.WithContext(ctx).First(&txn, "id = ?", transactionID).Error; err != nil {
		return nil, err
	}

	if !txn.Involves(reviewerID) {
		return nil, ErrNotParticipant
	}
	if !txn.IsLendLeg() {
		return nil, ErrInvalidStateTransition
	}
	if txn.Status != models.TransactionStatusComplete {
		return nil, ErrInvalidStateTransition
	}

	var existing int64
	if err := s.DB.WithContext(ctx).
		Model(&models.TransactionReview{}).
		Where("transaction_id = ?", txn.ID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrDuplicateReview
	}

	review := models.TransactionReview{
		TransactionID: txn.ID,
		ReviewerID:    reviewerID,
		ItemCondition: ratings.ItemCondition,
		Timeliness:    ratings.Timeliness,
		Cordiality:    ratings.Cordiality,
		Comment:       comment,
	}

	counterparty := txn.FromUserID
	if reviewerID == txn.FromUserID {
		counterparty = txn.ToUserID
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&review).Error; err != nil {
			return err
		}

		_, err := s.Notifier.Emit(ctx, tx, counterparty, models.NotificationTypeReviewPosted, "A review was posted on your loan", NotificationRefs{
			TransactionID: &txn.ID,
			ItemID:        &txn.ItemID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return &review, nil
}

// claimItem flips the availability flag off, but only if it is still
// on. Preconditions are read outside the write transaction, so the
// flip itself has to detect a borrow that committed in between.
func claimItem(tx *gorm.DB, itemID uuid.UUID) error {
	res := tx.Model(&models.Item{}).
		Where("id = ? AND available = ?", itemID, true).
		Update("available", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUnavailableItem
	}
	return nil
}

// transition applies updates to a transaction only while it still sits
// in the expected status, so two actors racing to complete or cancel
// the same row cannot both succeed.
func transition(tx *gorm.DB, transactionID uuid.UUID, from models.TransactionStatus, updates map[string]interface{}) error {
	res := tx.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", transactionID, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidStateTransition
	}
	return nil
}

// pairCounterpart loads the other leg of a lend/return pair.
func (s *LendingService) pairCounterpart(ctx context.Context, txn *models.Transaction) (*models.Transaction, error) {
	if txn.PairID == nil {
		return nil, ErrInvalidStateTransition
	}

	var counterpart models.Transaction
	err := s.DB.WithContext(ctx).
		First(&counterpart, "pair_id = ? AND id <> ?", *txn.PairID, txn.ID).Error
	if err != nil {
		return nil, err
	}
	return &counterpart, nil
}
