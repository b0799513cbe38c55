package services

import "errors"

// Domain precondition failures. Handlers translate these into
// user-facing rejections; none of them are retried.
var (
	ErrVisibilityDenied       = errors.New("item is not visible to this user")
	ErrInvalidStateTransition = errors.New("transaction does not permit this transition")
	ErrDuplicateMembership    = errors.New("user is already a member of this group")
	ErrDuplicateReview        = errors.New("transaction has already been reviewed")
	ErrUnavailableItem        = errors.New("item is not available")
	ErrOwnItem                = errors.New("cannot borrow an item you own")
	ErrNotParticipant         = errors.New("user is not a party to this transaction")
)
