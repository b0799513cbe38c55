package models

// TrustLevel is an ordered tier assigned per membership and required
// per item. A member qualifies for an item when their level in the
// shared group is at least the item's required level.
type TrustLevel string

const (
	TrustLevelLow    TrustLevel = "LOW"
	TrustLevelMedium TrustLevel = "MEDIUM"
	TrustLevelHigh   TrustLevel = "HIGH"
)

// Rank maps the level onto its ordinal; unknown values rank below LOW
// so they never satisfy a requirement.
func (l TrustLevel) Rank() int {
	switch l {
	case TrustLevelLow:
		return 1
	case TrustLevelMedium:
		return 2
	case TrustLevelHigh:
		return 3
	default:
		return 0
	}
}

func (l TrustLevel) Valid() bool {
	return l.Rank() > 0
}

// AtLeast reports whether this level meets the given minimum.
func (l TrustLevel) AtLeast(minimum TrustLevel) bool {
	return l.Rank() >= minimum.Rank()
}
