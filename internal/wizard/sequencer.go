package wizard

// Steps are 1-based. Steps 1 and 2 are fixed; each tier adds a flavor-count
// sub-step followed by a flavors+size sub-step; four trailing screens and the
// confirmation follow the tier block.
const (
	ShapeStep     = 1
	TierCountStep = 2
	FirstTierStep = 3
)

// Screen identifies what a step shows.
type Screen string

const (
	ScreenInvalid   Screen = ""
	ScreenShape     Screen = "shape"
	ScreenTierCount Screen = "tier_count"
	ScreenTier      Screen = "tier"
	ScreenCovering  Screen = "covering"
	ScreenImage     Screen = "image"
	ScreenNote      Screen = "note"
	ScreenDelivery  Screen = "delivery"
	ScreenConfirm   Screen = "confirm"
)

// SubStep distinguishes the two screens of a tier.
type SubStep string

const (
	SubStepNone           SubStep = ""
	SubStepFlavorCount    SubStep = "flavor_count"
	SubStepFlavorsAndSize SubStep = "flavors_and_size"
)

// Position is where a step lands for a given tier count.
// Tier is zero-based and -1 outside the tier block.
type Position struct {
	Screen  Screen
	Tier    int
	SubStep SubStep
}

// TotalSteps is the number of steps for n tiers. With no tiers chosen only
// the shape and tier-count screens exist.
func TotalSteps(n int) int {
	if n <= 0 {
		return 2
	}
	return ConfirmStep(n)
}

// CoveringStep is the first step after the tier block.
func CoveringStep(n int) int { return FirstTierStep + n*2 }

// ImageStep is the design image screen.
func ImageStep(n int) int { return CoveringStep(n) + 1 }

// NoteStep is the customer note screen.
func NoteStep(n int) int { return CoveringStep(n) + 2 }

// DeliveryStep is the delivery details screen.
func DeliveryStep(n int) int { return CoveringStep(n) + 3 }

// ConfirmStep is the final, read-only summary screen.
func ConfirmStep(n int) int { return CoveringStep(n) + 4 }

// Locate maps a step to its screen for n tiers.
func Locate(n, step int) Position {
	invalid := Position{Screen: ScreenInvalid, Tier: -1}
	if step < 1 || step > TotalSteps(n) {
		return invalid
	}
	switch step {
	case ShapeStep:
		return Position{Screen: ScreenShape, Tier: -1}
	case TierCountStep:
		return Position{Screen: ScreenTierCount, Tier: -1}
	}
	if step < CoveringStep(n) {
		offset := step - FirstTierStep
		sub := SubStepFlavorCount
		if offset%2 == 1 {
			sub = SubStepFlavorsAndSize
		}
		return Position{Screen: ScreenTier, Tier: offset / 2, SubStep: sub}
	}
	switch step {
	case CoveringStep(n):
		return Position{Screen: ScreenCovering, Tier: -1}
	case ImageStep(n):
		return Position{Screen: ScreenImage, Tier: -1}
	case NoteStep(n):
		return Position{Screen: ScreenNote, Tier: -1}
	case DeliveryStep(n):
		return Position{Screen: ScreenDelivery, Tier: -1}
	case ConfirmStep(n):
		return Position{Screen: ScreenConfirm, Tier: -1}
	}
	return invalid
}
