package wizard

import (
	"fmt"
	"strings"
	"time"

	"github.com/sweetcrumbs/storefront/internal/enum"
)

// DateLayout is the format of delivery dates.
const DateLayout = "2006-01-02"

// StepError is a user-facing reason why a step cannot be left.
type StepError struct {
	Step    int
	Message string
}

func (e *StepError) Error() string { return e.Message }

func stepErr(step int, format string, args ...any) *StepError {
	return &StepError{Step: step, Message: fmt.Sprintf(format, args...)}
}

// Gate decides whether the step a draft is on may be left.
type Gate struct {
	now func() time.Time
}

// NewGate creates a Gate. A nil clock uses time.Now.
func NewGate(now func() time.Time) Gate {
	if now == nil {
		now = time.Now
	}
	return Gate{now: now}
}

// Check validates the data owned by step. It returns nil when the step may be
// left and a *StepError otherwise. Optional screens always pass.
func (g Gate) Check(d *OrderDraft, step int) error {
	if !d.Flow.Tiered {
		return g.CheckDelivery(d.Delivery)
	}
	pos := Locate(d.NumberOfTiers, step)
	switch pos.Screen {
	case ScreenShape:
		if d.Flow.RequireBaseCake && strings.TrimSpace(d.BaseCakeID) == "" {
			return stepErr(step, "Please choose a cake to modify")
		}
		if d.Shape == "" {
			return stepErr(step, "Please select a cake shape")
		}
	case ScreenTierCount:
		if d.NumberOfTiers <= 0 {
			return stepErr(step, "Please select number of tiers")
		}
	case ScreenTier:
		return checkTier(d, step, pos)
	case ScreenCovering:
		if d.Covering == "" {
			return stepErr(step, "Please select a covering")
		}
	case ScreenDelivery:
		if err := g.CheckDelivery(d.Delivery); err != nil {
			return &StepError{Step: step, Message: err.Error()}
		}
	case ScreenInvalid:
		return stepErr(step, "Step %d does not exist", step)
	}
	return nil
}

// CheckAll validates every step before the confirmation screen.
func (g Gate) CheckAll(d *OrderDraft) error {
	if !d.Flow.Tiered {
		return g.CheckDelivery(d.Delivery)
	}
	if d.NumberOfTiers <= 0 {
		if err := g.Check(d, ShapeStep); err != nil {
			return err
		}
		return g.Check(d, TierCountStep)
	}
	for step := ShapeStep; step < ConfirmStep(d.NumberOfTiers); step++ {
		if err := g.Check(d, step); err != nil {
			return err
		}
	}
	return nil
}

// CheckDelivery validates delivery details: a method, an address exactly when
// delivering to the door, and a date that is not in the past.
func (g Gate) CheckDelivery(del Delivery) error {
	return CheckDelivery(del, g.now())
}

// CheckDelivery validates delivery details against the given current time.
func CheckDelivery(del Delivery, now time.Time) error {
	if del.Method == "" {
		return &StepError{Message: "Please select a delivery method"}
	}
	if !enum.ValidDeliveryMethod(del.Method) {
		return &StepError{Message: fmt.Sprintf("Unknown delivery method %q", del.Method)}
	}
	if del.Method == enum.DeliveryDoorstep && strings.TrimSpace(del.Address) == "" {
		return &StepError{Message: "Please enter a delivery address"}
	}
	if strings.TrimSpace(del.Date) == "" {
		return &StepError{Message: "Please select a delivery date"}
	}
	date, err := time.Parse(DateLayout, del.Date)
	if err != nil {
		return &StepError{Message: "Delivery date must be a valid date (YYYY-MM-DD)"}
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if date.Before(today) {
		return &StepError{Message: "Delivery date cannot be in the past"}
	}
	return nil
}

func checkTier(d *OrderDraft, step int, pos Position) error {
	n := pos.Tier + 1
	if pos.Tier >= len(d.Tiers) {
		return stepErr(step, "Please select number of tiers")
	}
	t := d.Tiers[pos.Tier]
	if pos.SubStep == SubStepFlavorCount {
		if t.FlavorCount <= 0 {
			return stepErr(step, "Please select number of flavors for Tier %d", n)
		}
		return nil
	}
	if t.FlavorCount <= 0 {
		return stepErr(step, "Please select number of flavors for Tier %d", n)
	}
	if len(t.Flavors) != t.FlavorCount {
		return stepErr(step, "Please select %d flavor(s) for Tier %d", t.FlavorCount, n)
	}
	for j, fc := range t.Flavors {
		if fc.Flavor == "" {
			return stepErr(step, "Please choose flavor %d for Tier %d", j+1, n)
		}
	}
	for _, f := range RequiredSizeFields(d.Shape) {
		if !t.Size.IsSet(f) {
			return stepErr(step, "Please set the %s for Tier %d", f, n)
		}
	}
	return nil
}
