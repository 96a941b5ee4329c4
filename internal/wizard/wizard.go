// Package wizard implements the order-builder used by the custom, modify and
// ready-made cake flows: step sequencing, draft mutation and validation. It
// has no knowledge of HTTP or storage.
package wizard

import (
	"errors"
	"time"
)

// ErrLastStep is returned by Next on the confirmation screen.
var ErrLastStep = errors.New("already at the final step")

// Wizard is a draft plus the step the customer is on.
type Wizard struct {
	Draft *OrderDraft
	Step  int
	gate  Gate
}

// New starts a wizard on step 1 with an empty draft.
func New(flow Flow, now func() time.Time) *Wizard {
	return &Wizard{
		Draft: NewDraft(flow),
		Step:  ShapeStep,
		gate:  NewGate(now),
	}
}

// Gate returns the validation gate the wizard advances through.
func (w *Wizard) Gate() Gate { return w.gate }

// TotalSteps is the current number of steps.
func (w *Wizard) TotalSteps() int {
	if !w.Draft.Flow.Tiered {
		return 1
	}
	return TotalSteps(w.Draft.NumberOfTiers)
}

// Position is the screen the wizard is on.
func (w *Wizard) Position() Position {
	if !w.Draft.Flow.Tiered {
		return Position{Screen: ScreenDelivery, Tier: -1}
	}
	return Locate(w.Draft.NumberOfTiers, w.Step)
}

// Next advances exactly one step when the gate allows it. On failure the step
// is unchanged.
func (w *Wizard) Next() error {
	if w.Step == w.confirmStep() {
		return ErrLastStep
	}
	if err := w.gate.Check(w.Draft, w.Step); err != nil {
		return err
	}
	if w.Step >= w.TotalSteps() {
		return ErrLastStep
	}
	w.Step++
	return nil
}

// Back retreats one step without validation, never below step 1.
func (w *Wizard) Back() {
	if w.Step > ShapeStep {
		w.Step--
	}
}

// Reset returns to step 1 keeping the draft contents.
func (w *Wizard) Reset() {
	w.Step = ShapeStep
}

// SetTierCount reinitializes the tiers and moves the cursor back to the first
// tier screen if it was past it, since every tier screen now holds fresh data.
func (w *Wizard) SetTierCount(n int) int {
	n = w.Draft.SetTierCount(n)
	if w.Step > FirstTierStep {
		w.Step = FirstTierStep
	}
	return n
}

// ReadyForCheckout reports whether the wizard is on the confirmation screen
// with every step valid.
func (w *Wizard) ReadyForCheckout() error {
	if w.Draft.Flow.Tiered && w.Step != w.confirmStep() {
		return &StepError{Step: w.Step, Message: "Please complete all steps before checkout"}
	}
	return w.gate.CheckAll(w.Draft)
}

func (w *Wizard) confirmStep() int {
	if !w.Draft.Flow.Tiered || w.Draft.NumberOfTiers <= 0 {
		return -1
	}
	return ConfirmStep(w.Draft.NumberOfTiers)
}
