package wizard

import (
	"errors"
	"fmt"

	"github.com/sweetcrumbs/storefront/internal/enum"
)

// Errors returned by draft mutations.
var (
	ErrTierIndex    = errors.New("tier index out of range")
	ErrFlavorIndex  = errors.New("flavor index out of range")
	ErrInvalidValue = errors.New("invalid value")
)

// defaultDimension is what an unset size field reads as.
const defaultDimension = 2

// SizeField names one dimension of a tier.
type SizeField string

const (
	SizeHeight   SizeField = "height"
	SizeDiameter SizeField = "diameter"
	SizeLength   SizeField = "length"
	SizeWidth    SizeField = "width"
)

// FlavorField names one attribute of a flavor choice.
type FlavorField string

const (
	FlavorName          FlavorField = "flavor"
	FlavorSpecial       FlavorField = "special"
	FlavorSpecification FlavorField = "specification"
)

// Size holds tier dimensions in inches. Zero means unset.
type Size struct {
	Height   int
	Diameter int
	Length   int
	Width    int
}

func (s *Size) field(f SizeField) (*int, bool) {
	switch f {
	case SizeHeight:
		return &s.Height, true
	case SizeDiameter:
		return &s.Diameter, true
	case SizeLength:
		return &s.Length, true
	case SizeWidth:
		return &s.Width, true
	}
	return nil, false
}

// Value returns the dimension, reading an unset field as the default of 2.
func (s Size) Value(f SizeField) int {
	p, ok := s.field(f)
	if !ok || *p <= 0 {
		return defaultDimension
	}
	return *p
}

// IsSet reports whether the field has been given a value.
func (s Size) IsSet(f SizeField) bool {
	p, ok := s.field(f)
	return ok && *p > 0
}

// RequiredSizeFields lists the dimensions a tier of the given shape needs.
func RequiredSizeFields(shape enum.Shape) []SizeField {
	if shape == enum.ShapeCircle {
		return []SizeField{SizeDiameter, SizeHeight}
	}
	return []SizeField{SizeLength, SizeWidth, SizeHeight}
}

// FlavorChoice is one flavor slot of a tier.
type FlavorChoice struct {
	Flavor        enum.Flavor
	Special       enum.Special
	Specification string
}

// TierSpec is the per-tier specification. It is owned by its slot in
// OrderDraft.Tiers and discarded whenever the tier count changes.
type TierSpec struct {
	FlavorCount int
	Flavors     []FlavorChoice
	Size        Size
}

// DesignImage is a reference picture attached by the customer.
type DesignImage struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Delivery collects how and when the cake is handed over.
type Delivery struct {
	Method  enum.DeliveryMethod
	Address string
	Date    string // YYYY-MM-DD
}

// OrderDraft is the in-progress order assembled by the wizard.
type OrderDraft struct {
	Flow          Flow
	BaseCakeID    string
	Shape         enum.Shape
	NumberOfTiers int
	Tiers         []TierSpec
	Covering      enum.Covering
	DesignImage   *DesignImage
	CustomerNote  string
	Delivery      Delivery
}

// NewDraft creates an empty draft for the given flow.
func NewDraft(flow Flow) *OrderDraft {
	return &OrderDraft{Flow: flow, Tiers: []TierSpec{}}
}

func newTier() TierSpec {
	return TierSpec{Flavors: []FlavorChoice{}}
}

// SetShape records the cake shape.
func (d *OrderDraft) SetShape(s enum.Shape) error {
	if !enum.ValidShape(s) {
		return fmt.Errorf("shape %q: %w", s, ErrInvalidValue)
	}
	d.Shape = s
	return nil
}

// SetTierCount clamps n to the flow's range and reinitializes every tier.
// Prior tier data is always discarded, even when n is unchanged.
func (d *OrderDraft) SetTierCount(n int) int {
	n = clamp(n, 1, d.maxTiers())
	d.NumberOfTiers = n
	d.Tiers = make([]TierSpec, n)
	for i := range d.Tiers {
		d.Tiers[i] = newTier()
	}
	return n
}

// SetTierFlavorCount sets how many flavors tier i has and restarts its flavor selection.
func (d *OrderDraft) SetTierFlavorCount(i, count int) error {
	t, err := d.tier(i)
	if err != nil {
		return err
	}
	t.FlavorCount = clamp(count, 1, d.maxFlavors())
	t.Flavors = []FlavorChoice{}
	return nil
}

// AppendFlavorIfRoom adds an empty flavor slot to tier i while fewer than
// FlavorCount slots exist. It reports whether a slot was added.
func (d *OrderDraft) AppendFlavorIfRoom(i int) (bool, error) {
	t, err := d.tier(i)
	if err != nil {
		return false, err
	}
	if len(t.Flavors) >= t.FlavorCount {
		return false, nil
	}
	t.Flavors = append(t.Flavors, FlavorChoice{})
	return true, nil
}

// SetTierSizeField sets one dimension of tier i, leaving the others untouched.
func (d *OrderDraft) SetTierSizeField(i int, f SizeField, value int) error {
	t, err := d.tier(i)
	if err != nil {
		return err
	}
	p, ok := t.Size.field(f)
	if !ok {
		return fmt.Errorf("size field %q: %w", f, ErrInvalidValue)
	}
	if value < 1 {
		return fmt.Errorf("%s must be at least 1: %w", f, ErrInvalidValue)
	}
	*p = value
	return nil
}

// StepTierSize moves one dimension of tier i by delta, starting from the
// default when unset and never going below 1. It returns the new value.
func (d *OrderDraft) StepTierSize(i int, f SizeField, delta int) (int, error) {
	t, err := d.tier(i)
	if err != nil {
		return 0, err
	}
	p, ok := t.Size.field(f)
	if !ok {
		return 0, fmt.Errorf("size field %q: %w", f, ErrInvalidValue)
	}
	v := t.Size.Value(f) + delta
	if v < 1 {
		v = 1
	}
	*p = v
	return v, nil
}

// SetFlavorField sets one attribute of flavor j of tier i.
func (d *OrderDraft) SetFlavorField(i, j int, f FlavorField, value string) error {
	t, err := d.tier(i)
	if err != nil {
		return err
	}
	if j < 0 || j >= len(t.Flavors) {
		return ErrFlavorIndex
	}
	fc := &t.Flavors[j]
	switch f {
	case FlavorName:
		if value != "" && !enum.ValidFlavor(enum.Flavor(value)) {
			return fmt.Errorf("flavor %q: %w", value, ErrInvalidValue)
		}
		fc.Flavor = enum.Flavor(value)
	case FlavorSpecial:
		if value != "" && !enum.ValidSpecial(enum.Special(value)) {
			return fmt.Errorf("special %q: %w", value, ErrInvalidValue)
		}
		fc.Special = enum.Special(value)
		if value == "" {
			fc.Specification = ""
		}
	case FlavorSpecification:
		if fc.Special == "" && value != "" {
			return fmt.Errorf("specification requires a special tag: %w", ErrInvalidValue)
		}
		fc.Specification = value
	default:
		return fmt.Errorf("flavor field %q: %w", f, ErrInvalidValue)
	}
	return nil
}

// SetCovering records the exterior finish.
func (d *OrderDraft) SetCovering(c enum.Covering) error {
	if !enum.ValidCovering(c) {
		return fmt.Errorf("covering %q: %w", c, ErrInvalidValue)
	}
	d.Covering = c
	return nil
}

// SetDesignImage attaches (or with nil, removes) the reference image.
func (d *OrderDraft) SetDesignImage(img *DesignImage) {
	d.DesignImage = img
}

// SetNote records the free-text customer note.
func (d *OrderDraft) SetNote(note string) {
	d.CustomerNote = note
}

// SetDelivery records delivery details. Completeness is checked by the gate.
func (d *OrderDraft) SetDelivery(del Delivery) error {
	if del.Method != "" && !enum.ValidDeliveryMethod(del.Method) {
		return fmt.Errorf("delivery method %q: %w", del.Method, ErrInvalidValue)
	}
	d.Delivery = del
	return nil
}

// Clone returns a deep copy that shares nothing mutable with d.
func (d *OrderDraft) Clone() *OrderDraft {
	c := *d
	c.Tiers = make([]TierSpec, len(d.Tiers))
	for i, t := range d.Tiers {
		t.Flavors = append([]FlavorChoice{}, t.Flavors...)
		c.Tiers[i] = t
	}
	if d.DesignImage != nil {
		img := *d.DesignImage
		img.Data = append([]byte(nil), d.DesignImage.Data...)
		c.DesignImage = &img
	}
	return &c
}

func (d *OrderDraft) tier(i int) (*TierSpec, error) {
	if i < 0 || i >= len(d.Tiers) {
		return nil, ErrTierIndex
	}
	return &d.Tiers[i], nil
}

func (d *OrderDraft) maxTiers() int {
	if d.Flow.MaxTiers > 0 {
		return d.Flow.MaxTiers
	}
	return FlowCustom.MaxTiers
}

func (d *OrderDraft) maxFlavors() int {
	if d.Flow.MaxFlavors > 0 {
		return d.Flow.MaxFlavors
	}
	return FlowCustom.MaxFlavors
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
