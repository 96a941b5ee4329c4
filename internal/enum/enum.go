package enum

// ── Group A: Cake construction (fixed by the bakery, validated on every draft) ──

// Shape is the footprint of every tier of a cake.
type Shape string

const (
	ShapeCircle    Shape = "Circle"
	ShapeSquare    Shape = "Square"
	ShapeRectangle Shape = "Rectangle"
)

// Covering is the exterior finish of a cake.
type Covering string

const (
	CoveringFondant      Covering = "Fondant"
	CoveringButtercream  Covering = "Buttercream"
	CoveringWhippedCream Covering = "Whipped Cream"
)

// ── Group B: Delivery (mapped to backend wire values) ──

// DeliveryMethod is how a finished cake reaches the customer.
type DeliveryMethod string

const (
	DeliveryPickup   DeliveryMethod = "Pickup"
	DeliveryDoorstep DeliveryMethod = "Doorstep Delivery"
)

// Wire returns the value the order endpoints expect ("pickup" / "delivery").
// Unknown methods map to the empty string.
func (m DeliveryMethod) Wire() string {
	switch m {
	case DeliveryPickup:
		return "pickup"
	case DeliveryDoorstep:
		return "delivery"
	}
	return ""
}

// ── Group C: Configurable labels (no backend constraint) ──

// Flavor is a sponge/filling flavor offered per tier.
type Flavor string

const (
	FlavorVanilla    Flavor = "Vanilla"
	FlavorChocolate  Flavor = "Chocolate"
	FlavorStrawberry Flavor = "Strawberry"
	FlavorRedVelvet  Flavor = "Red Velvet"
	FlavorLemon      Flavor = "Lemon"
	FlavorCarrot     Flavor = "Carrot"
	FlavorCoffee     Flavor = "Coffee"
	FlavorCoconut    Flavor = "Coconut"
)

// Special is a dietary tag attached to a flavor.
type Special string

const (
	SpecialEggless    Special = "Eggless"
	SpecialSugarFree  Special = "Sugar Free"
	SpecialGlutenFree Special = "Gluten Free"
	SpecialVegan      Special = "Vegan"
)

// ── Group D: Order lifecycle (owned by the backend) ──

const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusInProgress = "in_progress"
	OrderStatusReady      = "ready"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

const (
	OrderTypeCustom    = "custom"
	OrderTypeModify    = "modify"
	OrderTypeReadyMade = "ready_made"
)

const (
	UserRoleCustomer = "customer"
	UserRoleAdmin    = "admin"
)

var shapes = []Shape{ShapeCircle, ShapeSquare, ShapeRectangle}

var coverings = []Covering{CoveringFondant, CoveringButtercream, CoveringWhippedCream}

var flavors = []Flavor{
	FlavorVanilla, FlavorChocolate, FlavorStrawberry, FlavorRedVelvet,
	FlavorLemon, FlavorCarrot, FlavorCoffee, FlavorCoconut,
}

var specials = []Special{SpecialEggless, SpecialSugarFree, SpecialGlutenFree, SpecialVegan}

var orderStatuses = []string{
	OrderStatusPending, OrderStatusConfirmed, OrderStatusInProgress,
	OrderStatusReady, OrderStatusDelivered, OrderStatusCancelled,
}

// ValidShape reports whether s is a known shape.
func ValidShape(s Shape) bool { return contains(shapes, s) }

// ValidCovering reports whether c is a known covering.
func ValidCovering(c Covering) bool { return contains(coverings, c) }

// ValidFlavor reports whether f is a known flavor.
func ValidFlavor(f Flavor) bool { return contains(flavors, f) }

// ValidSpecial reports whether s is a known dietary tag.
func ValidSpecial(s Special) bool { return contains(specials, s) }

// ValidDeliveryMethod reports whether m is a known delivery method.
func ValidDeliveryMethod(m DeliveryMethod) bool {
	return m == DeliveryPickup || m == DeliveryDoorstep
}

// ValidOrderStatus reports whether s is a status admins may set.
func ValidOrderStatus(s string) bool { return contains(orderStatuses, s) }

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
