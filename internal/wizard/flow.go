package wizard

import "github.com/sweetcrumbs/storefront/internal/enum"

// Flow parameterizes the shared wizard by the order type it builds.
type Flow struct {
	Name            string
	Tiered          bool
	MaxTiers        int
	MaxFlavors      int
	RequireBaseCake bool
}

var (
	// FlowCustom builds a cake from scratch.
	FlowCustom = Flow{Name: enum.OrderTypeCustom, Tiered: true, MaxTiers: 6, MaxFlavors: 4}

	// FlowModify starts from a catalog cake and customizes it with the same screens.
	FlowModify = Flow{Name: enum.OrderTypeModify, Tiered: true, MaxTiers: 6, MaxFlavors: 4, RequireBaseCake: true}

	// FlowReadyMade only collects delivery details for a catalog cake.
	FlowReadyMade = Flow{Name: enum.OrderTypeReadyMade}
)

// FlowByName resolves a flow from its order type name.
func FlowByName(name string) (Flow, bool) {
	switch name {
	case FlowCustom.Name:
		return FlowCustom, true
	case FlowModify.Name:
		return FlowModify, true
	case FlowReadyMade.Name:
		return FlowReadyMade, true
	}
	return Flow{}, false
}
