// Package inventory implements cross-solution component discovery: it
// classifies solution-component membership rows into typed id buckets,
// builds the component/solution membership maps, and partitions
// workflow ids by category.
package inventory

// ComponentType is a Dataverse solution component type code.
type ComponentType int

// Well-known component type codes. Codes at or above 10000 are
// environment-assigned for solution-aware components; these are the
// values observed in the environments this tool documents.
const (
	TypeEntity               ComponentType = 1
	TypeAttribute            ComponentType = 2
	TypeGlobalChoice         ComponentType = 9
	TypeSecurityRole         ComponentType = 20
	TypeWorkflow             ComponentType = 29
	TypeWebResource          ComponentType = 61
	TypeFieldSecurityProfile ComponentType = 70
	TypePluginStep           ComponentType = 92
	TypeCanvasApp            ComponentType = 300
	TypeCustomConnector      ComponentType = 371
	TypeEnvironmentVariable  ComponentType = 380
	TypeConnectionReference  ComponentType = 10049
	TypeCustomAPI            ComponentType = 10076
	TypeCustomPage           ComponentType = 10313
)

// ComponentInventory holds the typed buckets of normalized component
// ids discovered for the selected solutions. Every id appears at most
// once per bucket and is already normalized (lower-cased,
// brace-stripped).
type ComponentInventory struct {
	Entities              []string
	Attributes            []string
	PluginSteps           []string
	Workflows             []string
	WebResources          []string
	CanvasApps            []string
	CustomPages           []string
	ConnectionReferences  []string
	CustomAPIs            []string
	EnvironmentVariables  []string
	GlobalChoices         []string
	CustomConnectors      []string
	SecurityRoles         []string
	FieldSecurityProfiles []string
}

// bucket returns the slice for a type code, or nil for codes with no
// bucket defined.
func (inv *ComponentInventory) bucket(t ComponentType) *[]string {
	switch t {
	case TypeEntity:
		return &inv.Entities
	case TypeAttribute:
		return &inv.Attributes
	case TypePluginStep:
		return &inv.PluginSteps
	case TypeWorkflow:
		return &inv.Workflows
	case TypeWebResource:
		return &inv.WebResources
	case TypeCanvasApp:
		return &inv.CanvasApps
	case TypeCustomPage:
		return &inv.CustomPages
	case TypeConnectionReference:
		return &inv.ConnectionReferences
	case TypeCustomAPI:
		return &inv.CustomAPIs
	case TypeEnvironmentVariable:
		return &inv.EnvironmentVariables
	case TypeGlobalChoice:
		return &inv.GlobalChoices
	case TypeCustomConnector:
		return &inv.CustomConnectors
	case TypeSecurityRole:
		return &inv.SecurityRoles
	case TypeFieldSecurityProfile:
		return &inv.FieldSecurityProfiles
	}
	return nil
}

// Total returns the component count across all buckets.
func (inv *ComponentInventory) Total() int {
	return len(inv.Entities) + len(inv.Attributes) + len(inv.PluginSteps) +
		len(inv.Workflows) + len(inv.WebResources) + len(inv.CanvasApps) +
		len(inv.CustomPages) + len(inv.ConnectionReferences) + len(inv.CustomAPIs) +
		len(inv.EnvironmentVariables) + len(inv.GlobalChoices) + len(inv.CustomConnectors) +
		len(inv.SecurityRoles) + len(inv.FieldSecurityProfiles)
}

// Membership is the bidirectional association between components and
// the solutions that include them. Built once per discovery pass and
// read-only thereafter; there is no concurrent writer, so no locking.
type Membership struct {
	// SolutionsByComponent maps normalized component id -> set of
	// normalized solution ids containing it.
	SolutionsByComponent map[string]map[string]bool
	// ComponentsBySolution is the inverse map.
	ComponentsBySolution map[string]map[string]bool
	// TypeByComponent maps normalized component id -> type code.
	TypeByComponent map[string]ComponentType
}

// NewMembership creates empty membership maps.
func NewMembership() *Membership {
	return &Membership{
		SolutionsByComponent: make(map[string]map[string]bool),
		ComponentsBySolution: make(map[string]map[string]bool),
		TypeByComponent:      make(map[string]ComponentType),
	}
}

func (m *Membership) add(componentID, solutionID string, t ComponentType) {
	if m.SolutionsByComponent[componentID] == nil {
		m.SolutionsByComponent[componentID] = make(map[string]bool)
	}
	m.SolutionsByComponent[componentID][solutionID] = true
	if m.ComponentsBySolution[solutionID] == nil {
		m.ComponentsBySolution[solutionID] = make(map[string]bool)
	}
	m.ComponentsBySolution[solutionID][componentID] = true
	m.TypeByComponent[componentID] = t
}

// Contains reports whether the solution includes the component. Both
// ids must already be normalized.
func (m *Membership) Contains(solutionID, componentID string) bool {
	return m.ComponentsBySolution[solutionID][componentID]
}

// DiscoveryResult is the tagged discovery output. In catch-all mode
// (the environment's default solution was selected) Membership is nil:
// per-solution membership is meaningless when every component in the
// environment is in scope.
type DiscoveryResult struct {
	Inventory  ComponentInventory
	Membership *Membership
	// CatchAll is true when discovery ran in query-everything mode.
	CatchAll bool
}
