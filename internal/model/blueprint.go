package model

import "time"

// Blueprint is the full aggregated result of one documentation run. It
// is the sole input to the JSON/Markdown/HTML renderers.
type Blueprint struct {
	GeneratedAt    time.Time
	EnvironmentURL string

	Solutions []Solution
	Entities  []Entity

	ClassicWorkflows     []ClassicWorkflow
	BusinessProcessFlows []BusinessProcessFlow
	WebResources         []WebResource
	CanvasApps           []CanvasApp
	ConnectionReferences []ConnectionReference
	EnvironmentVariables []EnvironmentVariable
	CustomAPIs           []CustomAPI
	GlobalChoices        []GlobalChoice
	CustomConnectors     []CustomConnector
	SecurityRoles        []SecurityRole
	FieldProfiles        []FieldSecurityProfile

	// Flows not bound to any resolved entity (e.g. scheduled flows)
	// still appear in the blueprint.
	UnboundFlows []Flow

	// Diagnostics records every non-fatal degradation that occurred
	// during aggregation, so callers can assert on degraded phases
	// without scraping logs.
	Diagnostics []Degradation
}

// Degradation is one non-essential enrichment that failed and was
// replaced with empty results.
type Degradation struct {
	Phase  string
	Reason string
}

// EntityByLogicalName returns the entity with the given logical name,
// or nil.
func (b *Blueprint) EntityByLogicalName(name string) *Entity {
	for i := range b.Entities {
		if b.Entities[i].LogicalName == name {
			return &b.Entities[i]
		}
	}
	return nil
}
