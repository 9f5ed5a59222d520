// Package distribution computes per-solution component counts and
// infers cross-solution dependencies from publisher-prefix naming.
package distribution

import (
	"sort"
	"strings"

	"github.com/dataversedocs/blueprint/internal/inventory"
	"github.com/dataversedocs/blueprint/internal/model"
)

// SolutionDistribution is the derived, read-only view of one solution's
// share of the aggregated result.
type SolutionDistribution struct {
	SolutionID  string
	UniqueName  string
	DisplayName string

	// ComponentCount is the number of components in this solution.
	// Exact when membership maps were available; otherwise the count
	// degrades to the whole aggregated result and CountsExact is
	// false.
	ComponentCount int
	CountsExact    bool
	// CountsByType breaks the exact count down by component type
	// code. Empty in the degraded case.
	CountsByType map[inventory.ComponentType]int

	// SharedComponents lists component ids this solution shares with
	// at least one other selected solution.
	SharedComponents []string

	Dependencies []Dependency
}

// Dependency records that one solution references schema owned by
// another selected solution's publisher. Inferred from naming prefixes,
// so it is an approximation: two solutions sharing a publisher prefix
// are indistinguishable to this heuristic.
type Dependency struct {
	OnSolutionID   string
	OnSolutionName string
	// ReferencedBy lists the referencing component names, merged and
	// deduplicated across all references to the same solution.
	ReferencedBy []string
}

// Analyze computes the distribution for every selected solution,
// sorted by display name. membership may be nil (catch-all discovery),
// in which case counts degrade as documented on SolutionDistribution.
func Analyze(solutions []model.Solution, bp *model.Blueprint, membership *inventory.Membership) []SolutionDistribution {
	out := make([]SolutionDistribution, 0, len(solutions))
	for _, sol := range solutions {
		d := SolutionDistribution{
			SolutionID:  sol.ID,
			UniqueName:  sol.UniqueName,
			DisplayName: sol.FriendlyName,
		}
		if membership != nil {
			d.CountsExact = true
			d.CountsByType = make(map[inventory.ComponentType]int)
			for componentID := range membership.ComponentsBySolution[sol.ID] {
				d.ComponentCount++
				d.CountsByType[membership.TypeByComponent[componentID]]++
				if len(membership.SolutionsByComponent[componentID]) > 1 {
					d.SharedComponents = append(d.SharedComponents, componentID)
				}
			}
			sort.Strings(d.SharedComponents)
		} else {
			d.ComponentCount = approximateCount(bp)
		}
		d.Dependencies = inferDependencies(sol, solutions, bp)
		out = append(out, d)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].DisplayName < out[j].DisplayName
	})
	return out
}

// approximateCount is the degraded total used without membership maps:
// everything in the aggregated result.
func approximateCount(bp *model.Blueprint) int {
	n := len(bp.Entities) + len(bp.ClassicWorkflows) + len(bp.BusinessProcessFlows) +
		len(bp.WebResources) + len(bp.CanvasApps) + len(bp.ConnectionReferences) +
		len(bp.EnvironmentVariables) + len(bp.CustomAPIs) + len(bp.GlobalChoices) +
		len(bp.CustomConnectors) + len(bp.SecurityRoles) + len(bp.FieldProfiles) +
		len(bp.UnboundFlows)
	for _, e := range bp.Entities {
		n += len(e.Attributes) + len(e.PluginSteps) + len(e.Flows) + len(e.BusinessRules)
	}
	return n
}

// inferDependencies walks the aggregated entities and their lookup and
// relationship targets. Any schema whose owner prefix differs from the
// current solution's publisher prefix is a foreign reference,
// attributed to the first other selected solution sharing that prefix.
func inferDependencies(current model.Solution, solutions []model.Solution, bp *model.Blueprint) []Dependency {
	currentPrefix := strings.ToLower(current.PublisherPrefix)
	deps := make(map[string]*Dependency)
	seenRef := make(map[string]map[string]bool)

	record := func(prefix, referencedBy string) {
		if prefix == model.PlatformOwner || prefix == currentPrefix {
			return
		}
		owner := ownerSolution(prefix, current.ID, solutions)
		if owner == nil {
			return
		}
		d, ok := deps[owner.ID]
		if !ok {
			d = &Dependency{OnSolutionID: owner.ID, OnSolutionName: owner.FriendlyName}
			deps[owner.ID] = d
			seenRef[owner.ID] = make(map[string]bool)
		}
		if !seenRef[owner.ID][referencedBy] {
			seenRef[owner.ID][referencedBy] = true
			d.ReferencedBy = append(d.ReferencedBy, referencedBy)
		}
	}

	for _, e := range bp.Entities {
		record(model.OwnerPrefix(e.SchemaName), e.LogicalName)
		for _, a := range e.Attributes {
			for _, target := range a.Targets {
				if t := bp.EntityByLogicalName(target); t != nil {
					record(model.OwnerPrefix(t.SchemaName), e.LogicalName+"."+a.LogicalName)
				}
			}
		}
		for _, rel := range e.OneToMany {
			if t := bp.EntityByLogicalName(rel.ReferencingEntity); t != nil {
				record(model.OwnerPrefix(t.SchemaName), rel.SchemaName)
			}
		}
	}

	out := make([]Dependency, 0, len(deps))
	for _, d := range deps {
		sort.Strings(d.ReferencedBy)
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OnSolutionName < out[j].OnSolutionName
	})
	return out
}

// ownerSolution finds the first selected solution (other than the
// current one) whose publisher prefix matches.
func ownerSolution(prefix, currentID string, solutions []model.Solution) *model.Solution {
	for i := range solutions {
		if solutions[i].ID == currentID {
			continue
		}
		if strings.EqualFold(solutions[i].PublisherPrefix, prefix) {
			return &solutions[i]
		}
	}
	return nil
}
