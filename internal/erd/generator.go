// Package erd builds the relationship graph for a resolved entity set:
// system filtering, ownership coloring, validated edge construction
// with many-to-many deduplication, and Mermaid class-diagram emission.
package erd

import (
	"sort"
	"strings"

	"github.com/dataversedocs/blueprint/internal/model"
)

// Definition is the complete diagram output: one document per logical
// view (currently exactly one "all entities" view), an ownership
// legend, and flat per-entity summary rows.
type Definition struct {
	Diagrams []Diagram
	Legend   []LegendEntry
	Rows     []EntityRow
	// TotalRelationships counts distinct non-system relationships,
	// independent of diagram inclusion: a relationship whose entities
	// are not co-present in the view is counted but not drawn.
	TotalRelationships int
}

// Diagram is one rendered graph-description document.
type Diagram struct {
	Name        string
	Document    string
	EntityCount int
	EdgeCount   int
}

// LegendEntry maps one owner bucket to its color and entities.
type LegendEntry struct {
	Owner string
	// Publisher is the display name of the solution publisher whose
	// customization prefix matches the owner, when one was resolved.
	Publisher string
	Color     string
	TextColor string
	Entities  []string
}

// EntityRow is one per-entity summary line.
type EntityRow struct {
	LogicalName   string
	DisplayName   string
	Owner         string
	Fields        int
	Plugins       int
	Flows         int
	BusinessRules int
	Complexity    string
}

// edge is one validated 1:N or N:N connection between two diagram
// entities.
type edge struct {
	From       string // referenced (one side) schema name
	To         string // referencing (many side) schema name
	Label      string
	ManyToMany bool
}

// systemInternal lists platform plumbing tables that appear in solution
// component sets but never belong on a solution architecture diagram.
var systemInternal = map[string]bool{
	"systemuser":          true,
	"team":                true,
	"businessunit":        true,
	"organization":        true,
	"transactioncurrency": true,
	"activitypointer":     true,
	"annotation":          true,
	"asyncoperation":      true,
	"processsession":      true,
	"duplicaterule":       true,
}

// Generate builds the relationship graph for the resolved entities.
func Generate(entities []model.Entity, solutions []model.Solution) *Definition {
	def := &Definition{}

	included := includedEntities(entities)
	byLogicalName := make(map[string]*model.Entity, len(included))
	for i := range included {
		byLogicalName[included[i].LogicalName] = &included[i]
	}

	edges, total := buildEdges(included, byLogicalName)
	def.TotalRelationships = total
	def.Diagrams = []Diagram{renderAllEntities(included, edges)}
	def.Legend = buildLegend(included, solutions)
	def.Rows = buildRows(included)
	return def
}

// includedEntities drops system-internal entities; the diagram shows
// the solution's architecture, not platform plumbing.
func includedEntities(entities []model.Entity) []model.Entity {
	out := make([]model.Entity, 0, len(entities))
	for _, e := range entities {
		if !e.IsCustom && systemInternal[e.LogicalName] {
			continue
		}
		out = append(out, e)
	}
	return out
}

// buildEdges walks every entity's declared relationships. A 1:N edge is
// emitted only when the relationship is custom, the child entity is in
// the diagram set, and both endpoint attributes survived upstream
// filtering: a relationship whose lookup column was filtered out by
// solution membership must not produce a dangling edge. N:N edges are
// deduplicated by schema name, checking both orderings, since the same
// relationship is discovered from either side.
//
// The returned count is computed independently of edge emission: 1:N
// relationships missing only co-presence still count, and N:N dedup is
// re-checked for counting even for relationships that never became
// edges.
func buildEdges(entities []model.Entity, byLogicalName map[string]*model.Entity) ([]edge, int) {
	var edges []edge
	seenNN := make(map[string]bool)
	countedNN := make(map[string]bool)
	counted := 0

	for i := range entities {
		e := &entities[i]
		for _, rel := range e.OneToMany {
			if !rel.IsCustom {
				continue
			}
			counted++

			child, ok := byLogicalName[rel.ReferencingEntity]
			if !ok {
				continue
			}
			parent, ok := byLogicalName[rel.ReferencedEntity]
			if !ok {
				continue
			}
			if !hasAttribute(parent, rel.ReferencedAttribute) ||
				!hasAttribute(child, rel.ReferencingAttribute) {
				continue
			}
			edges = append(edges, edge{
				From:  parent.SchemaName,
				To:    child.SchemaName,
				Label: rel.ReferencingAttribute,
			})
		}

		for _, rel := range e.ManyToMany {
			if !rel.IsCustom {
				continue
			}
			key := nnKey(rel)
			if !countedNN[key] {
				countedNN[key] = true
				counted++
			}

			a, okA := byLogicalName[rel.Entity1Name]
			b, okB := byLogicalName[rel.Entity2Name]
			if !okA || !okB {
				continue
			}
			if seenNN[key] {
				continue
			}
			seenNN[key] = true
			edges = append(edges, edge{
				From:       a.SchemaName,
				To:         b.SchemaName,
				Label:      rel.SchemaName,
				ManyToMany: true,
			})
		}
	}
	return edges, counted
}

// nnKey builds the dedup key for an N:N relationship. The schema name
// is checked in both orderings relative to the participating entities,
// so the mirror discovery of the same relationship maps to one key.
func nnKey(rel model.ManyToManyRelationship) string {
	name := strings.ToLower(rel.SchemaName)
	e1 := strings.ToLower(rel.Entity1Name)
	e2 := strings.ToLower(rel.Entity2Name)
	if e2 < e1 {
		e1, e2 = e2, e1
	}
	return name + "|" + e1 + "|" + e2
}

func hasAttribute(e *model.Entity, logicalName string) bool {
	if logicalName == "" {
		return false
	}
	for _, a := range e.Attributes {
		if strings.EqualFold(a.LogicalName, logicalName) {
			return true
		}
	}
	return false
}

// buildLegend groups entities by owner, sorted by entity count
// descending (owner name ascending on ties); entity lists are sorted.
// Owners matching a selected solution's customization prefix are
// labeled with that publisher's display name.
func buildLegend(entities []model.Entity, solutions []model.Solution) []LegendEntry {
	publisherByPrefix := make(map[string]string, len(solutions))
	for _, s := range solutions {
		if s.PublisherPrefix != "" {
			publisherByPrefix[strings.ToLower(s.PublisherPrefix)] = s.Publisher
		}
	}

	byOwner := make(map[string][]string)
	for _, e := range entities {
		owner := model.OwnerPrefix(e.SchemaName)
		byOwner[owner] = append(byOwner[owner], e.LogicalName)
	}

	legend := make([]LegendEntry, 0, len(byOwner))
	for owner, names := range byOwner {
		sort.Strings(names)
		color := OwnerColor(owner)
		legend = append(legend, LegendEntry{
			Owner:     owner,
			Publisher: publisherByPrefix[strings.ToLower(owner)],
			Color:     color,
			TextColor: TextColor(color),
			Entities:  names,
		})
	}
	sort.Slice(legend, func(i, j int) bool {
		if len(legend[i].Entities) != len(legend[j].Entities) {
			return len(legend[i].Entities) > len(legend[j].Entities)
		}
		return legend[i].Owner < legend[j].Owner
	})
	return legend
}

func buildRows(entities []model.Entity) []EntityRow {
	rows := make([]EntityRow, 0, len(entities))
	for _, e := range entities {
		automation := len(e.PluginSteps) + len(e.Flows) + len(e.BusinessRules)
		rows = append(rows, EntityRow{
			LogicalName:   e.LogicalName,
			DisplayName:   e.DisplayName,
			Owner:         model.OwnerPrefix(e.SchemaName),
			Fields:        len(e.Attributes),
			Plugins:       len(e.PluginSteps),
			Flows:         len(e.Flows),
			BusinessRules: len(e.BusinessRules),
			Complexity:    complexity(automation, len(e.Attributes)),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].LogicalName < rows[j].LogicalName
	})
	return rows
}

// complexity derives the three-level tier from automation and field
// counts.
func complexity(automation, fields int) string {
	switch {
	case automation >= 10 || fields >= 100:
		return "High"
	case automation >= 5 || fields >= 50:
		return "Medium"
	default:
		return "Low"
	}
}
