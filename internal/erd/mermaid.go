package erd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dataversedocs/blueprint/internal/model"
)

// maxClassAttributes caps the attributes listed per class so large
// entities do not swamp the diagram.
const maxClassAttributes = 12

// renderAllEntities emits the single "all entities" Mermaid class
// diagram: one class per entity with its custom attributes, typed edges
// with cardinality annotations, and per-class style directives carrying
// the ownership color.
func renderAllEntities(entities []model.Entity, edges []edge) Diagram {
	var b strings.Builder
	b.WriteString("classDiagram\n")

	sorted := make([]model.Entity, len(entities))
	copy(sorted, entities)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].SchemaName < sorted[j].SchemaName
	})

	for _, e := range sorted {
		writeClass(&b, e)
	}
	for _, ed := range edges {
		if ed.ManyToMany {
			fmt.Fprintf(&b, "    %s \"*\" -- \"*\" %s : %s\n",
				className(ed.From), className(ed.To), ed.Label)
		} else {
			fmt.Fprintf(&b, "    %s \"1\" --> \"*\" %s : %s\n",
				className(ed.From), className(ed.To), ed.Label)
		}
	}
	for _, e := range sorted {
		fill := OwnerColor(model.OwnerPrefix(e.SchemaName))
		fmt.Fprintf(&b, "    style %s fill:%s,stroke:#333,color:%s\n",
			className(e.SchemaName), fill, TextColor(fill))
	}

	return Diagram{
		Name:        "All Entities",
		Document:    b.String(),
		EntityCount: len(entities),
		EdgeCount:   len(edges),
	}
}

func writeClass(b *strings.Builder, e model.Entity) {
	fmt.Fprintf(b, "    class %s {\n", className(e.SchemaName))
	shown := 0
	for _, a := range e.Attributes {
		if !a.IsCustom {
			continue
		}
		if shown == maxClassAttributes {
			fmt.Fprintf(b, "        +%d more\n", customAttributeCount(e)-shown)
			break
		}
		fmt.Fprintf(b, "        +%s %s\n", attrType(a), a.LogicalName)
		shown++
	}
	b.WriteString("    }\n")
}

func customAttributeCount(e model.Entity) int {
	n := 0
	for _, a := range e.Attributes {
		if a.IsCustom {
			n++
		}
	}
	return n
}

// attrType renders a short attribute type token safe for Mermaid.
func attrType(a model.Attribute) string {
	t := strings.ToLower(a.Type)
	if t == "" {
		t = "string"
	}
	return strings.Map(identOnly, t)
}

// className sanitizes a schema name into a Mermaid class identifier.
func className(schemaName string) string {
	return strings.Map(identOnly, schemaName)
}

func identOnly(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		return r
	}
	return '_'
}
