// Package render turns an aggregated blueprint into export documents:
// a Markdown report with the embedded relationship diagram and
// per-event execution pipelines, and a raw JSON export.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dataversedocs/blueprint/internal/blueprint"
	"github.com/dataversedocs/blueprint/internal/model"
	"github.com/dataversedocs/blueprint/internal/pipeline"
)

// MarkdownGenerator generates the Markdown blueprint report.
type MarkdownGenerator struct {
	outputDir string
}

// NewMarkdownGenerator creates a generator writing under outputDir.
func NewMarkdownGenerator(outputDir string) *MarkdownGenerator {
	return &MarkdownGenerator{outputDir: outputDir}
}

// Generate writes blueprint.md under the output directory.
func (g *MarkdownGenerator) Generate(result *blueprint.Result) error {
	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	doc := g.Render(result)
	outputPath := filepath.Join(g.outputDir, "blueprint.md")
	if err := os.WriteFile(outputPath, []byte(doc), 0644); err != nil {
		return fmt.Errorf("failed to write markdown report: %w", err)
	}
	return nil
}

// Render produces the full Markdown document.
func (g *MarkdownGenerator) Render(result *blueprint.Result) string {
	bp := result.Blueprint
	var buf strings.Builder

	buf.WriteString("# Solution Blueprint\n\n")
	fmt.Fprintf(&buf, "Generated %s from %s\n\n",
		bp.GeneratedAt.Format("2006-01-02 15:04 MST"), bp.EnvironmentURL)

	g.writeSolutions(&buf, bp)
	g.writeERD(&buf, result)
	g.writeEntities(&buf, bp)
	g.writeDistribution(&buf, result)
	g.writeDiagnostics(&buf, bp)

	return buf.String()
}

func (g *MarkdownGenerator) writeSolutions(buf *strings.Builder, bp *model.Blueprint) {
	buf.WriteString("## Solutions\n\n")
	if len(bp.Solutions) == 0 {
		buf.WriteString("No solutions resolved (environment-wide run).\n\n")
		return
	}
	buf.WriteString("| Solution | Version | Managed | Publisher |\n")
	buf.WriteString("|----------|---------|---------|----------|\n")
	for _, s := range bp.Solutions {
		managed := "No"
		if s.IsManaged {
			managed = "Yes"
		}
		fmt.Fprintf(buf, "| %s | %s | %s | %s |\n",
			s.FriendlyName, s.Version, managed, s.Publisher)
	}
	buf.WriteString("\n")
}

func (g *MarkdownGenerator) writeERD(buf *strings.Builder, result *blueprint.Result) {
	if result.ERD == nil || len(result.ERD.Diagrams) == 0 {
		return
	}
	buf.WriteString("## Entity Relationship Diagram\n\n")
	for _, d := range result.ERD.Diagrams {
		fmt.Fprintf(buf, "### %s\n\n", d.Name)
		buf.WriteString("```mermaid\n")
		buf.WriteString(d.Document)
		buf.WriteString("```\n\n")
	}

	buf.WriteString("### Ownership Legend\n\n")
	buf.WriteString("| Owner | Publisher | Color | Entities |\n")
	buf.WriteString("|-------|-----------|-------|----------|\n")
	for _, entry := range result.ERD.Legend {
		publisher := entry.Publisher
		if publisher == "" {
			publisher = "-"
		}
		fmt.Fprintf(buf, "| %s | %s | `%s` | %s |\n",
			entry.Owner, publisher, entry.Color, strings.Join(entry.Entities, ", "))
	}
	fmt.Fprintf(buf, "\nTotal relationships: %d\n\n", result.ERD.TotalRelationships)

	buf.WriteString("### Entity Summary\n\n")
	buf.WriteString("| Entity | Fields | Plugins | Flows | Business Rules | Complexity |\n")
	buf.WriteString("|--------|--------|---------|-------|----------------|------------|\n")
	for _, row := range result.ERD.Rows {
		fmt.Fprintf(buf, "| %s | %d | %d | %d | %d | %s |\n",
			row.DisplayName, row.Fields, row.Plugins, row.Flows, row.BusinessRules, row.Complexity)
	}
	buf.WriteString("\n")
}

func (g *MarkdownGenerator) writeEntities(buf *strings.Builder, bp *model.Blueprint) {
	if len(bp.Entities) == 0 {
		return
	}
	buf.WriteString("## Entities\n\n")
	for i := range bp.Entities {
		e := &bp.Entities[i]
		fmt.Fprintf(buf, "### %s (`%s`)\n\n", e.DisplayName, e.LogicalName)
		if e.Description != "" {
			fmt.Fprintf(buf, "> %s\n\n", e.Description)
		}
		fmt.Fprintf(buf, "%d fields, %d plugin steps, %d flows, %d business rules\n\n",
			len(e.Attributes), len(e.PluginSteps), len(e.Flows), len(e.BusinessRules))

		g.writePipelines(buf, e)
	}
}

// writePipelines renders one staged execution pipeline per event the
// entity's automation implies.
func (g *MarkdownGenerator) writePipelines(buf *strings.Builder, e *model.Entity) {
	events := pipeline.EntityEvents(e.LogicalName, e.PluginSteps, e.Flows, e.BusinessRules, e.Forms)
	for _, event := range events {
		p := pipeline.Calculate(e.LogicalName, event, e.PluginSteps, e.Flows, e.BusinessRules, e.Forms)
		if p.TotalSteps == 0 {
			continue
		}
		fmt.Fprintf(buf, "#### Execution order: %s\n\n", event)
		writeStage(buf, "Pre-Validation", p.PreValidation)
		writeStage(buf, "Pre-Operation", p.PreOperation)
		writeStage(buf, "Main Operation", p.MainOperation)
		writeStage(buf, "Post-Operation", p.PostOperation)
		writeStage(buf, "Client Side", p.ClientSide)
		writeStage(buf, "Asynchronous", p.Asynchronous)
		if p.HasExternalCalls {
			buf.WriteString("This pipeline makes external calls.\n")
		}
		buf.WriteString("\n")
	}
}

func writeStage(buf *strings.Builder, name string, steps []pipeline.Step) {
	if len(steps) == 0 {
		return
	}
	fmt.Fprintf(buf, "**%s**\n\n", name)
	for _, s := range steps {
		detail := ""
		if s.Detail != "" {
			detail = ": " + s.Detail
		}
		fmt.Fprintf(buf, "%d. %s (%s)%s\n", s.Order, s.Name, s.Kind, detail)
	}
	buf.WriteString("\n")
}

func (g *MarkdownGenerator) writeDistribution(buf *strings.Builder, result *blueprint.Result) {
	if len(result.Distribution) == 0 {
		return
	}
	buf.WriteString("## Solution Distribution\n\n")
	for _, d := range result.Distribution {
		exact := "exact"
		if !d.CountsExact {
			exact = "approximate"
		}
		fmt.Fprintf(buf, "### %s\n\n%d components (%s)\n\n",
			d.DisplayName, d.ComponentCount, exact)
		if len(d.SharedComponents) > 0 {
			fmt.Fprintf(buf, "%d components shared with other solutions\n\n", len(d.SharedComponents))
		}
		for _, dep := range d.Dependencies {
			fmt.Fprintf(buf, "- Depends on **%s** via %s\n",
				dep.OnSolutionName, strings.Join(dep.ReferencedBy, ", "))
		}
		if len(d.Dependencies) > 0 {
			buf.WriteString("\n")
		}
	}
}

func (g *MarkdownGenerator) writeDiagnostics(buf *strings.Builder, bp *model.Blueprint) {
	if len(bp.Diagnostics) == 0 {
		return
	}
	buf.WriteString("## Diagnostics\n\n")
	buf.WriteString("Some enrichments were skipped; the affected sections are empty, not missing data:\n\n")
	for _, d := range bp.Diagnostics {
		fmt.Fprintf(buf, "- %s: %s\n", d.Phase, d.Reason)
	}
	buf.WriteString("\n")
}
