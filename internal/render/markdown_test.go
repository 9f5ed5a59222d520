package render

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataversedocs/blueprint/internal/blueprint"
	"github.com/dataversedocs/blueprint/internal/distribution"
	"github.com/dataversedocs/blueprint/internal/erd"
	"github.com/dataversedocs/blueprint/internal/model"
)

func sampleResult() *blueprint.Result {
	return &blueprint.Result{
		Blueprint: &model.Blueprint{
			GeneratedAt:    time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
			EnvironmentURL: "https://org.crm.dynamics.com",
			Solutions: []model.Solution{{
				FriendlyName: "CRM Core", Version: "1.2.0.0", Publisher: "Contoso",
			}},
			Entities: []model.Entity{{
				LogicalName: "crm_invoice",
				DisplayName: "Invoice",
				Description: "Billable work.",
				Attributes: []model.Attribute{
					{LogicalName: "crm_amount"}, {LogicalName: "crm_customer"},
				},
				PluginSteps: []model.PluginStep{{
					ID: "p1", Name: "Validate Invoice", Message: "Create",
					PrimaryEntity: "crm_invoice", Stage: model.StagePreOperation,
					Rank: 1, PluginType: "Contoso.Plugins.Validate",
				}},
				Flows: []model.Flow{{
					ID: "f1", Name: "Notify Finance", TriggerEntity: "crm_invoice",
					TriggerEvent: "Create", HasExternalCalls: true,
				}},
			}},
			Diagnostics: []model.Degradation{{Phase: "forms", Reason: "timeout"}},
		},
		ERD: &erd.Definition{
			Diagrams: []erd.Diagram{{
				Name:        "All Entities",
				Document:    "classDiagram\n    class crm_invoice {\n    }\n",
				EntityCount: 1,
			}},
			Legend: []erd.LegendEntry{{
				Owner: "crm", Publisher: "Contoso", Color: "#123456", TextColor: "#ffffff",
				Entities: []string{"crm_invoice"},
			}},
			Rows: []erd.EntityRow{{
				LogicalName: "crm_invoice", DisplayName: "Invoice", Owner: "crm",
				Fields: 2, Plugins: 1, Flows: 1, Complexity: "Low",
			}},
		},
		Distribution: []distribution.SolutionDistribution{{
			DisplayName: "CRM Core", ComponentCount: 5, CountsExact: true,
			SharedComponents: []string{"c1"},
			Dependencies: []distribution.Dependency{{
				OnSolutionName: "Finance",
				ReferencedBy:   []string{"crm_invoice.crm_customer"},
			}},
		}},
	}
}

func TestRender_Golden(t *testing.T) {
	doc := NewMarkdownGenerator("").Render(sampleResult())

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "blueprint_md", []byte(doc))
}

func TestRender_EnvironmentWideRun(t *testing.T) {
	result := sampleResult()
	result.Blueprint.Solutions = nil
	result.Distribution = nil

	doc := NewMarkdownGenerator("").Render(result)
	assert.Contains(t, doc, "No solutions resolved (environment-wide run).")
	assert.NotContains(t, doc, "## Solution Distribution")
}

func TestRender_NoDiagnosticsSection(t *testing.T) {
	result := sampleResult()
	result.Blueprint.Diagnostics = nil
	assert.NotContains(t, NewMarkdownGenerator("").Render(result), "## Diagnostics")
}

func TestMarkdownGenerator_WritesFile(t *testing.T) {
	dir := t.TempDir()
	g := NewMarkdownGenerator(filepath.Join(dir, "docs"))
	require.NoError(t, g.Generate(sampleResult()))

	data, err := os.ReadFile(filepath.Join(dir, "docs", "blueprint.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Solution Blueprint")
}

func TestJSONGenerator_WritesFile(t *testing.T) {
	dir := t.TempDir()
	g := NewJSONGenerator(dir)
	require.NoError(t, g.Generate(sampleResult()))

	data, err := os.ReadFile(filepath.Join(dir, "blueprint.json"))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	bp, ok := decoded["Blueprint"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "https://org.crm.dynamics.com", bp["EnvironmentURL"])
}
