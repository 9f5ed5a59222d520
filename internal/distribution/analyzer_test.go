package distribution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataversedocs/blueprint/internal/inventory"
	"github.com/dataversedocs/blueprint/internal/model"
)

var (
	crmSolution = model.Solution{
		ID: "sol-crm", UniqueName: "crm_core", FriendlyName: "CRM Core",
		PublisherPrefix: "crm",
	}
	finSolution = model.Solution{
		ID: "sol-fin", UniqueName: "finance", FriendlyName: "Finance",
		PublisherPrefix: "fin",
	}
)

func crossSolutionBlueprint() *model.Blueprint {
	return &model.Blueprint{
		Entities: []model.Entity{
			{
				LogicalName: "crm_invoice",
				SchemaName:  "crm_invoice",
				Attributes: []model.Attribute{
					{LogicalName: "crm_customer", Type: "Lookup", Targets: []string{"fin_account"}},
				},
			},
			{LogicalName: "fin_account", SchemaName: "fin_account"},
		},
	}
}

func TestAnalyze_ExactCounts(t *testing.T) {
	membership := &inventory.Membership{
		SolutionsByComponent: map[string]map[string]bool{
			"c1": {"sol-crm": true, "sol-fin": true},
			"c2": {"sol-crm": true},
			"c3": {"sol-fin": true},
		},
		ComponentsBySolution: map[string]map[string]bool{
			"sol-crm": {"c1": true, "c2": true},
			"sol-fin": {"c1": true, "c3": true},
		},
		TypeByComponent: map[string]inventory.ComponentType{
			"c1": inventory.TypeEntity,
			"c2": inventory.TypeEntity,
			"c3": inventory.TypeWorkflow,
		},
	}

	out := Analyze([]model.Solution{finSolution, crmSolution}, crossSolutionBlueprint(), membership)

	require.Len(t, out, 2)
	assert.Equal(t, "CRM Core", out[0].DisplayName, "sorted by display name")
	assert.Equal(t, "Finance", out[1].DisplayName)

	crm := out[0]
	assert.True(t, crm.CountsExact)
	assert.Equal(t, 2, crm.ComponentCount)
	assert.Equal(t, 2, crm.CountsByType[inventory.TypeEntity])
	assert.Equal(t, []string{"c1"}, crm.SharedComponents)

	fin := out[1]
	assert.Equal(t, 2, fin.ComponentCount)
	assert.Equal(t, 1, fin.CountsByType[inventory.TypeEntity])
	assert.Equal(t, 1, fin.CountsByType[inventory.TypeWorkflow])
	assert.Equal(t, []string{"c1"}, fin.SharedComponents)
}

func TestAnalyze_DegradedCounts(t *testing.T) {
	bp := &model.Blueprint{
		Entities: []model.Entity{
			{
				LogicalName: "crm_invoice",
				Attributes:  []model.Attribute{{LogicalName: "a"}, {LogicalName: "b"}},
				PluginSteps: []model.PluginStep{{ID: "p1"}},
			},
			{LogicalName: "crm_payment"},
		},
		WebResources: []model.WebResource{{ID: "w1"}},
	}

	out := Analyze([]model.Solution{crmSolution}, bp, nil)

	require.Len(t, out, 1)
	assert.False(t, out[0].CountsExact)
	assert.Equal(t, 6, out[0].ComponentCount, "whole aggregated result, not per-solution")
	assert.Empty(t, out[0].CountsByType)
	assert.Empty(t, out[0].SharedComponents)
}

func TestAnalyze_InferredDependencies(t *testing.T) {
	out := Analyze([]model.Solution{crmSolution, finSolution}, crossSolutionBlueprint(), nil)

	require.Len(t, out, 2)
	crm := out[0]
	require.Len(t, crm.Dependencies, 1)
	assert.Equal(t, "sol-fin", crm.Dependencies[0].OnSolutionID)
	assert.Equal(t, "Finance", crm.Dependencies[0].OnSolutionName)
	assert.Equal(t, []string{"crm_invoice.crm_customer", "fin_account"},
		crm.Dependencies[0].ReferencedBy)

	fin := out[1]
	require.Len(t, fin.Dependencies, 1)
	assert.Equal(t, "sol-crm", fin.Dependencies[0].OnSolutionID)
	assert.Equal(t, []string{"crm_invoice"}, fin.Dependencies[0].ReferencedBy)
}

func TestAnalyze_PlatformReferencesIgnored(t *testing.T) {
	bp := &model.Blueprint{
		Entities: []model.Entity{
			{
				LogicalName: "crm_invoice",
				SchemaName:  "crm_invoice",
				Attributes:  []model.Attribute{{LogicalName: "crm_owner", Targets: []string{"contact"}}},
			},
			{LogicalName: "contact", SchemaName: "Contact"},
		},
	}
	out := Analyze([]model.Solution{crmSolution}, bp, nil)
	require.Len(t, out, 1)
	assert.Empty(t, out[0].Dependencies, "platform schema never produces a dependency")
}

func TestAnalyze_UnselectedPrefixIgnored(t *testing.T) {
	// fin_account exists but no selected solution owns the fin prefix.
	out := Analyze([]model.Solution{crmSolution}, crossSolutionBlueprint(), nil)
	require.Len(t, out, 1)
	assert.Empty(t, out[0].Dependencies)
}

func TestAnalyze_RelationshipReferences(t *testing.T) {
	bp := &model.Blueprint{
		Entities: []model.Entity{
			{
				LogicalName: "fin_account",
				SchemaName:  "fin_account",
				OneToMany: []model.Relationship{{
					SchemaName:        "fin_account_crm_invoice",
					ReferencedEntity:  "fin_account",
					ReferencingEntity: "crm_invoice",
					IsCustom:          true,
				}},
			},
			{LogicalName: "crm_invoice", SchemaName: "crm_invoice"},
		},
	}

	out := Analyze([]model.Solution{finSolution, crmSolution}, bp, nil)
	require.Len(t, out, 2)
	fin := out[1]
	require.Len(t, fin.Dependencies, 1)
	assert.Contains(t, fin.Dependencies[0].ReferencedBy, "fin_account_crm_invoice")
}
