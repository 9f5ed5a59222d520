package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataversedocs/blueprint/internal/dataverse"
)

// fakeClient serves canned result sets per entity set and records every
// query it receives.
type fakeClient struct {
	results map[string]*dataverse.QueryResult
	err     error
	calls   []recordedCall
}

type recordedCall struct {
	entitySet string
	opts      dataverse.QueryOptions
}

func (f *fakeClient) Query(ctx context.Context, entitySet string, opts dataverse.QueryOptions) (*dataverse.QueryResult, error) {
	f.calls = append(f.calls, recordedCall{entitySet: entitySet, opts: opts})
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.results[entitySet]; ok {
		return r, nil
	}
	return &dataverse.QueryResult{Count: -1}, nil
}

func membershipRow(objectID string, componentType int, solutionID string) dataverse.Record {
	return dataverse.Record{
		"objectid":           objectID,
		"componenttype":      float64(componentType),
		"_solutionid_value":  solutionID,
	}
}

func TestDiscover_ClassifiesAndDeduplicates(t *testing.T) {
	client := &fakeClient{results: map[string]*dataverse.QueryResult{
		"solutioncomponents": {Value: []dataverse.Record{
			membershipRow("{AAA-1}", 1, "sol-1"),
			// Same entity again from the second solution, different
			// brace/case convention.
			membershipRow("aaa-1", 1, "SOL-2"),
			membershipRow("bbb-1", 29, "sol-1"),
			membershipRow("ccc-1", 92, "sol-1"),
			// Unmapped type code: skipped.
			membershipRow("ddd-1", 999, "sol-1"),
		}},
	}}

	d := NewDiscoverer(client, nil)
	result, err := d.Discover(context.Background(), []string{"sol-1", "{SOL-2}"}, []string{"Core", "Extensions"})
	require.NoError(t, err)

	assert.False(t, result.CatchAll)
	assert.Equal(t, []string{"aaa-1"}, result.Inventory.Entities)
	assert.Equal(t, []string{"bbb-1"}, result.Inventory.Workflows)
	assert.Equal(t, []string{"ccc-1"}, result.Inventory.PluginSteps)
	assert.Equal(t, 3, result.Inventory.Total())

	// One component shared by two solutions: the membership map holds
	// both, while the bucket holds the id once.
	require.NotNil(t, result.Membership)
	assert.True(t, result.Membership.Contains("sol-1", "aaa-1"))
	assert.True(t, result.Membership.Contains("sol-2", "aaa-1"))
	assert.Len(t, result.Membership.SolutionsByComponent["aaa-1"], 2)
	assert.Equal(t, TypeEntity, result.Membership.TypeByComponent["aaa-1"])
}

func TestDiscover_SingleBatchedQuery(t *testing.T) {
	client := &fakeClient{results: map[string]*dataverse.QueryResult{}}
	d := NewDiscoverer(client, nil)
	_, err := d.Discover(context.Background(), []string{"A", "B", "C"}, nil)
	require.NoError(t, err)

	// One round trip covering all solutions via an OR-disjunction,
	// not one query per solution.
	require.Len(t, client.calls, 1)
	assert.Equal(t, "solutioncomponents", client.calls[0].entitySet)
	assert.Equal(t, "(_solutionid_value eq a or _solutionid_value eq b or _solutionid_value eq c)",
		client.calls[0].opts.Filter)
}

func TestDiscover_CatchAllMode(t *testing.T) {
	client := &fakeClient{results: map[string]*dataverse.QueryResult{
		"EntityDefinitions": {Value: []dataverse.Record{
			{"MetadataId": "{ENT-1}"},
			{"MetadataId": "ent-1"}, // duplicate after normalization
		}},
		"workflows": {Value: []dataverse.Record{{"workflowid": "wf-1"}}},
	}}

	d := NewDiscoverer(client, nil)
	// The catch-all wins regardless of which other solutions were
	// also selected.
	result, err := d.Discover(context.Background(), []string{"sol-1"}, []string{"Core", "Default Solution"})
	require.NoError(t, err)

	assert.True(t, result.CatchAll)
	assert.Nil(t, result.Membership)
	assert.Equal(t, []string{"ent-1"}, result.Inventory.Entities)
	assert.Equal(t, []string{"wf-1"}, result.Inventory.Workflows)

	// No membership query in catch-all mode.
	for _, call := range client.calls {
		assert.NotEqual(t, "solutioncomponents", call.entitySet)
	}
}

func TestDiscover_EmptySolutionListFails(t *testing.T) {
	client := &fakeClient{results: map[string]*dataverse.QueryResult{}}
	d := NewDiscoverer(client, nil)

	// An empty id list must not fall through to an unfiltered
	// membership scan of the whole environment.
	_, err := d.Discover(context.Background(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no solutions")
	assert.Empty(t, client.calls)
}

func TestDiscover_QueryFailure(t *testing.T) {
	client := &fakeClient{err: errors.New("timeout")}
	d := NewDiscoverer(client, nil)
	_, err := d.Discover(context.Background(), []string{"sol-1"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to discover solution components")
}

func TestIsCatchAll(t *testing.T) {
	assert.True(t, isCatchAll("Default Solution"))
	assert.True(t, isCatchAll("default solution"))
	assert.True(t, isCatchAll("DEFAULT"))
	assert.True(t, isCatchAll("  Common Data Services Default Solution "))
	assert.False(t, isCatchAll("Core Solution"))
	assert.False(t, isCatchAll(""))
}
