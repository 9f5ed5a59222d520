package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataversedocs/blueprint/internal/dataverse"
)

func workflowRow(id string, category int) dataverse.Record {
	return dataverse.Record{"workflowid": id, "category": float64(category)}
}

func TestClassify_Partition(t *testing.T) {
	client := &fakeClient{results: map[string]*dataverse.QueryResult{
		"workflows": {Value: []dataverse.Record{
			workflowRow("flow-1", 5),
			workflowRow("rule-1", 2),
			workflowRow("classic-1", 0),
			workflowRow("bpf-1", 4),
			workflowRow("action-1", 3),  // unmapped: dropped
			workflowRow("future-1", 42), // unknown: dropped
		}},
	}}

	c := NewClassifier(client, nil)
	inv, err := c.Classify(context.Background(), []string{"flow-1", "rule-1", "classic-1", "bpf-1", "action-1", "future-1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"flow-1"}, inv.Flows)
	assert.Equal(t, []string{"rule-1"}, inv.BusinessRules)
	assert.Equal(t, []string{"classic-1"}, inv.ClassicWorkflows)
	assert.Equal(t, []string{"bpf-1"}, inv.BusinessProcessFlows)

	// The four buckets are pairwise disjoint and their union is a
	// subset of the input.
	seen := make(map[string]int)
	for _, bucket := range [][]string{inv.Flows, inv.BusinessRules, inv.ClassicWorkflows, inv.BusinessProcessFlows} {
		for _, id := range bucket {
			seen[id]++
		}
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "id %s appears in more than one bucket", id)
	}
	assert.Len(t, seen, 4)
}

func TestClassify_EmptyInputSkipsNetwork(t *testing.T) {
	client := &fakeClient{}
	c := NewClassifier(client, nil)
	inv, err := c.Classify(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, inv.Flows)
	assert.Empty(t, inv.BusinessRules)
	assert.Empty(t, inv.ClassicWorkflows)
	assert.Empty(t, inv.BusinessProcessFlows)
	assert.Empty(t, client.calls, "empty input must not hit the network")
}

func TestClassify_DuplicateRowsCollapse(t *testing.T) {
	client := &fakeClient{results: map[string]*dataverse.QueryResult{
		"workflows": {Value: []dataverse.Record{
			workflowRow("{FLOW-1}", 5),
			workflowRow("flow-1", 5),
		}},
	}}
	c := NewClassifier(client, nil)
	inv, err := c.Classify(context.Background(), []string{"flow-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"flow-1"}, inv.Flows)
}

func TestClassify_QueryFailure(t *testing.T) {
	client := &fakeClient{err: errors.New("timeout")}
	c := NewClassifier(client, nil)
	_, err := c.Classify(context.Background(), []string{"flow-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to classify workflows")
}
