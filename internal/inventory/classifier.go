package inventory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dataversedocs/blueprint/internal/dataverse"
)

// Workflow category codes. The Workflow component id space covers four
// artifact kinds this tool understands; dialogs (1), actions (3), and
// desktop flows (6) have no pipeline semantics yet and are dropped.
const (
	categoryClassicWorkflow     = 0
	categoryBusinessRule        = 2
	categoryBusinessProcessFlow = 4
	categoryModernFlow          = 5
)

// WorkflowInventory partitions workflow ids by category. The four sets
// are pairwise disjoint and their union is a subset of the input ids.
type WorkflowInventory struct {
	Flows                []string
	BusinessRules        []string
	ClassicWorkflows     []string
	BusinessProcessFlows []string
}

// Classifier partitions workflow component ids by their category code.
type Classifier struct {
	client dataverse.Client
	logger *zap.Logger
}

// NewClassifier creates a Classifier over the given query client.
func NewClassifier(client dataverse.Client, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{client: client, logger: logger}
}

// Classify fetches category codes for the given workflow ids in one
// batched query and partitions them. An empty input returns four empty
// sets without a network call. Unknown categories are dropped silently:
// the platform may introduce categories this tool has no semantics for.
func (c *Classifier) Classify(ctx context.Context, workflowIDs []string) (*WorkflowInventory, error) {
	inv := &WorkflowInventory{}
	if len(workflowIDs) == 0 {
		return inv, nil
	}

	ids := make([]string, 0, len(workflowIDs))
	for _, id := range workflowIDs {
		ids = append(ids, dataverse.NormalizeID(id))
	}

	result, err := c.client.Query(ctx, "workflows", dataverse.QueryOptions{
		Select: []string{"workflowid", "category"},
		Filter: dataverse.OrGUIDs("workflowid", ids),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to classify workflows: %w", err)
	}

	seen := make(map[string]bool)
	for _, rec := range result.Value {
		id := dataverse.NormalizeID(rec.GetString("workflowid"))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		switch rec.GetInt("category") {
		case categoryModernFlow:
			inv.Flows = append(inv.Flows, id)
		case categoryBusinessRule:
			inv.BusinessRules = append(inv.BusinessRules, id)
		case categoryClassicWorkflow:
			inv.ClassicWorkflows = append(inv.ClassicWorkflows, id)
		case categoryBusinessProcessFlow:
			inv.BusinessProcessFlows = append(inv.BusinessProcessFlows, id)
		}
	}

	c.logger.Debug("workflows classified",
		zap.Int("flows", len(inv.Flows)),
		zap.Int("businessRules", len(inv.BusinessRules)),
		zap.Int("classicWorkflows", len(inv.ClassicWorkflows)),
		zap.Int("businessProcessFlows", len(inv.BusinessProcessFlows)))
	return inv, nil
}
