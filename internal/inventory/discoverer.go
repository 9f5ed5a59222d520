package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dataversedocs/blueprint/internal/dataverse"
)

// catchAllNames identify the environment's built-in default solution.
// Selecting it switches discovery into query-everything mode.
var catchAllNames = []string{
	"default",
	"default solution",
	"common data services default solution",
}

// Discoverer resolves the component inventory for a set of solutions.
type Discoverer struct {
	client dataverse.Client
	logger *zap.Logger
}

// NewDiscoverer creates a Discoverer over the given query client.
func NewDiscoverer(client dataverse.Client, logger *zap.Logger) *Discoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discoverer{client: client, logger: logger}
}

// Discover queries the solutioncomponent membership table for all given
// solutions in one round trip and classifies the rows into typed
// buckets, deduplicating by normalized id. solutionNames, when
// provided, is checked for the default solution: if any selected
// solution is the catch-all, discovery instead returns every component
// in the environment with nil membership maps.
func (d *Discoverer) Discover(ctx context.Context, solutionIDs, solutionNames []string) (*DiscoveryResult, error) {
	for _, name := range solutionNames {
		if isCatchAll(name) {
			d.logger.Info("default solution selected, discovering entire environment")
			return d.discoverAll(ctx)
		}
	}

	// An empty id list would drop the membership filter entirely and
	// scan the whole environment, which only the default solution is
	// allowed to do.
	if len(solutionIDs) == 0 {
		return nil, errors.New("no solutions to discover components for")
	}

	ids := make([]string, 0, len(solutionIDs))
	for _, id := range solutionIDs {
		ids = append(ids, dataverse.NormalizeID(id))
	}

	result, err := d.client.Query(ctx, "solutioncomponents", dataverse.QueryOptions{
		Select: []string{"objectid", "componenttype", "_solutionid_value"},
		Filter: dataverse.OrGUIDs("_solutionid_value", ids),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover solution components: %w", err)
	}

	out := &DiscoveryResult{Membership: NewMembership()}
	seen := make(map[ComponentType]map[string]bool)
	for _, rec := range result.Value {
		componentID := dataverse.NormalizeID(rec.GetString("objectid"))
		solutionID := dataverse.NormalizeID(rec.GetString("_solutionid_value"))
		t := ComponentType(rec.GetInt("componenttype"))
		if componentID == "" {
			continue
		}

		bucket := out.Inventory.bucket(t)
		if bucket == nil {
			// Codes without pipeline semantics (display strings,
			// sitemaps, ...) are skipped, not errors.
			continue
		}
		out.Membership.add(componentID, solutionID, t)
		if seen[t] == nil {
			seen[t] = make(map[string]bool)
		}
		if seen[t][componentID] {
			continue
		}
		seen[t][componentID] = true
		*bucket = append(*bucket, componentID)
	}

	d.logger.Info("solution components discovered",
		zap.Int("solutions", len(ids)),
		zap.Int("rows", len(result.Value)),
		zap.Int("components", out.Inventory.Total()))
	return out, nil
}

// discoverAll issues one unfiltered query per artifact type and returns
// everything in the environment. Membership stays nil.
func (d *Discoverer) discoverAll(ctx context.Context) (*DiscoveryResult, error) {
	sources := []struct {
		entitySet string
		idField   string
		kind      ComponentType
	}{
		{"EntityDefinitions", "MetadataId", TypeEntity},
		{"sdkmessageprocessingsteps", "sdkmessageprocessingstepid", TypePluginStep},
		{"workflows", "workflowid", TypeWorkflow},
		{"webresourceset", "webresourceid", TypeWebResource},
		{"canvasapps", "canvasappid", TypeCanvasApp},
		{"connectionreferences", "connectionreferenceid", TypeConnectionReference},
		{"customapis", "customapiid", TypeCustomAPI},
		{"environmentvariabledefinitions", "environmentvariabledefinitionid", TypeEnvironmentVariable},
		{"GlobalOptionSetDefinitions", "MetadataId", TypeGlobalChoice},
		{"connectors", "connectorid", TypeCustomConnector},
		{"roles", "roleid", TypeSecurityRole},
		{"fieldsecurityprofiles", "fieldsecurityprofileid", TypeFieldSecurityProfile},
	}

	out := &DiscoveryResult{CatchAll: true}
	for _, src := range sources {
		result, err := d.client.Query(ctx, src.entitySet, dataverse.QueryOptions{
			Select: []string{src.idField},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to discover solution components: %w", err)
		}
		bucket := out.Inventory.bucket(src.kind)
		seen := make(map[string]bool)
		for _, rec := range result.Value {
			id := dataverse.NormalizeID(rec.GetString(src.idField))
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			*bucket = append(*bucket, id)
		}
	}

	d.logger.Info("environment inventory discovered",
		zap.Int("components", out.Inventory.Total()))
	return out, nil
}

func isCatchAll(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range catchAllNames {
		if name == c {
			return true
		}
	}
	return false
}
