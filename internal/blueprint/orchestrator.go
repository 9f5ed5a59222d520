// Package blueprint orchestrates a full documentation run: component
// discovery, workflow classification, per-type fetching, per-entity
// automation and security attachment, ERD generation, and solution
// distribution analysis.
package blueprint

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dataversedocs/blueprint/internal/dataverse"
	"github.com/dataversedocs/blueprint/internal/distribution"
	"github.com/dataversedocs/blueprint/internal/erd"
	"github.com/dataversedocs/blueprint/internal/fetchers"
	"github.com/dataversedocs/blueprint/internal/inventory"
	"github.com/dataversedocs/blueprint/internal/model"
)

// Progress is one structured progress event. Events fire before and
// after each phase and once per entity inside the attachment loop.
type Progress struct {
	Phase   string
	Current int
	Total   int
	Message string
}

// ProgressFunc receives progress events. It must not block.
type ProgressFunc func(Progress)

// Result is the complete output of one documentation run.
type Result struct {
	Blueprint    *model.Blueprint
	ERD          *erd.Definition
	Distribution []distribution.SolutionDistribution
	// Membership is nil when discovery ran in catch-all mode.
	Membership *inventory.Membership
}

// Options configures an Orchestrator.
type Options struct {
	EnvironmentURL string
	// EntityDelay is a small pause between entities in the attachment
	// loop, keeping the run polite toward the service's rate limits.
	EntityDelay time.Duration
	Progress    ProgressFunc
	Logger      *zap.Logger
}

// Orchestrator sequences a documentation run. All remote fetches are
// awaited sequentially; the only concurrency is sequenced I/O.
type Orchestrator struct {
	client     dataverse.Client
	fetchers   *fetchers.Fetchers
	discoverer *inventory.Discoverer
	classifier *inventory.Classifier
	opts       Options
	logger     *zap.Logger
}

// New creates an Orchestrator over the given query client.
func New(client dataverse.Client, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		client:     client,
		fetchers:   fetchers.New(client),
		discoverer: inventory.NewDiscoverer(client, logger),
		classifier: inventory.NewClassifier(client, logger),
		opts:       opts,
		logger:     logger,
	}
}

// missingSolutions reports the requested unique names that resolved to
// no solution. A typo here must stop the run: discovery for an empty
// solution set would otherwise scan the whole environment.
func missingSolutions(requested []string, resolved []model.Solution) []string {
	found := make(map[string]bool, len(resolved))
	for _, s := range resolved {
		found[strings.ToLower(s.UniqueName)] = true
	}
	var missing []string
	for _, name := range requested {
		if !found[strings.ToLower(name)] {
			missing = append(missing, name)
		}
	}
	return missing
}

func (o *Orchestrator) progress(phase string, current, total int, message string) {
	if o.opts.Progress != nil {
		o.opts.Progress(Progress{Phase: phase, Current: current, Total: total, Message: message})
	}
}

// degrade records a non-essential enrichment failure on the blueprint
// and logs it; the run continues with empty results for that phase.
func (o *Orchestrator) degrade(bp *model.Blueprint, phase string, err error) {
	o.logger.Warn("phase degraded", zap.String("phase", phase), zap.Error(err))
	bp.Diagnostics = append(bp.Diagnostics, model.Degradation{
		Phase:  phase,
		Reason: err.Error(),
	})
}

// Generate runs the full aggregation for the named solutions.
// Cancellation is cooperative: the context is polled at entity
// boundaries, and a cancelled run returns ctx.Err(). Callers should
// treat context.Canceled as "stopped", not as a failure.
func (o *Orchestrator) Generate(ctx context.Context, solutionNames []string) (*Result, error) {
	bp := &model.Blueprint{
		GeneratedAt:    time.Now().UTC(),
		EnvironmentURL: o.opts.EnvironmentURL,
	}

	o.progress("solutions", 0, 1, "Resolving solutions")
	solutions, err := o.fetchers.Solutions(ctx, solutionNames)
	if err != nil {
		return nil, err
	}
	if missing := missingSolutions(solutionNames, solutions); len(missing) > 0 {
		return nil, fmt.Errorf("failed to resolve solutions: %s not found", strings.Join(missing, ", "))
	}
	bp.Solutions = solutions
	o.progress("solutions", 1, 1, fmt.Sprintf("Resolved %d solutions", len(solutions)))

	ids := make([]string, 0, len(solutions))
	names := make([]string, 0, len(solutions))
	for _, s := range solutions {
		ids = append(ids, s.ID)
		names = append(names, s.UniqueName, s.FriendlyName)
	}

	o.progress("discovery", 0, 1, "Discovering solution components")
	discovery, err := o.discoverer.Discover(ctx, ids, names)
	if err != nil {
		return nil, err
	}
	o.progress("discovery", 1, 1,
		fmt.Sprintf("Discovered %d components", discovery.Inventory.Total()))

	o.progress("classification", 0, 1, "Classifying workflows")
	workflows, err := o.classifier.Classify(ctx, discovery.Inventory.Workflows)
	if err != nil {
		return nil, err
	}
	o.progress("classification", 1, 1, "Workflows classified")

	flows, plugins, rules, err := o.fetchAutomation(ctx, bp, discovery, workflows)
	if err != nil {
		return nil, err
	}
	if err := o.fetchComponents(ctx, bp, discovery); err != nil {
		return nil, err
	}

	o.progress("entities", 0, 1, "Fetching entity schemas")
	entities, err := o.fetchers.Entities(ctx, discovery.Inventory.Entities)
	if err != nil {
		return nil, err
	}
	o.progress("entities", 1, 1, fmt.Sprintf("Fetched %d entities", len(entities)))

	entityNames := make([]string, 0, len(entities))
	for _, e := range entities {
		entityNames = append(entityNames, e.LogicalName)
	}
	forms, err := o.fetchers.Forms(ctx, entityNames)
	if err != nil {
		// Form parsing is an enrichment: a blueprint without client
		// handlers is still useful.
		o.degrade(bp, "forms", err)
		forms = nil
	}

	permissions := o.fetchColumnSecurity(ctx, bp, discovery)

	if err := o.attach(ctx, bp, entities, plugins, flows, rules, forms, permissions); err != nil {
		return nil, err
	}

	o.progress("erd", 0, 1, "Generating relationship diagram")
	diagram := erd.Generate(bp.Entities, bp.Solutions)
	o.progress("erd", 1, 1,
		fmt.Sprintf("Diagram covers %d entities", diagram.Diagrams[0].EntityCount))

	result := &Result{Blueprint: bp, ERD: diagram, Membership: discovery.Membership}

	// Distribution analysis only makes sense for a solution-scoped
	// run with resolved containers.
	if !discovery.CatchAll && len(bp.Solutions) > 0 {
		o.progress("distribution", 0, 1, "Analyzing solution distribution")
		result.Distribution = distribution.Analyze(bp.Solutions, bp, discovery.Membership)
		o.progress("distribution", 1, 1, "Distribution analyzed")
	}

	return result, nil
}

// fetchAutomation resolves the classified workflow buckets and plugin
// steps. These are load-bearing: failures abort the run.
func (o *Orchestrator) fetchAutomation(ctx context.Context, bp *model.Blueprint, discovery *inventory.DiscoveryResult, workflows *inventory.WorkflowInventory) ([]model.Flow, []model.PluginStep, []model.BusinessRule, error) {
	o.progress("automation", 0, 4, "Fetching flows")
	flows, err := o.fetchers.Flows(ctx, workflows.Flows)
	if err != nil {
		return nil, nil, nil, err
	}

	o.progress("automation", 1, 4, "Fetching plugin steps")
	plugins, err := o.fetchers.PluginSteps(ctx, discovery.Inventory.PluginSteps)
	if err != nil {
		return nil, nil, nil, err
	}

	o.progress("automation", 2, 4, "Fetching business rules")
	rules, err := o.fetchers.BusinessRules(ctx, workflows.BusinessRules)
	if err != nil {
		return nil, nil, nil, err
	}

	o.progress("automation", 3, 4, "Fetching classic workflows")
	classic, err := o.fetchers.ClassicWorkflows(ctx, workflows.ClassicWorkflows)
	if err != nil {
		return nil, nil, nil, err
	}
	bp.ClassicWorkflows = classic

	bpfs, err := o.fetchers.BusinessProcessFlows(ctx, workflows.BusinessProcessFlows)
	if err != nil {
		return nil, nil, nil, err
	}
	bp.BusinessProcessFlows = bpfs
	o.progress("automation", 4, 4, "Automation fetched")

	return flows, plugins, rules, nil
}

// fetchComponents resolves the remaining component buckets.
func (o *Orchestrator) fetchComponents(ctx context.Context, bp *model.Blueprint, discovery *inventory.DiscoveryResult) error {
	inv := &discovery.Inventory
	total := 7
	step := 0
	next := func(msg string) {
		o.progress("components", step, total, msg)
		step++
	}

	var err error
	next("Fetching web resources")
	if bp.WebResources, err = o.fetchers.WebResources(ctx, inv.WebResources); err != nil {
		return err
	}
	next("Fetching canvas apps")
	if bp.CanvasApps, err = o.fetchers.CanvasApps(ctx, append(inv.CanvasApps, inv.CustomPages...)); err != nil {
		return err
	}
	next("Fetching connection references")
	if bp.ConnectionReferences, err = o.fetchers.ConnectionReferences(ctx, inv.ConnectionReferences); err != nil {
		return err
	}
	next("Fetching environment variables")
	if bp.EnvironmentVariables, err = o.fetchers.EnvironmentVariables(ctx, inv.EnvironmentVariables); err != nil {
		return err
	}
	next("Fetching custom APIs")
	if bp.CustomAPIs, err = o.fetchers.CustomAPIs(ctx, inv.CustomAPIs); err != nil {
		return err
	}
	next("Fetching global choices")
	if bp.GlobalChoices, err = o.fetchers.GlobalChoices(ctx, inv.GlobalChoices); err != nil {
		return err
	}
	next("Fetching custom connectors and roles")
	if bp.CustomConnectors, err = o.fetchers.CustomConnectors(ctx, inv.CustomConnectors); err != nil {
		return err
	}
	if bp.SecurityRoles, err = o.fetchers.SecurityRoles(ctx, inv.SecurityRoles); err != nil {
		return err
	}
	o.progress("components", total, total, "Components fetched")
	return nil
}

// fetchColumnSecurity is best-effort: a failure degrades to an empty
// overlay instead of aborting the run.
func (o *Orchestrator) fetchColumnSecurity(ctx context.Context, bp *model.Blueprint, discovery *inventory.DiscoveryResult) []model.FieldPermission {
	profiles, err := o.fetchers.FieldSecurityProfiles(ctx, discovery.Inventory.FieldSecurityProfiles)
	if err != nil {
		o.degrade(bp, "column-security", err)
		return nil
	}
	bp.FieldProfiles = profiles

	profileIDs := make([]string, 0, len(profiles))
	for _, p := range profiles {
		profileIDs = append(profileIDs, p.ID)
	}
	permissions, err := o.fetchers.FieldPermissions(ctx, profileIDs)
	if err != nil {
		o.degrade(bp, "column-security", err)
		return nil
	}
	return permissions
}

// attach groups fetched automation and security by target entity and
// attaches it onto each entity record by normalized-name lookup. The
// context is polled once per entity, so cancellation latency is
// bounded by one entity's processing time.
func (o *Orchestrator) attach(ctx context.Context, bp *model.Blueprint, entities []model.Entity, plugins []model.PluginStep, flows []model.Flow, rules []model.BusinessRule, forms []model.Form, permissions []model.FieldPermission) error {
	pluginsByEntity := make(map[string][]model.PluginStep)
	for _, p := range plugins {
		pluginsByEntity[strings.ToLower(p.PrimaryEntity)] = append(pluginsByEntity[strings.ToLower(p.PrimaryEntity)], p)
	}
	flowsByEntity := make(map[string][]model.Flow)
	boundFlows := make(map[string]bool)
	for _, f := range flows {
		key := strings.ToLower(f.TriggerEntity)
		flowsByEntity[key] = append(flowsByEntity[key], f)
	}
	rulesByEntity := make(map[string][]model.BusinessRule)
	for _, r := range rules {
		rulesByEntity[strings.ToLower(r.Entity)] = append(rulesByEntity[strings.ToLower(r.Entity)], r)
	}
	formsByEntity := make(map[string][]model.Form)
	for _, f := range forms {
		formsByEntity[strings.ToLower(f.Entity)] = append(formsByEntity[strings.ToLower(f.Entity)], f)
	}
	profilesByID := make(map[string]model.FieldSecurityProfile)
	for _, p := range bp.FieldProfiles {
		profilesByID[p.ID] = p
	}
	permissionsByEntity := make(map[string][]model.FieldPermission)
	for _, perm := range permissions {
		key := strings.ToLower(perm.Entity)
		permissionsByEntity[key] = append(permissionsByEntity[key], perm)
	}

	for i := range entities {
		if err := ctx.Err(); err != nil {
			return err
		}

		e := &entities[i]
		key := strings.ToLower(e.LogicalName)
		o.progress("attach", i+1, len(entities),
			fmt.Sprintf("Processing %s", e.LogicalName))

		e.PluginSteps = pluginsByEntity[key]
		e.Flows = flowsByEntity[key]
		e.BusinessRules = rulesByEntity[key]
		e.Forms = formsByEntity[key]
		for _, f := range e.Flows {
			boundFlows[f.ID] = true
		}

		seenProfile := make(map[string]bool)
		for _, perm := range permissionsByEntity[key] {
			if seenProfile[perm.ProfileID] {
				continue
			}
			seenProfile[perm.ProfileID] = true
			if profile, ok := profilesByID[perm.ProfileID]; ok {
				for _, p := range permissionsByEntity[key] {
					if p.ProfileID == perm.ProfileID {
						profile.Attributes = append(profile.Attributes, p.Attribute)
					}
				}
				e.FieldProfiles = append(e.FieldProfiles, profile)
			}
		}

		if o.opts.EntityDelay > 0 {
			time.Sleep(o.opts.EntityDelay)
		}
	}
	bp.Entities = entities

	for _, f := range flows {
		if !boundFlows[f.ID] {
			bp.UnboundFlows = append(bp.UnboundFlows, f)
		}
	}
	return nil
}
