// Package pipeline computes the deterministic execution-order pipeline
// for one (entity, event) pair: which automation fires, in which stage,
// in which order. Everything here is pure computation over already
// fetched data; any failure indicates a broken invariant upstream.
package pipeline

import (
	"sort"
	"strings"

	"github.com/dataversedocs/blueprint/internal/dataverse"
	"github.com/dataversedocs/blueprint/internal/model"
)

// StepKind identifies the artifact behind a pipeline step.
type StepKind string

const (
	KindPlugin       StepKind = "Plugin"
	KindFlow         StepKind = "Flow"
	KindBusinessRule StepKind = "BusinessRule"
	KindFormHandler  StepKind = "FormHandler"
)

// Step is one automation step placed in the pipeline.
type Step struct {
	// Order is 1-based and local to the containing bucket.
	Order int
	ID    string
	Name  string
	Kind  StepKind
	// Detail carries kind-specific context: plugin type name, business
	// rule scope, or form handler event and library.
	Detail           string
	HasExternalCalls bool
}

// Pipeline is the staged execution order for one (entity, event) pair.
// The four stage buckets hold synchronous server-side steps; flows and
// business rules never run before the main operation, so they only ever
// appear in PostOperation, ClientSide, or Asynchronous.
type Pipeline struct {
	Entity string
	Event  string

	PreValidation []Step
	PreOperation  []Step
	MainOperation []Step
	PostOperation []Step
	ClientSide    []Step
	Asynchronous  []Step

	TotalSteps       int
	HasExternalCalls bool
}

// Calculate produces the pipeline for one entity and event. The event
// is one of Create, Update, Delete (case-insensitive).
func Calculate(entity, event string, plugins []model.PluginStep, flows []model.Flow, rules []model.BusinessRule, forms []model.Form) *Pipeline {
	p := &Pipeline{Entity: entity, Event: canonicalEvent(event)}

	steps := relevantPlugins(entity, p.Event, plugins)
	matchedFlows := relevantFlows(entity, p.Event, flows)
	matchedRules := relevantRules(entity, p.Event, rules)

	// Synchronous plugin steps, staged by the platform stage code.
	// Codes outside 10/20/30/40 are reserved for internal use and
	// dropped. Within a stage: rank ascending, then normalized step id
	// as the deterministic tiebreaker.
	var async []model.PluginStep
	stages := map[int]*[]Step{
		model.StagePreValidation: &p.PreValidation,
		model.StagePreOperation:  &p.PreOperation,
		model.StageMainOperation: &p.MainOperation,
		model.StagePostOperation: &p.PostOperation,
	}
	sort.SliceStable(steps, func(i, j int) bool {
		if steps[i].Rank != steps[j].Rank {
			return steps[i].Rank < steps[j].Rank
		}
		return dataverse.NormalizeID(steps[i].ID) < dataverse.NormalizeID(steps[j].ID)
	})
	for _, s := range steps {
		if s.Mode == model.ModeAsynchronous {
			async = append(async, s)
			continue
		}
		bucket, ok := stages[s.Stage]
		if !ok {
			continue
		}
		*bucket = append(*bucket, pluginStep(s))
	}

	// Synchronous flows and entity-scoped business rules are platform
	// scheduled after the main operation, before commit.
	for _, f := range matchedFlows {
		if f.Scope == model.ScopeAsynchronous {
			continue
		}
		p.PostOperation = append(p.PostOperation, flowStep(f))
	}
	for _, r := range matchedRules {
		if r.Scope == model.BusinessRuleScopeEntity {
			p.PostOperation = append(p.PostOperation, ruleStep(r))
		}
	}

	// Async bucket: async plugin steps, then async-scope flows, in
	// insertion order.
	for _, s := range async {
		p.Asynchronous = append(p.Asynchronous, pluginStep(s))
	}
	for _, f := range matchedFlows {
		if f.Scope == model.ScopeAsynchronous {
			p.Asynchronous = append(p.Asynchronous, flowStep(f))
		}
	}

	// Client side: form-scoped active business rules, then enabled
	// form handlers. Delete has no client-side automation.
	if p.Event != "Delete" {
		for _, r := range matchedRules {
			if r.Scope != model.BusinessRuleScopeEntity && r.IsActive {
				p.ClientSide = append(p.ClientSide, ruleStep(r))
			}
		}
		for _, form := range forms {
			if !strings.EqualFold(form.Entity, entity) {
				continue
			}
			for _, h := range form.Handlers {
				if !h.Enabled || !clientEventRelevant(h.Event) {
					continue
				}
				p.ClientSide = append(p.ClientSide, handlerStep(form, h))
			}
		}
	}

	// Order is local to each bucket, starting at 1.
	for _, bucket := range []*[]Step{
		&p.PreValidation, &p.PreOperation, &p.MainOperation,
		&p.PostOperation, &p.ClientSide, &p.Asynchronous,
	} {
		for i := range *bucket {
			(*bucket)[i].Order = i + 1
		}
		p.TotalSteps += len(*bucket)
		for _, s := range *bucket {
			if s.HasExternalCalls {
				p.HasExternalCalls = true
			}
		}
	}

	return p
}

// EntityEvents returns the sorted, deduplicated union of every event
// name implied by the entity's automation: plugin messages, flow
// triggers (CreateOrUpdate expands to both), and the presence of any
// business rule or form handler (both imply Create and Update).
func EntityEvents(entity string, plugins []model.PluginStep, flows []model.Flow, rules []model.BusinessRule, forms []model.Form) []string {
	events := make(map[string]bool)

	for _, s := range plugins {
		if strings.EqualFold(s.PrimaryEntity, entity) && s.Message != "" {
			events[canonicalEvent(s.Message)] = true
		}
	}
	for _, f := range flows {
		if !strings.EqualFold(f.TriggerEntity, entity) {
			continue
		}
		if strings.EqualFold(f.TriggerEvent, "CreateOrUpdate") {
			events["Create"] = true
			events["Update"] = true
		} else if f.TriggerEvent != "" {
			events[canonicalEvent(f.TriggerEvent)] = true
		}
	}
	hasRules := false
	for _, r := range rules {
		if strings.EqualFold(r.Entity, entity) {
			hasRules = true
			break
		}
	}
	hasForms := false
	for _, form := range forms {
		if strings.EqualFold(form.Entity, entity) && len(form.Handlers) > 0 {
			hasForms = true
			break
		}
	}
	if hasRules || hasForms {
		events["Create"] = true
		events["Update"] = true
	}

	out := make([]string, 0, len(events))
	for e := range events {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

func relevantPlugins(entity, event string, plugins []model.PluginStep) []model.PluginStep {
	var out []model.PluginStep
	for _, s := range plugins {
		if s.IsDisabled {
			continue
		}
		if strings.EqualFold(s.PrimaryEntity, entity) && strings.EqualFold(s.Message, event) {
			out = append(out, s)
		}
	}
	return out
}

// relevantFlows applies the trigger compatibility rule: CreateOrUpdate
// satisfies both Create and Update; a specific trigger satisfies only
// its exact event.
func relevantFlows(entity, event string, flows []model.Flow) []model.Flow {
	var out []model.Flow
	for _, f := range flows {
		if !strings.EqualFold(f.TriggerEntity, entity) {
			continue
		}
		trigger := f.TriggerEvent
		match := strings.EqualFold(trigger, event) ||
			(strings.EqualFold(trigger, "CreateOrUpdate") &&
				(event == "Create" || event == "Update"))
		if match {
			out = append(out, f)
		}
	}
	return out
}

// relevantRules: business rules have no per-event trigger granularity;
// every rule targeting the entity is relevant to Create and Update.
func relevantRules(entity, event string, rules []model.BusinessRule) []model.BusinessRule {
	if event != "Create" && event != "Update" {
		return nil
	}
	var out []model.BusinessRule
	for _, r := range rules {
		if strings.EqualFold(r.Entity, entity) {
			out = append(out, r)
		}
	}
	return out
}

func clientEventRelevant(event string) bool {
	switch event {
	case "OnLoad", "OnSave", "OnChange":
		return true
	}
	return false
}

func canonicalEvent(event string) string {
	switch strings.ToLower(event) {
	case "create":
		return "Create"
	case "update":
		return "Update"
	case "delete":
		return "Delete"
	}
	return event
}

func pluginStep(s model.PluginStep) Step {
	return Step{
		ID:     s.ID,
		Name:   s.Name,
		Kind:   KindPlugin,
		Detail: s.PluginType,
		// Plugin external-call detection is not implemented; assembly
		// inspection would be required, so this is always false.
		HasExternalCalls: false,
	}
}

func flowStep(f model.Flow) Step {
	return Step{
		ID:               f.ID,
		Name:             f.Name,
		Kind:             KindFlow,
		HasExternalCalls: f.HasExternalCalls,
	}
}

func ruleStep(r model.BusinessRule) Step {
	return Step{ID: r.ID, Name: r.Name, Kind: KindBusinessRule, Detail: r.Scope}
}

func handlerStep(form model.Form, h model.FormEventHandler) Step {
	detail := h.Event
	if h.Attribute != "" {
		detail += "(" + h.Attribute + ")"
	}
	return Step{
		ID:     form.ID,
		Name:   h.FunctionName,
		Kind:   KindFormHandler,
		Detail: detail + " " + h.Library,
	}
}
