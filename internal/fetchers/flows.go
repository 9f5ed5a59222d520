package fetchers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dataversedocs/blueprint/internal/dataverse"
	"github.com/dataversedocs/blueprint/internal/model"
)

// Dataverse trigger message codes inside a flow's subscriptionRequest.
var flowMessageNames = map[string]string{
	"1": "Create",
	"2": "Delete",
	"3": "Update",
	"4": "CreateOrUpdate",
	"5": "CreateOrDelete",
	"6": "UpdateOrDelete",
	"7": "CreateOrUpdateOrDelete",
}

// Flows fetches modern flows by id and parses each flow's client data
// for its trigger, run scope, and external connector usage.
func (f *Fetchers) Flows(ctx context.Context, ids []string) ([]model.Flow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	result, err := f.client.Query(ctx, "workflows", dataverse.QueryOptions{
		Select: []string{"workflowid", "name", "statecode", "clientdata"},
		Filter: dataverse.OrGUIDs("workflowid", ids),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch flows: %w", err)
	}

	out := make([]model.Flow, 0, len(result.Value))
	for _, rec := range result.Value {
		flow := model.Flow{
			ID:    dataverse.NormalizeID(rec.GetString("workflowid")),
			Name:  rec.GetString("name"),
			State: stateName(rec.GetInt("statecode")),
		}
		parseClientData(rec.GetString("clientdata"), &flow)
		out = append(out, flow)
	}
	return out, nil
}

// flowDefinition is the subset of a flow's client data this tool reads.
type flowDefinition struct {
	Properties struct {
		Definition struct {
			Triggers map[string]struct {
				Type   string `json:"type"`
				Inputs struct {
					Parameters map[string]interface{} `json:"parameters"`
				} `json:"inputs"`
			} `json:"triggers"`
			Actions map[string]json.RawMessage `json:"actions"`
		} `json:"definition"`
	} `json:"properties"`
}

// parseClientData extracts the Dataverse trigger (entity, message,
// scope) and flags external calls: any HTTP action or any connection
// outside the Dataverse connector counts as an external call.
func parseClientData(clientData string, flow *model.Flow) {
	if clientData == "" {
		return
	}
	var def flowDefinition
	if err := json.Unmarshal([]byte(clientData), &def); err != nil {
		return
	}

	for _, trigger := range def.Properties.Definition.Triggers {
		params := trigger.Inputs.Parameters
		if params == nil {
			continue
		}
		if entity, ok := params["subscriptionRequest/entityname"].(string); ok {
			flow.TriggerEntity = entity
		}
		flow.TriggerEvent = messageName(params["subscriptionRequest/message"])
		if mode, ok := params["subscriptionRequest/mode"].(float64); ok && int(mode) == model.ScopeAsynchronous {
			flow.Scope = model.ScopeAsynchronous
		}
	}

	for _, raw := range def.Properties.Definition.Actions {
		action := string(raw)
		if strings.Contains(action, `"type":"Http"`) ||
			strings.Contains(action, `"type": "Http"`) {
			flow.HasExternalCalls = true
			continue
		}
		// Any connection other than the Dataverse connector itself is
		// an external call.
		if strings.Contains(action, `"connectionName"`) &&
			!strings.Contains(action, "shared_commondataserviceforapps") {
			flow.HasExternalCalls = true
		}
	}
}

func messageName(v interface{}) string {
	switch m := v.(type) {
	case string:
		if name, ok := flowMessageNames[m]; ok {
			return name
		}
	case float64:
		if name, ok := flowMessageNames[fmt.Sprintf("%d", int(m))]; ok {
			return name
		}
	}
	return ""
}

func stateName(code int) string {
	if code == 1 {
		return "Activated"
	}
	return "Draft"
}

// BusinessRules fetches category-2 workflows by id. Scope 2 means the
// rule runs server-side at the entity level; any other scope is
// form-bound (client side).
func (f *Fetchers) BusinessRules(ctx context.Context, ids []string) ([]model.BusinessRule, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	result, err := f.client.Query(ctx, "workflows", dataverse.QueryOptions{
		Select: []string{"workflowid", "name", "primaryentity", "scope", "statecode", "description"},
		Filter: dataverse.OrGUIDs("workflowid", ids),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch business rules: %w", err)
	}

	out := make([]model.BusinessRule, 0, len(result.Value))
	for _, rec := range result.Value {
		scope := "AllForms"
		if rec.GetInt("scope") == 2 {
			scope = model.BusinessRuleScopeEntity
		}
		out = append(out, model.BusinessRule{
			ID:          dataverse.NormalizeID(rec.GetString("workflowid")),
			Name:        rec.GetString("name"),
			Entity:      rec.GetString("primaryentity"),
			Scope:       scope,
			IsActive:    rec.GetInt("statecode") == 1,
			Description: rec.GetString("description"),
		})
	}
	return out, nil
}

// ClassicWorkflows fetches category-0 workflows by id.
func (f *Fetchers) ClassicWorkflows(ctx context.Context, ids []string) ([]model.ClassicWorkflow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	result, err := f.client.Query(ctx, "workflows", dataverse.QueryOptions{
		Select: []string{"workflowid", "name", "primaryentity", "statecode", "triggeroncreate", "triggerondelete", "triggeronupdateattributelist"},
		Filter: dataverse.OrGUIDs("workflowid", ids),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch classic workflows: %w", err)
	}

	out := make([]model.ClassicWorkflow, 0, len(result.Value))
	for _, rec := range result.Value {
		out = append(out, model.ClassicWorkflow{
			ID:       dataverse.NormalizeID(rec.GetString("workflowid")),
			Name:     rec.GetString("name"),
			Entity:   rec.GetString("primaryentity"),
			Trigger:  classicTrigger(rec),
			IsActive: rec.GetInt("statecode") == 1,
		})
	}
	return out, nil
}

func classicTrigger(rec dataverse.Record) string {
	var parts []string
	if rec.GetBool("triggeroncreate") {
		parts = append(parts, "Create")
	}
	if rec.GetString("triggeronupdateattributelist") != "" {
		parts = append(parts, "Update")
	}
	if rec.GetBool("triggerondelete") {
		parts = append(parts, "Delete")
	}
	return strings.Join(parts, ", ")
}

// BusinessProcessFlows fetches category-4 workflows by id.
func (f *Fetchers) BusinessProcessFlows(ctx context.Context, ids []string) ([]model.BusinessProcessFlow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	result, err := f.client.Query(ctx, "workflows", dataverse.QueryOptions{
		Select: []string{"workflowid", "name", "primaryentity"},
		Filter: dataverse.OrGUIDs("workflowid", ids),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch business process flows: %w", err)
	}

	out := make([]model.BusinessProcessFlow, 0, len(result.Value))
	for _, rec := range result.Value {
		out = append(out, model.BusinessProcessFlow{
			ID:     dataverse.NormalizeID(rec.GetString("workflowid")),
			Name:   rec.GetString("name"),
			Entity: rec.GetString("primaryentity"),
		})
	}
	return out, nil
}
