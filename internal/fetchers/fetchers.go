// Package fetchers contains the thin per-artifact-type fetchers: each
// batch-fetches one record shape by id and maps it into the model, with
// no cross-referencing. All cross-referencing lives in the orchestrator
// and the analyzers.
package fetchers

import (
	"context"
	"fmt"
	"strings"

	"github.com/dataversedocs/blueprint/internal/dataverse"
	"github.com/dataversedocs/blueprint/internal/model"
)

// Fetchers bundles all per-type fetchers over one query client.
type Fetchers struct {
	client dataverse.Client
}

// New creates the fetcher bundle.
func New(client dataverse.Client) *Fetchers {
	return &Fetchers{client: client}
}

// Solutions resolves solutions by unique name, with publisher prefix
// expanded.
func (f *Fetchers) Solutions(ctx context.Context, uniqueNames []string) ([]model.Solution, error) {
	if len(uniqueNames) == 0 {
		return nil, nil
	}
	clauses := make([]string, 0, len(uniqueNames))
	for _, n := range uniqueNames {
		clauses = append(clauses, dataverse.EqString("uniquename", n))
	}
	filter := clauses[0]
	if len(clauses) > 1 {
		filter = "(" + joinOr(clauses) + ")"
	}

	result, err := f.client.Query(ctx, "solutions", dataverse.QueryOptions{
		Select: []string{"solutionid", "uniquename", "friendlyname", "version", "ismanaged"},
		Expand: "publisherid($select=friendlyname,customizationprefix)",
		Filter: filter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch solutions: %w", err)
	}

	out := make([]model.Solution, 0, len(result.Value))
	for _, rec := range result.Value {
		sol := model.Solution{
			ID:           dataverse.NormalizeID(rec.GetString("solutionid")),
			UniqueName:   rec.GetString("uniquename"),
			FriendlyName: rec.GetString("friendlyname"),
			Version:      rec.GetString("version"),
			IsManaged:    rec.GetBool("ismanaged"),
		}
		if pub := rec.GetRecord("publisherid"); pub != nil {
			sol.Publisher = pub.GetString("friendlyname")
			sol.PublisherPrefix = pub.GetString("customizationprefix")
		}
		out = append(out, sol)
	}
	return out, nil
}

// Entities fetches entity metadata by MetadataId with attributes and
// relationships expanded. Display names degrade to the logical name
// when the label is missing.
func (f *Fetchers) Entities(ctx context.Context, ids []string) ([]model.Entity, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	result, err := f.client.Query(ctx, "EntityDefinitions", dataverse.QueryOptions{
		Select: []string{
			"MetadataId", "LogicalName", "SchemaName", "DisplayName", "Description",
			"IsCustomEntity", "IsActivity", "OwnershipType",
			"PrimaryIdAttribute", "PrimaryNameAttribute",
		},
		Expand: "Attributes($select=MetadataId,LogicalName,SchemaName,DisplayName,AttributeType,IsCustomAttribute,RequiredLevel,IsSecured,Targets)," +
			"OneToManyRelationships($select=SchemaName,ReferencedEntity,ReferencedAttribute,ReferencingEntity,ReferencingAttribute,IsCustomRelationship)," +
			"ManyToManyRelationships($select=SchemaName,Entity1LogicalName,Entity2LogicalName,IntersectEntityName,IsCustomRelationship)",
		Filter: dataverse.OrGUIDs("MetadataId", ids),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch entities: %w", err)
	}

	out := make([]model.Entity, 0, len(result.Value))
	for _, rec := range result.Value {
		out = append(out, mapEntity(rec))
	}
	return out, nil
}

func mapEntity(rec dataverse.Record) model.Entity {
	e := model.Entity{
		ID:                   dataverse.NormalizeID(rec.GetString("MetadataId")),
		LogicalName:          rec.GetString("LogicalName"),
		SchemaName:           rec.GetString("SchemaName"),
		DisplayName:          label(rec, "DisplayName"),
		Description:          label(rec, "Description"),
		IsCustom:             rec.GetBool("IsCustomEntity"),
		IsActivity:           rec.GetBool("IsActivity"),
		OwnershipType:        rec.GetString("OwnershipType"),
		PrimaryIDAttribute:   rec.GetString("PrimaryIdAttribute"),
		PrimaryNameAttribute: rec.GetString("PrimaryNameAttribute"),
	}
	if e.DisplayName == "" {
		e.DisplayName = e.LogicalName
	}
	for _, a := range rec.GetRecords("Attributes") {
		e.Attributes = append(e.Attributes, mapAttribute(a))
	}
	for _, r := range rec.GetRecords("OneToManyRelationships") {
		e.OneToMany = append(e.OneToMany, model.Relationship{
			SchemaName:           r.GetString("SchemaName"),
			ReferencedEntity:     r.GetString("ReferencedEntity"),
			ReferencedAttribute:  r.GetString("ReferencedAttribute"),
			ReferencingEntity:    r.GetString("ReferencingEntity"),
			ReferencingAttribute: r.GetString("ReferencingAttribute"),
			IsCustom:             r.GetBool("IsCustomRelationship"),
		})
	}
	for _, r := range rec.GetRecords("ManyToManyRelationships") {
		e.ManyToMany = append(e.ManyToMany, model.ManyToManyRelationship{
			SchemaName:    r.GetString("SchemaName"),
			Entity1Name:   r.GetString("Entity1LogicalName"),
			Entity2Name:   r.GetString("Entity2LogicalName"),
			IntersectName: r.GetString("IntersectEntityName"),
			IsCustom:      r.GetBool("IsCustomRelationship"),
		})
	}
	return e
}

func mapAttribute(rec dataverse.Record) model.Attribute {
	a := model.Attribute{
		ID:          dataverse.NormalizeID(rec.GetString("MetadataId")),
		LogicalName: rec.GetString("LogicalName"),
		SchemaName:  rec.GetString("SchemaName"),
		DisplayName: label(rec, "DisplayName"),
		Type:        rec.GetString("AttributeType"),
		IsCustom:    rec.GetBool("IsCustomAttribute"),
		IsSecured:   rec.GetBool("IsSecured"),
	}
	if a.DisplayName == "" {
		a.DisplayName = a.LogicalName
	}
	if req := rec.GetRecord("RequiredLevel"); req != nil {
		a.IsRequired = req.GetString("Value") == "ApplicationRequired" ||
			req.GetString("Value") == "SystemRequired"
	}
	if targets, ok := rec["Targets"].([]interface{}); ok {
		for _, t := range targets {
			if s, ok := t.(string); ok {
				a.Targets = append(a.Targets, s)
			}
		}
	}
	return a
}

// label reads a metadata Label's localized value; metadata labels nest
// as {UserLocalizedLabel: {Label: "..."}}.
func label(rec dataverse.Record, field string) string {
	l := rec.GetRecord(field)
	if l == nil {
		return ""
	}
	ull := l.GetRecord("UserLocalizedLabel")
	if ull == nil {
		return ""
	}
	return ull.GetString("Label")
}

// PluginSteps fetches SDK message processing steps by id with message,
// filter, and plugin type expanded.
func (f *Fetchers) PluginSteps(ctx context.Context, ids []string) ([]model.PluginStep, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	result, err := f.client.Query(ctx, "sdkmessageprocessingsteps", dataverse.QueryOptions{
		Select: []string{"sdkmessageprocessingstepid", "name", "stage", "mode", "rank", "statecode", "filteringattributes"},
		Expand: "sdkmessageid($select=name)," +
			"sdkmessagefilterid($select=primaryobjecttypecode)," +
			"plugintypeid($select=typename)",
		Filter: dataverse.OrGUIDs("sdkmessageprocessingstepid", ids),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch plugin steps: %w", err)
	}

	out := make([]model.PluginStep, 0, len(result.Value))
	for _, rec := range result.Value {
		step := model.PluginStep{
			ID:         dataverse.NormalizeID(rec.GetString("sdkmessageprocessingstepid")),
			Name:       rec.GetString("name"),
			Stage:      rec.GetInt("stage"),
			Mode:       rec.GetInt("mode"),
			Rank:       rec.GetInt("rank"),
			IsDisabled: rec.GetInt("statecode") != 0,
		}
		if fa := rec.GetString("filteringattributes"); fa != "" {
			step.FilteringAttributes = splitCommaList(fa)
		}
		if msg := rec.GetRecord("sdkmessageid"); msg != nil {
			step.Message = msg.GetString("name")
		}
		if filter := rec.GetRecord("sdkmessagefilterid"); filter != nil {
			step.PrimaryEntity = filter.GetString("primaryobjecttypecode")
		}
		if pt := rec.GetRecord("plugintypeid"); pt != nil {
			step.PluginType = pt.GetString("typename")
		}
		out = append(out, step)
	}
	return out, nil
}

// WebResources fetches web resources by id.
func (f *Fetchers) WebResources(ctx context.Context, ids []string) ([]model.WebResource, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	result, err := f.client.Query(ctx, "webresourceset", dataverse.QueryOptions{
		Select: []string{"webresourceid", "name", "displayname", "webresourcetype"},
		Filter: dataverse.OrGUIDs("webresourceid", ids),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch web resources: %w", err)
	}
	out := make([]model.WebResource, 0, len(result.Value))
	for _, rec := range result.Value {
		out = append(out, model.WebResource{
			ID:          dataverse.NormalizeID(rec.GetString("webresourceid")),
			Name:        rec.GetString("name"),
			DisplayName: rec.GetString("displayname"),
			Type:        rec.GetString("webresourcetype@OData.Community.Display.V1.FormattedValue"),
		})
	}
	return out, nil
}

// SecurityRoles fetches roles by id.
func (f *Fetchers) SecurityRoles(ctx context.Context, ids []string) ([]model.SecurityRole, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	result, err := f.client.Query(ctx, "roles", dataverse.QueryOptions{
		Select: []string{"roleid", "name"},
		Filter: dataverse.OrGUIDs("roleid", ids),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch security roles: %w", err)
	}
	out := make([]model.SecurityRole, 0, len(result.Value))
	for _, rec := range result.Value {
		out = append(out, model.SecurityRole{
			ID:   dataverse.NormalizeID(rec.GetString("roleid")),
			Name: rec.GetString("name"),
		})
	}
	return out, nil
}

// FieldSecurityProfiles fetches profiles by id.
func (f *Fetchers) FieldSecurityProfiles(ctx context.Context, ids []string) ([]model.FieldSecurityProfile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	result, err := f.client.Query(ctx, "fieldsecurityprofiles", dataverse.QueryOptions{
		Select: []string{"fieldsecurityprofileid", "name"},
		Filter: dataverse.OrGUIDs("fieldsecurityprofileid", ids),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch field security profiles: %w", err)
	}
	out := make([]model.FieldSecurityProfile, 0, len(result.Value))
	for _, rec := range result.Value {
		out = append(out, model.FieldSecurityProfile{
			ID:   dataverse.NormalizeID(rec.GetString("fieldsecurityprofileid")),
			Name: rec.GetString("name"),
		})
	}
	return out, nil
}

// FieldPermissions fetches the secured-column grants for the given
// profiles; the orchestrator joins these back onto entities.
func (f *Fetchers) FieldPermissions(ctx context.Context, profileIDs []string) ([]model.FieldPermission, error) {
	if len(profileIDs) == 0 {
		return nil, nil
	}
	result, err := f.client.Query(ctx, "fieldpermissions", dataverse.QueryOptions{
		Select: []string{"fieldpermissionid", "entityname", "attributelogicalname", "_fieldsecurityprofileid_value"},
		Filter: dataverse.OrGUIDs("_fieldsecurityprofileid_value", profileIDs),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch field permissions: %w", err)
	}
	out := make([]model.FieldPermission, 0, len(result.Value))
	for _, rec := range result.Value {
		out = append(out, model.FieldPermission{
			ProfileID: dataverse.NormalizeID(rec.GetString("_fieldsecurityprofileid_value")),
			Entity:    rec.GetString("entityname"),
			Attribute: rec.GetString("attributelogicalname"),
		})
	}
	return out, nil
}

// CanvasApps fetches canvas apps (and custom pages) by id.
func (f *Fetchers) CanvasApps(ctx context.Context, ids []string) ([]model.CanvasApp, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	result, err := f.client.Query(ctx, "canvasapps", dataverse.QueryOptions{
		Select: []string{"canvasappid", "name", "displayname", "canvasapptype"},
		Filter: dataverse.OrGUIDs("canvasappid", ids),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch canvas apps: %w", err)
	}
	out := make([]model.CanvasApp, 0, len(result.Value))
	for _, rec := range result.Value {
		out = append(out, model.CanvasApp{
			ID:           dataverse.NormalizeID(rec.GetString("canvasappid")),
			Name:         rec.GetString("name"),
			DisplayName:  rec.GetString("displayname"),
			IsCustomPage: rec.GetInt("canvasapptype") == 1,
		})
	}
	return out, nil
}

// ConnectionReferences fetches connection references by id.
func (f *Fetchers) ConnectionReferences(ctx context.Context, ids []string) ([]model.ConnectionReference, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	result, err := f.client.Query(ctx, "connectionreferences", dataverse.QueryOptions{
		Select: []string{"connectionreferenceid", "connectionreferencelogicalname", "connectionreferencedisplayname", "connectorid"},
		Filter: dataverse.OrGUIDs("connectionreferenceid", ids),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch connection references: %w", err)
	}
	out := make([]model.ConnectionReference, 0, len(result.Value))
	for _, rec := range result.Value {
		out = append(out, model.ConnectionReference{
			ID:          dataverse.NormalizeID(rec.GetString("connectionreferenceid")),
			LogicalName: rec.GetString("connectionreferencelogicalname"),
			DisplayName: rec.GetString("connectionreferencedisplayname"),
			ConnectorID: rec.GetString("connectorid"),
		})
	}
	return out, nil
}

// EnvironmentVariables fetches definitions by id with current values
// expanded.
func (f *Fetchers) EnvironmentVariables(ctx context.Context, ids []string) ([]model.EnvironmentVariable, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	result, err := f.client.Query(ctx, "environmentvariabledefinitions", dataverse.QueryOptions{
		Select: []string{"environmentvariabledefinitionid", "schemaname", "displayname", "type", "defaultvalue"},
		Expand: "environmentvariabledefinition_environmentvariablevalue($select=value)",
		Filter: dataverse.OrGUIDs("environmentvariabledefinitionid", ids),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch environment variables: %w", err)
	}
	out := make([]model.EnvironmentVariable, 0, len(result.Value))
	for _, rec := range result.Value {
		v := model.EnvironmentVariable{
			ID:           dataverse.NormalizeID(rec.GetString("environmentvariabledefinitionid")),
			SchemaName:   rec.GetString("schemaname"),
			DisplayName:  rec.GetString("displayname"),
			Type:         rec.GetString("type@OData.Community.Display.V1.FormattedValue"),
			DefaultValue: rec.GetString("defaultvalue"),
		}
		if values := rec.GetRecords("environmentvariabledefinition_environmentvariablevalue"); len(values) > 0 {
			v.CurrentValue = values[0].GetString("value")
		}
		out = append(out, v)
	}
	return out, nil
}

// CustomAPIs fetches custom APIs by id.
func (f *Fetchers) CustomAPIs(ctx context.Context, ids []string) ([]model.CustomAPI, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	result, err := f.client.Query(ctx, "customapis", dataverse.QueryOptions{
		Select: []string{"customapiid", "uniquename", "displayname", "bindingtype", "boundentitylogicalname"},
		Filter: dataverse.OrGUIDs("customapiid", ids),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch custom APIs: %w", err)
	}
	out := make([]model.CustomAPI, 0, len(result.Value))
	for _, rec := range result.Value {
		out = append(out, model.CustomAPI{
			ID:          dataverse.NormalizeID(rec.GetString("customapiid")),
			UniqueName:  rec.GetString("uniquename"),
			DisplayName: rec.GetString("displayname"),
			BindingType: rec.GetString("bindingtype@OData.Community.Display.V1.FormattedValue"),
			BoundEntity: rec.GetString("boundentitylogicalname"),
		})
	}
	return out, nil
}

// GlobalChoices fetches global option sets by MetadataId.
func (f *Fetchers) GlobalChoices(ctx context.Context, ids []string) ([]model.GlobalChoice, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	result, err := f.client.Query(ctx, "GlobalOptionSetDefinitions", dataverse.QueryOptions{
		Filter: dataverse.OrGUIDs("MetadataId", ids),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch global choices: %w", err)
	}
	out := make([]model.GlobalChoice, 0, len(result.Value))
	for _, rec := range result.Value {
		choice := model.GlobalChoice{
			ID:          dataverse.NormalizeID(rec.GetString("MetadataId")),
			Name:        rec.GetString("Name"),
			DisplayName: label(rec, "DisplayName"),
		}
		for _, opt := range rec.GetRecords("Options") {
			if l := label(opt, "Label"); l != "" {
				choice.Options = append(choice.Options, l)
			}
		}
		out = append(out, choice)
	}
	return out, nil
}

// CustomConnectors fetches connectors by id.
func (f *Fetchers) CustomConnectors(ctx context.Context, ids []string) ([]model.CustomConnector, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	result, err := f.client.Query(ctx, "connectors", dataverse.QueryOptions{
		Select: []string{"connectorid", "name", "displayname"},
		Filter: dataverse.OrGUIDs("connectorid", ids),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch custom connectors: %w", err)
	}
	out := make([]model.CustomConnector, 0, len(result.Value))
	for _, rec := range result.Value {
		out = append(out, model.CustomConnector{
			ID:          dataverse.NormalizeID(rec.GetString("connectorid")),
			Name:        rec.GetString("name"),
			DisplayName: rec.GetString("displayname"),
		})
	}
	return out, nil
}

func joinOr(clauses []string) string {
	out := clauses[0]
	for _, c := range clauses[1:] {
		out += " or " + c
	}
	return out
}

func splitCommaList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
