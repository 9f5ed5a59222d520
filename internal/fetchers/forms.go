package fetchers

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/dataversedocs/blueprint/internal/dataverse"
	"github.com/dataversedocs/blueprint/internal/model"
)

// formXML is the subset of a system form's XML this tool reads: the
// registered event handlers and, for OnChange, the owning control.
type formXML struct {
	Events []struct {
		Name      string `xml:"name,attr"`
		Attribute string `xml:"attribute,attr"`
		Handlers  []struct {
			FunctionName string `xml:"functionName,attr"`
			Library      string `xml:"libraryName,attr"`
			Enabled      string `xml:"enabled,attr"`
		} `xml:"Handlers>Handler"`
	} `xml:"events>event"`
}

// formEventNames maps formxml event names onto the client event model.
var formEventNames = map[string]string{
	"onload":   "OnLoad",
	"onsave":   "OnSave",
	"onchange": "OnChange",
}

// Forms fetches the main system forms for the given entity logical
// names and parses each form's XML for registered event handlers.
func (f *Fetchers) Forms(ctx context.Context, entityNames []string) ([]model.Form, error) {
	if len(entityNames) == 0 {
		return nil, nil
	}
	clauses := make([]string, 0, len(entityNames))
	for _, n := range entityNames {
		clauses = append(clauses, dataverse.EqString("objecttypecode", n))
	}
	filter := clauses[0]
	if len(clauses) > 1 {
		filter = "(" + joinOr(clauses) + ")"
	}

	result, err := f.client.Query(ctx, "systemforms", dataverse.QueryOptions{
		Select: []string{"formid", "name", "objecttypecode", "type", "formxml"},
		Filter: dataverse.And(filter, dataverse.Eq("type", "2")), // main forms
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forms: %w", err)
	}

	out := make([]model.Form, 0, len(result.Value))
	for _, rec := range result.Value {
		form := model.Form{
			ID:       dataverse.NormalizeID(rec.GetString("formid")),
			Name:     rec.GetString("name"),
			Entity:   rec.GetString("objecttypecode"),
			FormType: "Main",
		}
		form.Handlers = parseFormXML(rec.GetString("formxml"))
		out = append(out, form)
	}
	return out, nil
}

// parseFormXML extracts event handlers from a form's XML. Forms with
// malformed XML degrade to no handlers rather than failing the fetch.
func parseFormXML(raw string) []model.FormEventHandler {
	if raw == "" {
		return nil
	}
	var form formXML
	if err := xml.Unmarshal([]byte(raw), &form); err != nil {
		return nil
	}

	var handlers []model.FormEventHandler
	for _, event := range form.Events {
		name, ok := formEventNames[strings.ToLower(event.Name)]
		if !ok {
			continue
		}
		for _, h := range event.Handlers {
			handlers = append(handlers, model.FormEventHandler{
				Event:        name,
				FunctionName: h.FunctionName,
				Library:      h.Library,
				Attribute:    event.Attribute,
				Enabled:      !strings.EqualFold(h.Enabled, "false"),
			})
		}
	}
	return handlers
}
