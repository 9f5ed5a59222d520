package fetchers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataversedocs/blueprint/internal/dataverse"
	"github.com/dataversedocs/blueprint/internal/model"
)

const invoiceFormXML = `<form>
  <events>
    <event name="onload">
      <Handlers>
        <Handler functionName="initForm" libraryName="crm_invoice.js" enabled="true"/>
        <Handler functionName="legacyInit" libraryName="crm_old.js" enabled="false"/>
      </Handlers>
    </event>
    <event name="onchange" attribute="crm_amount">
      <Handlers>
        <Handler functionName="recalcTotals" libraryName="crm_invoice.js" enabled="true"/>
      </Handlers>
    </event>
    <event name="onrecordselect">
      <Handlers>
        <Handler functionName="ignored" libraryName="crm_invoice.js" enabled="true"/>
      </Handlers>
    </event>
  </events>
</form>`

func TestParseFormXML(t *testing.T) {
	handlers := parseFormXML(invoiceFormXML)

	require.Len(t, handlers, 3, "unknown events are dropped, disabled handlers are kept")
	assert.Equal(t, model.FormEventHandler{
		Event: "OnLoad", FunctionName: "initForm", Library: "crm_invoice.js", Enabled: true,
	}, handlers[0])
	assert.False(t, handlers[1].Enabled)
	assert.Equal(t, model.FormEventHandler{
		Event: "OnChange", FunctionName: "recalcTotals", Library: "crm_invoice.js",
		Attribute: "crm_amount", Enabled: true,
	}, handlers[2])
}

func TestParseFormXML_Malformed(t *testing.T) {
	assert.Nil(t, parseFormXML("<form><events>"))
	assert.Nil(t, parseFormXML(""))
}

func TestForms_Query(t *testing.T) {
	client := &fakeClient{result: &dataverse.QueryResult{Value: []dataverse.Record{
		{
			"formid": "{FORM-1}", "name": "Invoice Main",
			"objecttypecode": "crm_invoice", "formxml": invoiceFormXML,
		},
	}}}

	out, err := New(client).Forms(context.Background(), []string{"crm_invoice", "crm_payment"})
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Equal(t, "form-1", out[0].ID)
	assert.Equal(t, "Main", out[0].FormType)
	assert.Len(t, out[0].Handlers, 3)

	assert.Equal(t, "systemforms", client.entitySet)
	assert.Equal(t,
		"(objecttypecode eq 'crm_invoice' or objecttypecode eq 'crm_payment') and type eq 2",
		client.opts.Filter)
}
