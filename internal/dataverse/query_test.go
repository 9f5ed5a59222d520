package dataverse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase passthrough", "d9a53f2e-0b1c-4b5a-9f00-1234567890ab", "d9a53f2e-0b1c-4b5a-9f00-1234567890ab"},
		{"uppercase", "D9A53F2E-0B1C-4B5A-9F00-1234567890AB", "d9a53f2e-0b1c-4b5a-9f00-1234567890ab"},
		{"braced", "{D9A53F2E-0B1C-4B5A-9F00-1234567890AB}", "d9a53f2e-0b1c-4b5a-9f00-1234567890ab"},
		{"whitespace", "  {d9a53f2e-0b1c-4b5a-9f00-1234567890ab} ", "d9a53f2e-0b1c-4b5a-9f00-1234567890ab"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeID(tt.input))
		})
	}
}

func TestNormalizeID_Idempotent(t *testing.T) {
	inputs := []string{
		"{ABC-123}",
		"abc-123",
		"{abc-123}",
		"ABC-123",
	}
	for _, in := range inputs {
		once := NormalizeID(in)
		twice := NormalizeID(once)
		assert.Equal(t, once, twice, "normalizing twice must equal normalizing once for %q", in)
	}
	// Differing only in case/brace style normalizes to the same value.
	assert.Equal(t, NormalizeID("{ABC-123}"), NormalizeID("abc-123"))
}

func TestQueryOptionsEncode(t *testing.T) {
	opts := QueryOptions{
		Select:  []string{"objectid", "componenttype"},
		Filter:  "componenttype eq 1",
		OrderBy: "name asc",
		Top:     10,
		Count:   true,
	}
	encoded := opts.Encode()
	assert.Contains(t, encoded, "%24select=objectid%2Ccomponenttype")
	assert.Contains(t, encoded, "%24filter=componenttype+eq+1")
	assert.Contains(t, encoded, "%24orderby=name+asc")
	assert.Contains(t, encoded, "%24top=10")
	assert.Contains(t, encoded, "%24count=true")

	assert.Empty(t, QueryOptions{}.Encode())
}

func TestOrGUIDs(t *testing.T) {
	assert.Empty(t, OrGUIDs("_solutionid_value", nil))

	single := OrGUIDs("_solutionid_value", []string{"{ABC}"})
	assert.Equal(t, "_solutionid_value eq abc", single)

	multi := OrGUIDs("_solutionid_value", []string{"A", "B"})
	assert.Equal(t, "(_solutionid_value eq a or _solutionid_value eq b)", multi)
}

func TestAnd(t *testing.T) {
	assert.Equal(t, "a eq 1 and b eq 2", And("a eq 1", "b eq 2"))
	assert.Equal(t, "a eq 1", And("a eq 1", ""))
	assert.Equal(t, "", And("", ""))
}

func TestEqString_EscapesQuotes(t *testing.T) {
	assert.Equal(t, "name eq 'O''Brien'", EqString("name", "O'Brien"))
}

func TestRecordGetters(t *testing.T) {
	rec := Record{
		"name":   "account",
		"stage":  float64(20),
		"active": true,
		"nested": map[string]interface{}{"inner": "x"},
		"items": []interface{}{
			map[string]interface{}{"id": "1"},
			"not-a-record",
			map[string]interface{}{"id": "2"},
		},
	}

	assert.Equal(t, "account", rec.GetString("name"))
	assert.Equal(t, "", rec.GetString("missing"))
	assert.Equal(t, 20, rec.GetInt("stage"))
	assert.Equal(t, 0, rec.GetInt("name"))
	assert.True(t, rec.GetBool("active"))
	assert.False(t, rec.GetBool("missing"))

	assert.Equal(t, "x", rec.GetRecord("nested").GetString("inner"))
	assert.Nil(t, rec.GetRecord("name"))

	items := rec.GetRecords("items")
	assert.Len(t, items, 2)
	assert.Equal(t, "1", items[0].GetString("id"))
	assert.Nil(t, rec.GetRecords("name"))
}
