package erd

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataversedocs/blueprint/internal/model"
)

func TestRenderAllEntities_Golden(t *testing.T) {
	def := Generate([]model.Entity{projectEntity(), taskEntity(), contactEntity()}, nil)
	require.Len(t, def.Diagrams, 1)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "all_entities", []byte(def.Diagrams[0].Document))
}

func TestWriteClass_CapsAttributes(t *testing.T) {
	e := model.Entity{LogicalName: "new_big", SchemaName: "new_big", IsCustom: true}
	for i := 0; i < 15; i++ {
		e.Attributes = append(e.Attributes, model.Attribute{
			LogicalName: fmt.Sprintf("new_field%02d", i),
			Type:        "String",
			IsCustom:    true,
		})
	}

	var b strings.Builder
	writeClass(&b, e)
	doc := b.String()

	assert.Contains(t, doc, "+string new_field11")
	assert.NotContains(t, doc, "new_field12")
	assert.Contains(t, doc, "+3 more")
}

func TestWriteClass_SystemAttributesHidden(t *testing.T) {
	e := model.Entity{
		SchemaName: "new_thing",
		Attributes: []model.Attribute{
			{LogicalName: "createdon", Type: "DateTime"},
			{LogicalName: "new_custom", Type: "String", IsCustom: true},
		},
	}
	var b strings.Builder
	writeClass(&b, e)
	assert.NotContains(t, b.String(), "createdon")
	assert.Contains(t, b.String(), "new_custom")
}

func TestClassName_Sanitizes(t *testing.T) {
	assert.Equal(t, "new_thing", className("new_thing"))
	assert.Equal(t, "Weird_Name_", className("Weird-Name!"))
}
