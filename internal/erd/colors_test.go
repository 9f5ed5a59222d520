package erd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOwnerColor_WellKnown(t *testing.T) {
	assert.Equal(t, "#4e79a7", OwnerColor("Platform"))
	assert.Equal(t, "#59a14f", OwnerColor("msdyn"))
	assert.Equal(t, "#f28e2b", OwnerColor("new"))
}

func TestOwnerColor_Deterministic(t *testing.T) {
	first := OwnerColor("contoso")
	assert.Equal(t, first, OwnerColor("contoso"), "same owner, same color")
	assert.Equal(t, first, OwnerColor("  Contoso "), "owner key is normalized")

	assert.True(t, strings.HasPrefix(first, "#"))
	assert.Len(t, first, 7)
}

func TestOwnerColor_DistinctOwners(t *testing.T) {
	assert.NotEqual(t, OwnerColor("contoso"), OwnerColor("fabrikam"))
}

func TestTextColor(t *testing.T) {
	assert.Equal(t, "#111111", TextColor("#ffffff"), "dark text on light fill")
	assert.Equal(t, "#ffffff", TextColor("#000000"), "light text on dark fill")
	assert.Equal(t, "#ffffff", TextColor("#4e79a7"))
	assert.Equal(t, "#111111", TextColor("#f28e2b"))
	assert.Equal(t, "#ffffff", TextColor("not-a-color"))
}
