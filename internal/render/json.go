package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dataversedocs/blueprint/internal/blueprint"
)

// JSONGenerator writes the raw aggregated result for downstream
// tooling.
type JSONGenerator struct {
	outputDir string
}

// NewJSONGenerator creates a generator writing under outputDir.
func NewJSONGenerator(outputDir string) *JSONGenerator {
	return &JSONGenerator{outputDir: outputDir}
}

// Generate writes blueprint.json under the output directory.
func (g *JSONGenerator) Generate(result *blueprint.Result) error {
	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode blueprint: %w", err)
	}
	outputPath := filepath.Join(g.outputDir, "blueprint.json")
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write json export: %w", err)
	}
	return nil
}
