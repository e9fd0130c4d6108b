// Package generator generates tagged Go entity structs from descriptor files.
package generator

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/satishbabariya/normgo/generator/codegen"
	"github.com/satishbabariya/normgo/internal/debug"
	"github.com/satishbabariya/normgo/schema"
)

// Generator generates Go entity code from a descriptor file
type Generator struct {
	schema      *schema.Schema
	packageName string
}

// NewGenerator creates a new code generator
func NewGenerator(s *schema.Schema, packageName string) *Generator {
	debug.Debug("Creating new generator", "package", packageName)
	return &Generator{
		schema:      s,
		packageName: packageName,
	}
}

// Generate returns the formatted source of the entity structs.
func (g *Generator) Generate() ([]byte, error) {
	models, err := g.models()
	if err != nil {
		return nil, err
	}
	return codegen.Render(codegen.BuildModelsFile(g.packageName, models))
}

// GenerateFile writes the entity structs to path on fs.
func (g *Generator) GenerateFile(fs afero.Fs, path string) error {
	debug.Debug("Starting entity generation", "output", path, "package", g.packageName)

	models, err := g.models()
	if err != nil {
		return err
	}
	if err := codegen.WriteASTFile(fs, codegen.BuildModelsFile(g.packageName, models), path); err != nil {
		debug.Error("Failed to generate entities file", "error", err)
		return fmt.Errorf("failed to generate entities: %w", err)
	}
	debug.Info("Entity generation completed", "output", path, "entities", len(models))
	return nil
}

func (g *Generator) models() ([]codegen.ModelInfo, error) {
	if g.packageName == "" {
		return nil, fmt.Errorf("package name is required")
	}
	if len(g.schema.Entities) == 0 {
		debug.Error("Schema validation failed: no entities found")
		return nil, fmt.Errorf("schema must contain at least one entity")
	}

	models := codegen.ModelsFromSchema(g.schema)
	debug.Debug("Models generated", "count", len(models))
	if err := validateModels(models); err != nil {
		debug.Error("Model validation failed", "error", err)
		return nil, fmt.Errorf("model validation failed: %w", err)
	}
	return models, nil
}

// validateModels validates the generated model information
func validateModels(models []codegen.ModelInfo) error {
	// Check for duplicate table names and type names
	tableNames := make(map[string]string) // table name -> model name
	typeNames := make(map[string]bool)
	for _, model := range models {
		debug.Debug("Validating model", "model", model.Name, "table", model.TableName)
		if existingModel, exists := tableNames[model.TableName]; exists {
			return fmt.Errorf("duplicate table name %q: models %q and %q both map to the same table", model.TableName, existingModel, model.Name)
		}
		tableNames[model.TableName] = model.Name

		if typeNames[model.Name] {
			return fmt.Errorf("duplicate type name %q", model.Name)
		}
		typeNames[model.Name] = true

		fieldNames := make(map[string]bool)
		for _, f := range model.Fields {
			if fieldNames[f.GoName] {
				return fmt.Errorf("model %q: duplicate field name %q", model.Name, f.GoName)
			}
			fieldNames[f.GoName] = true
		}
	}
	return nil
}
