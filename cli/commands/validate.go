package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/normgo/cli/internal/ui"
	"github.com/satishbabariya/normgo/mapping"
	"github.com/satishbabariya/normgo/query/sqlgen"
	"github.com/satishbabariya/normgo/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate [schema-path]",
	Short: "Validate a descriptor file",
	Long: `Validate a descriptor file.

This command will:
- Parse the descriptor file
- Validate every entity descriptor
- Synthesize the statements of every entity
- Check that every connection an entity names is configured
- Report entities without a primary key (errors with strict_keys)`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

var (
	validateSchemaPath string
	validateStrict     bool
)

func init() {
	validateCmd.Flags().StringVarP(&validateSchemaPath, "schema", "s", "", "Path to descriptor file")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Treat missing primary keys as errors (overrides strict_keys)")

	rootCmd.AddCommand(validateCmd)
}

// validationReport checks s against the dialect and configured connections.
// Warnings are returned separately from the joined errors.
func validationReport(s *schema.Schema, d sqlgen.Dialect, strict bool) ([]string, error) {
	gen := sqlgen.NewGenerator(d)
	var warnings []string
	var errs []error
	for _, e := range s.Entities {
		desc := e.Descriptor
		stmts, err := gen.Generate(desc)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if hazards := stmts.Hazards(); len(hazards) > 0 {
			if strict {
				errs = append(errs, mapping.Configf(desc.Name, "", "no primary key declared"))
			} else {
				warnings = append(warnings, fmt.Sprintf("%s: no primary key, UPDATE and DELETE affect every row", desc.Name))
			}
		}
		if len(cfg.Connections) > 0 {
			if _, err := cfg.Resolve(desc.Connection); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", desc.Name, err))
			}
		}
	}
	return warnings, errors.Join(errs...)
}

func runValidate(cmd *cobra.Command, args []string) error {
	schemaPath := getSchemaPath(validateSchemaPath, args)

	ui.PrintHeader("norm", "Validate Descriptors")

	s, err := loadSchema(schemaPath)
	if err != nil {
		ui.PrintError("Schema parsing failed:")
		return err
	}
	d, err := dialectFor("")
	if err != nil {
		return err
	}

	warnings, err := validationReport(s, d, validateStrict || cfg.StrictKeys)
	for _, w := range warnings {
		ui.PrintWarning("%s", w)
	}
	if err != nil {
		ui.PrintError("Schema validation failed:")
		return err
	}

	ui.PrintSuccess("Schema is valid: %s", absPath(schemaPath))
	fmt.Println()
	ui.PrintSection("Entities")
	summary := make([]string, 0, len(s.Entities))
	for _, e := range s.Entities {
		summary = append(summary, fmt.Sprintf("%s -> %s (%d columns)", e.Descriptor.Name, e.Descriptor.Table, len(e.Descriptor.Columns)))
	}
	ui.PrintList(summary)
	return nil
}
