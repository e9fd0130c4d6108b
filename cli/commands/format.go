package commands

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/normgo/cli/internal/ui"
	"github.com/satishbabariya/normgo/config"
	"github.com/satishbabariya/normgo/schema"
)

var formatCmd = &cobra.Command{
	Use:     "format [schema-path]",
	Aliases: []string{"fmt"},
	Short:   "Rewrite a descriptor file in canonical form",
	Long: `Rewrite a descriptor file in canonical form: entities separated by one
blank line, columns indented by two spaces with names and kinds aligned.
Comments are not preserved.`,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runFormat,
}

var (
	formatSchemaPath string
	formatCheck      bool
)

func init() {
	formatCmd.Flags().StringVarP(&formatSchemaPath, "schema", "s", "", "Path to descriptor file")
	formatCmd.Flags().BoolVar(&formatCheck, "check", false, "Fail if the file is not formatted instead of rewriting it")

	rootCmd.AddCommand(formatCmd)
}

func runFormat(cmd *cobra.Command, args []string) error {
	schemaPath := getSchemaPath(formatSchemaPath, args)
	s, err := loadSchema(schemaPath)
	if err != nil {
		return fmt.Errorf("cannot format schema with errors: %w", err)
	}

	content, err := afero.ReadFile(config.AppFs, schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}
	formatted := schema.Format(s)
	if string(content) == formatted {
		ui.PrintSuccess("%s is formatted", absPath(schemaPath))
		return nil
	}
	if formatCheck {
		ui.PrintDiff(string(content), formatted)
		return fmt.Errorf("%s is not formatted", schemaPath)
	}

	if err := afero.WriteFile(config.AppFs, schemaPath, []byte(formatted), 0644); err != nil {
		return fmt.Errorf("failed to write formatted schema: %w", err)
	}
	ui.PrintSuccess("Formatted %s", absPath(schemaPath))
	return nil
}
