package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/normgo/cli/internal/ui"
	"github.com/satishbabariya/normgo/config"
	"github.com/satishbabariya/normgo/generator"
)

var generateCmd = &cobra.Command{
	Use:     "generate [schema-path]",
	Aliases: []string{"gen"},
	Short:   "Generate tagged Go entity structs",
	Long: `Generate Go structs from a descriptor file.

The generated structs embed mapping.Entity and carry norm tags that extract
back to the same descriptors.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

var (
	generateSchemaPath string
	generateOutput     string
	generatePackage    string
	generateStdout     bool
)

func init() {
	generateCmd.Flags().StringVarP(&generateSchemaPath, "schema", "s", "", "Path to descriptor file")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Output file (default <output_path>/entities.go)")
	generateCmd.Flags().StringVarP(&generatePackage, "package", "p", "", "Package name (default from config)")
	generateCmd.Flags().BoolVar(&generateStdout, "stdout", false, "Print the generated code instead of writing it")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	schemaPath := getSchemaPath(generateSchemaPath, args)
	s, err := loadSchema(schemaPath)
	if err != nil {
		return err
	}

	pkg := generatePackage
	if pkg == "" {
		pkg = cfg.Package
	}
	gen := generator.NewGenerator(s, pkg)

	if generateStdout {
		src, err := gen.Generate()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(src))
		return nil
	}

	out := generateOutput
	if out == "" {
		out = cfg.OutputPath + "/entities.go"
	}

	info := pterm.Info.WithPrefix(pterm.Prefix{
		Text:  "INFO",
		Style: pterm.NewStyle(pterm.FgBlue),
	})
	info.Println(fmt.Sprintf("Schema: %s", schemaPath))
	info.Println(fmt.Sprintf("Output: %s", out))
	info.Println(fmt.Sprintf("Package: %s", pkg))

	if err := gen.GenerateFile(config.AppFs, out); err != nil {
		return fmt.Errorf("code generation failed: %w", err)
	}
	ui.PrintSuccess("Generated %d entities at %s", len(s.Entities), absPath(out))
	return nil
}
