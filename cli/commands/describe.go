package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/normgo/cli/internal/ui"
	"github.com/satishbabariya/normgo/mapping"
	"github.com/satishbabariya/normgo/schema"
)

var describeCmd = &cobra.Command{
	Use:   "describe [schema-path]",
	Short: "Render a column report of every entity",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDescribe,
}

var (
	describeSchemaPath string
	describeRaw        bool
)

func init() {
	describeCmd.Flags().StringVarP(&describeSchemaPath, "schema", "s", "", "Path to descriptor file")
	describeCmd.Flags().BoolVar(&describeRaw, "raw", false, "Print markdown without rendering it")

	rootCmd.AddCommand(describeCmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	s, err := loadSchema(getSchemaPath(describeSchemaPath, args))
	if err != nil {
		return err
	}
	md := describeMarkdown(s)
	if describeRaw {
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	}
	return ui.PrintMarkdown(md)
}

// describeMarkdown renders one section per entity with a table of its
// columns.
func describeMarkdown(s *schema.Schema) string {
	var b strings.Builder
	for i, e := range s.Entities {
		d := e.Descriptor
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n\n", d.Name)

		facts := []string{fmt.Sprintf("table `%s`", d.Table)}
		if d.Connection != "" {
			facts = append(facts, fmt.Sprintf("connection `%s`", d.Connection))
		}
		if d.SoftDelete {
			facts = append(facts, "soft delete")
		}
		if len(d.PrimaryKeys()) == 0 {
			facts = append(facts, "**no primary key**")
		}
		b.WriteString(strings.Join(facts, ", ") + "\n\n")

		b.WriteString("| Column | Field | Kind | Size | Null | Roles |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, col := range d.Columns {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				col.Name, col.Field, col.Kind, sizeOf(col), yesNo(e.IsNullable(col.Name)), rolesOf(col))
		}
	}
	return b.String()
}

func sizeOf(col mapping.ColumnDescriptor) string {
	if col.Size == 0 {
		return ""
	}
	return fmt.Sprint(col.Size)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

func rolesOf(col mapping.ColumnDescriptor) string {
	var roles string
	if col.Roles != mapping.RoleNone {
		roles = strings.ReplaceAll(col.Roles.String(), "|", ", ")
	}
	if col.IsSoftDeleteTarget() {
		roles += fmt.Sprintf(" (%s)", mapping.FormatLiteral(col.SoftDeleteValue))
	}
	if col.Converter != "" {
		if roles != "" {
			roles += ", "
		}
		roles += "converter " + col.Converter
	}
	return roles
}
