package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/normgo/cli/internal/ui"
	"github.com/satishbabariya/normgo/cli/internal/watch"
	"github.com/satishbabariya/normgo/query/sqlgen"
	"github.com/satishbabariya/normgo/schema"
)

var sqlCmd = &cobra.Command{
	Use:   "sql [schema-path]",
	Short: "Print the statements synthesized for each entity",
	Long: `Print the SELECT, INSERT, UPDATE and DELETE statements synthesized for
every entity of a descriptor file.

Entities without a primary key are reported: their UPDATE and DELETE
statements affect every row.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSQL,
}

var (
	sqlSchemaPath string
	sqlDialect    string
	sqlWatch      bool
)

func init() {
	sqlCmd.Flags().StringVarP(&sqlSchemaPath, "schema", "s", "", "Path to descriptor file")
	sqlCmd.Flags().StringVarP(&sqlDialect, "dialect", "d", "", "Dialect: ansi, sqlite, mysql, postgres")
	sqlCmd.Flags().BoolVarP(&sqlWatch, "watch", "w", false, "Watch the descriptor file and reprint on change")

	rootCmd.AddCommand(sqlCmd)
}

// statementRows synthesizes the statements of every entity in s. It returns
// table rows of entity, operation and statement text, and the hazards found.
func statementRows(s *schema.Schema, d sqlgen.Dialect) ([][]string, []string, error) {
	gen := sqlgen.NewGenerator(d)
	var rows [][]string
	var hazards []string
	for _, desc := range s.Descriptors() {
		stmts, err := gen.Generate(desc)
		if err != nil {
			return nil, nil, err
		}
		for _, op := range sqlgen.Ops {
			st := stmts.Get(op)
			rows = append(rows, []string{desc.Name, op.String(), d.Rebind(st.Text)})
		}
		for _, h := range stmts.Hazards() {
			hazards = append(hazards, fmt.Sprintf("%s: %s", desc.Name, h))
		}
	}
	return rows, hazards, nil
}

func printStatements(path string, d sqlgen.Dialect) error {
	s, err := loadSchema(path)
	if err != nil {
		return err
	}
	rows, hazards, err := statementRows(s, d)
	if err != nil {
		return err
	}
	ui.PrintTable([]string{"Entity", "Op", "Statement"}, rows)
	for _, h := range hazards {
		ui.PrintWarning("%s", h)
	}
	return nil
}

func runSQL(cmd *cobra.Command, args []string) error {
	schemaPath := getSchemaPath(sqlSchemaPath, args)
	d, err := dialectFor(sqlDialect)
	if err != nil {
		return err
	}

	if !sqlWatch {
		return printStatements(schemaPath, d)
	}

	ui.PrintHeader("norm", fmt.Sprintf("Watching %s (%s)", absPath(schemaPath), d))
	w, err := watch.NewWatcher(schemaPath, watch.DefaultDebounce, func() error {
		ui.PrintSection("Statements")
		return printStatements(schemaPath, d)
	}, func(err error) {
		ui.PrintError("%v", err)
	})
	if err != nil {
		return err
	}
	defer w.Stop()
	if err := w.Start(true); err != nil {
		// Keep watching; the file may be fixed on the next save.
		ui.PrintError("%v", err)
		if err := w.Start(false); err != nil {
			return err
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	ui.PrintInfo("Stopped watching")
	return nil
}
