package commands

import (
	"fmt"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/normgo/cli/internal/ui"
	"github.com/satishbabariya/normgo/config"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a config file and a starter descriptor file",
	Long: `Create .norm.yaml, schema.norm and .env.example in a project directory.

Without --yes the connection details are asked for interactively.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

// initAnswers holds the connection details of a new project.
type initAnswers struct {
	Connection string `survey:"connection"`
	Provider   string `survey:"provider"`
	URL        string `survey:"url"`
}

var (
	initDefaults = initAnswers{Connection: "main", Provider: "sqlite", URL: "app.db"}
	initYes      bool
)

func init() {
	initCmd.Flags().StringVar(&initDefaults.Connection, "connection", initDefaults.Connection, "Connection name")
	initCmd.Flags().StringVar(&initDefaults.Provider, "provider", initDefaults.Provider, "Database provider: sqlite, postgres, mysql, ansi")
	initCmd.Flags().StringVar(&initDefaults.URL, "url", initDefaults.URL, "Connection URL; ${VAR} references are expanded when loaded")
	initCmd.Flags().BoolVarP(&initYes, "yes", "y", false, "Accept flag values without prompting")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	answers := initDefaults
	if !initYes {
		if err := askInit(&answers); err != nil {
			return err
		}
	}

	created, err := writeProject(dir, answers)
	if err != nil {
		return err
	}
	for _, path := range created {
		ui.PrintSuccess("Created %s", path)
	}
	if len(created) == 0 {
		ui.PrintInfo("Nothing to do: project files already exist")
	}
	return nil
}

func askInit(a *initAnswers) error {
	qs := []*survey.Question{
		{
			Name:     "connection",
			Prompt:   &survey.Input{Message: "Connection name:", Default: a.Connection},
			Validate: survey.Required,
		},
		{
			Name: "provider",
			Prompt: &survey.Select{
				Message: "Database provider:",
				Options: []string{"sqlite", "postgres", "mysql", "ansi"},
				Default: a.Provider,
			},
		},
		{
			Name:     "url",
			Prompt:   &survey.Input{Message: "Connection URL:", Default: a.URL},
			Validate: survey.Required,
		},
	}
	return survey.Ask(qs, a)
}

const starterSchema = `entity Customer table Customers connection %s softdelete {
  Id          int32      pk identity
  Name        string(50)
  DeletedFlag int32      softdelete(1)
}
`

// writeProject creates the files of a new project in dir, leaving existing
// files untouched. It returns the paths it created.
func writeProject(dir string, a initAnswers) ([]string, error) {
	fs := config.AppFs
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create project directory: %w", err)
	}
	var created []string

	cfgPath := filepath.Join(dir, ".norm.yaml")
	if ok, _ := afero.Exists(fs, cfgPath); !ok {
		c := &config.Config{
			DefaultConnection: a.Connection,
			SchemaPath:        "schema.norm",
			OutputPath:        "./entities",
			Package:           "entities",
			Connections: map[string]config.Connection{
				a.Connection: {Provider: a.Provider, URL: a.URL},
			},
		}
		if err := config.Save(c, cfgPath); err != nil {
			return created, fmt.Errorf("failed to write config: %w", err)
		}
		created = append(created, cfgPath)
	}

	files := []struct {
		path    string
		content string
	}{
		{filepath.Join(dir, "schema.norm"), fmt.Sprintf(starterSchema, a.Connection)},
		{filepath.Join(dir, ".env.example"), "# Values referenced as ${VAR} in .norm.yaml\nDATABASE_URL=\"" + a.URL + "\"\n"},
	}
	for _, f := range files {
		if ok, _ := afero.Exists(fs, f.path); ok {
			continue
		}
		if err := afero.WriteFile(fs, f.path, []byte(f.content), 0644); err != nil {
			return created, fmt.Errorf("failed to create %s: %w", f.path, err)
		}
		created = append(created, f.path)
	}
	return created, nil
}
