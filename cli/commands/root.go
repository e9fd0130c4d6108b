package commands

import (
	"github.com/spf13/cobra"

	"github.com/satishbabariya/normgo/config"
	"github.com/satishbabariya/normgo/internal/debug"
)

var (
	configPath string
	debugFlag  bool

	// cfg is loaded before every command runs.
	cfg = &config.Config{}
)

var rootCmd = &cobra.Command{
	Use:   "norm",
	Short: "Entity mapping compiler",
	Long: `norm compiles entity descriptions into SQL statements and Go structs.

Entities are described either by tagged Go structs or by descriptor files:

    entity Customer table Customers connection main softdelete {
      Id          int32 pk identity
      Name        string(50)
      DeletedFlag int32 softdelete(1)
    }`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default .norm.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded
	debug.Init(cfg.Debug || debugFlag)
	debug.Debug("config loaded", "default_connection", cfg.DefaultConnection, "dialect", cfg.Dialect)
	return nil
}

// Execute is the main entry point for the CLI
func Execute() error {
	return rootCmd.Execute()
}
