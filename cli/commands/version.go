package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/normgo/cli/internal/ui"
	"github.com/satishbabariya/normgo/cli/internal/update"
	"github.com/satishbabariya/normgo/cli/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

var (
	versionFull   bool
	versionLatest string
)

func init() {
	versionCmd.Flags().BoolVar(&versionFull, "full", false, "Print build details")
	versionCmd.Flags().StringVar(&versionLatest, "check", "", "Compare with a published version")

	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := version.Get()
	out := cmd.OutOrStdout()
	if versionFull {
		fmt.Fprintln(out, info.FullString())
	} else {
		fmt.Fprintln(out, info.String())
	}

	if versionLatest == "" {
		return nil
	}
	st, err := update.Check(info.Version, versionLatest)
	if err != nil {
		return err
	}
	colors := ui.GetColorPrinters()
	if st.Available {
		colors["warning"].Fprintf(out, "A new version is available: %s -> %s\n", st.Current, st.Latest)
		fmt.Fprintf(out, "Download: %s\n", update.GetDownloadURL(st.Latest))
		return nil
	}
	colors["success"].Fprintf(out, "norm %s is up to date\n", st.Current)
	return nil
}
