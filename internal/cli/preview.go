package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sagelabs/widgetlab/internal/app"
)

var previewCmd = &cobra.Command{
	Use:   "preview <widget-id>",
	Short: "Resolve and render one widget in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := appConfig()
	if err != nil {
		return err
	}

	a, err := app.New(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := a.RenderPreview(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if out == "" {
		out = fmt.Sprintf("widget %s renders nothing", args[0])
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
