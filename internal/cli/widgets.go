package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sagelabs/widgetlab/internal/app"
)

var widgetsCmd = &cobra.Command{
	Use:   "widgets",
	Short: "List widgets grouped and in display order",
	RunE:  runWidgets,
}

func init() {
	rootCmd.AddCommand(widgetsCmd)
}

func runWidgets(cmd *cobra.Command, args []string) error {
	cfg, err := appConfig()
	if err != nil {
		return err
	}

	a, err := app.New(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	groups, err := a.ListWidgets(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, group := range groups {
		fmt.Fprintf(w, "%s\n", group.Name)
		for _, widget := range group.Widgets {
			state := " "
			if !widget.Enabled {
				state = "✗"
			}
			source := "template"
			switch {
			case widget.HasCode:
				source = "custom"
			case !widget.HasTemplate:
				source = "native"
			}
			fmt.Fprintf(w, "  %s %-24s %4d  %-8s %s\n", state, widget.ID, widget.Order, source, widget.Name)
		}
	}
	return nil
}
