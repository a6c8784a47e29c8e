package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sagelabs/widgetlab/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the admin console",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("listen", "", "console listen address (default 127.0.0.1:8090)")
	serveCmd.Flags().Bool("watch", false, "hot-reload the catalog directory on change")
	_ = viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
	_ = viper.BindPFlag("catalog_watch", serveCmd.Flags().Lookup("watch"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := appConfig()
	if err != nil {
		return err
	}

	a, err := app.New(cmd.OutOrStdout(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.Run(ctx)
}
