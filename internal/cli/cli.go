package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sagelabs/widgetlab/internal/app"
)

var rootCmd = &cobra.Command{
	Use:           "widgetlab",
	Short:         "Dynamic widget runtime and admin console",
	Long:          "Widgetlab renders admin-editable dashboard widgets from a feature registry and serves the console used to toggle, reorder and live-edit them.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI against args, writing output to outW.
func Execute(args []string, outW io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(outW)
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default widgetlab.yaml)")
	pf.String("store", "", "path to the SQLite widget store (empty = in-memory)")
	pf.String("catalog", "catalog", "directory of shipped widget catalog files")
	pf.String("log-level", "info", "logging level: debug, info, warn or error")
	pf.String("log-format", "text", "log output format: text or json")

	_ = viper.BindPFlag("store", pf.Lookup("store"))
	_ = viper.BindPFlag("catalog", pf.Lookup("catalog"))
	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", pf.Lookup("log-format"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("widgetlab")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("WIDGETLAB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.SetDefault("listen", "127.0.0.1:8090")

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// appConfig assembles the app configuration from viper; NewConfig owns
// validation.
func appConfig() (*app.Config, error) {
	return app.NewConfig(app.Config{
		StorePath:      viper.GetString("store"),
		CatalogDir:     viper.GetString("catalog"),
		WatchCatalog:   viper.GetBool("catalog_watch"),
		ListenAddr:     viper.GetString("listen"),
		LogFormat:      viper.GetString("log.format"),
		LogLevel:       viper.GetString("log.level"),
		Bypass:         viper.GetStringSlice("resolver.bypass"),
		ForceTemplate:  viper.GetStringSlice("resolver.force_template"),
		ShowRawErrors:  viper.GetBool("resolver.show_raw_errors"),
		QuietFunctions: viper.GetStringSlice("editor.quiet_functions"),
	})
}
