package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile    string
	appVersion string // set in Execute, used by serve for telemetry
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sprocket",
		Short: "Run R and Python scripts as SQL Server stored procedures",
		Long: `Sprocket: register scripts as SQL Server stored procedures and invoke them
by name with keyword arguments.

Sprocket wraps a script's parameters in a generated sp_execute_external_script
procedure, reads the declared parameters back from the system catalog, and
builds correctly ordered invocations so callers never deal with positional
binding. A REST API and an MCP server for AI agents are included.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./sprocket.yaml)")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for SQLite config (default: ~/.sprocket)")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))
	cmd.AddCommand(newTargetCmd())
	cmd.AddCommand(newProcCmd())
	cmd.AddCommand(newTokenCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("sprocket")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.sprocket")
	}

	viper.SetEnvPrefix("SPROCKET")
	viper.AutomaticEnv()
	viper.ReadInConfig() // Ignore error - config file is optional
}
