// missionctl is the admin CLI for the mission engine. It talks to the
// server's HTTP API using settings from ~/.missionhub.yaml.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"missionhub/internal/cli/missions"
	"missionhub/internal/cli/sweep"
)

var rootCmd = &cobra.Command{
	Use:   "missionctl",
	Short: "MissionHub administration CLI",
	Long:  "Manage mission definitions and maintenance sweeps over the server API",
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.AddCommand(missions.MissionsCmd)
	rootCmd.AddCommand(sweep.SweepCmd)
}

func initConfig() {
	home, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(home)
	}
	viper.SetConfigName(".missionhub")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)

	// Missing config is fine, defaults apply
	viper.ReadInConfig()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
