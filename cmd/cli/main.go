package main

import (
	"fmt"
	"os"

	"github.com/qarote/qarote/internal/cli/commands"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "qarote",
	Short: "Qarote CLI - RabbitMQ cluster monitoring",
	Long: `Qarote CLI is a command-line tool for the Qarote monitoring dashboard.
It lists your workspace's RabbitMQ servers, manages alert rules, and
acknowledges or resolves alerts.`,
}

func init() {
	rootCmd.AddCommand(commands.NewServerCommand())
	rootCmd.AddCommand(commands.NewRuleCommand())
	rootCmd.AddCommand(commands.NewAlertCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
