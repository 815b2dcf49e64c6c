package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/qarote/qarote/internal/api/client"
	"github.com/qarote/qarote/internal/models"
	"github.com/spf13/cobra"
)

func NewRuleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rule",
		Short:   "Alert rule management commands",
		Aliases: []string{"rules", "r"},
	}

	cmd.AddCommand(newRuleListCommand())
	cmd.AddCommand(newRuleEnableCommand())
	cmd.AddCommand(newRuleDisableCommand())
	cmd.AddCommand(newRuleImportCommand())
	cmd.AddCommand(newRuleExportCommand())

	return cmd
}

func newRuleListCommand() *cobra.Command {
	var enabled string

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List alert rules",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return fmt.Errorf("failed to create client: %v", err)
			}

			rules, err := c.ListRules(enabled)
			if err != nil {
				return fmt.Errorf("failed to list rules: %v", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tMETRIC\tCONDITION\tSEVERITY\tENABLED\tTRIGGERED")

			for _, rule := range rules {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s %.2f\t%s\t%t\t%d\n",
					rule.ID,
					rule.Name,
					rule.Metric,
					rule.Operator,
					rule.Threshold,
					rule.Severity,
					rule.IsEnabled,
					rule.TriggerCount,
				)
			}

			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&enabled, "enabled", "", "Filter by enabled state (true/false)")

	return cmd
}

func newRuleImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Import alert rules from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read file: %v", err)
			}

			var rules []models.AlertRule
			if err := json.Unmarshal(data, &rules); err != nil {
				return fmt.Errorf("failed to parse rules: %v", err)
			}

			c, err := client.NewClient()
			if err != nil {
				return fmt.Errorf("failed to create client: %v", err)
			}

			if err := c.ImportRules(rules); err != nil {
				return fmt.Errorf("failed to import rules: %v", err)
			}

			fmt.Printf("Imported %d rule(s) from %s\n", len(rules), args[0])
			return nil
		},
	}
}

func newRuleExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Export alert rules to a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return fmt.Errorf("failed to create client: %v", err)
			}

			rules, err := c.ExportRules()
			if err != nil {
				return fmt.Errorf("failed to export rules: %v", err)
			}

			data, err := json.MarshalIndent(rules, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal rules: %v", err)
			}

			if err := os.WriteFile(args[0], data, 0644); err != nil {
				return fmt.Errorf("failed to write file: %v", err)
			}

			fmt.Printf("Exported %d rule(s) to %s\n", len(rules), args[0])
			return nil
		},
	}
}

func newRuleEnableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "enable [rule_id]",
		Short: "Enable an alert rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return fmt.Errorf("failed to create client: %v", err)
			}

			if err := c.EnableRule(args[0]); err != nil {
				return fmt.Errorf("failed to enable rule: %v", err)
			}

			fmt.Printf("Rule %s enabled\n", args[0])
			return nil
		},
	}
}

func newRuleDisableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disable [rule_id]",
		Short: "Disable an alert rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return fmt.Errorf("failed to create client: %v", err)
			}

			if err := c.DisableRule(args[0]); err != nil {
				return fmt.Errorf("failed to disable rule: %v", err)
			}

			fmt.Printf("Rule %s disabled\n", args[0])
			return nil
		},
	}
}
