package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/qarote/qarote/internal/api/client"
	"github.com/spf13/cobra"
)

func NewServerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "server",
		Short:   "Server management commands",
		Aliases: []string{"servers", "s"},
	}

	cmd.AddCommand(newServerListCommand())

	return cmd
}

func newServerListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List RabbitMQ servers",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return fmt.Errorf("failed to create client: %v", err)
			}

			servers, err := c.ListServers()
			if err != nil {
				return fmt.Errorf("failed to list servers: %v", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tHOST\tPORT\tENABLED\tLAST POLLED\tLAST ERROR")

			for _, server := range servers {
				lastPolled := "-"
				if server.LastPolled != nil {
					lastPolled = server.LastPolled.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%t\t%s\t%s\n",
					server.ID,
					server.Name,
					server.Host,
					server.Port,
					server.Enabled,
					lastPolled,
					server.LastError,
				)
			}

			return w.Flush()
		},
	}

	return cmd
}
