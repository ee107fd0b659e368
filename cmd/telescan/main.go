package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "telescan",
		Short: "Ingest channel content into a classified, embedded document store",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(runCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(ingestCmd())
	root.AddCommand(sourcesCmd())

	return root
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP server without the scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func ingestCmd() *cobra.Command {
	var sourceID string
	var all bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run ingestion once, for one source or all active sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && sourceID == "" {
				return fmt.Errorf("either --source or --all is required")
			}
			return runIngest(sourceID, all)
		},
	}

	cmd.Flags().StringVar(&sourceID, "source", "", "source id to ingest")
	cmd.Flags().BoolVar(&all, "all", false, "ingest all active sources")
	return cmd
}

func sourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage configured content sources",
	}

	var (
		kind     string
		address  string
		id       string
		inactive bool
	)

	add := &cobra.Command{
		Use:   "add",
		Short: "Add a source",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSourcesAdd(id, kind, address, !inactive)
		},
	}
	add.Flags().StringVar(&id, "id", "", "source id (default: generated)")
	add.Flags().StringVar(&kind, "kind", "telegram", "source kind (telegram, rss)")
	add.Flags().StringVar(&address, "address", "", "channel handle or feed URL")
	add.Flags().BoolVar(&inactive, "inactive", false, "create the source disabled")
	add.MarkFlagRequired("address")

	list := &cobra.Command{
		Use:   "list",
		Short: "List sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSourcesList()
		},
	}

	enable := &cobra.Command{
		Use:   "enable <id>",
		Short: "Enable a source for scheduled runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSourcesSetActive(args[0], true)
		},
	}

	disable := &cobra.Command{
		Use:   "disable <id>",
		Short: "Disable a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSourcesSetActive(args[0], false)
		},
	}

	cmd.AddCommand(add, list, enable, disable)
	return cmd
}
