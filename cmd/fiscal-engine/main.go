/*
main.go - Application entry point

PURPOSE:
  Command-line front of the fiscal calendar engine. Two subcommands:
    serve     Runs the HTTP API with the reminder scheduler
    generate  Prints the obligations of one entity file, no server needed

STARTUP SEQUENCE (serve):
  1. Load configuration (file, FISCAL_* env, defaults)
  2. Build the zap logger
  3. Open the SQLite store
  4. Wire service, handler, router
  5. Optionally seed demo scenarios
  6. Start reminders and the server, shut down gracefully

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the reminder scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  fiscal-engine serve --config ./fiscal.yaml
  FISCAL_DATABASE_PATH=":memory:" FISCAL_DEMO_LOAD_SCENARIOS=true fiscal-engine serve
  fiscal-engine generate --entity ./startup.json --year 2027
  fiscal-engine generate --entity ./startup.json --year 2026 --to 2030 --today 2027-06-01

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Server settings
  - factory/config.go: Entity file format
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fiscal-engine",
		Short:         "French fiscal obligation calendar",
		Long:          "Generates the TVA, tax return and CFE deadlines of a French company\nand serves them over HTTP with overrides and reminders.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCmd(), newGenerateCmd())
	return cmd
}
