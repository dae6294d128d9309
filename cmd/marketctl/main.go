// Command marketctl runs administrative tasks against the marketplace database.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "marketctl",
	Short:         "Data marketplace admin CLI",
	Long:          "marketctl migrates the schema and manages accounts using the same environment as the API server.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(setRoleCmd)
}
