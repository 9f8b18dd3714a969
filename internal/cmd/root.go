package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/turbolytics/pgadmin-init/internal/cmd/servers"
)

func NewRootCommand() *cobra.Command {
	opts := servers.NewOptions()

	var cmd = &cobra.Command{
		Use:   "pgadmin-init",
		Short: "Preconfigures pgadmin server connections",
		Long: `pgadmin-init copies a servers json into the storage directory pgadmin
creates for its default user, once pgadmin has created it.`,
		SilenceUsage: true,
		// Without a subcommand the seed runs, which is what init containers call.
		RunE: func(cmd *cobra.Command, args []string) error {
			return servers.RunSeed(cmd, opts)
		},
	}

	opts.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(servers.NewSeedCommand(opts))
	cmd.AddCommand(servers.NewVerifyCommand(opts))
	cmd.AddCommand(servers.NewPathsCommand(opts))

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
