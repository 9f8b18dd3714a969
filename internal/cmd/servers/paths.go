package servers

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func NewPathsCommand(o *Options) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Prints the pgadmin storage paths derived from the login email",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := o.Load("paths")
			if err != nil {
				return err
			}

			p := c.Paths()
			if asYAML {
				bs, err := yaml.Marshal(p)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(bs)
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), p.Dir)
			fmt.Fprintln(cmd.OutOrStdout(), p.ServersFile)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print the paths as yaml")

	return cmd
}
