package servers

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/turbolytics/pgadmin-init/internal"
	"github.com/turbolytics/pgadmin-init/internal/config"
	"github.com/turbolytics/pgadmin-init/internal/local"
	"github.com/turbolytics/pgadmin-init/internal/postgres"
	"github.com/turbolytics/pgadmin-init/internal/servers"
)

func NewVerifyCommand(o *Options) *cobra.Command {
	var password string
	var output bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Checks that every server in the servers json accepts connections",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, logger, err := o.Load("verify")
			if err != nil {
				return err
			}
			defer logger.Sync()

			var source internal.Source
			if output {
				source = local.NewSource(c.Paths().ServersFile)
			} else {
				source, err = config.NewSource(c, logger)
				if err != nil {
					return err
				}
			}

			bs, err := source.Read(cmd.Context())
			if err != nil {
				return err
			}
			doc, err := servers.Parse(bs)
			if err != nil {
				return err
			}

			srvs, err := doc.Servers()
			if err != nil {
				return fmt.Errorf("%s: %w", source.Location(), err)
			}
			if len(srvs) == 0 {
				return fmt.Errorf("%s: no servers defined", source.Location())
			}

			logger.Info("verifying servers",
				zap.String("source", source.Location()),
				zap.Int("count", len(srvs)),
			)

			checker := postgres.NewChecker(
				postgres.WithLogger(logger),
				postgres.WithPassword(resolvePassword(password)),
				postgres.WithTimeout(timeout),
			)
			statuses := checker.CheckAll(cmd.Context(), srvs)

			if err := renderStatuses(cmd, statuses); err != nil {
				return err
			}

			var failed int
			for _, st := range statuses {
				if !st.OK() {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d servers unreachable", failed, len(statuses))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Password used for every server (defaults to $PGPASSWORD)")
	cmd.Flags().BoolVar(&output, "output", false, "Verify the servers file already written to pgadmin storage instead of the input")
	cmd.Flags().DurationVar(&timeout, "connect-timeout", 5*time.Second, "Per server connection timeout")

	return cmd
}

// resolvePassword falls back to $PGPASSWORD. It runs after Load so a
// PGPASSWORD from --env-file is visible.
func resolvePassword(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv("PGPASSWORD")
}

func renderStatuses(cmd *cobra.Command, statuses []postgres.Status) error {
	rows := pterm.TableData{{"NAME", "HOST", "PORT", "DATABASE", "STATUS"}}
	for _, st := range statuses {
		status := pterm.Green("ok")
		if !st.OK() {
			status = pterm.Red(st.Err.Error())
		}
		rows = append(rows, []string{
			st.Server.Name,
			st.Server.Host,
			strconv.Itoa(st.Server.Port),
			st.Server.MaintenanceDB,
			status,
		})
	}

	return pterm.DefaultTable.
		WithHasHeader(true).
		WithHeaderStyle(pterm.NewStyle(pterm.FgCyan, pterm.Bold)).
		WithData(rows).
		WithWriter(cmd.OutOrStdout()).
		Render()
}
