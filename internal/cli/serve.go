package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackbom/internal/api"
	"github.com/matzehuels/stackbom/pkg/enrich"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve SBOM generation over HTTP",
		Long: `Serve runs the HTTP API. Request paths are resolved inside --workspace and
may not leave it. With --enrich, clients may ask for OSV annotations.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(c.Config, cmd); err != nil {
				return err
			}
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg := api.Config{
				Workspace: c.Config.GetString(keyWorkspace),
				Logger:    logger,
			}
			if c.Config.GetBool(keyEnrich) {
				svc, store, err := c.newEnricher(ctx)
				if err != nil {
					return err
				}
				defer store.Close()
				cfg.Enricher = svc
			}

			srv, err := api.New(cfg)
			if err != nil {
				return err
			}
			printInfo("Listening on %s", StyleHighlight.Render(c.Config.GetString(keyAddr)))
			return srv.ListenAndServe(ctx, c.Config.GetString(keyAddr))
		},
	}

	cmd.Flags().String(keyAddr, ":8080", "listen address")
	cmd.Flags().String(keyWorkspace, ".", "directory request paths are resolved against")
	cmd.Flags().Bool(keyEnrich, false, "allow OSV enrichment requests")
	cmd.Flags().String(keyToken, "", "bearer token for the vulnerability service")
	cmd.Flags().StringSlice(keyOSVURL, []string{enrich.OSVQueryURL}, "OSV-compatible query endpoints (repeatable)")
	cmd.Flags().String(keyCache, cacheRedis, "lookup cache: none, file or redis")
	cmd.Flags().String(keyRedisAddr, "localhost:6379", "redis address for --cache redis")

	return cmd
}
