package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackbom/pkg/cache"
	"github.com/matzehuels/stackbom/pkg/deps"
	"github.com/matzehuels/stackbom/pkg/enrich"
	"github.com/matzehuels/stackbom/pkg/errors"
	"github.com/matzehuels/stackbom/pkg/pipeline"
	"github.com/matzehuels/stackbom/pkg/sbom"
)

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "generate [path]",
		Short: "Generate a CycloneDX SBOM for a project directory",
		Long: `Generate detects every supported ecosystem under path (default: the current
directory), reads their lockfiles and writes one CycloneDX JSON document.

Components without a lockfile-resolved version are reported as 0.0.0.`,
		Example: `  stackbom generate
  stackbom generate ./service -e npm -e pypi --dev=false -o sbom.json
  STACKBOM_TOKEN=... stackbom generate --enrich --cache redis`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(c.Config, cmd); err != nil {
				return err
			}
			root := projectRoot(args)
			opts := c.pipelineOptions()

			if interactive {
				selected, err := c.pickEcosystems(root, opts.Ecosystems)
				if err != nil {
					return err
				}
				opts.Ecosystems = selected
			}
			return c.runGenerate(cmd.Context(), root, opts)
		},
	}

	addScanFlags(cmd)
	cmd.Flags().StringP(keyOutput, "o", "-", "output file (- for stdout)")
	cmd.Flags().Bool(keyPretty, true, "indent the JSON document")
	cmd.Flags().Bool(keyEnrich, false, "annotate components with OSV vulnerability data")
	cmd.Flags().String(keyToken, "", "bearer token for the vulnerability service")
	cmd.Flags().StringSlice(keyOSVURL, []string{enrich.OSVQueryURL}, "OSV-compatible query endpoints (repeatable)")
	cmd.Flags().String(keyCache, cacheFile, "lookup cache: none, file or redis")
	cmd.Flags().String(keyRedisAddr, "localhost:6379", "redis address for --cache redis")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "choose among the detected ecosystems")

	return cmd
}

// addScanFlags registers the flags shared by every command that scans a
// project directory.
func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP(keyEcosystem, "e", nil, "restrict to these ecosystems (repeatable)")
	cmd.Flags().Bool(keyDev, true, "include development-only packages")
	cmd.Flags().Bool(keyDeep, true, "include transitive packages")
	cmd.RegisterFlagCompletionFunc(keyEcosystem, completeEcosystems)
}

func completeEcosystems(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	var names []string
	for _, e := range deps.Ecosystems() {
		names = append(names, string(e))
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

func projectRoot(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

func (c *CLI) pipelineOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.Ecosystems = splitList(c.Config.GetStringSlice(keyEcosystem))
	opts.IncludeDev = c.Config.GetBool(keyDev)
	opts.Deep = c.Config.GetBool(keyDeep)
	return opts
}

// splitList flattens comma-separated entries, as environment variables and
// config files may give "npm,pypi" as one value.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *CLI) runGenerate(ctx context.Context, root string, opts pipeline.Options) error {
	logger := loggerFromContext(ctx)
	st := startStage(logger, "generated sbom")

	spin := startSpinner(ctx, "Reading lockfiles...")
	bom, err := pipeline.NewRunner(logger).Generate(ctx, root, opts)
	if err != nil {
		spin.fail("Generation failed")
		return err
	}
	spin.stop()

	if c.Config.GetBool(keyEnrich) {
		bom, err = c.enrich(ctx, bom)
		if err != nil {
			return err
		}
	}

	if err := c.writeDocument(bom); err != nil {
		return err
	}
	st.done("components", componentCount(bom))
	printStats(summarize(bom)...)
	return nil
}

// newEnricher builds the OSV-backed enrichment service. Several --osv-url
// values are queried together and their findings merged. The returned
// cache must be closed by the caller.
func (c *CLI) newEnricher(ctx context.Context) (*enrich.Service, cache.Cache, error) {
	urls := splitList(c.Config.GetStringSlice(keyOSVURL))
	for _, u := range urls {
		if err := errors.ValidateURL(u); err != nil {
			return nil, nil, err
		}
	}
	store, err := newCache(ctx, c.Config.GetString(keyCache), c.Config.GetString(keyRedisAddr))
	if err != nil {
		return nil, nil, err
	}
	token := c.Config.GetString(keyToken)

	var lookups []enrich.Lookup
	for _, u := range urls {
		lookups = append(lookups, enrich.NewOSVClient(store, token).WithURL(u))
	}
	var lookup enrich.Lookup
	switch len(lookups) {
	case 0:
		lookup = enrich.NewOSVClient(store, token)
	case 1:
		lookup = lookups[0]
	default:
		lookup = enrich.NewComposite(lookups...)
	}
	return enrich.NewService(lookup, store, loggerFromContext(ctx)), store, nil
}

func (c *CLI) enrich(ctx context.Context, bom *cdx.BOM) (*cdx.BOM, error) {
	logger := loggerFromContext(ctx)
	svc, store, err := c.newEnricher(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	spin := startSpinner(ctx, "Looking up vulnerabilities...")
	res, err := svc.Enrich(ctx, bom, enrich.Options{})
	spin.stop()
	if err != nil {
		return nil, err
	}
	if res.Failed > 0 {
		printWarning("%d lookups failed; those components are not annotated", res.Failed)
	}
	logger.Debug("enriched", "annotated", res.Annotated, "failed", res.Failed, "skipped", res.Skipped)
	return res.BOM, nil
}

func (c *CLI) writeDocument(bom *cdx.BOM) error {
	path := c.Config.GetString(keyOutput)
	pretty := c.Config.GetBool(keyPretty)
	if path == "" || path == "-" {
		return sbom.Encode(c.out, bom, pretty)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := sbom.Encode(f, bom, pretty); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	printSuccess("Wrote %s", path)
	printFile(path)
	printNextStep("Draw its dependency graph", "stackbom graph --input "+path+" --format svg")
	return nil
}

// summarize counts what a document holds for the status line.
func componentCount(bom *cdx.BOM) int {
	if bom.Components == nil {
		return 0
	}
	return len(*bom.Components)
}

func summarize(bom *cdx.BOM) []string {
	comps, vulnerable := 0, 0
	if bom.Components != nil {
		comps = len(*bom.Components)
		for _, c := range *bom.Components {
			if r := enrich.ReportFrom(bom, c.BOMRef); r != nil && len(r.Issues) > 0 {
				vulnerable++
			}
		}
	}
	ecosystems := 0
	if bom.Metadata != nil && bom.Metadata.Properties != nil {
		for _, p := range *bom.Metadata.Properties {
			if strings.HasPrefix(p.Name, sbom.PropLockfile) {
				ecosystems++
			}
		}
	}
	parts := []string{
		fmt.Sprintf("%d components", comps),
		fmt.Sprintf("%d ecosystems", ecosystems),
	}
	if vulnerable > 0 {
		parts = append(parts, fmt.Sprintf("%d with known issues", vulnerable))
	}
	return parts
}
