package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/opentrees/wfsget/internal/connectors/wfs"
	"github.com/opentrees/wfsget/internal/core/domain"
	"github.com/opentrees/wfsget/internal/core/ports/driving"
)

var (
	acquireOutput  string
	acquireDataDir string
)

var acquireCmd = &cobra.Command{
	Use:   "acquire <getfeature-url>...",
	Short: "Download and merge the complete result of GetFeature queries",
	Long: `Downloads every feature matched by each GetFeature URL.

Pages are written to a per-run directory under the data directory and
merged into one document. With a single URL the merged document is
written to ./merged.xml unless --output is given; with several URLs each
is merged into its run directory and the downloads run concurrently.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAcquire,
}

func init() {
	acquireCmd.Flags().StringVarP(&acquireOutput, "output", "o", "", "merged document path (single URL only)")
	acquireCmd.Flags().StringVar(&acquireDataDir, "data-dir", "", "parent of per-run artifact directories")
	rootCmd.AddCommand(acquireCmd)
}

func runAcquire(cmd *cobra.Command, args []string) error {
	if acquirer == nil || settingsService == nil {
		return errors.New("acquisition service not configured")
	}
	if acquireOutput != "" && len(args) > 1 {
		return errors.New("--output can only be used with a single URL")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	dataDir := settings.DataDir
	if acquireDataDir != "" {
		dataDir = acquireDataDir
	}

	specs, err := buildSpecs(args, dataDir, acquireOutput)
	if err != nil {
		return err
	}

	outcomes := acquirer.AcquireAll(cmd.Context(), specs)
	return reportOutcomes(cmd, outcomes)
}

// buildSpecs parses each URL into a spec with its own run directory.
func buildSpecs(urls []string, dataDir, output string) ([]domain.QuerySpec, error) {
	specs := make([]domain.QuerySpec, 0, len(urls))
	for _, u := range urls {
		outputDir := filepath.Join(dataDir, uuid.NewString())

		merged := filepath.Join(outputDir, domain.DefaultMergedName)
		if len(urls) == 1 {
			merged = domain.DefaultMergedName
			if output != "" {
				merged = output
			}
		}

		spec, err := wfs.ParseQuerySpec(u, outputDir, merged)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", u, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// reportOutcomes prints one line per acquisition and fails if any failed.
func reportOutcomes(cmd *cobra.Command, outcomes []driving.AcquireOutcome) error {
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			cmd.PrintErrf("[%s] failed: %v\n", o.Spec.SourceID, o.Err)
			continue
		}

		r := o.Result
		cmd.Printf("[%s] %s: %d %s via %s (WFS %s)\n",
			r.SourceID, r.MergedPath, r.Pages, plural(r.Pages, "page", "pages"), r.Strategy, r.Version)
		for _, w := range r.Warnings {
			cmd.PrintErrf("[%s] warning: %v\n", r.SourceID, w)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d acquisitions failed", failed, len(outcomes))
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
