package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/opentrees/wfsget/internal/core/domain"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded acquisitions",
	Long:  `Lists past acquisitions, most recent first, with their outcome.`,
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of runs (0 for all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output runs as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if acquirer == nil {
		return errors.New("acquisition service not configured")
	}

	runs, err := acquirer.History(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if historyJSON {
		return outputHistoryJSON(cmd, runs)
	}

	if len(runs) == 0 {
		cmd.Println("No acquisitions recorded.")
		return nil
	}

	for _, r := range runs {
		cmd.Printf("%s  %s  %-9s %s\n", r.StartedAt.Local().Format(time.DateTime), r.ID, r.Status, r.SourceID)
		switch r.Status {
		case domain.RunSucceeded:
			cmd.Printf("    %d %s via %s (WFS %s) in %s -> %s\n",
				r.Pages, plural(r.Pages, "page", "pages"), r.Strategy, r.Version,
				r.Duration().Round(time.Millisecond), r.MergedPath)
		case domain.RunFailed:
			cmd.Printf("    %s\n", r.Error)
		}
	}
	return nil
}

// historyEntry is the JSON shape of a run.
type historyEntry struct {
	ID         string     `json:"id"`
	SourceID   string     `json:"source_id"`
	URL        string     `json:"url"`
	Version    string     `json:"version,omitempty"`
	Strategy   string     `json:"strategy,omitempty"`
	Pages      int        `json:"pages"`
	MergedPath string     `json:"merged_path,omitempty"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func outputHistoryJSON(cmd *cobra.Command, runs []domain.AcquisitionRecord) error {
	entries := make([]historyEntry, 0, len(runs))
	for _, r := range runs {
		e := historyEntry{
			ID:         r.ID,
			SourceID:   r.SourceID,
			URL:        r.URL,
			Version:    string(r.Version),
			Strategy:   string(r.Strategy),
			Pages:      r.Pages,
			MergedPath: r.MergedPath,
			Status:     string(r.Status),
			Error:      r.Error,
			StartedAt:  r.StartedAt,
		}
		if !r.FinishedAt.IsZero() {
			finished := r.FinishedAt
			e.FinishedAt = &finished
		}
		entries = append(entries, e)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
