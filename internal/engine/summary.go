package engine

import (
	"fmt"

	"github.com/Veraticus/bankfeed-autopilot/internal/model"
)

// SummaryLines renders the notification for a run. Counter lines are only
// present once the review queue was read.
func SummaryLines(run model.Run, loaded bool, runErr error) []string {
	var lines []string

	if loaded {
		lines = append(lines, fmt.Sprintf("Loaded %d transactions For review", run.Loaded))

		suffix := ""
		if run.DryRun {
			suffix = " (simulated)"
		}
		lines = append(lines,
			fmt.Sprintf("Added%s %d", suffix, run.Counters.Added),
			fmt.Sprintf("Matched%s %d", suffix, run.Counters.Matched),
			fmt.Sprintf("Marked for review %d", run.Counters.MarkedForReview),
		)
		if run.Counters.Failed > 0 {
			lines = append(lines, fmt.Sprintf("Failed to apply %d", run.Counters.Failed))
		}
	}

	if runErr != nil {
		lines = append(lines, "Run failed: "+runErr.Error())
	}
	return lines
}
