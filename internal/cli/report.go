package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/bankfeed-autopilot/internal/engine"
	"github.com/Veraticus/bankfeed-autopilot/internal/model"
	"github.com/Veraticus/bankfeed-autopilot/internal/pattern"
)

const timeLayout = "2006-01-02 15:04"

// RenderReport renders the summary box of a finished batch.
func RenderReport(report engine.Report) string {
	run := report.Run
	c := run.Counters

	title := "Bank feed run"
	if run.DryRun {
		title += " (dry run)"
	}

	lines := []string{
		fmt.Sprintf("Loaded:            %d", run.Loaded),
		SuccessStyle.Render(fmt.Sprintf("Added:             %d", c.Added)),
		SuccessStyle.Render(fmt.Sprintf("Matched:           %d", c.Matched)),
		WarningStyle.Render(fmt.Sprintf("Marked for review: %d", c.MarkedForReview)),
	}
	if c.Failed > 0 {
		lines = append(lines, ErrorStyle.Render(fmt.Sprintf("Failed to apply:   %d", c.Failed)))
	}
	if run.Error != "" {
		lines = append(lines, "", FormatError(run.Error))
	}
	lines = append(lines, SubtleStyle.Render("Run "+run.ID))

	return RenderBox(title, strings.Join(lines, "\n"))
}

// RenderResults renders one table row per processed transaction.
func RenderResults(results []model.RunResult) string {
	if len(results) == 0 {
		return SubtleStyle.Render("No transactions processed.")
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		category, confidence, source := "-", "-", "-"
		if d := r.Decision; d != nil {
			category = d.Category
			confidence = fmt.Sprintf("%.2f", d.Confidence)
			source = string(d.Source)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.Position+1),
			truncate(r.Transaction.Description, 32),
			amountText(r.Transaction),
			truncate(category, 24),
			confidence,
			source,
			outcomeText(r.Outcome),
		})
	}

	return renderTable([]string{"#", "Description", "Amount", "Category", "Conf", "Source", "Outcome"}, rows)
}

// RenderRuns renders the run history list.
func RenderRuns(runs []model.Run) string {
	if len(runs) == 0 {
		return SubtleStyle.Render("No runs recorded yet.")
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		status := SuccessStyle.Render("ok")
		switch {
		case run.Error != "":
			status = ErrorStyle.Render("failed")
		case run.FinishedAt.IsZero():
			status = WarningStyle.Render("incomplete")
		}
		if run.DryRun {
			status += SubtleStyle.Render(" (dry)")
		}

		rows = append(rows, []string{
			run.ID[:min(8, len(run.ID))],
			run.StartedAt.Local().Format(timeLayout),
			run.Source,
			fmt.Sprintf("%d", run.Loaded),
			fmt.Sprintf("%d", run.Counters.Added),
			fmt.Sprintf("%d", run.Counters.Matched),
			fmt.Sprintf("%d", run.Counters.MarkedForReview),
			status,
		})
	}

	return renderTable([]string{"Run", "Started", "Source", "Loaded", "Added", "Matched", "Review", "Status"}, rows)
}

// RenderRules lists rules in evaluation order.
func RenderRules(rules []pattern.Rule) string {
	if len(rules) == 0 {
		return SubtleStyle.Render("No rules configured.")
	}

	rows := make([][]string, 0, len(rules))
	for i, rule := range rules {
		confidence := fmt.Sprintf("%.2f", pattern.DefaultConfidence)
		if rule.Confidence != nil {
			confidence = fmt.Sprintf("%.2f", *rule.Confidence)
		}
		action := string(pattern.DefaultAction) + "*"
		if rule.Action != nil {
			action = string(*rule.Action)
		}
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), rule.Name, rule.Category, confidence, action})
	}

	return renderTable([]string{"#", "Rule", "Category", "Conf", "Action"}, rows) +
		"\n" + SubtleStyle.Render("* default action, replaced by add/match from the transaction direction")
}

// RenderDecision describes what the engine would do with a transaction.
func RenderDecision(txn model.BankTransaction, d *model.Decision, policy engine.Policy) string {
	if d == nil {
		return FormatWarning("No rule matched; the transaction would be marked for review.")
	}

	tier := policy.Tier(d.Confidence)
	var verdict string
	switch {
	case !d.Action.Executable():
		verdict = FormatWarning("Would be marked for review")
	case tier == model.TierNone:
		verdict = FormatWarning(fmt.Sprintf("Confidence below %.2f; would be marked for review", policy.Fallback))
	default:
		verdict = FormatSuccess(fmt.Sprintf("Would %s under the %s tier", d.Action, tier))
	}

	lines := []string{
		fmt.Sprintf("Transaction: %s %s", txn.Description, amountText(txn)),
		fmt.Sprintf("Rule:        %s", d.Reason),
		fmt.Sprintf("Category:    %s", d.Category),
		fmt.Sprintf("Confidence:  %.2f", d.Confidence),
		fmt.Sprintf("Action:      %s", d.Action),
		"",
		verdict,
	}
	return RenderBox("Decision", strings.Join(lines, "\n"))
}

func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	renderRow := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = TableCellStyle.Render(cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell)))
		}
		return style.Render(lipgloss.JoinHorizontal(lipgloss.Top, parts...))
	}

	out := []string{renderRow(headers, TableHeaderStyle)}
	for _, row := range rows {
		out = append(out, renderRow(row, lipgloss.NewStyle()))
	}
	return strings.Join(out, "\n")
}

func amountText(txn model.BankTransaction) string {
	if txn.IsRevenue() {
		return "+" + txn.ReceivedAmount().StringFixed(2)
	}
	if spent := txn.SpentAmount(); spent.IsPositive() {
		return "-" + spent.StringFixed(2)
	}
	return "0.00"
}

func outcomeText(o model.Outcome) string {
	switch o.Status {
	case model.OutcomeExecuted:
		return SuccessStyle.Render(fmt.Sprintf("%s (%s)", o.Action, o.Tier))
	case model.OutcomeFailed:
		return ErrorStyle.Render("failed: " + truncate(o.Reason, 40))
	default:
		return WarningStyle.Render("review")
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
