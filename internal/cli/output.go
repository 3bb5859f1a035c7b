package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/ingest-test/ingesttest-go/internal/suite"
)

var (
	passStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func statusLabel(c suite.CaseResult) string {
	switch c.Status() {
	case "pass":
		return passStyle.Render("PASS")
	case "fail":
		return failStyle.Render("FAIL")
	}
	return errorStyle.Render("ERROR")
}

// writeSuiteResult prints one line per case, the diff of failed cases and
// a closing tally.
func writeSuiteResult(w io.Writer, res *suite.Result) error {
	for _, c := range res.Cases {
		fmt.Fprintf(w, "%-5s %s\n", statusLabel(c), c.Name)
		switch {
		case c.Error != "":
			fmt.Fprintf(w, "      %s\n", dimStyle.Render(c.Error))
		case !c.Match:
			fmt.Fprintf(w, "      %s\n", dimStyle.Render(c.Summary))
			for _, op := range c.Diff {
				data, err := json.Marshal(op)
				if err != nil {
					return fmt.Errorf("encode operation: %w", err)
				}
				fmt.Fprintf(w, "      %s\n", data)
			}
		}
	}
	name := res.Name
	if name == "" {
		name = "suite"
	}
	_, err := fmt.Fprintf(w, "\n%s: %d passed, %d failed, %d errored (%d total)\n",
		name, res.Passed, res.Failed, res.Errored, res.Total)
	return err
}
