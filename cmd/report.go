package cmd

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"

	"github.com/cmmoran/recordgen/internal/diagnostic"
)

// printDiagnostics writes every diagnostic to stderr, location first.
func printDiagnostics(diags diagnostic.Diagnostics) {
	for _, d := range diags.All() {
		var severity string
		switch d.Severity {
		case diagnostic.SeverityError:
			severity = pterm.Red("error:")
		case diagnostic.SeverityWarning:
			severity = pterm.Yellow("warning:")
		default:
			severity = pterm.Blue("info:")
		}

		subject := d.Decl
		if d.Member != "" {
			subject += "." + d.Member
		}

		line := severity
		if pos := d.Pos.String(); pos != "" {
			line = pterm.Bold.Sprint(pos+":") + " " + severity
		}
		if subject != "" {
			line += " " + pterm.LightCyan("["+subject+"]")
		}
		line += " " + d.Message
		if d.Code != "" {
			line += " " + pterm.Gray("("+d.Code+")")
		}
		_, _ = fmt.Fprintln(os.Stderr, line)

		for _, h := range d.Hints {
			_, _ = fmt.Fprintf(os.Stderr, "  %s %s\n", pterm.Green("hint:"), h)
		}
	}

	if n := diags.Len(); n > 0 {
		_, _ = fmt.Fprintf(os.Stderr, "%d error(s), %d warning(s)\n", len(diags.Errors), len(diags.Warnings))
	}
}

// printError writes a command error and its hints to stderr.
func printError(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "%s %v\n", pterm.Red("error:"), err)
	for _, h := range errors.GetAllHints(err) {
		_, _ = fmt.Fprintf(os.Stderr, "  %s %s\n", pterm.Green("hint:"), h)
	}
}
