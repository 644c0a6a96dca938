package runs

import (
	"fmt"
	"strings"
	"time"
)

// renderReport produces the downloadable plain-text score report.
func renderReport(run *Run) []byte {
	var b strings.Builder

	b.WriteString("CONFIDENTIAL CREDIT SCORE REPORT\n")
	b.WriteString("================================\n\n")
	fmt.Fprintf(&b, "Run ID:  %s\n", run.ID)
	fmt.Fprintf(&b, "Date:    %s\n", time.Now().UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "Status:  %s\n", strings.ToUpper(string(run.Status)))

	if run.Score != nil {
		fmt.Fprintf(&b, "\nScore:   %d\n", *run.Score)
		grade := run.Grade
		if grade == "" {
			grade = "N/A"
		}
		fmt.Fprintf(&b, "Grade:   %s\n", grade)
	}
	if run.TaskID != "" {
		fmt.Fprintf(&b, "\nTask ID: %s\n", run.TaskID)
	}
	if run.Error != "" {
		fmt.Fprintf(&b, "\nFailure: %s\n", run.Error)
	}

	b.WriteString("\nComputed inside a trusted execution environment.\n")
	b.WriteString("Input data was never exposed in plaintext.\n")

	return []byte(b.String())
}
