// Package formatter renders reduction outcomes and deduplication reports as
// colored text for the terminal.
package formatter

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/fatih/color"

	"github.com/chcfuzz/bugreduce/internal"
	"github.com/chcfuzz/bugreduce/internal/minimize"
)

var (
	errorStyle   = color.New(color.FgRed, color.Bold)
	successStyle = color.New(color.FgGreen, color.Bold)
	ruleStyle    = color.New(color.FgYellow, color.Bold)
	fileStyle    = color.New(color.FgCyan, color.Bold)
	lineStyle    = color.New(color.FgHiBlue, color.Bold)
	noStyle      = color.New(color.FgWhite)
)

const outcomeTemplate = `{{header .}}
{{location .File}}
{{- if .Reproduced}}
{{detail "chain" (shrink .ChainBefore .ChainAfter "mutations")}}
{{- if .NodesAfter}}
{{detail "nodes" (shrink .NodesBefore .NodesAfter "nodes")}}
{{- end}}
{{- if .Artifact}}
{{detail "written" .Artifact}}
{{- end}}
{{- end}}

`

var funcMap = template.FuncMap{
	"header":   header,
	"location": location,
	"detail":   detail,
	"shrink":   shrink,
}

var outcomeTmpl = template.Must(template.New("outcome").Funcs(funcMap).Parse(outcomeTemplate))

// FormatOutcomes renders one block per outcome.
func FormatOutcomes(outcomes []*internal.Outcome) string {
	var builder strings.Builder
	for _, out := range outcomes {
		builder.WriteString(FormatOutcome(out))
	}
	return builder.String()
}

// FormatOutcome renders the result of processing one bug file.
func FormatOutcome(out *internal.Outcome) string {
	var buf bytes.Buffer
	if err := outcomeTmpl.Execute(&buf, out); err != nil {
		return fmt.Sprintf("Error formatting outcome: %v", err)
	}
	return buf.String()
}

func header(out *internal.Outcome) string {
	if !out.Reproduced {
		return errorStyle.Sprint("not reproduced")
	}
	last := strings.ToLower(out.Last)
	if last == "" {
		last = "(seed)"
	}
	return successStyle.Sprint("reproduced: ") + ruleStyle.Sprint(last)
}

func location(file string) string {
	return lineStyle.Sprint(" --> ") + fileStyle.Sprint(file)
}

func detail(name, value string) string {
	return lineStyle.Sprintf("  = %s: ", name) + noStyle.Sprint(value)
}

func shrink(before, after int, unit string) string {
	return fmt.Sprintf("%d -> %d %s", before, after, unit)
}

// FormatDedup renders the bug groups of report with their sizes, sorted by
// group name, followed by the number of discarded files.
func FormatDedup(report *minimize.DedupReport) string {
	keys := report.Keys()
	width := len("discarded")
	for _, k := range keys {
		width = max(width, len(k))
	}

	var builder strings.Builder
	for _, k := range keys {
		builder.WriteString(ruleStyle.Sprintf("%-*s", width, k))
		builder.WriteString(noStyle.Sprintf(" %d\n", report.Count(k)))
	}
	if n := len(report.Discarded); n > 0 {
		builder.WriteString(errorStyle.Sprintf("%-*s", width, "discarded"))
		builder.WriteString(noStyle.Sprintf(" %d\n", n))
	}
	return builder.String()
}
