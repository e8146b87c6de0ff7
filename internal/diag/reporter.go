package diag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Reporter renders Diagnostics against one source file's text, Rust-style:
// a header line, a `--> file:line:col` pointer, the offending source line,
// and a caret underneath it.
type Reporter struct {
	filename string
	lines    []string
}

// NewReporter builds a Reporter for filename's source text.
func NewReporter(filename, source string) *Reporter {
	return &Reporter{filename: filename, lines: strings.Split(source, "\n")}
}

// Format renders d as multi-line colored text.
func (r *Reporter) Format(d *Diagnostic) string {
	var out strings.Builder

	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	levelColor := color.New(color.FgRed, color.Bold).SprintFunc()
	if d.Level == LevelNote {
		levelColor = color.New(color.FgBlue).SprintFunc()
	}

	fmt.Fprintf(&out, "%s[%s]: %s\n", levelColor(string(d.Level)), d.Code, d.Message)

	width := len(fmt.Sprintf("%d", d.Position.Line))
	indent := strings.Repeat(" ", width)
	fmt.Fprintf(&out, "%s %s %s:%d:%d\n", indent, dim("-->"), r.filename, d.Position.Line, d.Position.Column)
	fmt.Fprintf(&out, "%s %s\n", indent, dim("│"))

	if d.Position.Line >= 1 && d.Position.Line <= len(r.lines) {
		line := r.lines[d.Position.Line-1]
		fmt.Fprintf(&out, "%s %s %s\n", bold(fmt.Sprintf("%*d", width, d.Position.Line)), dim("│"), line)
		col := d.Position.Column
		if col < 1 {
			col = 1
		}
		marker := strings.Repeat(" ", col-1) + levelColor("^")
		fmt.Fprintf(&out, "%s %s %s\n", indent, dim("│"), marker)
	}

	for _, note := range d.Notes {
		fmt.Fprintf(&out, "%s %s %s %s\n", indent, dim("│"), color.New(color.FgBlue).Sprint("note:"), note)
	}

	return out.String()
}
