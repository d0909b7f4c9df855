package diffutil

import (
	"fmt"
	"strings"
)

// FormatForPrompt renders parsed files back into diff-like text suitable for
// an LLM prompt, trimming each hunk's surrounding unchanged lines down to at
// most contextLines on either side of a changed run. A non-positive
// contextLines disables trimming and renders every line in the hunk.
func FormatForPrompt(files []FileDiff, contextLines int) string {
	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "--- %s\n", f.Path)
		if f.Binary {
			b.WriteString("(binary file, diff omitted)\n\n")
			continue
		}
		for _, h := range f.Hunks {
			fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldLines, h.NewStart, h.NewLines)
			writeHunkLines(&b, h.Lines, contextLines)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// writeHunkLines writes a hunk's lines, collapsing any run of context lines
// longer than 2*contextLines down to contextLines of lead-in, an elision
// marker, and contextLines of lead-out around the changes on either side.
func writeHunkLines(b *strings.Builder, lines []Line, contextLines int) {
	if contextLines <= 0 {
		for _, l := range lines {
			writeLine(b, l)
		}
		return
	}

	keep := make([]bool, len(lines))
	for i, l := range lines {
		if l.Type != "context" {
			keep[i] = true
			for d := 1; d <= contextLines; d++ {
				if i-d >= 0 {
					keep[i-d] = true
				}
				if i+d < len(lines) {
					keep[i+d] = true
				}
			}
		}
	}

	for i, l := range lines {
		if !keep[i] {
			if i == 0 || keep[i-1] {
				b.WriteString(" ... (context elided)\n")
			}
			continue
		}
		writeLine(b, l)
	}
}

func writeLine(b *strings.Builder, l Line) {
	switch l.Type {
	case "addition":
		b.WriteString("+" + l.Content + "\n")
	case "deletion":
		b.WriteString("-" + l.Content + "\n")
	default:
		b.WriteString(" " + l.Content + "\n")
	}
}
