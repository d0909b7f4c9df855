package diffutil

import "strings"

// Config holds the thresholds the trivial-change rule is evaluated against.
type Config struct {
	// TrivialMaxLines is the threshold for a doc-only diff to be trivial
	// (TRIVIAL_MAX_LINES, default 10).
	TrivialMaxLines int
	// MinimalThreshold is the threshold under which ANY diff (code or
	// docs) is trivial regardless of composition.
	MinimalThreshold int
}

// DefaultConfig mirrors the documented environment defaults.
func DefaultConfig() Config {
	return Config{TrivialMaxLines: 10, MinimalThreshold: 2}
}

// Analyze computes an Analysis from raw unified diff text. An empty diff
// is trivial with reason "Trivial change: empty diff". TrivialReason values
// are always fully formed skip-reason text; callers should not re-prefix
// them.
func Analyze(diffText string, cfg Config) Analysis {
	if strings.TrimSpace(diffText) == "" {
		return Analysis{Trivial: true, TrivialReason: "Trivial change: empty diff"}
	}

	files := ParseUnifiedDiff(diffText)
	a := Analysis{Files: files, FilesChanged: len(files)}

	allDoc := len(files) > 0
	anyNonWhitespace := false

	for _, f := range files {
		lines := f.Additions + f.Deletions
		a.TotalLines += lines
		if f.IsDoc {
			a.DocLines += lines
		} else {
			a.CodeLines += lines
			allDoc = false
		}
		for _, h := range f.Hunks {
			for _, l := range h.Lines {
				if l.Type == "context" {
					continue
				}
				if strings.TrimSpace(l.Content) != "" {
					anyNonWhitespace = true
				}
			}
		}
	}

	a.DocOnly = allDoc
	a.WhitespaceOnly = !anyNonWhitespace

	switch {
	case a.WhitespaceOnly:
		a.Trivial = true
		a.TrivialReason = "Trivial change: whitespace-only"
	case a.TotalLines <= cfg.MinimalThreshold:
		a.Trivial = true
		a.TrivialReason = "Trivial change: below minimal line threshold"
	case a.DocOnly && a.TotalLines <= cfg.TrivialMaxLines:
		a.Trivial = true
		a.TrivialReason = "Trivial change: doc-only diff within threshold"
	}

	return a
}
