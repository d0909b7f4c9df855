// Package diffutil parses unified diff text and classifies it: total/code/doc
// line counts, whitespace-only, doc-only, and trivial flags. No
// source-language parsing is performed beyond classifying a file's extension
// as code-or-docs.
package diffutil

// FileDiff represents the parsed changes to a single file within a diff.
type FileDiff struct {
	Path      string
	Status    string // modified, added, deleted, renamed
	OldPath   string
	Additions int
	Deletions int
	Binary    bool
	IsDoc     bool
	Hunks     []Hunk
}

// Hunk is a contiguous block of changed lines.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Lines    []Line
}

// Line is a single line within a hunk.
type Line struct {
	Type    string // context, addition, deletion
	Content string
	OldLine int
	NewLine int
}

// Analysis summarizes a diff's size and composition for the trigger filter.
type Analysis struct {
	TotalLines     int
	CodeLines      int
	DocLines       int
	WhitespaceOnly bool
	DocOnly        bool
	Trivial        bool
	TrivialReason  string
	FilesChanged   int
	Files          []FileDiff
}
