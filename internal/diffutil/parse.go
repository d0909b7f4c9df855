package diffutil

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	fileHeaderRe = regexp.MustCompile(`^diff --git a/(.+) b/(.+)$`)
	hunkRe       = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)
)

// ParseUnifiedDiff splits a full unified diff (as returned by the
// repository-host client for a commit or a PR) into per-file FileDiffs.
func ParseUnifiedDiff(diffText string) []FileDiff {
	if strings.TrimSpace(diffText) == "" {
		return nil
	}

	var files []FileDiff
	lines := strings.Split(diffText, "\n")

	var cur *FileDiff
	var hunk *Hunk
	var oldLine, newLine int

	flushHunk := func() {
		if cur != nil && hunk != nil {
			cur.Hunks = append(cur.Hunks, *hunk)
			hunk = nil
		}
	}
	flushFile := func() {
		flushHunk()
		if cur != nil {
			files = append(files, *cur)
			cur = nil
		}
	}

	for _, line := range lines {
		if m := fileHeaderRe.FindStringSubmatch(line); m != nil {
			flushFile()
			cur = &FileDiff{Path: m[2], OldPath: m[1], Status: "modified"}
			if m[1] != m[2] {
				cur.Status = "renamed"
			}
			cur.IsDoc = isDocPath(cur.Path)
			continue
		}
		if cur == nil {
			continue
		}
		switch {
		case strings.HasPrefix(line, "Binary files"):
			cur.Binary = true
		case strings.HasPrefix(line, "new file mode"):
			cur.Status = "added"
		case strings.HasPrefix(line, "deleted file mode"):
			cur.Status = "deleted"
		case hunkRe.MatchString(line):
			m := hunkRe.FindStringSubmatch(line)
			flushHunk()
			oldStart, _ := strconv.Atoi(m[1])
			newStart, _ := strconv.Atoi(m[3])
			hunk = &Hunk{OldStart: oldStart, NewStart: newStart}
			if m[2] != "" {
				hunk.OldLines, _ = strconv.Atoi(m[2])
			}
			if m[4] != "" {
				hunk.NewLines, _ = strconv.Atoi(m[4])
			}
			oldLine, newLine = oldStart, newStart
		case hunk == nil:
			// still in the file/hunk headers (---, +++, index lines)
			continue
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			hunk.Lines = append(hunk.Lines, Line{Type: "addition", Content: strings.TrimPrefix(line, "+"), NewLine: newLine})
			cur.Additions++
			newLine++
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			hunk.Lines = append(hunk.Lines, Line{Type: "deletion", Content: strings.TrimPrefix(line, "-"), OldLine: oldLine})
			cur.Deletions++
			oldLine++
		case strings.HasPrefix(line, " "):
			hunk.Lines = append(hunk.Lines, Line{Type: "context", Content: strings.TrimPrefix(line, " "), OldLine: oldLine, NewLine: newLine})
			oldLine++
			newLine++
		}
	}
	flushFile()

	return files
}

// docExtensions are file extensions classified as documentation rather than
// code for the trivial-change and doc-only rules. This is deliberately a
// flat extension table, not a grammar — classification stops at
// code-or-docs, it never parses a source language.
var docExtensions = map[string]bool{
	".md": true, ".markdown": true, ".rst": true, ".txt": true,
	".adoc": true, ".asciidoc": true,
}

var docBasenames = map[string]bool{
	"readme": true, "changelog": true, "contributing": true,
	"license": true, "authors": true, "notice": true,
}

func isDocPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if docExtensions[ext] {
		return true
	}
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(path), ext))
	return docBasenames[base]
}
