package editor

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// FormatSize renders a byte count for humans.
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	units := []string{"KB", "MB", "GB"}
	v := float64(n) / unit
	i := 0
	for v >= unit && i < len(units)-1 {
		v /= unit
		i++
	}
	return fmt.Sprintf("%.1f %s", v, units[i])
}

// diffStats returns a patch of before → after with file headers, and the
// added and deleted line counts.
func diffStats(relPath, before, after string) (string, int, int) {
	if before == after {
		return "", 0, 0
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	additions, deletions := 0, 0
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			additions += countLines(d.Text)
		case diffmatchpatch.DiffDelete:
			deletions += countLines(d.Text)
		}
	}

	patch := dmp.PatchToText(dmp.PatchMake(before, diffs))
	if patch == "" {
		return "", additions, deletions
	}
	return fmt.Sprintf("--- %s\n+++ %s\n%s", relPath, relPath, patch), additions, deletions
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	lines := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		lines++
	}
	return lines
}

// splitLines splits text into lines, reporting whether it ended with a
// newline. An empty text has zero lines.
func splitLines(text string) ([]string, bool) {
	if text == "" {
		return nil, false
	}
	trailing := strings.HasSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n"), trailing
}

// replaceLines replaces the inclusive 1-based range [start, end] of lines
// with the lines of content. Bounds must already be validated.
func replaceLines(lines []string, start, end int, content string) []string {
	if end > len(lines) {
		end = len(lines)
	}
	repl := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines)-(end-start+1)+len(repl))
	out = append(out, lines[:start-1]...)
	out = append(out, repl...)
	out = append(out, lines[end:]...)
	return out
}
