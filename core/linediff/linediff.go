// Package linediff computes line-level edit scripts with a classic LCS,
// guarded against quadratic blowup. Equal leading and trailing lines are
// stripped before the O(n*m) table is built; when the remaining region
// still exceeds the cell budget the result degrades to a flagged coarse
// diff instead of stalling.
package linediff

import "strings"

// Op classifies one edit.
type Op string

const (
	// OpEqual is a line present on both sides.
	OpEqual Op = "equal"
	// OpDelete is a line present only on the old side.
	OpDelete Op = "delete"
	// OpInsert is a line present only on the new side.
	OpInsert Op = "insert"
)

// Edit is one line of the edit script. OldIndex and NewIndex are zero-based
// line numbers, -1 on the side the line does not exist on.
type Edit struct {
	Op       Op     `json:"op"`
	Text     string `json:"text"`
	OldIndex int    `json:"oldIndex"`
	NewIndex int    `json:"newIndex"`
}

// Result is a complete edit script. Coarse marks a precision-degraded diff:
// every middle line was classified delete-or-insert without LCS matching.
// Callers must surface the flag rather than present a coarse diff as exact.
type Result struct {
	Edits  []Edit `json:"edits"`
	Coarse bool   `json:"coarse"`
}

// DefaultMaxCells bounds the LCS table size (middle-old x middle-new).
const DefaultMaxCells = 2_000_000

type config struct {
	maxCells int
}

// Option adjusts diff behavior.
type Option func(*config)

// MaxCells overrides the LCS cell budget. Values below one are ignored.
func MaxCells(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxCells = n
		}
	}
}

// Diff compares two line slices and returns the edit script in line order.
// Within a change block deletions come before insertions.
func Diff(oldLines, newLines []string, opts ...Option) Result {
	cfg := config{maxCells: DefaultMaxCells}
	for _, opt := range opts {
		opt(&cfg)
	}

	prefix := commonPrefix(oldLines, newLines)
	suffix := commonSuffix(oldLines[prefix:], newLines[prefix:])

	midOld := oldLines[prefix : len(oldLines)-suffix]
	midNew := newLines[prefix : len(newLines)-suffix]

	edits := make([]Edit, 0, len(oldLines)+len(newLines))
	for i := 0; i < prefix; i++ {
		edits = append(edits, Edit{Op: OpEqual, Text: oldLines[i], OldIndex: i, NewIndex: i})
	}

	coarse := int64(len(midOld))*int64(len(midNew)) > int64(cfg.maxCells)
	if coarse {
		edits = appendCoarse(edits, midOld, midNew, prefix)
	} else {
		edits = appendLCS(edits, midOld, midNew, prefix)
	}

	oldBase := len(oldLines) - suffix
	newBase := len(newLines) - suffix
	for i := 0; i < suffix; i++ {
		edits = append(edits, Edit{Op: OpEqual, Text: oldLines[oldBase+i], OldIndex: oldBase + i, NewIndex: newBase + i})
	}

	return Result{Edits: edits, Coarse: coarse}
}

// DiffText splits both texts into lines and diffs them.
func DiffText(oldText, newText string, opts ...Option) Result {
	return Diff(SplitLines(oldText), SplitLines(newText), opts...)
}

// SplitLines splits text on newlines. A trailing newline does not produce a
// final empty line, and carriage returns are stripped.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func commonPrefix(a, b []string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func commonSuffix(a, b []string) int {
	n := 0
	for n < len(a) && n < len(b) && a[len(a)-1-n] == b[len(b)-1-n] {
		n++
	}
	return n
}

// appendCoarse classifies every middle line without matching: old lines
// become deletes, new lines become inserts.
func appendCoarse(edits []Edit, midOld, midNew []string, base int) []Edit {
	for i, line := range midOld {
		edits = append(edits, Edit{Op: OpDelete, Text: line, OldIndex: base + i, NewIndex: -1})
	}
	for i, line := range midNew {
		edits = append(edits, Edit{Op: OpInsert, Text: line, OldIndex: -1, NewIndex: base + i})
	}
	return edits
}

// appendLCS runs the dynamic program over the middle region. dp[i][j] holds
// the LCS length of midOld[i:] vs midNew[j:], so the forward walk can take
// the locally optimal step and emit edits already in line order.
func appendLCS(edits []Edit, midOld, midNew []string, base int) []Edit {
	n, m := len(midOld), len(midNew)

	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if midOld[i] == midNew[j] {
				dp[i][j] = dp[i+1][j+1] + 1
			} else if dp[i+1][j] >= dp[i][j+1] {
				dp[i][j] = dp[i+1][j]
			} else {
				dp[i][j] = dp[i][j+1]
			}
		}
	}

	i, j := 0, 0
	for i < n && j < m {
		switch {
		case midOld[i] == midNew[j]:
			edits = append(edits, Edit{Op: OpEqual, Text: midOld[i], OldIndex: base + i, NewIndex: base + j})
			i++
			j++
		case dp[i+1][j] >= dp[i][j+1]:
			// Ties delete first so blocks read old-then-new.
			edits = append(edits, Edit{Op: OpDelete, Text: midOld[i], OldIndex: base + i, NewIndex: -1})
			i++
		default:
			edits = append(edits, Edit{Op: OpInsert, Text: midNew[j], OldIndex: -1, NewIndex: base + j})
			j++
		}
	}
	for ; i < n; i++ {
		edits = append(edits, Edit{Op: OpDelete, Text: midOld[i], OldIndex: base + i, NewIndex: -1})
	}
	for ; j < m; j++ {
		edits = append(edits, Edit{Op: OpInsert, Text: midNew[j], OldIndex: -1, NewIndex: base + j})
	}
	return edits
}
