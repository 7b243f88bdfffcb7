package main

import (
	"fmt"
	"strings"
)

// DiffStrings produces a unified diff between two strings using an LCS-based
// diff with 3 lines of context. Used for -diff output and test failures.
func DiffStrings(a, b, nameA, nameB string) string {
	linesA := strings.Split(a, "\n")
	linesB := strings.Split(b, "\n")

	if len(linesA) > 0 && linesA[len(linesA)-1] == "" {
		linesA = linesA[:len(linesA)-1]
	}
	if len(linesB) > 0 && linesB[len(linesB)-1] == "" {
		linesB = linesB[:len(linesB)-1]
	}

	edits := lcsDiff(linesA, linesB)

	hasChanges := false
	for _, e := range edits {
		if e.op != editEqual {
			hasChanges = true
			break
		}
	}
	if !hasChanges {
		return ""
	}

	var diff strings.Builder
	diff.WriteString(fmt.Sprintf("--- %s\n", nameA))
	diff.WriteString(fmt.Sprintf("+++ %s\n", nameB))

	const ctx = 3
	for _, h := range buildHunks(edits, ctx) {
		diff.WriteString(fmt.Sprintf("@@ -%d,%d +%d,%d @@\n",
			h.origStart+1, h.origCount,
			h.newStart+1, h.newCount))
		for _, line := range h.lines {
			diff.WriteString(line)
			diff.WriteByte('\n')
		}
	}

	return diff.String()
}

type editOp int

const (
	editEqual editOp = iota
	editDelete
	editInsert
)

type edit struct {
	op   editOp
	line string
}

// lcsDiff computes a diff edit script via longest common subsequence.
func lcsDiff(a, b []string) []edit {
	n := len(a)
	m := len(b)

	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] >= dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}

	var edits []edit
	i, j := n, m
	for i > 0 || j > 0 {
		if i > 0 && j > 0 && a[i-1] == b[j-1] {
			i--
			j--
			edits = append(edits, edit{editEqual, a[i]})
		} else if j > 0 && (i == 0 || dp[i][j-1] >= dp[i-1][j]) {
			j--
			edits = append(edits, edit{editInsert, b[j]})
		} else {
			i--
			edits = append(edits, edit{editDelete, a[i]})
		}
	}

	for l, r := 0, len(edits)-1; l < r; l, r = l+1, r-1 {
		edits[l], edits[r] = edits[r], edits[l]
	}

	return edits
}

type hunk struct {
	origStart int
	origCount int
	newStart  int
	newCount  int
	lines     []string
}

// buildHunks groups edits into unified diff hunks with context lines.
func buildHunks(edits []edit, ctx int) []hunk {
	type span struct{ start, end int }
	var changes []span
	i := 0
	for i < len(edits) {
		if edits[i].op != editEqual {
			start := i
			for i < len(edits) && edits[i].op != editEqual {
				i++
			}
			changes = append(changes, span{start, i})
		} else {
			i++
		}
	}
	if len(changes) == 0 {
		return nil
	}

	// Merge changes whose gap is within 2*ctx into one hunk group.
	type group struct{ spans []span }
	groups := []group{{spans: []span{changes[0]}}}
	for i := 1; i < len(changes); i++ {
		gap := changes[i].start - changes[i-1].end
		if gap <= 2*ctx {
			groups[len(groups)-1].spans = append(groups[len(groups)-1].spans, changes[i])
		} else {
			groups = append(groups, group{spans: []span{changes[i]}})
		}
	}

	var hunks []hunk
	for _, g := range groups {
		first := g.spans[0].start
		last := g.spans[len(g.spans)-1].end

		lo := first - ctx
		if lo < 0 {
			lo = 0
		}
		hi := last + ctx
		if hi > len(edits) {
			hi = len(edits)
		}

		var h hunk
		aPos := 0
		bPos := 0
		for _, e := range edits[:lo] {
			switch e.op {
			case editEqual:
				aPos++
				bPos++
			case editDelete:
				aPos++
			case editInsert:
				bPos++
			}
		}
		h.origStart = aPos
		h.newStart = bPos

		for idx := lo; idx < hi; idx++ {
			e := edits[idx]
			switch e.op {
			case editEqual:
				h.lines = append(h.lines, " "+e.line)
				h.origCount++
				h.newCount++
			case editDelete:
				h.lines = append(h.lines, "-"+e.line)
				h.origCount++
			case editInsert:
				h.lines = append(h.lines, "+"+e.line)
				h.newCount++
			}
		}
		hunks = append(hunks, h)
	}

	return hunks
}
