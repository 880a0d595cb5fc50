package linediff

// Stats are block-based counts for change navigation. Within one contiguous
// run of non-equal edits, paired delete/insert lines count as modified and
// the whole block counts once per row toward Navigable, so a block with 3
// deletes and 1 insert yields modified=1, removed=2, navigable=3.
type Stats struct {
	Equal     int `json:"equal"`
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Modified  int `json:"modified"`
	Navigable int `json:"navigable"`
}

// Changed reports whether the script contains any non-equal edit.
func (s Stats) Changed() bool {
	return s.Added > 0 || s.Removed > 0 || s.Modified > 0
}

// Summarize derives block-based stats from an edit script.
func Summarize(edits []Edit) Stats {
	var s Stats
	deletes, inserts := 0, 0

	flush := func() {
		if deletes == 0 && inserts == 0 {
			return
		}
		paired := deletes
		if inserts < paired {
			paired = inserts
		}
		s.Modified += paired
		s.Removed += deletes - paired
		s.Added += inserts - paired
		if deletes > inserts {
			s.Navigable += deletes
		} else {
			s.Navigable += inserts
		}
		deletes, inserts = 0, 0
	}

	for _, e := range edits {
		switch e.Op {
		case OpEqual:
			flush()
			s.Equal++
		case OpDelete:
			deletes++
		case OpInsert:
			inserts++
		}
	}
	flush()
	return s
}

// InlineStats are independent per-line counts: every delete counts removed,
// every insert counts added, with no block pairing.
type InlineStats struct {
	Equal   int `json:"equal"`
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// SummarizeInline derives inline counts from an edit script.
func SummarizeInline(edits []Edit) InlineStats {
	var s InlineStats
	for _, e := range edits {
		switch e.Op {
		case OpEqual:
			s.Equal++
		case OpDelete:
			s.Removed++
		case OpInsert:
			s.Added++
		}
	}
	return s
}
