package core

// Snapshot is the raw data the aggregation engine works on: every category,
// budget line and transaction of one household+year. All derived metrics are
// recomputed from it on each call; nothing is cached or persisted.
type Snapshot struct {
	Year         int
	Categories   []Category
	Lines        []BudgetLine
	Transactions []Transaction
}

func (s Snapshot) categoryByID() map[int64]Category {
	m := make(map[int64]Category, len(s.Categories))
	for _, c := range s.Categories {
		m[c.ID] = c
	}
	return m
}

func (s Snapshot) lineByID() map[int64]BudgetLine {
	m := make(map[int64]BudgetLine, len(s.Lines))
	for _, l := range s.Lines {
		m[l.ID] = l
	}
	return m
}

// actualByLine sums linked transaction amounts per budget line.
// Uncategorized transactions (LineID 0) are not part of any line's actual.
func (s Snapshot) actualByLine() map[int64]int64 {
	m := make(map[int64]int64, len(s.Lines))
	for _, t := range s.Transactions {
		if t.LineID != 0 {
			m[t.LineID] += t.Amount.Cents
		}
	}
	return m
}
