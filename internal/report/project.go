package report

// Columns names the input headers the projector reads.
type Columns struct {
	Project string
	Summary string
	Due     string
	Created string
}

func DefaultColumns() Columns {
	return Columns{Project: "Project Name", Summary: "Summary", Due: "Due", Created: "Created"}
}

// Record is one projected row. Nil fields are null.
type Record struct {
	ProjectName *string `json:"projectName"`
	Summary     *string `json:"summary"`
	Due         *string `json:"due"`
	Created     *string `json:"created"`
	WordCount   *int64  `json:"wordCount"`
	Language    *string `json:"language"`
}

const dateWidth = 10

// Project reduces the table to the four named columns plus the fields parsed
// out of the summary. Missing columns are null throughout.
func Project(t Table, cols Columns) []Record {
	out := make([]Record, len(t.Rows))
	for r := range t.Rows {
		rec := Record{
			ProjectName: t.Value(r, cols.Project),
			Summary:     t.Value(r, cols.Summary),
			Due:         truncateDate(t.Value(r, cols.Due)),
			Created:     truncateDate(t.Value(r, cols.Created)),
		}
		rec.WordCount, rec.Language = ExtractSummaryFields(rec.Summary)
		out[r] = rec
	}
	return out
}

// truncateDate keeps the first ten characters without parsing them.
func truncateDate(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	n := 0
	for i := range s {
		if n == dateWidth {
			s = s[:i]
			break
		}
		n++
	}
	return &s
}
