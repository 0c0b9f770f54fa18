package report

import "testing"

func sp(s string) *string { return &s }

func TestExtractSummaryFields(t *testing.T) {
	cases := []struct {
		in        *string
		wantCount *int64
		wantLang  *string
	}{
		{sp("Translate [120 EN] manual"), i64(120), sp("EN")},
		{sp("[5   zh] first [7 EN] second"), i64(5), sp("zh")},
		{sp("no brackets here"), nil, nil},
		{sp("[120EN] missing space"), nil, nil},
		{sp("[12 3] digits"), nil, nil},
		{sp("[99999999999999999999 EN] overflow"), nil, sp("EN")},
		{sp("Translate [120\u00a0EN]"), i64(120), sp("EN")},
		{sp("번역 [45\u3000KO] 요청"), i64(45), sp("KO")},
		{sp("[8 \t EN] mixed"), i64(8), sp("EN")},
		{nil, nil, nil},
	}
	for _, c := range cases {
		gotCount, gotLang := ExtractSummaryFields(c.in)
		if !eqInt(gotCount, c.wantCount) || !eqStr(gotLang, c.wantLang) {
			t.Fatalf("ExtractSummaryFields(%v) = %v, %v; want %v, %v", deref(c.in), fmtInt(gotCount), deref(gotLang), fmtInt(c.wantCount), deref(c.wantLang))
		}
	}
}

func i64(n int64) *int64 { return &n }

func eqInt(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqStr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}

func fmtInt(n *int64) any {
	if n == nil {
		return "<nil>"
	}
	return *n
}
