package eval

import (
	"fmt"
	"io"
	"strconv"
)

// MicroLabel names the trailing row that pools counts over every declared label.
const MicroLabel = "ALL"

// Score is one row of a Performance table. Counts are float64 so that tables can be
// averaged across folds.
type Score struct {
	Label     string  `json:"label"`
	TP        float64 `json:"tp"`
	FP        float64 `json:"fp"`
	FN        float64 `json:"fn"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

type Performance []Score

var performanceHeaders = []string{"label", "tp", "fp", "fn", "precision", "recall", "f1"}

func newScore(label string, tp, fp, fn float64) Score {
	s := Score{Label: label, TP: tp, FP: fp, FN: fn}
	if tp+fp > 0 {
		s.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		s.Recall = tp / (tp + fn)
	}
	if s.Precision+s.Recall > 0 {
		s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
	}
	return s
}

// CalculateF1 derives per-label precision, recall and F1 plus a micro-averaged row.
func CalculateF1(result MatchResult) Performance {
	perf := make(Performance, 0, len(result.Labels)+1)
	var tp, fp, fn int
	for _, label := range result.Labels {
		c := result.Counts[label]
		perf = append(perf, newScore(label, float64(c.TP), float64(c.FP), float64(c.FN)))
		tp, fp, fn = tp+c.TP, fp+c.FP, fn+c.FN
	}
	return append(perf, newScore(MicroLabel, float64(tp), float64(fp), float64(fn)))
}

// Average returns the element-wise mean of tables that share the same label rows.
func Average(tables []Performance) (Performance, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("no performance tables to average")
	}

	n := float64(len(tables))
	out := make(Performance, len(tables[0]))
	for i, row := range tables[0] {
		out[i] = Score{Label: row.Label}
	}

	for t, table := range tables {
		if len(table) != len(out) {
			return nil, fmt.Errorf("performance table %d has %d rows, expected %d", t, len(table), len(out))
		}
		for i, row := range table {
			if row.Label != out[i].Label {
				return nil, fmt.Errorf("performance table %d row %d is %q, expected %q", t, i, row.Label, out[i].Label)
			}
			out[i].TP += row.TP
			out[i].FP += row.FP
			out[i].FN += row.FN
			out[i].Precision += row.Precision
			out[i].Recall += row.Recall
			out[i].F1 += row.F1
		}
	}

	for i := range out {
		out[i].TP /= n
		out[i].FP /= n
		out[i].FN /= n
		out[i].Precision /= n
		out[i].Recall /= n
		out[i].F1 /= n
	}
	return out, nil
}

func (p Performance) Get(label string) (Score, bool) {
	for _, s := range p {
		if s.Label == label {
			return s, true
		}
	}
	return Score{}, false
}

func (p Performance) records() [][]string {
	records := make([][]string, len(p))
	for i, s := range p {
		records[i] = []string{
			s.Label,
			formatFloat(s.TP), formatFloat(s.FP), formatFloat(s.FN),
			formatFloat(s.Precision), formatFloat(s.Recall), formatFloat(s.F1),
		}
	}
	return records
}

func (p Performance) WriteTSV(w io.Writer) error {
	return writeTSV(w, performanceHeaders, p.records())
}

func (p Performance) WriteFile(path string) error {
	return writeTSVFile(path, performanceHeaders, p.records())
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
