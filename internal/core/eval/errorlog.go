package eval

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"crf-trainer/internal/core/types"
)

// ErrorRecord describes the prediction outcome for one evaluated sentence.
type ErrorRecord struct {
	Index      int
	SentenceId string
	Text       string
	Gold       string
	Predicted  string
	Missed     string
	Spurious   string
	Correct    bool
}

type ErrorLog []ErrorRecord

var errorLogHeaders = []string{"index", "sentence_id", "text", "gold", "predicted", "missed", "spurious", "correct"}

// LogError compares the predicted and gold entity sets of a sentence. Missed entities
// are gold entities absent from the prediction, spurious ones the reverse.
func LogError(index int, sentence types.Sentence, pred, gold []types.Entity) ErrorRecord {
	predKeys := make(map[types.Key]struct{}, len(pred))
	for _, e := range pred {
		predKeys[e.Key()] = struct{}{}
	}
	goldKeys := make(map[types.Key]struct{}, len(gold))
	for _, e := range gold {
		goldKeys[e.Key()] = struct{}{}
	}

	var missed, spurious []types.Entity
	for _, e := range gold {
		if _, ok := predKeys[e.Key()]; !ok {
			missed = append(missed, e)
		}
	}
	for _, e := range pred {
		if _, ok := goldKeys[e.Key()]; !ok {
			spurious = append(spurious, e)
		}
	}

	return ErrorRecord{
		Index:      index,
		SentenceId: sentence.Id,
		Text:       sentence.String(),
		Gold:       formatEntities(gold),
		Predicted:  formatEntities(pred),
		Missed:     formatEntities(missed),
		Spurious:   formatEntities(spurious),
		Correct:    len(missed) == 0 && len(spurious) == 0,
	}
}

func formatEntities(entities []types.Entity) string {
	parts := make([]string, len(entities))
	for i, e := range entities {
		parts[i] = fmt.Sprintf("%s[%d:%d]=%s", e.Label, e.Start, e.End, e.Text)
	}
	return strings.Join(parts, "; ")
}

func (l ErrorLog) Errors() int {
	n := 0
	for _, r := range l {
		if !r.Correct {
			n++
		}
	}
	return n
}

func (l ErrorLog) records() [][]string {
	records := make([][]string, len(l))
	for i, r := range l {
		records[i] = []string{
			strconv.Itoa(r.Index), r.SentenceId, r.Text, r.Gold, r.Predicted, r.Missed, r.Spurious, strconv.FormatBool(r.Correct),
		}
	}
	return records
}

func (l ErrorLog) WriteTSV(w io.Writer) error {
	return writeTSV(w, errorLogHeaders, l.records())
}

func (l ErrorLog) WriteFile(path string) error {
	return writeTSVFile(path, errorLogHeaders, l.records())
}
