package features

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"crf-trainer/internal/core/types"
)

// MissingValue stands in for an absent feature value. The CRF++ column format cannot
// carry empty cells, and a blank line means end of sentence.
const MissingValue = "_"

// Row is one line of the feature stream: either a token row or a sentence boundary.
type Row struct {
	Values   []string
	Label    string
	Boundary bool
}

var SentenceBoundary = Row{Boundary: true}

// Table accumulates feature rows for a split in sentence and token order. Every
// sentence is followed by exactly one SentenceBoundary.
type Table struct {
	rows      []Row
	width     int
	sentences int
}

func NewTable() *Table {
	return &Table{width: -1}
}

// SentenceRows builds the rows for one sentence, boundary included.
func SentenceRows(builder Builder, sentence types.Sentence, settings ChannelSettings) ([]Row, error) {
	values, err := builder.Build(sentence, settings)
	if err != nil {
		return nil, fmt.Errorf("error building features for sentence %q: %w", sentence.Id, err)
	}
	if len(values) != len(sentence.Tokens) {
		return nil, fmt.Errorf("feature builder returned %d rows for %d tokens in sentence %q", len(values), len(sentence.Tokens), sentence.Id)
	}

	rows := make([]Row, 0, len(values)+1)
	for i, v := range values {
		rows = append(rows, Row{Values: v, Label: sanitize(sentence.Tokens[i].Label)})
	}
	rows = append(rows, SentenceBoundary)
	return rows, nil
}

// StripLabels returns a copy of rows with every gold label removed.
func StripLabels(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, row := range rows {
		out[i] = Row{Values: row.Values, Boundary: row.Boundary}
	}
	return out
}

// AppendSentence adds the rows of one sentence. The rows must end with a boundary and
// every token row must have the same width as those already in the table.
func (t *Table) AppendSentence(rows []Row) error {
	if len(rows) == 0 || !rows[len(rows)-1].Boundary {
		return fmt.Errorf("sentence rows must end with a sentence boundary")
	}
	for _, row := range rows[:len(rows)-1] {
		if row.Boundary {
			return fmt.Errorf("sentence boundary inside sentence rows")
		}
		if t.width < 0 {
			t.width = len(row.Values)
		} else if len(row.Values) != t.width {
			return fmt.Errorf("feature row width %d does not match table width %d", len(row.Values), t.width)
		}
	}
	t.rows = append(t.rows, rows...)
	t.sentences++
	return nil
}

func (t *Table) Rows() []Row {
	return t.rows
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) Sentences() int {
	return t.sentences
}

// Columns is the serialized column count: the feature columns plus the label column.
func (t *Table) Columns() int {
	if t.width < 0 {
		return 0
	}
	return t.width + 1
}

// WriteTSV serializes the table without header or index. Boundaries become blank
// lines. When withLabels is false only the feature columns are written.
func (t *Table) WriteTSV(w io.Writer, withLabels bool) error {
	return WriteRows(w, t.rows, withLabels)
}

func (t *Table) WriteFile(path string, withLabels bool) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create feature file %s: %w", path, err)
	}
	defer f.Close()

	if err := t.WriteTSV(f, withLabels); err != nil {
		return fmt.Errorf("failed to write feature file %s: %w", path, err)
	}
	return f.Close()
}

func WriteRows(w io.Writer, rows []Row, withLabels bool) error {
	bw := bufio.NewWriter(w)
	for _, row := range rows {
		if !row.Boundary {
			if _, err := bw.WriteString(strings.Join(row.Values, "\t")); err != nil {
				return err
			}
			if withLabels {
				if err := bw.WriteByte('\t'); err != nil {
					return err
				}
				if _, err := bw.WriteString(row.Label); err != nil {
					return err
				}
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func sanitize(value string) string {
	value = strings.ToValidUTF8(value, "")
	if value == "" {
		return MissingValue
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, value)
}
