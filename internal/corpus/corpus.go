package corpus

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"crf-trainer/internal/core/types"
)

type Format string

const (
	JSONL Format = "jsonl"
	CoNLL Format = "conll"
)

var ErrUnknownFormat = errors.New("unknown corpus format")

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case JSONL:
		return JSONL, nil
	case CoNLL:
		return CoNLL, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

const maxLineSize = 16 * 1024 * 1024

// Record is one JSONL line. Attrs and Vecs hold one entry per token under each key.
type Record struct {
	Id     string                 `json:"id"`
	Tokens []string               `json:"tokens"`
	Labels []string               `json:"labels"`
	Attrs  map[string][]string    `json:"attrs,omitempty"`
	Vecs   map[string][][]float64 `json:"vecs,omitempty"`
}

func (r Record) sentence(line int) (types.Sentence, error) {
	n := len(r.Tokens)
	if n == 0 {
		return types.Sentence{}, fmt.Errorf("line %d: sentence has no tokens", line)
	}
	if len(r.Labels) != n {
		return types.Sentence{}, fmt.Errorf("line %d: %d labels for %d tokens", line, len(r.Labels), n)
	}
	for key, values := range r.Attrs {
		if len(values) != n {
			return types.Sentence{}, fmt.Errorf("line %d: attr %q has %d values for %d tokens", line, key, len(values), n)
		}
	}
	for key, values := range r.Vecs {
		if len(values) != n {
			return types.Sentence{}, fmt.Errorf("line %d: vec %q has %d values for %d tokens", line, key, len(values), n)
		}
	}

	id := r.Id
	if id == "" {
		id = fmt.Sprintf("line-%d", line)
	}

	sentence := types.Sentence{Id: id, Tokens: make([]types.Token, n)}
	for i := range r.Tokens {
		token := types.Token{Text: r.Tokens[i], Label: r.Labels[i]}
		if len(r.Attrs) > 0 {
			token.Attrs = make(map[string]string, len(r.Attrs))
			for key, values := range r.Attrs {
				token.Attrs[key] = values[i]
			}
		}
		if len(r.Vecs) > 0 {
			token.Vecs = make(map[string][]float64, len(r.Vecs))
			for key, values := range r.Vecs {
				token.Vecs[key] = values[i]
			}
		}
		sentence.Tokens[i] = token
	}
	return sentence, nil
}

// ReadJSONL reads one sentence per line. Blank lines are skipped.
func ReadJSONL(r io.Reader) ([]types.Sentence, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var sentences []types.Sentence
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var record Record
		if err := json.Unmarshal([]byte(text), &record); err != nil {
			return nil, fmt.Errorf("line %d: error parsing record: %w", line, err)
		}
		sentence, err := record.sentence(line)
		if err != nil {
			return nil, err
		}
		sentences = append(sentences, sentence)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading jsonl corpus: %w", err)
	}
	return sentences, nil
}

// ReadCoNLL reads whitespace separated columns with the token first and the label
// last. Columns in between are stored as token attributes named by attrNames, falling
// back to "col1", "col2", ... Sentences are separated by blank lines and -DOCSTART-
// lines are ignored.
func ReadCoNLL(r io.Reader, attrNames []string) ([]types.Sentence, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		sentences []types.Sentence
		current   types.Sentence
		width     int
		line      int
	)

	flush := func() {
		if len(current.Tokens) > 0 {
			current.Id = fmt.Sprintf("s%d", len(sentences))
			sentences = append(sentences, current)
		}
		current = types.Sentence{}
	}

	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			flush()
			continue
		}
		if strings.HasPrefix(fields[0], "-DOCSTART-") {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected at least token and label columns", line)
		}
		if width == 0 {
			width = len(fields)
		} else if len(fields) != width {
			return nil, fmt.Errorf("line %d: found %d columns, expected %d", line, len(fields), width)
		}

		token := types.Token{Text: fields[0], Label: fields[len(fields)-1]}
		if middle := fields[1 : len(fields)-1]; len(middle) > 0 {
			token.Attrs = make(map[string]string, len(middle))
			for i, value := range middle {
				token.Attrs[columnName(attrNames, i)] = value
			}
		}
		current.Tokens = append(current.Tokens, token)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading conll corpus: %w", err)
	}
	flush()
	return sentences, nil
}

func columnName(names []string, i int) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return fmt.Sprintf("col%d", i+1)
}

func Read(r io.Reader, format Format, attrNames []string) ([]types.Sentence, error) {
	switch format {
	case JSONL:
		return ReadJSONL(r)
	case CoNLL:
		return ReadCoNLL(r, attrNames)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func Load(path string, format Format, attrNames []string) ([]types.Sentence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening corpus %s: %w", path, err)
	}
	defer f.Close()

	sentences, err := Read(f, format, attrNames)
	if err != nil {
		return nil, fmt.Errorf("error loading corpus %s: %w", path, err)
	}
	slog.Info("loaded corpus", "path", path, "format", format, "sentences", len(sentences), "tokens", types.CountTokens(sentences))
	return sentences, nil
}

// Labels returns the entity types present in the gold annotations in order of first
// appearance.
func Labels(sentences []types.Sentence) []string {
	seqs := make([][]string, len(sentences))
	for i, s := range sentences {
		seqs[i] = s.Labels()
	}
	return types.EntityTypes(seqs...)
}
