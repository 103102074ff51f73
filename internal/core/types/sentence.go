package types

import "strings"

const OutsideLabel = "O"

type Token struct {
	Text  string
	Label string

	// Precomputed string-valued channels, keyed by channel source name.
	Attrs map[string]string
	// Precomputed vector-valued channels, keyed by channel source name.
	Vecs map[string][]float64
}

type Sentence struct {
	Id     string
	Tokens []Token
}

func (s Sentence) Len() int {
	return len(s.Tokens)
}

func (s Sentence) Texts() []string {
	out := make([]string, len(s.Tokens))
	for i, t := range s.Tokens {
		out[i] = t.Text
	}
	return out
}

func (s Sentence) Labels() []string {
	out := make([]string, len(s.Tokens))
	for i, t := range s.Tokens {
		out[i] = t.Label
	}
	return out
}

func (s Sentence) String() string {
	return strings.Join(s.Texts(), " ")
}

func CountTokens(sentences []Sentence) int {
	total := 0
	for _, s := range sentences {
		total += s.Len()
	}
	return total
}
