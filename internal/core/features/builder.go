package features

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"crf-trainer/internal/core/types"
)

// FeatureType selects the feature-extraction strategy.
type FeatureType string

const (
	StringFeatures FeatureType = "str"
	VectorFeatures FeatureType = "vec"
)

var ErrUnsupportedFeatureType = errors.New("unsupported feature type")

// ParseFeatureType matches the tag case-insensitively by substring, so "str",
// "STRING" and "strfeats" all select string features.
func ParseFeatureType(tag string) (FeatureType, error) {
	lower := strings.ToLower(tag)
	switch {
	case strings.Contains(lower, string(StringFeatures)):
		return StringFeatures, nil
	case strings.Contains(lower, string(VectorFeatures)):
		return VectorFeatures, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFeatureType, tag)
	}
}

// Builder turns one sentence into per-token feature rows of a fixed width. The gold
// label is not part of the returned values.
type Builder interface {
	Width(settings ChannelSettings) int

	Build(sentence types.Sentence, settings ChannelSettings) ([][]string, error)
}

func NewBuilder(featureType FeatureType) (Builder, error) {
	switch featureType {
	case StringFeatures:
		return stringBuilder{}, nil
	case VectorFeatures:
		return vectorBuilder{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFeatureType, featureType)
	}
}

type stringBuilder struct{}

func (stringBuilder) Width(settings ChannelSettings) int {
	return len(settings.stringChannels())
}

func (b stringBuilder) Build(sentence types.Sentence, settings ChannelSettings) ([][]string, error) {
	channels := settings.stringChannels()
	if len(channels) == 0 {
		return nil, fmt.Errorf("no string channels configured")
	}

	rows := make([][]string, len(sentence.Tokens))
	for i, token := range sentence.Tokens {
		row := make([]string, 0, len(channels))
		for _, ch := range channels {
			row = append(row, stringValue(ch, token))
		}
		rows[i] = row
	}
	return rows, nil
}

// vectorBuilder emits the string channels followed by every vector channel expanded
// into one quantized column per dimension.
type vectorBuilder struct{}

func (vectorBuilder) Width(settings ChannelSettings) int {
	width := len(settings.stringChannels())
	for _, ch := range settings.vectorChannels() {
		width += ch.Size
	}
	return width
}

func (b vectorBuilder) Build(sentence types.Sentence, settings ChannelSettings) ([][]string, error) {
	strChannels := settings.stringChannels()
	vecChannels := settings.vectorChannels()
	if len(vecChannels) == 0 {
		return nil, fmt.Errorf("no vec channels configured")
	}

	width := b.Width(settings)
	rows := make([][]string, len(sentence.Tokens))
	for i, token := range sentence.Tokens {
		row := make([]string, 0, width)
		for _, ch := range strChannels {
			row = append(row, stringValue(ch, token))
		}
		for _, ch := range vecChannels {
			row = append(row, vectorValues(ch, token)...)
		}
		rows[i] = row
	}
	return rows, nil
}

func stringValue(ch Channel, token types.Token) string {
	var value string
	switch ch.Kind {
	case TextChannel:
		value = token.Text
	case LowerChannel:
		value = strings.ToLower(token.Text)
	case ShapeChannel:
		value = wordShape(token.Text)
	case PrefixChannel:
		value = prefix(token.Text, ch.Size)
	case SuffixChannel:
		value = suffix(token.Text, ch.Size)
	case AttrChannel:
		value = token.Attrs[ch.Source]
	}
	return sanitize(value)
}

func vectorValues(ch Channel, token types.Token) []string {
	vec := token.Vecs[ch.Source]
	out := make([]string, ch.Size)
	for d := 0; d < ch.Size; d++ {
		if d >= len(vec) || math.IsNaN(vec[d]) {
			out[d] = MissingValue
			continue
		}
		out[d] = "b" + strconv.Itoa(quantize(vec[d], ch.Min, ch.Max, ch.Bins))
	}
	return out
}

func quantize(v, lo, hi float64, bins int) int {
	if v <= lo {
		return 0
	}
	if v >= hi {
		return bins - 1
	}
	bin := int((v - lo) / (hi - lo) * float64(bins))
	return min(bin, bins-1)
}

// wordShape maps letters and digits to X/x/d and collapses repeats, so
// "McDonald's" becomes "XxXx'x".
func wordShape(text string) string {
	var sb strings.Builder
	var last rune
	for _, r := range text {
		var c rune
		switch {
		case unicode.IsUpper(r):
			c = 'X'
		case unicode.IsLower(r):
			c = 'x'
		case unicode.IsDigit(r):
			c = 'd'
		default:
			c = r
		}
		if c != last {
			sb.WriteRune(c)
			last = c
		}
	}
	return sb.String()
}

func prefix(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n])
}

func suffix(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[len(runes)-n:])
}
