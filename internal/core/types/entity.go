package types

import (
	"strings"
)

const contextLength = 3

// Entity is a labeled span of tokens. Start and End are token offsets, End exclusive.
type Entity struct {
	Label    string
	Text     string
	Start    int
	End      int
	LContext string
	RContext string
}

// Key identifies an entity by span and label only, so that gold and predicted
// entities over the same sentence compare equal regardless of context text.
type Key struct {
	Label string
	Start int
	End   int
}

func (e Entity) Key() Key {
	return Key{Label: e.Label, Start: e.Start, End: e.End}
}

func CreateEntity(label string, tokens []string, start, end int) Entity {
	start = min(max(start, 0), len(tokens))
	end = min(max(end, start), len(tokens))

	return Entity{
		Label:    label,
		Text:     strings.ToValidUTF8(strings.Join(tokens[start:end], " "), ""),
		Start:    start,
		End:      end,
		LContext: strings.ToValidUTF8(strings.Join(tokens[max(0, start-contextLength):start], " "), ""),
		RContext: strings.ToValidUTF8(strings.Join(tokens[end:min(len(tokens), end+contextLength)], " "), ""),
	}
}

// SplitLabel separates a tag such as "B-PER" into its scheme prefix and entity type.
// Labels without a recognised prefix are returned with an empty prefix.
func SplitLabel(label string) (prefix string, entityType string) {
	if len(label) > 2 && (label[1] == '-' || label[1] == '_') {
		switch label[0] {
		case 'B', 'I', 'E', 'S', 'L', 'U':
			return label[:1], label[2:]
		}
	}
	return "", label
}

// DecodeEntities converts a per-token label sequence into entity spans. It accepts
// BIO, BIOES/BILOU, and prefix-less schemes where consecutive tokens with the same
// label form one entity.
func DecodeEntities(tokens []string, labels []string) []Entity {
	var entities []Entity

	start, current := -1, ""
	flush := func(end int) {
		if start >= 0 {
			entities = append(entities, CreateEntity(current, tokens, start, end))
		}
		start, current = -1, ""
	}

	for i, label := range labels {
		if label == "" || label == OutsideLabel {
			flush(i)
			continue
		}

		prefix, entityType := SplitLabel(label)
		switch prefix {
		case "B":
			flush(i)
			start, current = i, entityType
		case "S", "U":
			flush(i)
			start, current = i, entityType
			flush(i + 1)
		case "E", "L":
			if start < 0 || current != entityType {
				flush(i)
				start, current = i, entityType
			}
			flush(i + 1)
		default: // "I" or no prefix
			if start < 0 || current != entityType {
				flush(i)
				start, current = i, entityType
			}
		}
	}
	flush(len(labels))

	return entities
}

// EntityTypes returns the distinct entity types present in the label sequences, in
// order of first appearance.
func EntityTypes(labelSeqs ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, labels := range labelSeqs {
		for _, label := range labels {
			if label == "" || label == OutsideLabel {
				continue
			}
			_, entityType := SplitLabel(label)
			if _, ok := seen[entityType]; !ok {
				seen[entityType] = struct{}{}
				out = append(out, entityType)
			}
		}
	}
	return out
}
