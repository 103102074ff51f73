package features

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

type ChannelKind string

const (
	TextChannel   ChannelKind = "text"
	LowerChannel  ChannelKind = "lower"
	ShapeChannel  ChannelKind = "shape"
	PrefixChannel ChannelKind = "prefix"
	SuffixChannel ChannelKind = "suffix"
	AttrChannel   ChannelKind = "attr"
	VecChannel    ChannelKind = "vec"
)

const defaultBins = 10

type Channel struct {
	Name string      `yaml:"name" json:"name"`
	Kind ChannelKind `yaml:"kind" json:"kind"`

	// Source is the token attribute (attr) or vector (vec) key the channel reads.
	Source string `yaml:"source,omitempty" json:"source,omitempty"`
	// Size is the affix length for prefix/suffix and the dimension count for vec.
	Size int `yaml:"size,omitempty" json:"size,omitempty"`

	Bins int     `yaml:"bins,omitempty" json:"bins,omitempty"`
	Min  float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max  float64 `yaml:"max,omitempty" json:"max,omitempty"`
}

func (c Channel) IsVector() bool {
	return c.Kind == VecChannel
}

type ChannelSettings struct {
	Channels []Channel `yaml:"channels" json:"channels"`
	// Window lists the token offsets the template combines with each feature column.
	Window []int `yaml:"window,omitempty" json:"window,omitempty"`
}

//go:embed channels.yaml
var defaultChannelsYAML []byte

func DefaultChannelSettings() ChannelSettings {
	settings, err := ParseChannelSettings(defaultChannelsYAML)
	if err != nil {
		panic(fmt.Sprintf("invalid embedded channel settings: %v", err))
	}
	return settings
}

func LoadChannelSettings(path string) (ChannelSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ChannelSettings{}, fmt.Errorf("error reading channel settings %s: %w", path, err)
	}
	settings, err := ParseChannelSettings(data)
	if err != nil {
		return ChannelSettings{}, fmt.Errorf("error loading channel settings %s: %w", path, err)
	}
	return settings, nil
}

func ParseChannelSettings(data []byte) (ChannelSettings, error) {
	var settings ChannelSettings
	if err := yaml.UnmarshalStrict(data, &settings); err != nil {
		return ChannelSettings{}, fmt.Errorf("error parsing channel settings: %w", err)
	}

	for i := range settings.Channels {
		ch := &settings.Channels[i]
		if ch.Kind == VecChannel {
			if ch.Bins == 0 {
				ch.Bins = defaultBins
			}
			if ch.Min == 0 && ch.Max == 0 {
				ch.Min, ch.Max = -1, 1
			}
		}
	}
	if len(settings.Window) == 0 {
		settings.Window = []int{0}
	}

	if err := settings.Validate(); err != nil {
		return ChannelSettings{}, err
	}
	return settings, nil
}

func (s ChannelSettings) Validate() error {
	if len(s.Channels) == 0 {
		return fmt.Errorf("channel settings must declare at least one channel")
	}

	names := make(map[string]struct{}, len(s.Channels))
	for _, ch := range s.Channels {
		if ch.Name == "" {
			return fmt.Errorf("channel of kind %q has no name", ch.Kind)
		}
		if _, ok := names[ch.Name]; ok {
			return fmt.Errorf("duplicate channel name %q", ch.Name)
		}
		names[ch.Name] = struct{}{}

		switch ch.Kind {
		case TextChannel, LowerChannel, ShapeChannel:
		case PrefixChannel, SuffixChannel:
			if ch.Size <= 0 {
				return fmt.Errorf("channel %q: %s requires a positive size", ch.Name, ch.Kind)
			}
		case AttrChannel:
			if ch.Source == "" {
				return fmt.Errorf("channel %q: attr requires a source", ch.Name)
			}
		case VecChannel:
			if ch.Source == "" {
				return fmt.Errorf("channel %q: vec requires a source", ch.Name)
			}
			if ch.Size <= 0 {
				return fmt.Errorf("channel %q: vec requires a positive size", ch.Name)
			}
			if ch.Bins <= 0 {
				return fmt.Errorf("channel %q: vec requires a positive bin count", ch.Name)
			}
			if ch.Max <= ch.Min {
				return fmt.Errorf("channel %q: vec range [%v, %v] is empty", ch.Name, ch.Min, ch.Max)
			}
		default:
			return fmt.Errorf("channel %q: unknown kind %q", ch.Name, ch.Kind)
		}
	}
	return nil
}

func (s ChannelSettings) stringChannels() []Channel {
	var out []Channel
	for _, ch := range s.Channels {
		if !ch.IsVector() {
			out = append(out, ch)
		}
	}
	return out
}

func (s ChannelSettings) vectorChannels() []Channel {
	var out []Channel
	for _, ch := range s.Channels {
		if ch.IsVector() {
			out = append(out, ch)
		}
	}
	return out
}
