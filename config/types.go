package config

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Range is a sampling interval. It decodes from a scalar, a two-element
// sequence ([min, max]) or a {min, max} mapping.
type Range struct {
	Min, Max float64
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Range) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("range: %w", err)
		}
		r.Min, r.Max = v, v
	case yaml.SequenceNode:
		var vs []float64
		if err := node.Decode(&vs); err != nil {
			return fmt.Errorf("range: %w", err)
		}
		if len(vs) != 2 {
			return fmt.Errorf("range: line %d: expected [min, max], got %d values", node.Line, len(vs))
		}
		r.Min, r.Max = vs[0], vs[1]
	case yaml.MappingNode:
		var m struct {
			Min float64 `yaml:"min"`
			Max float64 `yaml:"max"`
		}
		if err := node.Decode(&m); err != nil {
			return fmt.Errorf("range: %w", err)
		}
		r.Min, r.Max = m.Min, m.Max
	default:
		return fmt.Errorf("range: line %d: unsupported node", node.Line)
	}
	if r.Max < r.Min {
		r.Min, r.Max = r.Max, r.Min
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (r Range) MarshalYAML() (any, error) {
	return []float64{r.Min, r.Max}, nil
}

// Sample draws a uniform value in [Min, Max).
func (r Range) Sample(rng *rand.Rand) float64 {
	if r.Max == r.Min {
		return r.Min
	}
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// Contains reports whether v lies in [Min, Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Color is an 8-bit RGB color written as "#rrggbb" in YAML.
type Color struct {
	R, G, B uint8
}

// ParseColor parses "#rrggbb" or "rrggbb".
func ParseColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("color %q: expected 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// String returns the "#rrggbb" form.
func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Color) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("color: line %d: %w", node.Line, err)
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*c = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (c Color) MarshalYAML() (any, error) {
	return c.String(), nil
}
