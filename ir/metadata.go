package ir

import (
	"fmt"
	"sort"
)

// ShadowDither selects how shadow PCF samples are jittered.
type ShadowDither uint8

const (
	// DitherNone samples a fixed grid.
	DitherNone ShadowDither = iota

	// DitherNoise offsets the grid with screen-space hash noise.
	DitherNoise

	// DitherOrdered offsets the grid with a 2x2 ordered pattern.
	DitherOrdered
)

// String returns the dither mode name.
func (d ShadowDither) String() string {
	switch d {
	case DitherNone:
		return "none"
	case DitherNoise:
		return "noise"
	case DitherOrdered:
		return "ordered"
	default:
		return "unknown"
	}
}

// MaterialParam is one declared material parameter. A non-nil Static makes
// the parameter a compile-time constant instead of a uniform.
type MaterialParam struct {
	Type   Type
	Static *[4]float32
}

// Environment carries the engine-wide rendering configuration that shapes
// the lighting and transform preambles.
type Environment struct {
	ShadowRes        int
	ShadowDist       [3]float32
	ShadowSpread     [3]float32
	ShadowFadeStart  float32
	ShadowFadeEnd    float32
	ShadowFilterTaps int
	ShadowDither     ShadowDither

	// BoneWeights is the number of blend weights per vertex, 0..4.
	BoneWeights int

	// Instanced takes the world matrix from vertex attributes coord5..7.
	Instanced bool

	// EnvBoxes is the number of environment cube maps, 0..2.
	EnvBoxes int

	// FadeDither makes body fade use screen-door transparency.
	FadeDither bool
}

// Validate reports the first setting outside the range the preambles support.
func (e Environment) Validate() error {
	if e.BoneWeights < 0 || e.BoneWeights > 4 {
		return fmt.Errorf("bone weights must be between 0 and 4, got %d", e.BoneWeights)
	}
	if e.EnvBoxes < 0 || e.EnvBoxes > 2 {
		return fmt.Errorf("env boxes must be between 0 and 2, got %d", e.EnvBoxes)
	}
	if e.ShadowRes <= 0 {
		return fmt.Errorf("shadow resolution must be positive, got %d", e.ShadowRes)
	}
	switch e.ShadowFilterTaps {
	case 1, 4, 9, 16:
	default:
		return fmt.Errorf("shadow filter taps must be 1, 4, 9 or 16, got %d", e.ShadowFilterTaps)
	}
	if e.ShadowFadeEnd <= e.ShadowFadeStart {
		return fmt.Errorf("shadow fade end %g must exceed fade start %g", e.ShadowFadeEnd, e.ShadowFadeStart)
	}
	return nil
}

// Metadata is the per-request compile-time input besides the source texts.
type Metadata struct {
	MaterialParams  map[string]MaterialParam
	UnboundTextures map[string][4]float32
	Env             Environment

	// Internal exposes internal global fields and functions.
	Internal bool

	// LightingTextures exposes the shadow and G-buffer textures.
	LightingTextures bool

	// LegacyClipSpace applies the half-pixel offset of older Direct3D targets.
	LegacyClipSpace bool
}

// DefaultMetadata returns the metadata used when the engine supplies none.
func DefaultMetadata() *Metadata {
	return &Metadata{
		MaterialParams:  map[string]MaterialParam{},
		UnboundTextures: map[string][4]float32{},
		Env: Environment{
			ShadowRes:        512,
			ShadowDist:       [3]float32{10, 20, 30},
			ShadowSpread:     [3]float32{1, 1, 1},
			ShadowFadeStart:  50,
			ShadowFadeEnd:    60,
			ShadowFilterTaps: 4,
			ShadowDither:     DitherNone,
		},
	}
}

// Clone returns a deep copy so callers can derive a variant without touching
// a metadata value shared with concurrent requests.
func (m *Metadata) Clone() *Metadata {
	c := *m
	c.MaterialParams = make(map[string]MaterialParam, len(m.MaterialParams))
	for k, v := range m.MaterialParams {
		if v.Static != nil {
			s := *v.Static
			v.Static = &s
		}
		c.MaterialParams[k] = v
	}
	c.UnboundTextures = make(map[string][4]float32, len(m.UnboundTextures))
	for k, v := range m.UnboundTextures {
		c.UnboundTextures[k] = v
	}
	return &c
}

// ParamNames returns the declared material parameter names in sorted order.
func (m *Metadata) ParamNames() []string {
	return sortedKeys(m.MaterialParams)
}

// UnboundNames returns the unbound texture names in sorted order.
func (m *Metadata) UnboundNames() []string {
	return sortedKeys(m.UnboundTextures)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
