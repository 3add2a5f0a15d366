// Package config loads request metadata from YAML or TOML files and parses
// the compact parameter lists accepted by gasolinec.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/gasoline/check"
	"github.com/gogpu/gasoline/ir"
)

// File is a metadata file as it is encoded in YAML or TOML.
type File struct {
	// Params maps a material parameter name to its declaration.
	Params map[string]Param `yaml:"params" toml:"params"`

	// Unbind maps a texture parameter to the RGBA colour used in its place.
	Unbind map[string][]float32 `yaml:"unbind" toml:"unbind"`

	Env Env `yaml:"env" toml:"env"`

	Internal         bool `yaml:"internal" toml:"internal"`
	LightingTextures bool `yaml:"lighting_textures" toml:"lighting_textures"`
	LegacyClipSpace  bool `yaml:"legacy_clip_space" toml:"legacy_clip_space"`
}

// Param declares one material parameter. A non-empty Static makes the
// parameter a compile-time constant.
type Param struct {
	Type   string    `yaml:"type" toml:"type"`
	Static []float32 `yaml:"static,omitempty" toml:"static,omitempty"`
}

// Env overrides the default environment. Absent fields keep their defaults.
type Env struct {
	ShadowRes        *int      `yaml:"shadow_res" toml:"shadow_res"`
	ShadowDist       []float32 `yaml:"shadow_dist" toml:"shadow_dist"`
	ShadowSpread     []float32 `yaml:"shadow_spread" toml:"shadow_spread"`
	ShadowFadeStart  *float32  `yaml:"shadow_fade_start" toml:"shadow_fade_start"`
	ShadowFadeEnd    *float32  `yaml:"shadow_fade_end" toml:"shadow_fade_end"`
	ShadowFilterTaps *int      `yaml:"shadow_filter_taps" toml:"shadow_filter_taps"`
	ShadowDither     string    `yaml:"shadow_dither" toml:"shadow_dither"`

	Bones      int  `yaml:"bones" toml:"bones"`
	Instanced  bool `yaml:"instanced" toml:"instanced"`
	EnvBoxes   int  `yaml:"env_boxes" toml:"env_boxes"`
	FadeDither bool `yaml:"fade_dither" toml:"fade_dither"`
}

// Load reads a metadata file. The format follows the extension: .yaml and
// .yml are YAML, .toml is TOML.
func Load(path string) (*ir.Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading metadata %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes and validates metadata file content. The path selects the
// format and prefixes error messages.
func Parse(data []byte, path string) (*ir.Metadata, error) {
	var f File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%s: unknown metadata format %q (want .yaml, .yml or .toml)", path, ext)
	}

	md, err := f.Metadata()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return md, nil
}

// Metadata converts the file into request metadata on top of
// ir.DefaultMetadata and validates the result.
func (f *File) Metadata() (*ir.Metadata, error) {
	md := ir.DefaultMetadata()
	md.Internal = f.Internal
	md.LightingTextures = f.LightingTextures
	md.LegacyClipSpace = f.LegacyClipSpace

	for name, p := range f.Params {
		param, err := p.materialParam(name)
		if err != nil {
			return nil, err
		}
		md.MaterialParams[name] = param
	}
	for name, rgba := range f.Unbind {
		if len(rgba) != 4 {
			return nil, fmt.Errorf("unbound texture %q needs 4 colour components, got %d", name, len(rgba))
		}
		md.UnboundTextures[name] = [4]float32{rgba[0], rgba[1], rgba[2], rgba[3]}
	}
	if err := f.Env.apply(&md.Env); err != nil {
		return nil, err
	}

	if err := Validate(md); err != nil {
		return nil, err
	}
	return md, nil
}

func (p Param) materialParam(name string) (ir.MaterialParam, error) {
	t, ok := ir.ParseTypeName(p.Type)
	if !ok {
		return ir.MaterialParam{}, fmt.Errorf("material parameter %q: unknown type %q", name, p.Type)
	}
	param := ir.MaterialParam{Type: t}
	if len(p.Static) == 0 {
		return param, nil
	}
	dim := ir.VectorDim(t)
	if dim == 0 {
		return ir.MaterialParam{}, fmt.Errorf("material parameter %q: type %s cannot be static", name, t)
	}
	if len(p.Static) != dim {
		return ir.MaterialParam{}, fmt.Errorf("material parameter %q: static value needs %d components, got %d", name, dim, len(p.Static))
	}
	var v [4]float32
	copy(v[:], p.Static)
	param.Static = &v
	return param, nil
}

func (e Env) apply(env *ir.Environment) error {
	if e.ShadowRes != nil {
		env.ShadowRes = *e.ShadowRes
	}
	if e.ShadowDist != nil {
		if len(e.ShadowDist) != 3 {
			return fmt.Errorf("shadow_dist needs 3 values, got %d", len(e.ShadowDist))
		}
		copy(env.ShadowDist[:], e.ShadowDist)
	}
	if e.ShadowSpread != nil {
		if len(e.ShadowSpread) != 3 {
			return fmt.Errorf("shadow_spread needs 3 values, got %d", len(e.ShadowSpread))
		}
		copy(env.ShadowSpread[:], e.ShadowSpread)
	}
	if e.ShadowFadeStart != nil {
		env.ShadowFadeStart = *e.ShadowFadeStart
	}
	if e.ShadowFadeEnd != nil {
		env.ShadowFadeEnd = *e.ShadowFadeEnd
	}
	if e.ShadowFilterTaps != nil {
		env.ShadowFilterTaps = *e.ShadowFilterTaps
	}
	if e.ShadowDither != "" {
		d, err := ParseDither(e.ShadowDither)
		if err != nil {
			return err
		}
		env.ShadowDither = d
	}
	env.BoneWeights = e.Bones
	env.Instanced = e.Instanced
	env.EnvBoxes = e.EnvBoxes
	env.FadeDither = e.FadeDither
	return nil
}

// Validate checks the environment ranges and the consistency of the material
// parameters with the unbound textures.
func Validate(md *ir.Metadata) error {
	if err := md.Env.Validate(); err != nil {
		return err
	}
	_, err := check.NewContext(md)
	return err
}

// ParseDither resolves a shadow dither mode name.
func ParseDither(name string) (ir.ShadowDither, error) {
	for _, d := range []ir.ShadowDither{ir.DitherNone, ir.DitherNoise, ir.DitherOrdered} {
		if d.String() == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown shadow dither %q (want none, noise or ordered)", name)
}

// ParseParams parses a parameter list such as "tint:Float3,diffuseMap:FloatTexture2".
func ParseParams(list string) (map[string]ir.MaterialParam, error) {
	params := make(map[string]ir.MaterialParam)
	for _, item := range splitList(list) {
		name, typeName, ok := strings.Cut(item, ":")
		name, typeName = strings.TrimSpace(name), strings.TrimSpace(typeName)
		if !ok || name == "" {
			return nil, fmt.Errorf("parameter %q: expected name:Type", item)
		}
		if _, dup := params[name]; dup {
			return nil, fmt.Errorf("parameter %q declared twice", name)
		}
		t, ok := ir.ParseTypeName(typeName)
		if !ok {
			return nil, fmt.Errorf("parameter %q: unknown type %q", name, typeName)
		}
		params[name] = ir.MaterialParam{Type: t}
	}
	return params, nil
}

// ParseUnbind parses an unbound texture list such as "diffuseMap:1;1;1;1".
func ParseUnbind(list string) (map[string][4]float32, error) {
	unbound := make(map[string][4]float32)
	for _, item := range splitList(list) {
		name, value, ok := strings.Cut(item, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("unbound texture %q: expected name:r;g;b;a", item)
		}
		parts := strings.Split(value, ";")
		if len(parts) != 4 {
			return nil, fmt.Errorf("unbound texture %q needs 4 colour components, got %d", name, len(parts))
		}
		var rgba [4]float32
		for i, part := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
			if err != nil {
				return nil, fmt.Errorf("unbound texture %q: %w", name, err)
			}
			rgba[i] = float32(f)
		}
		unbound[name] = rgba
	}
	return unbound, nil
}

func splitList(list string) []string {
	var items []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
