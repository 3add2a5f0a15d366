package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ComedicChimera/olive"

	"github.com/gogpu/gasoline"
	"github.com/gogpu/gasoline/config"
	"github.com/gogpu/gasoline/ir"
)

// options is the parsed command line of either subcommand.
type options struct {
	vert, dangs, add string
	outVert, outFrag string
	lang, purpose    string
	metadataPath     string
	params, unbind   string
	bones, envBoxes  string
	instanced        bool
	alphaDither      bool
	internal         bool
}

func optionsFrom(result *olive.ArgParseResult) (*options, error) {
	if result == nil {
		return nil, usageError{errNoCommand}
	}
	return &options{
		vert:         stringArg(result, "vert"),
		dangs:        stringArg(result, "dangs"),
		add:          stringArg(result, "add"),
		outVert:      stringArg(result, "out-vert"),
		outFrag:      stringArg(result, "out-frag"),
		lang:         stringArg(result, "lang"),
		purpose:      stringArg(result, "purpose"),
		metadataPath: stringArg(result, "metadata"),
		params:       stringArg(result, "params"),
		unbind:       stringArg(result, "unbind"),
		bones:        stringArg(result, "bones"),
		envBoxes:     stringArg(result, "env-boxes"),
		instanced:    result.HasFlag("instanced"),
		alphaDither:  result.HasFlag("alpha-dither"),
		internal:     result.HasFlag("internal"),
	}, nil
}

func stringArg(result *olive.ArgParseResult, name string) string {
	if v, ok := result.Arguments[name]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// source reads the stage files. A stage without a file is empty.
func (o *options) source() (gasoline.Source, error) {
	var src gasoline.Source
	for _, f := range []struct {
		path string
		dst  *string
	}{
		{o.vert, &src.Vertex},
		{o.dangs, &src.Dangs},
		{o.add, &src.Additional},
	} {
		if f.path == "" {
			continue
		}
		data, err := os.ReadFile(f.path)
		if err != nil {
			return gasoline.Source{}, fmt.Errorf("reading %s: %w", f.path, err)
		}
		*f.dst = string(data)
	}
	return src, nil
}

// metadata loads the metadata file, if any, and applies the command line
// overrides on top of it.
func (o *options) metadata() (*ir.Metadata, error) {
	md := ir.DefaultMetadata()
	if o.metadataPath != "" {
		loaded, err := config.Load(o.metadataPath)
		if err != nil {
			return nil, err
		}
		md = loaded
	}

	params, err := config.ParseParams(o.params)
	if err != nil {
		return nil, err
	}
	for name, p := range params {
		md.MaterialParams[name] = p
	}
	unbound, err := config.ParseUnbind(o.unbind)
	if err != nil {
		return nil, err
	}
	for name, rgba := range unbound {
		md.UnboundTextures[name] = rgba
	}

	if o.bones != "" {
		n, err := strconv.Atoi(o.bones)
		if err != nil {
			return nil, fmt.Errorf("bones: %w", err)
		}
		md.Env.BoneWeights = n
	}
	if o.envBoxes != "" {
		n, err := strconv.Atoi(o.envBoxes)
		if err != nil {
			return nil, fmt.Errorf("env-boxes: %w", err)
		}
		md.Env.EnvBoxes = n
	}
	md.Env.Instanced = md.Env.Instanced || o.instanced
	md.Env.FadeDither = md.Env.FadeDither || o.alphaDither
	md.Internal = md.Internal || o.internal

	if err := config.Validate(md); err != nil {
		return nil, err
	}
	return md, nil
}
