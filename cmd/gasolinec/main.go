// Command gasolinec is the Gasoline shader compiler CLI.
//
// Usage:
//
//	gasolinec compile [options]
//	gasolinec check [options]
//
// Examples:
//
//	gasolinec check --vert v.gsl --dangs d.gsl --params tint:Float3
//	gasolinec compile --lang glsl --purpose alpha --dangs d.gsl --out-vert a.vert --out-frag a.frag
//	gasolinec compile --lang cg --purpose forward --metadata material.yaml --dangs d.gsl
package main

import (
	"os"

	"github.com/ComedicChimera/olive"
	"github.com/pterm/pterm"

	"github.com/gogpu/gasoline"
)

func main() {
	setupColour()
	if err := run(os.Args); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cli := newCLI()
	result, err := olive.ParseArgs(cli, args)
	if err != nil {
		return usageError{err}
	}

	name, sub, _ := result.Subcommand()
	opts, err := optionsFrom(sub)
	if err != nil {
		return err
	}

	switch name {
	case "compile":
		return compileCommand(opts)
	case "check":
		return checkCommand(opts)
	}
	return usageError{errNoCommand}
}

func newCLI() *olive.Command {
	cli := olive.NewCLI("gasolinec", "gasolinec compiles Gasoline material shaders to GLSL and Cg", true)

	compileCmd := cli.AddSubcommand("compile", "generate the vertex and fragment programs of one purpose", true)
	addStageArgs(compileCmd)
	compileCmd.AddStringArg("out-vert", "ov", "the vertex program output file (default: stdout)", false)
	compileCmd.AddStringArg("out-frag", "of", "the fragment program output file (default: stdout)", false)
	lang := compileCmd.AddSelectorArg("lang", "l", "the target language", false, []string{"glsl", "glsles", "cg"})
	lang.SetDefaultValue("glsl")
	purposeNames := make([]string, 0, len(gasoline.Purposes()))
	for _, p := range gasoline.Purposes() {
		purposeNames = append(purposeNames, p.String())
	}
	purpose := compileCmd.AddSelectorArg("purpose", "p", "the rendering purpose", false, purposeNames)
	purpose.SetDefaultValue(gasoline.PurposeForward.String())

	checkCmd := cli.AddSubcommand("check", "type check the stages without generating code", true)
	addStageArgs(checkCmd)

	return cli
}

func addStageArgs(cmd *olive.Command) {
	cmd.AddStringArg("vert", "v", "the vertex stage source file", false)
	cmd.AddStringArg("dangs", "d", "the DANGS stage source file", false)
	cmd.AddStringArg("add", "a", "the additional stage source file", false)
	cmd.AddStringArg("metadata", "m", "a YAML or TOML metadata file", false)
	cmd.AddStringArg("params", "pm", "material parameters as name:Type,...", false)
	cmd.AddStringArg("unbind", "u", "unbound textures as name:r;g;b;a,...", false)
	cmd.AddStringArg("bones", "b", "the number of bone weights per vertex (0-4)", false)
	cmd.AddStringArg("env-boxes", "eb", "the number of environment boxes (0-2)", false)
	cmd.AddFlag("instanced", "i", "take the world matrix from vertex attributes")
	cmd.AddFlag("alpha-dither", "ad", "fade bodies with screen-door transparency")
	cmd.AddFlag("internal", "in", "expose internal globals and functions")
}

func compileCommand(opts *options) error {
	b, err := gasoline.ParseBackend(opts.lang)
	if err != nil {
		return err
	}
	p, err := gasoline.ParsePurpose(opts.purpose)
	if err != nil {
		return err
	}
	src, err := opts.source()
	if err != nil {
		return err
	}
	md, err := opts.metadata()
	if err != nil {
		return err
	}

	out, err := gasoline.Compile(b, p, src, md)
	if err != nil {
		return err
	}

	if err := writeProgram(opts.outVert, "vertex", out.Vertex); err != nil {
		return err
	}
	return writeProgram(opts.outFrag, "fragment", out.Fragment)
}

func checkCommand(opts *options) error {
	src, err := opts.source()
	if err != nil {
		return err
	}
	md, err := opts.metadata()
	if err != nil {
		return err
	}
	if err := gasoline.Check(src, md); err != nil {
		return err
	}
	pterm.Success.Println("no errors")
	return nil
}
