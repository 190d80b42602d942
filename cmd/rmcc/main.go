// Command rmcc compiles rmc source files down to a linked instruction
// image for the reference 13-register target, driving every core
// collaborator in sequence: parse, lower (with error-checking), optimize,
// allocate, generate code, assemble, link.
package main

import (
	_ "embed"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/segmentio/ksuid"

	"rmcc/internal/analysis"
	"rmcc/internal/codegen"
	"rmcc/internal/diag"
	"rmcc/internal/frontend"
	"rmcc/internal/ir"
	"rmcc/internal/link"
	"rmcc/internal/object"
	"rmcc/internal/optimizer"
	"rmcc/internal/regalloc"
	"rmcc/internal/target"
)

//go:embed target13.yaml
var reference13YAML []byte

func main() {
	optimize := flag.Bool("O", false, "run the optimizer pipeline before register allocation")
	emitIR := flag.Bool("emit-ir", false, "print optimized IR instead of generating code")
	out := flag.String("o", "a.out", "output image path")
	targetPath := flag.String("target", "", "path to a target register-file description (default: the built-in 13-register reference)")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: rmcc [-O] [-emit-ir] [-o out] [-target file.yaml] file.rmc...")
		os.Exit(1)
	}

	rf, err := loadTarget(*targetPath)
	if err != nil {
		color.Red("rmcc: %s", err)
		os.Exit(1)
	}

	var objs []*object.Object
	for _, path := range flag.Args() {
		obj, ok := compileUnit(path, rf, *optimize, *emitIR)
		if *emitIR {
			continue
		}
		if !ok {
			os.Exit(1)
		}
		objs = append(objs, obj)
	}
	if *emitIR {
		return
	}

	image, err := link.Link(objs)
	if err != nil {
		color.Red("rmcc: link: %s", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, image.Code, 0o644); err != nil {
		color.Red("rmcc: %s", err)
		os.Exit(1)
	}
	color.Green("wrote %s (%d bytes, %d symbols)", *out, len(image.Code), len(image.Symbols))
}

func loadTarget(path string) (*target.RegisterFile, error) {
	if path == "" {
		return target.Load(reference13YAML)
	}
	return target.LoadFile(path)
}

// compileUnit runs one source file through every stage and returns its
// assembled object, or reports diagnostics and returns ok=false.
func compileUnit(path string, rf *target.RegisterFile, optimize, emitIR bool) (*object.Object, bool) {
	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("rmcc: %s", err)
		return nil, false
	}

	prog, err := frontend.Parse(path, string(source))
	if err != nil {
		reportParseError(path, string(source), err)
		return nil, false
	}

	irProg, diags := frontend.Lower(prog)
	if reportDiagnostics(path, string(source), diags) {
		return nil, false
	}

	var procs []*codegen.Procedure
	for _, proc := range irProg.Procedures {
		a := analysis.New(proc)
		if optimize {
			optimizer.Run(proc, a, optimizer.DefaultPipeline)
		}
		if emitIR {
			fmt.Print(ir.Print(proc))
			continue
		}

		colors, err := regalloc.Allocate(proc, rf)
		if err != nil {
			color.Red("rmcc: %s: %s: %s", path, proc.Name, err)
			return nil, false
		}
		cproc, err := codegen.Lower(proc, colors, rf)
		if err != nil {
			color.Red("rmcc: %s: %s: %s", path, proc.Name, err)
			return nil, false
		}
		procs = append(procs, cproc)
	}
	if emitIR {
		return nil, true
	}

	obj, err := object.Assemble(ksuid.New(), procs, irProg.Imports)
	if err != nil {
		color.Red("rmcc: %s: %s", path, err)
		return nil, false
	}
	return obj, true
}

// reportDiagnostics prints every diagnostic in diags and reports whether
// any of them is an error (rather than a warning/note).
func reportDiagnostics(path, source string, diags []*diag.Diagnostic) bool {
	if len(diags) == 0 {
		return false
	}
	reporter := diag.NewReporter(path, source)
	hasError := false
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, reporter.Format(d))
		if d.Level == diag.LevelError {
			hasError = true
		}
	}
	return hasError
}

func reportParseError(path, source string, err error) {
	d, ok := err.(*diag.Diagnostic)
	if !ok {
		color.Red("rmcc: %s: %s", path, err)
		return
	}
	reporter := diag.NewReporter(path, source)
	fmt.Fprintln(os.Stderr, reporter.Format(d))
}
