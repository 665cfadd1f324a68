package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/teris-io/cli"

	"rvcc.dev/compiler/internal/trace"
	"rvcc.dev/compiler/pkg/codegen"
	"rvcc.dev/compiler/pkg/parser"
)

var Description = strings.ReplaceAll(`
rvcc compiles a single C-subset translation unit into RISC-V (RV64I) assembly
text. Given a bare name X, it reads tests/X.c and writes output/X.s.
`, "\n", " ")

var Rvcc = cli.New(Description).
	WithArg(cli.NewArg("name", "Bare name of the test case; reads tests/<name>.c").WithType(cli.TypeString)).
	WithOption(cli.NewOption("print-ast", "Dumps the parsed AST to stderr before code generation").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("print-ir", "Dumps the normalized instruction stream to stderr before rendering").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("verbose", "Enables trace logging of the parsing and code generation passes").WithType(cli.TypeBool)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}
	name := args[0]

	_, verbose := options["verbose"]
	_, printAST := options["print-ast"]
	_, printIR := options["print-ir"]
	log := trace.New(verbose)

	inputPath := filepath.Join("tests", name+".c")
	content, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Printf("ERROR: Unable to open input file: %s\n", err)
		return -1
	}

	p := parser.NewParser(bytes.NewReader(content))
	log.Printf("parsing %s", inputPath)
	program, err := p.Parse()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'parsing' pass: %s\n", err)
		return -1
	}
	if printAST {
		fmt.Fprintf(os.Stderr, "%#v\n", program)
	}

	cg := codegen.NewCodeGenerator(program, p.Mangler())
	log.Printf("generating code for %d top-level statement(s)", len(program.Statements))
	instructions, err := cg.Generate()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'codegen' pass: %s\n", err)
		return -1
	}
	if printIR {
		for _, inst := range instructions {
			for _, line := range codegen.Render(inst) {
				fmt.Fprintln(os.Stderr, line)
			}
		}
	}

	if err := os.MkdirAll("output", 0o755); err != nil {
		fmt.Printf("ERROR: Unable to create output directory: %s\n", err)
		return -1
	}
	outputPath := filepath.Join("output", name+".s")
	out, err := os.Create(outputPath)
	if err != nil {
		fmt.Printf("ERROR: Unable to open output file: %s\n", err)
		return -1
	}
	defer out.Close()

	for _, inst := range instructions {
		for _, line := range codegen.Render(inst) {
			fmt.Fprintf(out, "%s\n", line)
		}
	}
	log.Printf("wrote %s", outputPath)

	return 0
}

func main() { os.Exit(Rvcc.Run(os.Args, os.Stdout)) }
