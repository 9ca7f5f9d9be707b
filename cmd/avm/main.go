// Command avm is the AVM toolchain's CLI: compile merges one or more
// already-serialized CompiledProgram units into a LinkedProgram, and
// run executes a LinkedProgram to completion. Both subcommands operate
// purely on serialized artifacts, never on Mini source text — mirroring
// cmd/wazero/wazero.go's doMain/flag.NewFlagSet structure, with
// wazero's wasm-binary-in/instantiate-out shape replaced by this
// module's CompiledProgram-in/LinkedProgram-out one.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mini-avm/avm/internal/avmconfig"
	"github.com/mini-avm/avm/internal/builtins"
	"github.com/mini-avm/avm/internal/compile"
	"github.com/mini-avm/avm/internal/emulator"
	"github.com/mini-avm/avm/internal/link"
	"github.com/mini-avm/avm/internal/postlink"
	"github.com/mini-avm/avm/internal/program"
	"github.com/mini-avm/avm/internal/runtimeenv"
	"github.com/mini-avm/avm/internal/value"
)

func main() {
	os.Exit(doMain(os.Stdout, os.Stderr))
}

// doMain is separated out for the purpose of unit testing.
func doMain(stdOut, stdErr io.Writer) int {
	flag.CommandLine.SetOutput(stdErr)

	var help bool
	flag.BoolVar(&help, "h", false, "Prints usage.")

	flag.Parse()

	if help || flag.NArg() == 0 {
		printUsage(stdErr)
		return 0
	}

	subCmd := flag.Arg(0)
	switch subCmd {
	case "compile":
		return doCompile(flag.Args()[1:], stdOut, stdErr)
	case "run":
		return doRun(flag.Args()[1:], stdOut, stdErr)
	default:
		fmt.Fprintln(stdErr, "invalid command")
		printUsage(stdErr)
		return 1
	}
}

func doCompile(args []string, stdOut, stdErr io.Writer) int {
	flags := flag.NewFlagSet("compile", flag.ExitOnError)
	flags.SetOutput(stdErr)

	var help bool
	flags.BoolVar(&help, "h", false, "Prints usage.")

	var output string
	flags.StringVar(&output, "o", "", "Output file name. Defaults to stdout.")

	var format string
	flags.StringVar(&format, "f", "json", "Output format: json, pretty, or bincode.")

	_ = flags.Parse(args)

	if help {
		printCompileUsage(stdErr, flags)
		return 0
	}

	if flags.NArg() < 1 {
		fmt.Fprintln(stdErr, "missing path to compiled-program file")
		printCompileUsage(stdErr, flags)
		return 1
	}

	var compiledProgs []compile.CompiledProgram
	for _, filename := range flags.Args() {
		prog, err := readCompiledProgram(filename)
		if err != nil {
			fmt.Fprintf(stdErr, "error reading %s: %v\n", filename, err)
			return 1
		}
		compiledProgs = append(compiledProgs, prog)
	}

	merged, warnings, err := link.Link(compiledProgs, builtins.Provider)
	if err != nil {
		fmt.Fprintf(stdErr, "linking error: %v\n", err)
		return 1
	}
	for _, w := range warnings {
		fmt.Fprintf(stdErr, "warning: %s\n", w)
	}

	result, err := postlink.Compile(merged)
	if err != nil {
		fmt.Fprintf(stdErr, "post-link error: %v\n", err)
		return 1
	}

	linked := program.New(result.Code, result.StaticVal, result.ExportedFuncs, merged.ImportedFuncs)

	out := stdOut
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			fmt.Fprintf(stdErr, "error creating %s: %v\n", output, err)
			return 1
		}
		defer f.Close()
		out = f
	}
	linked.WriteTo(out, format)
	return 0
}

func doRun(args []string, stdOut, stdErr io.Writer) int {
	flags := flag.NewFlagSet("run", flag.ExitOnError)
	flags.SetOutput(stdErr)

	var help bool
	flags.BoolVar(&help, "h", false, "Prints usage.")

	var chainID uint64
	flags.Uint64Var(&chainID, "chainid", 0, "Chain id the RuntimeEnvironment reports.")

	var callStackCeiling int
	flags.IntVar(&callStackCeiling, "callstackceiling", avmconfig.DefaultCallStackCeiling,
		"Maximum aux-stack depth before a call-stack-overflow error.")

	_ = flags.Parse(args)

	if help {
		printRunUsage(stdErr, flags)
		return 0
	}

	if flags.NArg() < 1 {
		fmt.Fprintln(stdErr, "missing path to linked-program file")
		printRunUsage(stdErr, flags)
		return 1
	}

	progPath := flags.Arg(0)
	f, err := os.Open(progPath)
	if err != nil {
		fmt.Fprintf(stdErr, "error opening %s: %v\n", progPath, err)
		return 1
	}
	defer f.Close()

	linked, err := program.ReadFromJSON(f)
	if err != nil {
		fmt.Fprintf(stdErr, "error decoding linked program: %v\n", err)
		return 1
	}

	cfg := avmconfig.NewEmulatorConfig().
		WithChainID(chainID).
		WithCallStackCeiling(callStackCeiling)
	env := runtimeenv.New(cfg)
	machine := emulator.New(linked, env, cfg)

	out, err := machine.TestCall(value.Internal(0), nil)
	if err != nil {
		fmt.Fprintf(stdErr, "execution error: %v\n", err)
		if trace := machine.GetStackTrace(); trace.IsKnown() {
			fmt.Fprintf(stdErr, "stack trace: %s\n", trace)
		}
		return 1
	}

	fmt.Fprintf(stdOut, "Result: %s\n", value.Tuple(out...))
	for _, logVal := range env.GetAllLogs() {
		fmt.Fprintf(stdOut, "Log: %s\n", logVal)
	}
	return 0
}

func readCompiledProgram(filename string) (compile.CompiledProgram, error) {
	f, err := os.Open(filename)
	if err != nil {
		return compile.CompiledProgram{}, err
	}
	defer f.Close()

	var prog compile.CompiledProgram
	if err := json.NewDecoder(f).Decode(&prog); err != nil {
		return compile.CompiledProgram{}, err
	}
	return prog, nil
}

func printUsage(stdErr io.Writer) {
	fmt.Fprintln(stdErr, "avm CLI")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Usage:\n  avm <command>")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Commands:")
	fmt.Fprintln(stdErr, "  compile\tLinks and post-link-processes compiled-program files into a linked program")
	fmt.Fprintln(stdErr, "  run\t\tRuns a linked program")
}

func printCompileUsage(stdErr io.Writer, flags *flag.FlagSet) {
	fmt.Fprintln(stdErr, "avm CLI")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Usage:\n  avm compile <options> <path to compiled-program file>...")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Options:")
	flags.PrintDefaults()
}

func printRunUsage(stdErr io.Writer, flags *flag.FlagSet) {
	fmt.Fprintln(stdErr, "avm CLI")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Usage:\n  avm run <options> <path to linked-program file>")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Options:")
	flags.PrintDefaults()
}
