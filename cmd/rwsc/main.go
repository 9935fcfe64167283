// Command rwsc is the CLI driver for the core: `check` loads a module
// directory and lists its files, `repl` starts an interactive session. Grounded
// on the teacher's cmd/ailang/main.go (flag-based subcommands, ldflags
// version vars, fatih/color styling).
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/sunholo/rowscript/internal/ident"
	"github.com/sunholo/rowscript/internal/loader"
	"github.com/sunholo/rowscript/internal/repl"
)

var (
	// Set by ldflags during build.
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"

	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	var (
		versionFlag = flag.Bool("version", false, "Print version information")
		helpFlag    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *versionFlag {
		printVersion()
		return
	}
	if *helpFlag || flag.NArg() == 0 {
		printHelp()
		return
	}

	switch cmd := flag.Arg(0); cmd {
	case "check":
		if flag.NArg() < 2 {
			fmt.Fprintf(os.Stderr, "%s: missing module directory\n", red("Error"))
			fmt.Println("Usage: rwsc check <dir>")
			os.Exit(1)
		}
		checkModule(flag.Arg(1))

	case "repl":
		runREPL()

	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", red("Error"), cmd)
		printHelp()
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("rwsc %s\n", bold(Version))
	if Commit != "unknown" {
		fmt.Printf("Commit: %s\n", Commit)
	}
	if BuildTime != "unknown" {
		fmt.Printf("Built:  %s\n", BuildTime)
	}
}

func printHelp() {
	fmt.Println(bold("rwsc - row-polymorphic dependent type core"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  rwsc <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Printf("  %s <dir>    Load and report on a module's files\n", cyan("check"))
	fmt.Printf("  %s          Start the interactive REPL\n", cyan("repl"))
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --version   Print version information")
	fmt.Println("  --help      Show this help message")
}

// checkModule loads a directory as a Root-kind module and reports its
// source/auxiliary files. Elaboration itself needs the surface grammar
// collaborator this build does not carry (see frontend.go); this
// command exercises loader wiring and reports what it finds, the same
// "load and report" shape the teacher's own checkFile stub has before
// its TODO'd type-checking step.
func checkModule(dir string) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}

	l := loader.New(filepath.Dir(abs), filepath.Dir(abs), nil)
	id := loader.ModuleID{Kind: loader.Root, PathSegments: []string{filepath.Base(abs)}}

	m, err := l.Load(id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}

	fmt.Printf("%s Loaded %s\n", cyan("->"), m.ID)
	for _, src := range m.Sources {
		fmt.Printf("  %s %s\n", green("source"), src.Path)
	}
	for _, aux := range m.Auxiliary {
		fmt.Printf("  %s %s\n", yellow("aux"), aux.Path)
	}
	if len(m.Sources) == 0 {
		fmt.Printf("%s no %s files found; nothing to elaborate\n", yellow("Warning"), ".rws")
		return
	}

	fmt.Printf("%s resolve/elaborate requires the surface grammar collaborator; see %s\n",
		yellow("Note"), "frontend.go")
}

func runREPL() {
	builtins := map[string]*ident.Var{}
	r := repl.NewWithVersion(noFrontend{}, builtins, Version, BuildTime)
	r.Start(os.Stdout)
}
