// Package repl implements a line-oriented read-eval-typecheck loop over
// the core pipeline (resolve -> elaborate -> normalize), grounded on the
// teacher's internal/repl.REPL (liner-backed history/prompt, ":"-prefixed
// commands, colorized result printing). There is no surface grammar in
// this module (spec.md §1 keeps the parser an external collaborator), so
// turning a line of input into a surface.Expr is delegated to a
// caller-supplied Frontend rather than a built-in lexer/parser pair.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/sunholo/rowscript/internal/core"
	"github.com/sunholo/rowscript/internal/diagnostic"
	"github.com/sunholo/rowscript/internal/elaborate"
	"github.com/sunholo/rowscript/internal/ident"
	"github.com/sunholo/rowscript/internal/resolve"
	"github.com/sunholo/rowscript/internal/sigma"
	"github.com/sunholo/rowscript/internal/surface"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

// Frontend turns one line (or accumulated multi-line buffer) of REPL
// input into a surface.Expr, standing in for the out-of-scope parser
// collaborator. Production wires this to the real grammar; tests and
// this module's own smoke checks can wire a small hand-built stub.
type Frontend interface {
	ParseExpr(input string) (surface.Expr, error)
}

// REPL holds the persistent state shared across evaluated lines: one
// Σ growing across the session (so earlier `let`s and `implements`
// blocks stay visible), version info for the banner, and the Frontend.
type REPL struct {
	frontend  Frontend
	factory   *ident.Factory
	sigma     *sigma.Sigma
	builtins  map[string]*ident.Var
	history   []string
	version   string
	buildTime string
}

// New creates a REPL over a fresh Σ, seeded with builtins (names the
// loader's prelude would otherwise register, spec.md §6).
func New(frontend Frontend, builtins map[string]*ident.Var) *REPL {
	return NewWithVersion(frontend, builtins, "", "")
}

func NewWithVersion(frontend Frontend, builtins map[string]*ident.Var, version, buildTime string) *REPL {
	if version == "" {
		version = "dev"
	}
	if buildTime == "" {
		buildTime = "unknown"
	}
	factory := ident.NewFactory()
	return &REPL{
		frontend:  frontend,
		factory:   factory,
		sigma:     sigma.New(factory),
		builtins:  builtins,
		version:   version,
		buildTime: buildTime,
	}
}

func (r *REPL) getPrompt() string { return "rws> " }

// Start begins the interactive session, reading lines from the
// terminal through liner and writing to out.
func (r *REPL) Start(out io.Writer) {
	line := liner.NewLiner()
	defer line.Close()

	historyFile := filepath.Join(os.TempDir(), ".rowscript_history")
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	line.SetMultiLineMode(true)

	fmt.Fprintf(out, "%s %s\n", bold("rowscript"), bold(r.version))
	fmt.Fprintln(out, dim("Type :help for help, :quit to exit"))
	fmt.Fprintln(out)

	line.SetCompleter(func(input string) (c []string) {
		if strings.HasPrefix(input, ":") {
			for _, cmd := range []string{":help", ":quit", ":sigma", ":clear", ":history"} {
				if strings.HasPrefix(cmd, input) {
					c = append(c, cmd)
				}
			}
		}
		return
	})

	for {
		input, err := line.Prompt(r.getPrompt())
		if err == io.EOF {
			fmt.Fprintln(out, green("\nGoodbye!"))
			break
		}
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
			continue
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)
		r.history = append(r.history, input)

		if strings.HasPrefix(input, ":") {
			if strings.HasPrefix(input, ":quit") || strings.HasPrefix(input, ":q") {
				fmt.Fprintln(out, green("Goodbye!"))
				break
			}
			r.handleCommand(input, out)
			continue
		}

		r.evalLine(input, out)
	}

	if f, err := os.Create(historyFile); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
}

func (r *REPL) handleCommand(cmd string, out io.Writer) {
	parts := strings.Fields(cmd)
	switch parts[0] {
	case ":help", ":h":
		fmt.Fprintln(out, "REPL commands:")
		fmt.Fprintln(out, "  :help, :h        Show this help")
		fmt.Fprintln(out, "  :quit, :q        Exit the REPL")
		fmt.Fprintln(out, "  :sigma           List every name registered in Σ this session")
		fmt.Fprintln(out, "  :history         Show input history")
		fmt.Fprintln(out, "  :clear           Clear the screen")
	case ":sigma":
		for _, v := range r.sigma.Order() {
			fmt.Fprintf(out, "  %s\n", cyan(v.String()))
		}
	case ":history":
		for i, h := range r.history {
			fmt.Fprintf(out, "  %d: %s\n", i+1, h)
		}
	case ":clear":
		fmt.Fprint(out, "\033[H\033[2J")
	default:
		fmt.Fprintf(out, "Unknown command: %s (try :help)\n", cmd)
	}
}

// evalLine runs one line through resolve -> elaborate(Infer) -> normalize
// and prints "expr : type = normal form", or a rendered diagnostic.Render
// on failure, matching the teacher's "result : type = value" REPL idiom.
func (r *REPL) evalLine(input string, out io.Writer) {
	expr, err := r.frontend.ParseExpr(input)
	if err != nil {
		fmt.Fprint(out, diagnostic.Render(&parseError{err}, input))
		return
	}

	res := resolve.New(r.factory, r.builtins)
	resolved, err := res.Expr(expr)
	if err != nil {
		fmt.Fprint(out, diagnostic.Render(err, input))
		return
	}

	elab := elaborate.New(r.sigma)
	tm, ty, err := elab.Infer(resolved)
	if err != nil {
		fmt.Fprint(out, diagnostic.Render(err, input))
		return
	}

	norm := core.NewNormalizer(r.sigma, sigma.Loc{})
	nTm, err := norm.Term(tm)
	if err != nil {
		fmt.Fprint(out, diagnostic.Render(err, input))
		return
	}
	nTy, err := norm.Term(ty)
	if err != nil {
		fmt.Fprint(out, diagnostic.Render(err, input))
		return
	}

	fmt.Fprintf(out, "%s : %s = %s\n", cyan("_"), yellow(nTy.String()), green(nTm.String()))
}

// parseError adapts a Frontend's error into something diagnostic.Render
// can format; it carries no Loc since a pluggable frontend's own error
// shape is opaque to this package.
type parseError struct{ err error }

func (p *parseError) Error() string { return p.err.Error() }
