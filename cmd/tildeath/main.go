// Command tildeath runs !~ATH source files, or starts an interactive REPL
// when given none.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/nilforge/tildeath/internal/lexer"
	"github.com/nilforge/tildeath/internal/parser"
	"github.com/nilforge/tildeath/interp"
	"github.com/nilforge/tildeath/interp/config"
)

const version = "1.0.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var file string
	var step bool
	var tui bool

	for _, a := range args {
		switch a {
		case "--step", "-d", "--debug":
			step = true
		case "--tui":
			tui = true
		default:
			if strings.HasPrefix(a, "-") {
				fmt.Fprintf(os.Stderr, "Unknown flag: %s\n", a)
				return 1
			}
			file = a
		}
	}

	if file != "" {
		if tui {
			fmt.Fprintln(os.Stderr, "Error starting TUI: the TUI debugger is not available in this build")
			return 1
		}
		return runFile(file, step)
	}

	if tui {
		fmt.Fprintln(os.Stderr, "Error starting TUI: the TUI debugger requires a source file")
		return 1
	}
	return runREPL()
}

// runFile loads and runs a single !~ATH source file, mirroring the
// reference CLI's run_file/run_source split: file errors exit 1 before any
// lexing is attempted, and Ctrl-C during the run exits 130.
func runFile(path string, debug bool) int {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error: File not found: %s\n", path)
		} else {
			fmt.Fprintf(os.Stderr, "Error reading file: %s\n", err)
		}
		return 1
	}

	cfg, err := config.FindAndLoad(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading tildeath.toml: %s\n", err)
		return 1
	}

	return runSource(string(data), path, debug, cfg)
}

func runSource(source, filename string, debug bool, cfg *config.File) int {
	tokens, err := lexer.New(source).Tokenize()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error in %s: %s\n", filename, err)
		return 1
	}
	program, err := parser.New(tokens).ParseProgram()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error in %s: %s\n", filename, err)
		return 1
	}

	var debugger *interp.Debugger
	if debug {
		sr := newStepReader(os.Stdin)
		defer sr.Close()
		debugger = interp.NewDebugger(source, sr, os.Stdout)
		fmt.Printf("Debugger enabled for %s\n", filename)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	i := interp.New(ctx, interp.Options{
		SourceFile:  filename,
		Debugger:    debugger,
		WatcherPoll: watcherPollFromConfig(cfg),
		Timestamps:  cfg != nil && cfg.Display.Timestamps,
	})

	runErr := i.Run(program)

	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "\nInterrupted.")
		return 130
	}
	if isQuitSignal(runErr) {
		fmt.Fprintln(os.Stderr, "\nDebugger quit.")
		return 0
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error in %s: %s\n", filename, runErr)
		return 1
	}
	return 0
}

// isQuitSignal reports whether err is the debugger's quit signal, detected
// by its distinctive message rather than a type assertion across packages
// (quitSignal is unexported inside interp).
func isQuitSignal(err error) bool {
	return err != nil && err.Error() == "debugger quit"
}

// runREPL is the interactive line-mode REPL: it accumulates input until a
// full program parses, executing each complete program as its own
// interpreter run with fresh global state, the same boundary the reference
// REPL draws between statements.
func runREPL() int {
	fmt.Printf("!~ATH Interpreter v%s\n", version)
	fmt.Println("Type '~ATH' code, or 'quit' to exit.")
	fmt.Println("':step' to toggle debugger for next execution.")
	fmt.Println()

	cfg, err := config.FindAndLoad("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading tildeath.toml: %s\n", err)
		cfg = &config.File{}
	}

	reader := bufio.NewReader(os.Stdin)
	var buffer []string
	debugNext := false

	for {
		prompt := ">>> "
		if debugNext {
			prompt = "(debug) >>> "
		}
		if len(buffer) > 0 {
			prompt = "... "
		}
		fmt.Print(prompt)

		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return 0
		}
		line = strings.TrimRight(line, "\n")

		if strings.ToLower(strings.TrimSpace(line)) == "quit" {
			return 0
		}
		if strings.TrimSpace(line) == ":step" {
			debugNext = !debugNext
			state := "disabled"
			if debugNext {
				state = "enabled"
			}
			fmt.Printf("Debugger %s for next run.\n", state)
			continue
		}

		buffer = append(buffer, line)
		source := strings.Join(buffer, "\n")

		tokens, lexErr := lexer.New(source).Tokenize()
		if lexErr != nil {
			if looksIncomplete(lexErr.Error()) {
				continue
			}
			fmt.Fprintf(os.Stderr, "Error: %s\n", lexErr)
			buffer = nil
			continue
		}
		program, parseErr := parser.New(tokens).ParseProgram()
		if parseErr != nil {
			if looksIncomplete(parseErr.Error()) {
				continue
			}
			fmt.Fprintf(os.Stderr, "Error: %s\n", parseErr)
			buffer = nil
			continue
		}

		var debugger *interp.Debugger
		var sr *stepReader
		if debugNext {
			sr = newStepReader(os.Stdin)
			debugger = interp.NewDebugger(source, sr, os.Stdout)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		i := interp.New(ctx, interp.Options{
			Debugger:    debugger,
			WatcherPoll: watcherPollFromConfig(cfg),
			Timestamps:  cfg != nil && cfg.Display.Timestamps,
		})

		runErr := i.Run(program)
		stop()
		if sr != nil {
			sr.Close()
		}

		switch {
		case ctx.Err() != nil:
			fmt.Println("\nInterrupted. Type 'quit' to exit.")
		case isQuitSignal(runErr):
			fmt.Println("Debugger quit.")
		case runErr != nil:
			fmt.Fprintf(os.Stderr, "Error: %s\n", runErr)
		}

		buffer = nil
		debugNext = false
	}
}

// looksIncomplete mirrors the reference REPL's heuristic for "keep
// accumulating lines": an EOF-flavored or "expected ..." syntax error
// usually just means the statement isn't finished yet.
func looksIncomplete(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "eof") || strings.Contains(lower, "expected")
}

// watcherPollFromConfig translates the [scheduler].watcher_poll_ms tuning
// knob into a Duration, leaving the interpreter's built-in default in place
// when cfg is nil or the knob is unset.
func watcherPollFromConfig(cfg *config.File) time.Duration {
	if cfg == nil || cfg.Scheduler.WatcherPollMs <= 0 {
		return 0
	}
	return time.Duration(cfg.Scheduler.WatcherPollMs) * time.Millisecond
}
