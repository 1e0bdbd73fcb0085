package main

import (
	"fmt"
	"os"

	minipy "go.minipy.dev/pkg"
)

// main reads a full program from stdin, evaluates it, and reports any
// lex/parse/runtime error on stderr with a non-zero exit status.
func main() {
	lexer := minipy.NewLexer(os.Stdin)
	parser := minipy.NewParser(lexer)

	program, err := parser.Parse()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	ctx := minipy.NewContext(os.Stdout)
	scope := minipy.NewScope()
	result, err := program.Eval(scope, ctx)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	// The top-level compound normally yields None, but when it doesn't
	// (e.g. a future embedding evaluates a bare expression as the program
	// root), print the final value after a separating blank line.
	if !result.IsNone() {
		s, err := minipy.Str(result, ctx)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		fmt.Println()
		fmt.Println(s)
	}
}

func printError(err error) {
	switch e := err.(type) {
	case *minipy.LexError:
		fmt.Fprintln(os.Stderr, "Lex error:", e.Msg)
	case *minipy.ParseError:
		fmt.Fprintln(os.Stderr, "Parse error:", e.Msg)
	case *minipy.RuntimeError:
		fmt.Fprintln(os.Stderr, "Runtime error:", e.Msg)
	default:
		fmt.Fprintln(os.Stderr, err)
	}
}
