package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	j "github.com/goccy/go-json"

	"github.com/reoring/jsonish"
	"github.com/reoring/jsonish/i18n"
	"github.com/reoring/jsonish/schema"
	"github.com/reoring/jsonish/value"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	var code int
	switch os.Args[1] {
	case "replay":
		code = replayCmd(os.Args[2:], os.Stdin, os.Stdout, os.Stderr)
	case "check":
		code = checkCmd(os.Args[2:], os.Stdout, os.Stderr)
	case "jsonschema":
		code = jsonSchemaCmd(os.Args[2:], os.Stdout, os.Stderr)
	default:
		usage(os.Stderr)
		code = 2
	}
	os.Exit(code)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "jsonish CLI\n\nUsage:\n  jsonish replay -schema file.yaml [-root Type] [-chunk N] [-v] [input|-]\n  jsonish check 'schemas/**/*.yaml' ...\n  jsonish jsonschema -schema file.yaml [-root Type]\n\nreplay feeds the input as deltas of N bytes, prints one JSON line per partial\nevent and then the final result.")
}

// loadSchema reads the descriptor and picks the root: -root when given,
// otherwise the descriptor's own.
func loadSchema(path, rootExpr string) (*schema.Document, schema.Type, error) {
	if path == "" {
		return nil, nil, errors.New("-schema is required")
	}
	doc, err := schema.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	root := doc.Root
	if rootExpr != "" {
		if root, err = schema.ParseType(rootExpr); err != nil {
			return nil, nil, err
		}
	}
	if root == nil {
		return nil, nil, errors.New("no root type: pass -root or set root in the descriptor")
	}
	return doc, root, nil
}

func replayCmd(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var schemaPath, rootExpr, lang, prompt string
	var chunk int
	var verbose bool
	fs.StringVar(&schemaPath, "schema", "", "schema descriptor (YAML or JSON)")
	fs.StringVar(&rootExpr, "root", "", "root type expression; defaults to the descriptor root")
	fs.IntVar(&chunk, "chunk", 8, "delta size in bytes")
	fs.StringVar(&lang, "lang", "en", "message language (en, ja)")
	fs.StringVar(&prompt, "prompt", "", "prompt text recorded in validation errors")
	fs.BoolVar(&verbose, "v", false, "enable debug logs")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	i18n.SetLanguage(lang)
	doc, root, err := loadSchema(schemaPath, rootExpr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	in := stdin
	if name := fs.Arg(0); name != "" && name != "-" {
		f, err := os.Open(name)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 2
		}
		defer f.Close()
		in = f
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	ctx := context.Background()
	st, err := jsonish.NewStream[value.Value, value.Value](jsonish.FromReader(in, chunk), doc.Registry, root,
		jsonish.StreamOpt{Prompt: prompt, Logger: logger})
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	enc := j.NewEncoder(stdout)
	for ev := range st.Partials(ctx) {
		if err := enc.Encode(ev); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
	}
	if err := st.Err(); err != nil {
		fmt.Fprintf(stderr, "error: reading input: %v\n", err)
		return 1
	}
	final, err := st.Final(ctx)
	if err != nil {
		var ve *jsonish.ValidationError
		if errors.As(err, &ve) {
			fmt.Fprintf(stderr, "validation failed: %s\n", ve.Message)
			for _, is := range ve.Issues {
				fmt.Fprintf(stderr, "  %s %s: %s\n", is.Code, is.Path, is.Message)
			}
			return 1
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if err := enc.Encode(map[string]any{"final": final}); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// checkCmd validates every descriptor matched by the glob patterns.
func checkCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "check: at least one file or glob pattern is required")
		return 2
	}
	var files []string
	for _, pattern := range fs.Args() {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			fmt.Fprintf(stderr, "check: bad pattern %q: %v\n", pattern, err)
			return 2
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		fmt.Fprintln(stderr, "check: no files matched")
		return 2
	}
	failed := 0
	for _, f := range files {
		doc, err := schema.LoadFile(f)
		if err != nil {
			failed++
			fmt.Fprintf(stdout, "FAIL %s\n  %v\n", filepath.ToSlash(f), err)
			continue
		}
		fmt.Fprintf(stdout, "ok   %s (%d types)\n", filepath.ToSlash(f), len(doc.Registry.Names()))
	}
	if failed > 0 {
		return 1
	}
	return 0
}

func jsonSchemaCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("jsonschema", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var schemaPath, rootExpr string
	fs.StringVar(&schemaPath, "schema", "", "schema descriptor (YAML or JSON)")
	fs.StringVar(&rootExpr, "root", "", "root type expression; defaults to the descriptor root")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	doc, root, err := loadSchema(schemaPath, rootExpr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	out, err := schema.JSONSchema(doc.Registry, root)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	b, err := j.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, string(b))
	return 0
}
