// Command maillink finds email addresses in a file and turns the plain
// ones into mailto links, optionally after an interactive review.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/dgallion1/maillink/internal/document"
	"github.com/dgallion1/maillink/internal/parser"
	"github.com/dgallion1/maillink/internal/review"
	"github.com/dgallion1/maillink/internal/scanner"
	"github.com/dgallion1/maillink/internal/selection"
	"github.com/mattn/go-isatty"
)

// Globals are flags shared by every command.
type Globals struct {
	Range       int  `name:"range" default:"20" env:"MAILLINK_SURROUNDING_RANGE" help:"Bytes of context shown on each side of an address"`
	NoPdftotext bool `name:"no-pdftotext" env:"MAILLINK_NO_PDFTOTEXT" help:"Do not fall back to pdftotext when PDF extraction fails"`
	Verbose     bool `short:"v" env:"MAILLINK_VERBOSE" help:"Log progress to stderr"`
}

func (g *Globals) scanOptions() scanner.Options {
	return scanner.Options{SurroundingRange: g.Range}
}

func (g *Globals) parserOptions() parser.Options {
	return parser.Options{PDFFallbackPdftotext: !g.NoPdftotext}
}

func (g *Globals) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if g.Verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

var CLI struct {
	Globals

	Convert ConvertCmd `cmd:"" help:"Convert plain email addresses to mailto links"`
	Scan    ScanCmd    `cmd:"" help:"List the email addresses found in a file"`
}

// streams are the process's standard files, swapped out in tests.
type streams struct {
	in          io.Reader
	out         io.Writer
	err         io.Writer
	interactive bool
}

func stdStreams() streams {
	return streams{
		in:          os.Stdin,
		out:         os.Stdout,
		err:         os.Stderr,
		interactive: isTerminal(os.Stdin) && isTerminal(os.Stderr),
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ConvertCmd rewrites a file with mailto links.
type ConvertCmd struct {
	File   string `arg:"" optional:"" help:"Input file; stdin when omitted or -"`
	Out    string `short:"o" help:"Write the result to this file instead of stdout"`
	Yes    bool   `short:"y" help:"Skip the interactive review"`
	Select string `help:"Bulk selection to apply: all, none, invert or non-links"`
}

func (c *ConvertCmd) Run(g *Globals) error {
	return c.run(context.Background(), g, stdStreams())
}

func (c *ConvertCmd) run(ctx context.Context, g *Globals, s streams) error {
	var op selection.Op
	if c.Select != "" {
		var err error
		if op, err = selection.ParseOp(c.Select); err != nil {
			return err
		}
	}

	doc, err := readInput(c.File, g.parserOptions(), s.in)
	if err != nil {
		return err
	}

	// Stdin can't carry both the text and the replies.
	var reviewer review.Reviewer
	switch {
	case !c.Yes && s.interactive && !isStdin(c.File):
		reviewer = &TerminalReviewer{In: s.in, Out: s.err, Initial: op}
	case op != "":
		reviewer = review.OpReviewer(op)
	default:
		reviewer = review.DefaultReviewer
	}

	res, err := review.Convert(ctx, doc.Text, g.scanOptions(), reviewer, g.logger(s.err))
	if errors.Is(err, review.ErrNothingToReview) {
		fmt.Fprintln(s.err, "No addresses found")
		return writeOutput(c.Out, doc.Text, s.out)
	}
	if err != nil {
		return err
	}

	if doc.Extracted {
		fmt.Fprintf(s.err, "note: %s was converted to text before scanning\n", doc.Format)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(s.err, "warning: %s (#%d): %s\n", w.Address, w.AddressID, w.Message)
	}
	fmt.Fprintf(s.err, "Converted %d of %d addresses\n", len(res.Converted), res.Found)
	return writeOutput(c.Out, res.Text, s.out)
}

// ScanCmd prints the review table without converting anything.
type ScanCmd struct {
	File string `arg:"" optional:"" help:"Input file; stdin when omitted or -"`
}

func (c *ScanCmd) Run(g *Globals) error {
	return c.run(g, stdStreams())
}

func (c *ScanCmd) run(g *Globals, s streams) error {
	doc, err := readInput(c.File, g.parserOptions(), s.in)
	if err != nil {
		return err
	}
	sess, err := review.NewSession(doc.Text, g.scanOptions())
	if errors.Is(err, review.ErrNothingToReview) {
		fmt.Fprintln(s.out, "No addresses found")
		return nil
	}
	if err != nil {
		return err
	}
	printTable(s.out, sess.Rows())
	return nil
}

func isStdin(path string) bool {
	return path == "" || path == "-"
}

// readInput loads path through the parser for its extension. Stdin and
// unknown extensions are read as plain text.
func readInput(path string, opts parser.Options, stdin io.Reader) (*document.Document, error) {
	if isStdin(path) {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return &document.Document{Format: document.FormatText, Text: string(data)}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := filepath.Base(path)
	var p parser.Parser = &parser.TextParser{}
	if parser.IsSupportedExtension(name) {
		if p, err = parser.ForFile(name, opts); err != nil {
			return nil, err
		}
	}
	doc, err := p.Parse(f, name)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return doc, nil
}

func writeOutput(path, text string, stdout io.Writer) error {
	if path == "" {
		_, err := io.WriteString(stdout, text)
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("maillink"),
		kong.Description("Turn plain email addresses into mailto links"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(&CLI.Globals)
	ctx.FatalIfErrorf(err)
}
