package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/maillink/internal/mailaddr"
	"github.com/dgallion1/maillink/internal/review"
	"github.com/dgallion1/maillink/internal/selection"
	"github.com/olekukonko/tablewriter"
)

// errReviewAborted is returned when input ends before the reviewer accepts.
var errReviewAborted = errors.New("review aborted")

const reviewHelp = `Commands:
  ID [ID...]    toggle the listed addresses
  e ID TEXT     change the address written into the link
  a / n / i     select all / none / invert
  l             select everything not already linked
  p             print the table again
  y             accept and convert the selected addresses
  q             quit without converting anything
`

var bulkOps = map[string]selection.Op{
	"a": selection.OpAll,
	"n": selection.OpNone,
	"i": selection.OpInvert,
	"l": selection.OpNonLinks,
}

// TerminalReviewer is a line-oriented review prompt. The table and prompts
// go to Out; replies are read from In.
type TerminalReviewer struct {
	In      io.Reader
	Out     io.Writer
	Initial selection.Op // Applied before the first table, if set
}

func (t *TerminalReviewer) Review(ctx context.Context, s *review.Session) ([]mailaddr.MailAddress, error) {
	if t.Initial != "" {
		if err := s.Apply(t.Initial); err != nil {
			return nil, err
		}
	}

	in := bufio.NewScanner(t.In)
	printTable(t.Out, s.Rows())
	fmt.Fprint(t.Out, reviewHelp)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fmt.Fprintf(t.Out, "%d selected> ", s.SelectedCount())
		if !in.Scan() {
			if err := in.Err(); err != nil {
				return nil, fmt.Errorf("read reply: %w", err)
			}
			fmt.Fprintln(t.Out)
			return nil, errReviewAborted
		}

		fields := strings.Fields(in.Text())
		if len(fields) == 0 {
			continue
		}
		switch strings.ToLower(fields[0]) {
		case "y", "yes":
			return s.Selected(), nil
		case "q", "quit":
			return []mailaddr.MailAddress{}, nil
		case "p", "print":
			printTable(t.Out, s.Rows())
		case "h", "help", "?":
			fmt.Fprint(t.Out, reviewHelp)
		case "a", "n", "i", "l":
			op := bulkOps[strings.ToLower(fields[0])]
			if err := s.Apply(op); err != nil {
				fmt.Fprintf(t.Out, "error: %v\n", err)
				continue
			}
			fmt.Fprintf(t.Out, "%s: %d selected\n", op, s.SelectedCount())
		case "e":
			if err := t.edit(s, fields[1:]); err != nil {
				fmt.Fprintf(t.Out, "error: %v\n", err)
			}
		default:
			t.toggle(s, fields)
		}
	}
}

func (t *TerminalReviewer) edit(s *review.Session, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: e ID TEXT")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad id %q", args[0])
	}
	if err := s.EditAddress(id, args[1]); err != nil {
		return err
	}
	fmt.Fprintf(t.Out, "#%d -> %s\n", id, args[1])
	return nil
}

func (t *TerminalReviewer) toggle(s *review.Session, fields []string) {
	for _, f := range fields {
		for _, part := range strings.Split(f, ",") {
			if part == "" {
				continue
			}
			id, err := strconv.Atoi(part)
			if err != nil {
				fmt.Fprintf(t.Out, "unknown command %q (h for help)\n", part)
				return
			}
			on, err := s.Toggle(id)
			if err != nil {
				fmt.Fprintf(t.Out, "error: %v\n", err)
				continue
			}
			mark := "off"
			if on {
				mark = "on"
			}
			fmt.Fprintf(t.Out, "#%d %s\n", id, mark)
		}
	}
}

// printTable writes the review table: one row per address with its
// selected and linked flags, the tag before it and some context.
func printTable(w io.Writer, rows []review.Row) {
	noun := "addresses"
	if len(rows) == 1 {
		noun = "address"
	}
	fmt.Fprintf(w, "%d email %s found\n", len(rows), noun)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Convert", "Linked", "Address", "Tag", "Context"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	for _, r := range rows {
		table.Append([]string{
			strconv.Itoa(r.ID),
			yesNo(r.Selected),
			yesNo(r.IsAlreadyLinked),
			r.AddressText,
			oneLine(r.EnclosingTag),
			oneLine(r.SurroundingText),
		})
	}
	table.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ")

func oneLine(s string) string {
	return lineBreaks.Replace(s)
}
