// Package rewrite turns selected plain-text addresses into mailto anchors.
package rewrite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/maillink/internal/mailaddr"
	"github.com/dgallion1/maillink/internal/scanner"
	"golang.org/x/net/html"
)

// ErrInvalidArgument marks addresses that do not belong to the text being
// rewritten, or that are out of order or overlapping.
var ErrInvalidArgument = errors.New("invalid argument")

// Anchor returns the markup that replaces one address span.
func Anchor(addressText, original string) string {
	return `<a href="mailto:` + html.EscapeString(addressText) + `">` + original + "</a>"
}

// Rewrite wraps each selected address of original in a mailto anchor. The
// addresses must come from a scan of original, in ascending start order.
// Every span must be one the scanner finds in original.
// The href uses AddressText, which a reviewer may have edited; the link
// text is always the original span.
func Rewrite(original string, selected []mailaddr.MailAddress) (string, error) {
	if len(selected) == 0 {
		return original, nil
	}

	spans := scannedSpans(original)

	var b strings.Builder
	b.Grow(len(original) + len(selected)*32)

	last := 0
	for _, a := range selected {
		if err := checkSpan(original, spans, a, last); err != nil {
			return "", err
		}
		b.WriteString(original[last:a.StartPos])
		b.WriteString(Anchor(a.AddressText, original[a.StartPos:a.EndPos]))
		last = a.EndPos
	}
	b.WriteString(original[last:])

	return b.String(), nil
}

type span struct{ start, end int }

func scannedSpans(original string) map[span]bool {
	found := scanner.Scan(original)
	spans := make(map[span]bool, len(found))
	for _, a := range found {
		spans[span{a.StartPos, a.EndPos}] = true
	}
	return spans
}

func checkSpan(original string, spans map[span]bool, a mailaddr.MailAddress, last int) error {
	switch {
	case a.StartPos < 0 || a.EndPos > len(original) || a.StartPos >= a.EndPos:
		return fmt.Errorf("%w: address %d span [%d,%d) outside text of length %d",
			ErrInvalidArgument, a.ID, a.StartPos, a.EndPos, len(original))
	case a.StartPos < last:
		return fmt.Errorf("%w: address %d at %d overlaps or precedes previous end %d",
			ErrInvalidArgument, a.ID, a.StartPos, last)
	case !spans[span{a.StartPos, a.EndPos}]:
		return fmt.Errorf("%w: address %d span %q is not an address",
			ErrInvalidArgument, a.ID, original[a.StartPos:a.EndPos])
	case a.AddressText == "":
		return fmt.Errorf("%w: address %d has empty text", ErrInvalidArgument, a.ID)
	}
	return nil
}
