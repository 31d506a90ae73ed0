// Package scanner finds email address candidates in text that may carry
// HTML-like markup. Tags are recognized only by their < and > delimiters.
package scanner

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/maillink/internal/mailaddr"
)

// DefaultSurroundingRange is how many bytes of context are kept on each
// side of an address for review.
const DefaultSurroundingRange = 20

// sentinel terminates a run that reaches end of text.
const sentinel = " "

// Options tunes a scan.
type Options struct {
	SurroundingRange int
}

// IsLegal reports whether c may appear in an address run.
func IsLegal(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '@', '+', '~':
		return true
	}
	return false
}

// IsLinkTag reports whether tag text contains href, ignoring case.
func IsLinkTag(tag string) bool {
	return strings.Contains(strings.ToLower(tag), "href")
}

// Scan returns the address candidates in text, in discovery order.
func Scan(text string) []mailaddr.MailAddress {
	return ScanWithOptions(text, Options{})
}

// ScanWithOptions is Scan with explicit options. Ids start at 1 for every
// call; nothing is shared between scans.
func ScanWithOptions(text string, opts Options) []mailaddr.MailAddress {
	if opts.SurroundingRange <= 0 {
		opts.SurroundingRange = DefaultSurroundingRange
	}
	s := &scan{
		buf:         text + sentinel,
		surrounding: opts.SurroundingRange,
		lastIllegal: -1,
	}
	s.run()
	return s.out
}

type scan struct {
	buf         string
	surrounding int

	nextID      int
	lastIllegal int
	tagStart    int
	tag         string
	linked      bool
	inTag       bool
	inAddress   bool

	out []mailaddr.MailAddress
}

func (s *scan) run() {
	for i := 0; i < len(s.buf); i++ {
		c := s.buf[i]
		if s.inTag {
			if c == '>' {
				s.tag = s.buf[s.tagStart : i+1]
				s.linked = IsLinkTag(s.tag)
				s.inTag = false
				s.lastIllegal = i
			}
			continue
		}

		if IsLegal(c) {
			if c == '@' {
				s.inAddress = true
			}
			continue
		}

		if s.inAddress {
			s.inAddress = false
			s.emit(s.lastIllegal+1, i)
		}
		s.lastIllegal = i
		if c == '<' {
			s.tagStart = i
			s.inTag = true
		}
	}
}

// emit finalizes the run buf[start:end].
func (s *scan) emit(start, end int) {
	run := s.buf[start:end]
	if strings.HasPrefix(run, "@") || strings.HasSuffix(run, "@") {
		return
	}
	addr := strings.TrimRight(run, ".")
	// "x@." trims down to "x@".
	if addr == "" || strings.HasSuffix(addr, "@") {
		return
	}
	endPos := start + len(addr)

	s.nextID++
	s.out = append(s.out, mailaddr.MailAddress{
		ID:              s.nextID,
		AddressText:     addr,
		IsAlreadyLinked: s.linked,
		EnclosingTag:    s.tag,
		SurroundingText: s.context(start, endPos),
		StartPos:        start,
		EndPos:          endPos,
	})
}

// context returns the review window around [start, end), narrowed so it
// never splits a UTF-8 sequence.
func (s *scan) context(start, end int) string {
	lo := max(0, start-s.surrounding)
	hi := min(end+s.surrounding, len(s.buf))
	for lo < start && !utf8.RuneStart(s.buf[lo]) {
		lo++
	}
	for hi > end && hi < len(s.buf) && !utf8.RuneStart(s.buf[hi]) {
		hi--
	}
	return s.buf[lo:hi]
}
