package rewrite

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/maillink/internal/mailaddr"
	"github.com/dgallion1/maillink/internal/scanner"
)

func TestRewrite_NoSelectionReturnsInput(t *testing.T) {
	text := "reach me at a@b.com."
	got, err := Rewrite(text, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != text {
		t.Errorf("expected input unchanged, got %q", got)
	}
}

func TestRewrite_ParagraphAddress(t *testing.T) {
	text := "<p>new@test.org</p>"
	addrs := scanner.Scan(text)
	got, err := Rewrite(text, addrs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `<p><a href="mailto:new@test.org">new@test.org</a></p>`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRewrite_KeepsLastCharacter(t *testing.T) {
	text := "write to a@b.com!"
	got, err := Rewrite(text, scanner.Scan(text))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `write to <a href="mailto:a@b.com">a@b.com</a>!`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRewrite_AddressAtEndOfText(t *testing.T) {
	text := "mail a@b.com"
	got, err := Rewrite(text, scanner.Scan(text))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(got, `<a href="mailto:a@b.com">a@b.com</a>`) {
		t.Errorf("unexpected output %q", got)
	}
}

func TestRewrite_SubsetLeavesOtherTextUntouched(t *testing.T) {
	text := "one@a.com, two@b.com, three@c.com."
	addrs := scanner.Scan(text)
	if len(addrs) != 3 {
		t.Fatalf("expected 3 addresses, got %d", len(addrs))
	}
	got, err := Rewrite(text, []mailaddr.MailAddress{addrs[0], addrs[2]})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `<a href="mailto:one@a.com">one@a.com</a>, two@b.com, <a href="mailto:three@c.com">three@c.com</a>.`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRewrite_EditedAddressTextOnlyChangesHref(t *testing.T) {
	text := "ask joe@exmaple.com"
	addrs := scanner.Scan(text)
	addrs[0].AddressText = "joe@example.com"
	got, err := Rewrite(text, addrs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `ask <a href="mailto:joe@example.com">joe@exmaple.com</a>`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRewrite_EscapesHref(t *testing.T) {
	text := "x a@b.com"
	addrs := scanner.Scan(text)
	addrs[0].AddressText = `a@b.com"onclick`
	got, err := Rewrite(text, addrs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(got, `com"onclick`) {
		t.Errorf("expected quote to be escaped, got %q", got)
	}
}

func TestRewrite_RejectsInvalidSpans(t *testing.T) {
	text := "one@a.com two@b.com"
	addrs := scanner.Scan(text)

	cases := map[string][]mailaddr.MailAddress{
		"out of range": {{ID: 1, AddressText: "x@y", StartPos: 10, EndPos: 100}},
		"negative":     {{ID: 1, AddressText: "x@y", StartPos: -1, EndPos: 3}},
		"empty span":   {{ID: 1, AddressText: "x@y", StartPos: 3, EndPos: 3}},
		"unordered":    {addrs[1], addrs[0]},
		"overlapping":  {addrs[0], {ID: 9, AddressText: "e@a.com", StartPos: 2, EndPos: 9}},
		"not address":  {{ID: 1, AddressText: "x@y", StartPos: 0, EndPos: 3}},
		"empty text":   {{ID: 1, AddressText: "", StartPos: 0, EndPos: 9}},
	}
	for name, sel := range cases {
		_, err := Rewrite(text, sel)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%s: expected ErrInvalidArgument, got %v", name, err)
		}
	}
}

func TestRewrite_RejectsPartialSpan(t *testing.T) {
	text := "xa@by.com and c@d.org"
	cases := map[string]mailaddr.MailAddress{
		"inside address": {ID: 1, AddressText: "q@z", StartPos: 1, EndPos: 4},
		"missing head":   {ID: 1, AddressText: "a@by.com", StartPos: 1, EndPos: 9},
		"missing tail":   {ID: 1, AddressText: "xa@by", StartPos: 0, EndPos: 5},
		"spans two":      {ID: 1, AddressText: "x@y", StartPos: 0, EndPos: 21},
	}
	for name, a := range cases {
		_, err := Rewrite(text, []mailaddr.MailAddress{a})
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%s: expected ErrInvalidArgument, got %v", name, err)
		}
	}

	// The full scanned spans are still accepted.
	if _, err := Rewrite(text, scanner.Scan(text)); err != nil {
		t.Errorf("expected scanned spans to be accepted, got %v", err)
	}
}

func TestRewrite_OutsideSpansUnchanged(t *testing.T) {
	text := "<div>Hi <b>there</b>, mail x@y.org or <i>z@w.net</i>; bye.</div>"
	addrs := scanner.Scan(text)
	got, err := Rewrite(text, addrs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Removing the inserted markup must give back the original.
	restored := got
	for _, a := range addrs {
		restored = strings.Replace(restored, `<a href="mailto:`+a.AddressText+`">`, "", 1)
	}
	restored = strings.ReplaceAll(restored, "</a>", "")
	if restored != text {
		t.Errorf("text outside spans changed:\n got %q\nwant %q", restored, text)
	}
}

func TestAudit_CountsNestedAnchors(t *testing.T) {
	text := `<a href="mailto:x@y.com">x@y.com</a>`
	addrs := scanner.Scan(text)
	got, err := Rewrite(text, addrs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rep := Audit(got)
	if rep.Anchors != 2 {
		t.Errorf("expected 2 anchors, got %d", rep.Anchors)
	}
	if rep.MailtoAnchors != 2 {
		t.Errorf("expected 2 mailto anchors, got %d", rep.MailtoAnchors)
	}
	if rep.NestedAnchors != 1 {
		t.Errorf("expected 1 nested anchor, got %d", rep.NestedAnchors)
	}
}

func TestAudit_PlainText(t *testing.T) {
	rep := Audit("no markup here")
	if rep != (AuditReport{}) {
		t.Errorf("expected empty report, got %+v", rep)
	}
}

func TestAudit_SiblingAnchors(t *testing.T) {
	rep := Audit(`<a href="http://x">x</a> <a href="MAILTO:y@z">y</a>`)
	if rep.Anchors != 2 || rep.NestedAnchors != 0 || rep.MailtoAnchors != 1 {
		t.Errorf("unexpected report %+v", rep)
	}
}
