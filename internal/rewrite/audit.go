package rewrite

import (
	"strings"

	"golang.org/x/net/html"
)

// AuditReport summarizes the anchors found in a piece of markup.
type AuditReport struct {
	Anchors       int `json:"anchors"`
	MailtoAnchors int `json:"mailto_anchors"`
	NestedAnchors int `json:"nested_anchors"` // Anchors opened inside another anchor
}

// Audit tokenizes markup and counts anchors. Nested anchors show up when an
// address that was already linked is wrapped again.
func Audit(markup string) AuditReport {
	var rep AuditReport
	depth := 0
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return rep
		case html.StartTagToken:
			tok := z.Token()
			if tok.Data != "a" {
				continue
			}
			rep.Anchors++
			if depth > 0 {
				rep.NestedAnchors++
			}
			depth++
			for _, attr := range tok.Attr {
				if attr.Key == "href" && strings.HasPrefix(strings.ToLower(strings.TrimSpace(attr.Val)), "mailto:") {
					rep.MailtoAnchors++
					break
				}
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "a" && depth > 0 {
				depth--
			}
		}
	}
}
