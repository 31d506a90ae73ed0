package mailaddr

import (
	"fmt"
	"strings"
)

// MailAddress is one candidate address found by a scan.
type MailAddress struct {
	ID              int    `json:"id"`
	AddressText     string `json:"address_text"`
	IsAlreadyLinked bool   `json:"is_already_linked"`
	EnclosingTag    string `json:"enclosing_tag_text"` // Nearest preceding tag, brackets included
	SurroundingText string `json:"surrounding_text"`
	StartPos        int    `json:"start_pos"` // Byte offset into the original text
	EndPos          int    `json:"end_pos"`   // Exclusive
}

// Span returns the half-open byte range of the address in the original text.
func (a MailAddress) Span() (int, int) {
	return a.StartPos, a.EndPos
}

// ValidateAddressText reports whether s can be written into a mailto: href.
func ValidateAddressText(s string) error {
	if s == "" {
		return fmt.Errorf("address text is empty")
	}
	if !strings.Contains(s, "@") {
		return fmt.Errorf("address text %q has no @", s)
	}
	if strings.HasPrefix(s, "@") || strings.HasSuffix(s, "@") {
		return fmt.Errorf("address text %q starts or ends with @", s)
	}
	if i := strings.IndexAny(s, " \t\r\n\"'<>"); i >= 0 {
		return fmt.Errorf("address text %q contains %q", s, s[i])
	}
	return nil
}
