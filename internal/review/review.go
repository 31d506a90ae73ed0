// Package review owns one scan/rewrite session: the address registry, the
// selection flags, and the hand-off to whoever approves the conversions.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/maillink/internal/mailaddr"
	"github.com/dgallion1/maillink/internal/rewrite"
	"github.com/dgallion1/maillink/internal/scanner"
	"github.com/dgallion1/maillink/internal/selection"
)

var (
	// ErrNothingToReview means the scan found no addresses, so no reviewer
	// is consulted.
	ErrNothingToReview    = errors.New("nothing to review")
	ErrUnknownAddress     = errors.New("unknown address")
	ErrInvalidAddressText = errors.New("invalid address text")
	ErrOutOfOrder         = errors.New("addresses not in discovery order")
)

// Reviewer decides which addresses of a session get converted. It returns
// the chosen subset in discovery order; an empty result converts nothing.
type Reviewer interface {
	Review(ctx context.Context, s *Session) ([]mailaddr.MailAddress, error)
}

// ReviewerFunc adapts a function to Reviewer.
type ReviewerFunc func(ctx context.Context, s *Session) ([]mailaddr.MailAddress, error)

func (f ReviewerFunc) Review(ctx context.Context, s *Session) ([]mailaddr.MailAddress, error) {
	return f(ctx, s)
}

// DefaultReviewer accepts the session's current selection, which starts
// out as every address not already inside a link.
var DefaultReviewer Reviewer = ReviewerFunc(func(_ context.Context, s *Session) ([]mailaddr.MailAddress, error) {
	return s.Selected(), nil
})

// OpReviewer applies a bulk op and accepts the result.
func OpReviewer(op selection.Op) Reviewer {
	return ReviewerFunc(func(_ context.Context, s *Session) ([]mailaddr.MailAddress, error) {
		if err := s.Apply(op); err != nil {
			return nil, err
		}
		return s.Selected(), nil
	})
}

// Warning flags a conversion the reviewer should know about.
type Warning struct {
	AddressID int    `json:"address_id"`
	Address   string `json:"address"`
	Message   string `json:"message"`
}

// Result is the outcome of a committed session.
type Result struct {
	Text      string                 `json:"text"`
	Found     int                    `json:"found"`
	Converted []mailaddr.MailAddress `json:"converted"`
	Warnings  []Warning              `json:"warnings"`
	Audit     rewrite.AuditReport    `json:"audit"`
}

// Convert scans text, hands the session to r, and rewrites the approved
// addresses. It returns ErrNothingToReview without calling r when the scan
// finds nothing.
func Convert(ctx context.Context, text string, opts scanner.Options, r Reviewer, log *slog.Logger) (*Result, error) {
	s, err := NewSession(text, opts)
	if err != nil {
		return nil, err
	}
	if log != nil {
		log = log.With("session_id", s.ID)
		log.Info("addresses found", "count", s.Len(), "selected", s.SelectedCount())
	}

	chosen, err := r.Review(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("review: %w", err)
	}

	res, err := s.Commit(chosen)
	if err != nil {
		return nil, err
	}
	if log != nil {
		for _, w := range res.Warnings {
			log.Warn("converting address inside existing link", "address_id", w.AddressID, "address", w.Address)
		}
		log.Info("conversion complete", "converted", len(res.Converted), "nested_anchors", res.Audit.NestedAnchors)
	}
	return res, nil
}
