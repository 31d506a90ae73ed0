package review

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/maillink/internal/mailaddr"
	"github.com/dgallion1/maillink/internal/rewrite"
	"github.com/dgallion1/maillink/internal/scanner"
	"github.com/dgallion1/maillink/internal/selection"
	"github.com/google/uuid"
)

// Session is the state of one scan awaiting review. Sessions are never
// shared between scans; a new scan gets a new session and new ids.
type Session struct {
	mu sync.Mutex

	ID        string
	Text      string
	CreatedAt time.Time

	// Set by callers that scanned a parsed file.
	Title     string
	Extracted bool

	registry *mailaddr.Registry
	policy   *selection.Policy
}

// Row is an address together with its selected flag.
type Row struct {
	mailaddr.MailAddress
	Selected bool `json:"selected"`
}

// NewSession scans text. It returns ErrNothingToReview if no addresses
// were found.
func NewSession(text string, opts scanner.Options) (*Session, error) {
	addrs := scanner.ScanWithOptions(text, opts)
	if len(addrs) == 0 {
		return nil, ErrNothingToReview
	}
	return &Session{
		ID:        uuid.NewString(),
		Text:      text,
		CreatedAt: time.Now(),
		registry:  mailaddr.NewRegistry(addrs),
		policy:    selection.New(addrs),
	}, nil
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Len()
}

// Addresses returns every address in discovery order.
func (s *Session) Addresses() []mailaddr.MailAddress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.All()
}

func (s *Session) Address(id int) (mailaddr.MailAddress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.ByID(id)
}

// Rows returns addresses with their selected flags.
func (s *Session) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]Row, 0, s.registry.Len())
	for _, a := range s.registry.All() {
		rows = append(rows, Row{MailAddress: a, Selected: s.policy.IsSelected(a.ID)})
	}
	return rows
}

func (s *Session) IsSelected(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy.IsSelected(id)
}

func (s *Session) SelectedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy.Count()
}

// Apply runs a bulk selection op.
func (s *Session) Apply(op selection.Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy.Apply(op)
}

func (s *Session) SetSelected(id int, selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.policy.Set(id, selected) {
		return fmt.Errorf("%w: %d", ErrUnknownAddress, id)
	}
	return nil
}

// Toggle flips the flag of id and returns its new value.
func (s *Session) Toggle(id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.policy.Toggle(id)
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrUnknownAddress, id)
	}
	return v, nil
}

// EditAddress replaces the address text written into the href of id.
func (s *Session) EditAddress(id int, text string) error {
	if err := mailaddr.ValidateAddressText(text); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddressText, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.registry.SetAddressText(id, text) {
		return fmt.Errorf("%w: %d", ErrUnknownAddress, id)
	}
	return nil
}

// Selected returns the selected addresses, with edits, in discovery order.
func (s *Session) Selected() []mailaddr.MailAddress {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.policy.Selected()
	out := make([]mailaddr.MailAddress, 0, len(ids))
	for _, id := range ids {
		a, _ := s.registry.ByID(id)
		out = append(out, a)
	}
	return out
}

// Commit rewrites the session text with chosen, which must be a subset of
// this session's addresses in discovery order. Already-linked addresses
// are converted anyway and reported as warnings.
func (s *Session) Commit(chosen []mailaddr.MailAddress) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	warnings := []Warning{}
	prev := -1
	for _, a := range chosen {
		known, ok := s.registry.ByID(a.ID)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownAddress, a.ID)
		}
		pos := s.registry.Position(a.ID)
		if pos <= prev {
			return nil, fmt.Errorf("%w: address %d", ErrOutOfOrder, a.ID)
		}
		prev = pos
		if a.StartPos != known.StartPos || a.EndPos != known.EndPos {
			return nil, fmt.Errorf("%w: address %d span [%d,%d) does not match scan [%d,%d)",
				rewrite.ErrInvalidArgument, a.ID, a.StartPos, a.EndPos, known.StartPos, known.EndPos)
		}
		if err := mailaddr.ValidateAddressText(a.AddressText); err != nil {
			return nil, fmt.Errorf("%w: address %d: %v", ErrInvalidAddressText, a.ID, err)
		}
		if known.IsAlreadyLinked {
			warnings = append(warnings, Warning{
				AddressID: a.ID,
				Address:   a.AddressText,
				Message:   "address is already inside a link; the output nests anchors",
			})
		}
	}

	text, err := rewrite.Rewrite(s.Text, chosen)
	if err != nil {
		return nil, fmt.Errorf("rewrite: %w", err)
	}

	converted := make([]mailaddr.MailAddress, len(chosen))
	copy(converted, chosen)
	return &Result{
		Text:      text,
		Found:     s.registry.Len(),
		Converted: converted,
		Warnings:  warnings,
		Audit:     rewrite.Audit(text),
	}, nil
}
