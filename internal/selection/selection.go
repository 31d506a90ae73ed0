// Package selection holds the per-address conversion flags a reviewer
// works on before the rewrite.
package selection

import (
	"fmt"
	"strings"

	"github.com/dgallion1/maillink/internal/mailaddr"
)

// Op is a bulk selection operation.
type Op string

const (
	OpAll      Op = "all"
	OpNone     Op = "none"
	OpInvert   Op = "invert"
	OpNonLinks Op = "non_links"
)

// ParseOp accepts the op names above, also with a dash instead of the
// underscore.
func ParseOp(s string) (Op, error) {
	op := Op(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	switch op {
	case OpAll, OpNone, OpInvert, OpNonLinks:
		return op, nil
	}
	return "", fmt.Errorf("unknown selection op %q", s)
}

// Policy maps address ids to a selected flag.
type Policy struct {
	order    []int
	linked   map[int]bool
	selected map[int]bool
}

// New builds a policy over addrs with the default rule applied: an address
// is selected unless it already sits inside a link.
func New(addrs []mailaddr.MailAddress) *Policy {
	p := &Policy{
		order:    make([]int, 0, len(addrs)),
		linked:   make(map[int]bool, len(addrs)),
		selected: make(map[int]bool, len(addrs)),
	}
	for _, a := range addrs {
		if _, dup := p.linked[a.ID]; dup {
			continue
		}
		p.order = append(p.order, a.ID)
		p.linked[a.ID] = a.IsAlreadyLinked
	}
	p.SelectNonLinks()
	return p
}

func (p *Policy) SelectAll() {
	for _, id := range p.order {
		p.selected[id] = true
	}
}

func (p *Policy) SelectNone() {
	for _, id := range p.order {
		p.selected[id] = false
	}
}

// SelectNonLinks reapplies the default rule.
func (p *Policy) SelectNonLinks() {
	for _, id := range p.order {
		p.selected[id] = !p.linked[id]
	}
}

func (p *Policy) Invert() {
	for _, id := range p.order {
		p.selected[id] = !p.selected[id]
	}
}

// Apply runs a bulk op.
func (p *Policy) Apply(op Op) error {
	switch op {
	case OpAll:
		p.SelectAll()
	case OpNone:
		p.SelectNone()
	case OpInvert:
		p.Invert()
	case OpNonLinks:
		p.SelectNonLinks()
	default:
		return fmt.Errorf("unknown selection op %q", op)
	}
	return nil
}

// Set changes one flag. It reports false for unknown ids.
func (p *Policy) Set(id int, selected bool) bool {
	if _, ok := p.linked[id]; !ok {
		return false
	}
	p.selected[id] = selected
	return true
}

// Toggle flips one flag and returns the new value.
func (p *Policy) Toggle(id int) (bool, bool) {
	if _, ok := p.linked[id]; !ok {
		return false, false
	}
	p.selected[id] = !p.selected[id]
	return p.selected[id], true
}

func (p *Policy) IsSelected(id int) bool {
	return p.selected[id]
}

// Selected returns the selected ids in discovery order.
func (p *Policy) Selected() []int {
	var ids []int
	for _, id := range p.order {
		if p.selected[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

func (p *Policy) Count() int {
	n := 0
	for _, id := range p.order {
		if p.selected[id] {
			n++
		}
	}
	return n
}

// Flags returns a copy of the flag set.
func (p *Policy) Flags() map[int]bool {
	out := make(map[int]bool, len(p.selected))
	for id, v := range p.selected {
		out[id] = v
	}
	return out
}
