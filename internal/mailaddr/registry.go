package mailaddr

// Registry is the ordered, append-only set of addresses from one scan.
type Registry struct {
	addrs []MailAddress
	index map[int]int // id -> position
}

func NewRegistry(addrs []MailAddress) *Registry {
	r := &Registry{
		addrs: make([]MailAddress, 0, len(addrs)),
		index: make(map[int]int, len(addrs)),
	}
	for _, a := range addrs {
		r.Append(a)
	}
	return r
}

// Append adds an address. Duplicate ids are ignored.
func (r *Registry) Append(a MailAddress) bool {
	if _, dup := r.index[a.ID]; dup {
		return false
	}
	r.index[a.ID] = len(r.addrs)
	r.addrs = append(r.addrs, a)
	return true
}

func (r *Registry) Len() int {
	return len(r.addrs)
}

// At returns the address at position i in discovery order.
func (r *Registry) At(i int) MailAddress {
	return r.addrs[i]
}

// ByID looks up an address by its id.
func (r *Registry) ByID(id int) (MailAddress, bool) {
	i, ok := r.index[id]
	if !ok {
		return MailAddress{}, false
	}
	return r.addrs[i], true
}

// Position returns the discovery position of id, or -1.
func (r *Registry) Position(id int) int {
	i, ok := r.index[id]
	if !ok {
		return -1
	}
	return i
}

// All returns a copy of every address in discovery order.
func (r *Registry) All() []MailAddress {
	out := make([]MailAddress, len(r.addrs))
	copy(out, r.addrs)
	return out
}

// IDs returns the ids in discovery order.
func (r *Registry) IDs() []int {
	ids := make([]int, len(r.addrs))
	for i, a := range r.addrs {
		ids[i] = a.ID
	}
	return ids
}

// SetAddressText replaces the address text of id, the only field a
// reviewer may change. The caller validates text.
func (r *Registry) SetAddressText(id int, text string) bool {
	i, ok := r.index[id]
	if !ok {
		return false
	}
	r.addrs[i].AddressText = text
	return true
}
