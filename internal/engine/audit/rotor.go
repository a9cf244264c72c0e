// Package audit cycles through the SKU set to schedule physical counts.
package audit

import "sync"

type token struct {
	sku  string
	next int
}

// Rotor is a circular list of SKUs stored as an index arena. A single token
// points at itself. Next never terminates once something is registered.
type Rotor struct {
	mu     sync.Mutex
	tokens []token
	index  map[string]int
	cursor int
}

func NewRotor() *Rotor {
	return &Rotor{index: make(map[string]int)}
}

// Register appends sku at the tail and links the tail back to the head.
// Registering a SKU twice is a no-op.
func (r *Rotor) Register(sku string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[sku]; ok {
		return false
	}

	idx := len(r.tokens)
	r.tokens = append(r.tokens, token{sku: sku, next: 0})
	if idx > 0 {
		r.tokens[idx-1].next = idx
	}
	r.index[sku] = idx
	return true
}

// Next returns the SKU under the cursor and advances one step. It returns
// false when nothing is registered.
func (r *Rotor) Next() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.advance()
}

func (r *Rotor) advance() (string, bool) {
	if len(r.tokens) == 0 {
		return "", false
	}
	t := r.tokens[r.cursor]
	r.cursor = t.next
	return t.sku, true
}

// NextN advances the rotor n times under one lock.
func (r *Rotor) NextN(n int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 0 || len(r.tokens) == 0 {
		return []string{}
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		sku, _ := r.advance()
		out = append(out, sku)
	}
	return out
}

func (r *Rotor) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

// Cursor returns the slot that the next call to Next will read.
func (r *Rotor) Cursor() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor
}

// Current returns the SKU that the next call to Next will read.
func (r *Rotor) Current() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.tokens) == 0 {
		return "", false
	}
	return r.tokens[r.cursor].sku, true
}

// Seek moves the cursor onto sku. It reports false when sku is not registered.
func (r *Rotor) Seek(sku string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.index[sku]
	if ok {
		r.cursor = idx
	}
	return ok
}

// SetCursor moves the cursor to a slot. Out of range values wrap.
func (r *Rotor) SetCursor(pos int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.tokens) == 0 {
		r.cursor = 0
		return
	}
	pos %= len(r.tokens)
	if pos < 0 {
		pos += len(r.tokens)
	}
	r.cursor = pos
}

// Link is one token of the cycle with the slot of its successor.
type Link struct {
	Index int
	SKU   string
	Next  int
}

// Links returns the cycle in registration order.
func (r *Rotor) Links() []Link {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Link, len(r.tokens))
	for i, t := range r.tokens {
		out[i] = Link{Index: i, SKU: t.sku, Next: t.next}
	}
	return out
}
