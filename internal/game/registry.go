package game

// Registry owns every card of one session. Cards are created in bulk when
// the session is generated and never deallocated individually. It holds no
// business rules: lookups and resets only.
type Registry struct {
	cards []*Card
	byID  map[int]*Card
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[int]*Card)}
}

// Add appends a card. The caller guarantees id uniqueness.
func (r *Registry) Add(c *Card) {
	r.cards = append(r.cards, c)
	r.byID[c.ID] = c
}

// Lookup returns the card with the given id.
func (r *Registry) Lookup(id int) (*Card, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// All returns every card in generation order. The slice is shared with the
// registry; callers must not modify it.
func (r *Registry) All() []*Card {
	return r.cards
}

// Len returns the number of cards.
func (r *Registry) Len() int {
	return len(r.cards)
}

// Clear drops all cards for a session reset.
func (r *Registry) Clear() {
	r.cards = r.cards[:0]
	clear(r.byID)
}
