package relay

// Presence tracks which connection currently represents which user.
// It is owned by the hub goroutine; all access is serialized by
// construction, so no locking is needed.
type Presence struct {
	entries map[string]*Client
}

// NewPresence constructs an empty presence map.
func NewPresence() *Presence {
	return &Presence{entries: make(map[string]*Client)}
}

// Register maps a user to a client connection. Unconditional upsert;
// last writer wins on reconnect.
func (p *Presence) Register(userID string, c *Client) {
	p.entries[userID] = c
}

// Lookup returns the client currently representing the user, or nil.
func (p *Presence) Lookup(userID string) *Client {
	return p.entries[userID]
}

// Remove drops the entry for a user, if any.
func (p *Presence) Remove(userID string) {
	delete(p.entries, userID)
}

// RemoveClient drops every entry whose connection matches the given
// client. Called on disconnect so the map never forwards to closed
// connections. Returns the number of entries removed.
func (p *Presence) RemoveClient(c *Client) int {
	removed := 0
	for userID, entry := range p.entries {
		if entry == c {
			delete(p.entries, userID)
			removed++
		}
	}
	return removed
}

// Len returns the number of present users.
func (p *Presence) Len() int {
	return len(p.entries)
}
