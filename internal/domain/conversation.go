package domain

type ConversationID string

// Conversation identifies exactly two participant users. The pair is stored
// canonically (lesser ID first) so lookups are order-independent.
type Conversation struct {
	ID    ConversationID
	UserA UserID
	UserB UserID
}

// CanonicalPair orders two user IDs into the stored form.
func CanonicalPair(a, b UserID) (UserID, UserID) {
	if b.Less(a) {
		return b, a
	}
	return a, b
}

func (c *Conversation) HasParticipant(id UserID) bool {
	return c.UserA == id || c.UserB == id
}

// Other returns the peer of id within the conversation. The caller must have
// verified participation first.
func (c *Conversation) Other(id UserID) UserID {
	if c.UserA == id {
		return c.UserB
	}
	return c.UserA
}
