// Package domain contains entities without logic, just meta-data.
package domain

type UserID string

type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
	Color    string `json:"color,omitempty"`
}

// Less is the total order used for voice offer arbitration: for any pair of
// users in a voice room, the lesser ID initiates the offer to the greater.
func (u UserID) Less(other UserID) bool {
	return string(u) < string(other)
}
