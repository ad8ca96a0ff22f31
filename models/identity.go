package models

// Identity is the authenticated caller as asserted by the identity provider.
type Identity struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// IsZero reports whether no identity is present.
func (i Identity) IsZero() bool {
	return i.UserID == ""
}
