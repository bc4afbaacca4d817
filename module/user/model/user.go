package model

// UserSummary is the read-only projection of a user the socket core works
// with; the full account lives in postgres and is owned by the REST layer.
type UserSummary struct {
	ID        int64  `json:"id"`
	UID       string `json:"uid,omitempty"`
	Username  string `json:"username"`
	Profile   string `json:"profile,omitempty"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}
