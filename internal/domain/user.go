package domain

// User is a directory entry. Factory and Department are used to label
// dashboard breakdowns.
type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Factory    string `json:"factory"`
	Department string `json:"department"`
	IsAdmin    bool   `json:"is_admin"`
	PushToken  string `json:"-"`
}
