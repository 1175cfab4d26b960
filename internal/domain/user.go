package domain

// User is the account behind the current session.
type User struct {
	ID    string
	Name  string
	Email string
	Image string
}
