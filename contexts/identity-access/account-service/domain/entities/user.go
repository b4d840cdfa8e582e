package entities

// User is an account holder. Credential carries the derived password hash
// and must never cross a transport boundary.
type User struct {
	UserID     string
	FirstName  string
	LastName   string
	Email      string
	Credential string
	Phone      string
}
