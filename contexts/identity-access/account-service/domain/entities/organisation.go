package entities

type Organisation struct {
	OrgID       string
	Name        string
	Description string
}
