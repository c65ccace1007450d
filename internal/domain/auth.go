package domain

// Principal is the authenticated caller of the API.
type Principal struct {
	ID   string
	Name string
}
