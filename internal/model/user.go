package model

// User is an account that documents and activity entries are attributed to.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
