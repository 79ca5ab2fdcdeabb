package model

// AddRequest is an "add repository" request delivered through an OS deep
// link: the index URL plus any auth headers the link carried.
type AddRequest struct {
	URL     string
	Headers map[string]string
}
