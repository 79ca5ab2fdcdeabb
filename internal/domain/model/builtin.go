package model

// Built-in repository ids. These repositories always exist, are never
// stored in the user list, and cannot be removed. They can be hidden.
const (
	OfficialRepoID = "com.vrchat.repos.official"
	CuratedRepoID  = "com.vrchat.repos.curated"

	OfficialRepoURL = "https://packages.vrchat.com/official?download"
	CuratedRepoURL  = "https://packages.vrchat.com/curated?download"
)

// BuiltinRepository is one of the two fixed repositories shipped with the app.
type BuiltinRepository struct {
	ID          string
	DisplayName string
	URL         string
}

// BuiltinRepositories returns the fixed repositories in display order.
func BuiltinRepositories() []BuiltinRepository {
	return []BuiltinRepository{
		{ID: OfficialRepoID, DisplayName: "Official", URL: OfficialRepoURL},
		{ID: CuratedRepoID, DisplayName: "Curated", URL: CuratedRepoURL},
	}
}

// IsBuiltinID reports whether id names a built-in repository.
func IsBuiltinID(id string) bool {
	return id == OfficialRepoID || id == CuratedRepoID
}

// IsBuiltinURL reports whether url belongs to a built-in repository.
func IsBuiltinURL(url string) bool {
	return url == OfficialRepoURL || url == CuratedRepoURL
}
