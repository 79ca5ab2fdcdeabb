package application

import "github.com/pkgpanel/pkgpanel/internal/domain/model"

// RepositoryRow is one row of the repositories page: a built-in or user
// repository with its visibility state resolved against the hidden set.
type RepositoryRow struct {
	ID          string
	DisplayName string
	URL         string
	Builtin     bool
	Hidden      bool
}

// Rows derives the display rows from a snapshot: the two fixed built-in
// rows first, then one row per user repository in list order. Hidden-set
// entries that match no known id are ignored.
func Rows(snap *model.RepositorySnapshot) []RepositoryRow {
	builtins := model.BuiltinRepositories()
	rows := make([]RepositoryRow, 0, len(builtins)+len(snap.UserRepositories))

	for _, b := range builtins {
		rows = append(rows, RepositoryRow{
			ID:          b.ID,
			DisplayName: b.DisplayName,
			URL:         b.URL,
			Builtin:     true,
			Hidden:      snap.IsHidden(b.ID),
		})
	}

	for _, repo := range snap.UserRepositories {
		rows = append(rows, RepositoryRow{
			ID:          repo.ID,
			DisplayName: repo.DisplayName,
			URL:         repo.URL,
			Hidden:      snap.IsHidden(repo.ID),
		})
	}

	return rows
}
