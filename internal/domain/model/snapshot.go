package model

// RepositorySnapshot is the unit of cache state for the repositories page:
// the user repository list plus the set of hidden repository ids. It is
// replaced wholesale on fetch and patched in place on optimistic mutation.
//
// HiddenIDs may contain ids that no known repository carries; such entries
// are inert for display purposes but are not an error.
type RepositorySnapshot struct {
	UserRepositories []Repository
	HiddenIDs        map[string]struct{}
}

// Clone returns a deep copy. Mutating the copy never affects the original,
// which is what makes snapshot capture for rollback safe.
func (s *RepositorySnapshot) Clone() *RepositorySnapshot {
	if s == nil {
		return nil
	}

	out := &RepositorySnapshot{
		UserRepositories: make([]Repository, len(s.UserRepositories)),
		HiddenIDs:        make(map[string]struct{}, len(s.HiddenIDs)),
	}

	for i, repo := range s.UserRepositories {
		if repo.Headers != nil {
			headers := make(map[string]string, len(repo.Headers))
			for k, v := range repo.Headers {
				headers[k] = v
			}
			repo.Headers = headers
		}
		out.UserRepositories[i] = repo
	}

	for id := range s.HiddenIDs {
		out.HiddenIDs[id] = struct{}{}
	}

	return out
}

// IsHidden reports whether id is in the hidden set.
func (s *RepositorySnapshot) IsHidden(id string) bool {
	_, ok := s.HiddenIDs[id]
	return ok
}
