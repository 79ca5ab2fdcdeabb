package model

// RemoteIndex is the metadata header of a remote package repository index,
// fetched when adding a repository to resolve its declared id and name.
// Package listings are consumed elsewhere and not modeled here.
type RemoteIndex struct {
	ID     string
	Name   string
	Author string
	URL    string
}
