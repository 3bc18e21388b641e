// Package media defines the identity of a piece of media in the store. Search
// chunk metadata identifies its source either by movie id or by TV show id;
// everything downstream works with the tagged (Kind, ID) pair instead.
package media

import "strings"

type Kind string

const (
	KindMovie Kind = "movie"
	KindTV    Kind = "tv"
)

// Key uniquely identifies a movie or TV show in the store.
type Key struct {
	Kind Kind
	ID   string
}

func (k Key) IsZero() bool {
	return k.ID == ""
}

// String renders the composite form used as a stable map/heap key, e.g.
// "movie:687a0a4cb6786590054a79e9".
func (k Key) String() string {
	return string(k.Kind) + ":" + k.ID
}

// ParseKey is the inverse of Key.String. Returns false for malformed input or
// an unknown kind.
func ParseKey(s string) (Key, bool) {
	kind, id, found := strings.Cut(s, ":")
	if !found || id == "" {
		return Key{}, false
	}

	switch Kind(kind) {
	case KindMovie, KindTV:
		return Key{Kind: Kind(kind), ID: id}, true
	default:
		return Key{}, false
	}
}
