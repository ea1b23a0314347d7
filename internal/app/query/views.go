// Package query reads the stored projections: a Postgres row per view with a
// Redis copy in front of it.
package query

import (
	"errors"

	"github.com/todo-1m/tasklist/internal/domain/label"
)

var ErrViewNotFound = errors.New("view not found")

// Kind names one of the projection folders.
type Kind string

const (
	KindMyList   Kind = "my_list"
	KindDrafts   Kind = "drafts"
	KindLabelled Kind = "labelled"
)

// DefaultViewID is the id of the single personal list and draft list.
const DefaultViewID = "default"

// ViewKey identifies one stored view.
type ViewKey struct {
	Kind Kind
	ID   string
}

func MyListKey() ViewKey { return ViewKey{Kind: KindMyList, ID: DefaultViewID} }
func DraftsKey() ViewKey { return ViewKey{Kind: KindDrafts, ID: DefaultViewID} }

func LabelledKey(id label.ID) ViewKey {
	return ViewKey{Kind: KindLabelled, ID: string(id)}
}

// CacheKey is the Redis key holding the view body.
func (k ViewKey) CacheKey() string {
	return "view:" + string(k.Kind) + ":" + k.ID
}

func (k ViewKey) String() string {
	return string(k.Kind) + "/" + k.ID
}
