package models

import (
	"time"

	"github.com/dmitrijs2005/chirper/internal/common"
)

// Post is a short text message. Only Body (and UpdatedAt) change after
// creation.
type Post struct {
	ID        string
	AuthorID  string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OwnedBy is the owner check gating the edit and delete controls.
func (p Post) OwnedBy(identityID string) bool {
	return identityID != "" && p.AuthorID == identityID
}

func PostFromDocument(d *Document) Post {
	return Post{
		ID:        d.ID,
		AuthorID:  d.String(common.FieldAuthorID),
		Body:      d.String(common.FieldBody),
		CreatedAt: d.CreateTime,
		UpdatedAt: d.UpdateTime,
	}
}

// PostsByAuthor is the live query behind a profile screen. An empty
// authorID selects every post (the main feed).
func PostsByAuthor(authorID string) Query {
	q := Query{Collection: common.CollectionPosts}
	if authorID != "" {
		q = q.Where(common.FieldAuthorID, OpEqual, authorID)
	}
	return q.OrderBy(FieldCreateTime, true)
}

// Account is the public profile stored under users/{identity id}.
type Account struct {
	ID        string
	Handle    string
	Email     string
	CreatedAt time.Time
}

func AccountFromDocument(d *Document) Account {
	return Account{
		ID:        d.ID,
		Handle:    d.String(common.FieldHandle),
		Email:     d.String(common.FieldEmail),
		CreatedAt: d.CreateTime,
	}
}

// Identity is an authenticated principal issued by the identity provider.
type Identity struct {
	ID    string
	Email string
	Token string
}
