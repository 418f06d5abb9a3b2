// Package rules is the hub's permission layer. Every document operation is
// checked here before it reaches storage.
package rules

import (
	"fmt"
	"unicode/utf8"

	"github.com/dmitrijs2005/chirper/internal/common"
	"github.com/dmitrijs2005/chirper/internal/models"
)

// Caller is the identity id of the requester; empty for anonymous calls.
type Caller string

func (c Caller) signedIn() bool { return c != "" }

func deny(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{common.ErrPermissionDenied}, args...)...)
}

// CanRead covers both single reads and queries. Accounts are public so that
// a handle can be resolved to an email before sign-in.
func CanRead(caller Caller, collection string) error {
	switch collection {
	case common.CollectionAccounts:
		return nil
	case common.CollectionPosts:
		if !caller.signedIn() {
			return deny("sign in to read %s", collection)
		}
		return nil
	}
	return deny("unknown collection %q", collection)
}

// CanCreate checks a new document.
func CanCreate(caller Caller, doc *models.Document) error {
	if !caller.signedIn() {
		return deny("sign in to write")
	}
	switch doc.Collection {
	case common.CollectionPosts:
		if doc.String(common.FieldAuthorID) != string(caller) {
			return deny("post author must be the caller")
		}
		return validPostBody(doc.Fields)
	case common.CollectionAccounts:
		if doc.ID != string(caller) {
			return deny("account id must be the caller")
		}
		if doc.String(common.FieldAuthorID) != string(caller) {
			return deny("account userId must be the caller")
		}
		return nil
	}
	return deny("unknown collection %q", doc.Collection)
}

// CanUpdate checks a partial update against the stored document.
func CanUpdate(caller Caller, existing *models.Document, fields map[string]any) error {
	if err := owns(caller, existing); err != nil {
		return err
	}
	if v, ok := fields[common.FieldAuthorID]; ok {
		if s, _ := v.(string); s != existing.String(common.FieldAuthorID) {
			return deny("userId is immutable")
		}
	}
	if existing.Collection == common.CollectionPosts {
		if _, ok := fields[common.FieldBody]; ok {
			return validPostBody(fields)
		}
	}
	return nil
}

// CanDelete checks a delete against the stored document. Accounts are never
// deleted.
func CanDelete(caller Caller, existing *models.Document) error {
	if existing.Collection == common.CollectionAccounts {
		return deny("accounts cannot be deleted")
	}
	return owns(caller, existing)
}

func owns(caller Caller, existing *models.Document) error {
	if !caller.signedIn() {
		return deny("sign in to write")
	}
	switch existing.Collection {
	case common.CollectionPosts:
		if existing.String(common.FieldAuthorID) != string(caller) {
			return deny("not the author of %s", existing.ID)
		}
		return nil
	case common.CollectionAccounts:
		if existing.ID != string(caller) {
			return deny("not the owner of %s", existing.ID)
		}
		return nil
	}
	return deny("unknown collection %q", existing.Collection)
}

func validPostBody(fields map[string]any) error {
	body, ok := fields[common.FieldBody].(string)
	if !ok || body == "" || utf8.RuneCountInString(body) > models.MaxBodyLength {
		return deny("post text must be 1-%d characters", models.MaxBodyLength)
	}
	return nil
}
