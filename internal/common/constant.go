package common

// AccessTokenHeaderName is the gRPC metadata key carrying the access token.
const AccessTokenHeaderName = "access_token"

// Collection names used by the client and enforced by the hub rules.
const (
	CollectionPosts    = "tweets"
	CollectionAccounts = "users"
)

// Field names of stored documents.
const (
	FieldAuthorID  = "userId"
	FieldBody      = "content"
	FieldHandle    = "username"
	FieldEmail     = "email"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// Keys of the client-side metadata table holding the persisted session.
const (
	MetaSessionUID   = "session_uid"
	MetaSessionEmail = "session_email"
	MetaSessionToken = "session_token"
)
