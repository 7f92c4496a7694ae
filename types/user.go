package types

import "time"

// User represents a registered account in the system.
type User struct {
	// ID is the storage-assigned identifier of the record. The document
	// store uses its native object ID; the spreadsheet store assigns a
	// UUID when the row is appended.
	ID string `json:"id" bson:"-"`

	// Username is the unique login name chosen by the user. It is
	// compared case-sensitively after trimming surrounding whitespace.
	Username string `json:"username" bson:"username"`

	// PasswordHash stores the bcrypt digest of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" bson:"passwordHash"`

	// CreatedAt is the timestamp when the account was created. It is set
	// once at registration and never updated.
	CreatedAt time.Time `json:"created_at" bson:"createdAt"`
}

// UserSummary is the credential-free projection of a User returned by
// listing endpoints.
type UserSummary struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}
