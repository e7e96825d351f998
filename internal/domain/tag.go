package domain

import "time"

// Tag is a named label owned by a single user.
// Identity is keyed by (OwnerID, Name): a user who applies the same name
// to several notes shares one Tag across all of them.
type Tag struct {
	Entity
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
}

// IsOwnedBy reports whether the tag belongs to userID.
func (t *Tag) IsOwnedBy(userID string) bool {
	return t.OwnerID == userID
}

// NoteTag links a tag to a note.
type NoteTag struct {
	NoteID    string    `json:"note_id"`
	TagID     string    `json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TagLink is a symmetric association between two distinct tags.
// Tag1ID is always the lexically smaller ID; use NewTagLink to build one.
type TagLink struct {
	Tag1ID    string    `json:"tag1_id"`
	Tag2ID    string    `json:"tag2_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTagLink returns the canonical form of the unordered pair (a, b).
func NewTagLink(a, b string) TagLink {
	if b < a {
		a, b = b, a
	}
	return TagLink{Tag1ID: a, Tag2ID: b}
}

// Other returns the tag on the opposite side of the link from tagID.
func (l TagLink) Other(tagID string) string {
	if l.Tag1ID == tagID {
		return l.Tag2ID
	}
	return l.Tag1ID
}
