package domain

// Note is the external entity tags attach to. Each note is owned by exactly one user.
// Content lives elsewhere; the tag service only needs identity, ownership and a title.
type Note struct {
	Entity
	OwnerID string `json:"owner_id"`
	DirID   string `json:"dir_id,omitempty"`
	Title   string `json:"title"`
}

// IsOwnedBy reports whether the note belongs to userID.
func (n *Note) IsOwnedBy(userID string) bool {
	return n.OwnerID == userID
}
