package model

import "time"

// Folder is a user-defined grouping of addresses. Deleting a folder
// nullifies the folder reference on its member addresses; it never
// cascades to them.
type Folder struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Archived bool   `json:"archived"`
	Deleted  bool   `json:"deleted"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
