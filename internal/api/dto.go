package api

import (
	"github.com/starford/stickit/internal/markdown"
	"github.com/starford/stickit/internal/models"
	"github.com/starford/stickit/internal/store"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Name    string `json:"name" example:"Groceries" validate:"required"`
	Content string `json:"content" example:"[ ] milk\n[x] eggs"`
	Color   string `json:"color,omitempty" example:"yellow"`
}

// UpdateNoteRequest is the request body for replacing note content.
type UpdateNoteRequest struct {
	Content *string `json:"content" example:"[x] milk\n[x] eggs" validate:"required"`
}

// PatchNoteRequest changes note metadata; omitted fields stay as they are.
type PatchNoteRequest struct {
	Name   *string `json:"name,omitempty" example:"Weekend groceries"`
	Color  *string `json:"color,omitempty" example:"mint"`
	Pinned *bool   `json:"pinned,omitempty" example:"true"`
}

// NoteResponse is a note together with its content checksum.
type NoteResponse struct {
	models.Note
	Checksum string `json:"checksum" example:"9f86d08..."`
}

func noteResponse(n *models.Note) NoteResponse {
	return NoteResponse{Note: *n, Checksum: n.Checksum()}
}

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteResponse `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// TaskStats counts the checkboxes of a note.
type TaskStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// NodesResponse is the parsed form of a note.
type NodesResponse struct {
	ID       string          `json:"id"`
	Checksum string          `json:"checksum"`
	Tasks    TaskStats       `json:"tasks"`
	Nodes    []markdown.Node `json:"nodes"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []store.SearchResult `json:"results" validate:"required"`
}
