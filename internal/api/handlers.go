package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/stickit/internal/markdown"
	"github.com/starford/stickit/internal/noteservice"
	"github.com/starford/stickit/internal/render"
	"github.com/starford/stickit/internal/store"
)

// Handler holds API route handlers.
type Handler struct {
	svc          *noteservice.Service
	previewLimit int
}

// NewHandler creates a new Handler. previewLimit is the node count used by
// the HTML endpoint when the request asks for a preview.
func NewHandler(svc *noteservice.Service, previewLimit int) *Handler {
	return &Handler{svc: svc, previewLimit: previewLimit}
}

func noteID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

func setETag(w http.ResponseWriter, checksum string) {
	w.Header().Set("ETag", `"`+checksum+`"`)
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes, pinned first
//	@Tags			notes
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			pinned	query		bool	false	"Only pinned notes"
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	pinned, _ := strconv.ParseBool(q.Get("pinned"))

	notes, total, err := h.svc.ListNotes(r.Context(), limit, offset, pinned)
	if err != nil {
		writeServiceError(w, "list notes", err)
		return
	}
	resp := NoteListResponse{Notes: make([]NoteResponse, len(notes)), Total: total}
	for i := range notes {
		resp.Notes[i] = noteResponse(&notes[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a new note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note, err := h.svc.CreateNote(r.Context(), req.Name, req.Content, req.Color)
	if err != nil {
		writeServiceError(w, "create note", err, slog.String("name", req.Name))
		return
	}
	setETag(w, note.Checksum())
	writeJSON(w, http.StatusCreated, noteResponse(note))
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note ID"
//	@Success		200	{object}	NoteResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	note, err := h.svc.GetNote(r.Context(), id)
	if err != nil {
		writeServiceError(w, "get note", err, slog.String("id", id))
		return
	}
	setETag(w, note.Checksum())
	writeJSON(w, http.StatusOK, noteResponse(note))
}

// UpdateNote handles PUT /api/notes/{id}.
//
//	@Summary		Replace note content with optimistic concurrency
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string				true	"Note ID"
//	@Param			If-Match	header		string				false	"Content checksum from ETag"
//	@Param			body		body		UpdateNoteRequest	true	"New content"
//	@Success		200			{object}	NoteResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	var req UpdateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Content == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}
	note, err := h.svc.UpdateContent(r.Context(), id, *req.Content, ifMatch(r))
	if err != nil {
		writeServiceError(w, "update note", err, slog.String("id", id))
		return
	}
	setETag(w, note.Checksum())
	writeJSON(w, http.StatusOK, noteResponse(note))
}

// PatchNote handles PATCH /api/notes/{id}.
//
//	@Summary		Change note name, colour or pin state
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Note ID"
//	@Param			body	body		PatchNoteRequest	true	"Fields to change"
//	@Success		200		{object}	NoteResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [patch]
func (h *Handler) PatchNote(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	var req PatchNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == nil && req.Color == nil && req.Pinned == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("nothing to change"))
		return
	}
	note, err := h.svc.Patch(r.Context(), id, noteservice.NotePatch{
		Name:   req.Name,
		Color:  req.Color,
		Pinned: req.Pinned,
	})
	if err != nil {
		writeServiceError(w, "patch note", err, slog.String("id", id))
		return
	}
	setETag(w, note.Checksum())
	writeJSON(w, http.StatusOK, noteResponse(note))
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Param			id	path	string	true	"Note ID"
//	@Success		204	"Note deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	if err := h.svc.DeleteNote(r.Context(), id); err != nil {
		writeServiceError(w, "delete note", err, slog.String("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Nodes handles GET /api/notes/{id}/nodes.
//
//	@Summary		Parsed node sequence of a note
//	@Tags			render
//	@Produce		json
//	@Param			id	path		string	true	"Note ID"
//	@Success		200	{object}	NodesResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/nodes [get]
func (h *Handler) Nodes(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	note, nodes, err := h.svc.Document(r.Context(), id)
	if err != nil {
		writeServiceError(w, "parse note", err, slog.String("id", id))
		return
	}
	total, completed := markdown.TaskStats(nodes)
	setETag(w, note.Checksum())
	writeJSON(w, http.StatusOK, NodesResponse{
		ID:       note.ID,
		Checksum: note.Checksum(),
		Tasks:    TaskStats{Total: total, Completed: completed},
		Nodes:    nodes,
	})
}

// HTML handles GET /api/notes/{id}/html.
//
//	@Summary		Sanitized HTML rendering of a note
//	@Tags			render
//	@Produce		html
//	@Param			id			path	string	true	"Note ID"
//	@Param			limit		query	int		false	"Render only the first N nodes"
//	@Param			preview		query	bool	false	"Use the configured preview length"
//	@Param			readonly	query	bool	false	"Disable checkboxes"
//	@Success		200			{string}	string
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/html [get]
func (h *Handler) HTML(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	if preview, _ := strconv.ParseBool(q.Get("preview")); preview && limit == 0 {
		limit = h.previewLimit
	}

	note, session, err := h.svc.Session(r.Context(), id)
	if err != nil {
		writeServiceError(w, "render note", err, slog.String("id", id))
		return
	}
	if readonly, _ := strconv.ParseBool(q.Get("readonly")); readonly {
		session = render.NewSession(note.Content, nil)
	}

	out := render.NewHTMLRenderer(render.WithLimit(limit)).Render(session)
	setETag(w, note.Checksum())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

// ToggleCheckbox handles POST /api/notes/{id}/checkboxes/{index}/toggle.
//
//	@Summary		Toggle the checkbox at a node index
//	@Tags			render
//	@Produce		json
//	@Param			id			path		string	true	"Note ID"
//	@Param			index		path		int		true	"Node index"
//	@Param			If-Match	header		string	false	"Content checksum from ETag"
//	@Success		200			{object}	NoteResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/checkboxes/{index}/toggle [post]
func (h *Handler) ToggleCheckbox(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("index must be an integer"))
		return
	}
	note, err := h.svc.ToggleCheckbox(r.Context(), id, index, ifMatch(r))
	if err != nil {
		writeServiceError(w, "toggle checkbox", err, slog.String("id", id), slog.Int("index", index))
		return
	}
	setETag(w, note.Checksum())
	writeJSON(w, http.StatusOK, noteResponse(note))
}

// Search handles GET /api/search.
//
//	@Summary		Search note names and content
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeServiceError(w, "search", err, slog.String("query", q))
		return
	}
	if results == nil {
		results = []store.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
