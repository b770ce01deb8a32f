/*
handlers.go - HTTP API handlers for the custody engine

PURPOSE:
  Exposes the document custody and approval engine via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to the
  registry. No business rules live here.

ENDPOINTS:
  Documents:
    GET    /api/documents                      List (filter: status, reviewer, overdue)
    POST   /api/documents                      Upload
    GET    /api/documents/{id}                 Get one
    POST   /api/documents/{id}/transfer        Transfer custody
    POST   /api/documents/{id}/accept          Accept possession
    POST   /api/documents/{id}/reject-possession  Decline possession
    POST   /api/documents/{id}/review          Approve/reject
    POST   /api/documents/{id}/archive         Archive
    POST   /api/documents/{id}/comments        Add comment
    GET    /api/documents/awaiting             Awaiting the caller's acceptance
    GET    /api/documents/possession           In the caller's possession

  Other:
    GET    /api/users                          Directory
    GET    /api/stats                          Dashboard stats for the caller
    GET    /api/notifications                  The caller's notifications
    POST   /api/notifications/{id}/read        Mark read
    GET    /api/scenarios                      Demo scenarios
    POST   /api/scenarios/load                 Load the demo scenario

IDENTITY:
  The acting principal arrives as the X-User-ID header (the identity
  provider authenticates upstream; the engine trusts the identity it is
  handed). Handlers resolve the header through the user directory and
  pass a custody.Actor into the registry.

ERROR HANDLING:
  Errors are returned as JSON with the status implied by their class:
  - 400: Validation
  - 401: Missing/unknown identity
  - 403: Authorization
  - 404: NotFound
  - 409: StateConflict
  - 500: Fatal or storage errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/custody-engine/custody"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Registry *custody.Registry
	Stats    *custody.StatsAggregator
	Users    custody.UserDirectory
	Notes    custody.NotificationStore
	Seeder   *Seeder
}

// NewHandler creates a handler over the given engine components.
func NewHandler(reg *custody.Registry, stats *custody.StatsAggregator, users custody.UserDirectory, notes custody.NotificationStore, seeder *Seeder) *Handler {
	return &Handler{Registry: reg, Stats: stats, Users: users, Notes: notes, Seeder: seeder}
}

// requireActor resolves the X-User-ID header through the directory.
func (h *Handler) requireActor(w http.ResponseWriter, r *http.Request) (custody.Actor, bool) {
	id := r.Header.Get("X-User-ID")
	if id == "" {
		writeError(w, http.StatusUnauthorized, "Missing X-User-ID header", nil)
		return custody.Actor{}, false
	}
	user, err := h.Users.Get(r.Context(), custody.UserID(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to resolve user", err)
		return custody.Actor{}, false
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unknown user", nil)
		return custody.Actor{}, false
	}
	return custody.Actor{ID: user.ID, Name: user.Name, Role: user.Role}, true
}

// targetUser returns the user a per-user query is about: the ?user=
// override when present, otherwise the caller.
func targetUser(r *http.Request, actor custody.Actor) custody.UserID {
	if u := r.URL.Query().Get("user"); u != "" {
		return custody.UserID(u)
	}
	return actor.ID
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// ListUsers returns the directory.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users", err)
		return
	}
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// DOCUMENT HANDLERS
// =============================================================================

// ListDocuments returns documents, optionally filtered.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var (
		docs []*custody.Document
		err  error
	)
	switch {
	case q.Get("status") != "":
		docs, err = h.Registry.ByStatus(ctx, custody.DocumentStatus(q.Get("status")))
	case q.Get("reviewer") != "":
		docs, err = h.Registry.ByReviewer(ctx, custody.UserID(q.Get("reviewer")))
	case q.Get("overdue") == "1" || q.Get("overdue") == "true":
		docs, err = h.Registry.Overdue(ctx)
	default:
		docs, err = h.Registry.All(ctx)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDTOs(docs))
}

// GetDocument returns a single document.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := custody.DocumentID(chi.URLParam(r, "id"))
	doc, err := h.Registry.Get(r.Context(), id)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDTO(doc))
}

// UploadDocument creates a document, optionally already in transfer.
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var req UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	form := custody.UploadForm{
		Title:          req.Title,
		Description:    req.Description,
		Type:           custody.DocumentType(req.Type),
		Category:       req.Category,
		Priority:       custody.Priority(req.Priority),
		FileName:       req.FileName,
		FileSize:       req.FileSize,
		PossessionType: custody.PossessionType(req.PossessionType),
		Location:       req.Location,
		TargetUserID:   custody.UserID(req.TargetUserID),
		TransferNotes:  req.TransferNotes,
	}
	if req.DueDate != "" {
		due, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid due_date format (use YYYY-MM-DD)", err)
			return
		}
		form.DueDate = &due
	}

	doc, err := h.Registry.Upload(r.Context(), actor, form)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDocumentDTO(doc))
}

// TransferDocument moves custody to another user.
func (h *Handler) TransferDocument(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	doc, err := h.Registry.Transfer(r.Context(), actor,
		custody.DocumentID(chi.URLParam(r, "id")),
		custody.UserID(req.ToUserID),
		custody.PossessionType(req.PossessionType),
		req.Notes, req.Location)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDTO(doc))
}

// AcceptPossession confirms receipt of a transfer.
func (h *Handler) AcceptPossession(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var req AcceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	doc, err := h.Registry.AcceptPossession(r.Context(), actor,
		custody.DocumentID(chi.URLParam(r, "id")), req.Location, req.Notes)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDTO(doc))
}

// RejectPossession declines a transfer; custody reverts to the sender.
func (h *Handler) RejectPossession(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var req RejectPossessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	doc, err := h.Registry.RejectPossession(r.Context(), actor,
		custody.DocumentID(chi.URLParam(r, "id")), req.Reason)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDTO(doc))
}

// ReviewDocument applies an approve/reject verdict.
func (h *Handler) ReviewDocument(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	doc, err := h.Registry.Review(r.Context(), actor,
		custody.DocumentID(chi.URLParam(r, "id")),
		custody.ReviewVerdict(req.Action), req.Comment)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDTO(doc))
}

// ArchiveDocument moves a document to its terminal Archived status.
func (h *Handler) ArchiveDocument(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var req CommentRequest
	// Body is optional for archive.
	_ = json.NewDecoder(r.Body).Decode(&req)

	doc, err := h.Registry.Archive(r.Context(), actor,
		custody.DocumentID(chi.URLParam(r, "id")), req.Content)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDTO(doc))
}

// AddComment appends to a document's comment thread.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	doc, err := h.Registry.AddComment(r.Context(), actor,
		custody.DocumentID(chi.URLParam(r, "id")), req.Content)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDocumentDTO(doc))
}

// AwaitingAcceptance returns documents with transfers pending on the caller.
func (h *Handler) AwaitingAcceptance(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	docs, err := h.Registry.AwaitingAcceptance(r.Context(), targetUser(r, actor))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDTOs(docs))
}

// InPossession returns documents the caller holds with confirmed possession.
func (h *Handler) InPossession(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	docs, err := h.Registry.InPossession(r.Context(), targetUser(r, actor))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDTOs(docs))
}

// =============================================================================
// STATS AND NOTIFICATIONS
// =============================================================================

// GetStats returns the caller's dashboard summary.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	stats, err := h.Stats.ForUser(r.Context(), targetUser(r, actor))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute stats", err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsDTO(stats))
}

// ListNotifications returns the caller's notifications, newest first.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	notes, err := h.Notes.ByUser(r.Context(), targetUser(r, actor))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list notifications", err)
		return
	}
	dtos := make([]NotificationDTO, len(notes))
	for i, n := range notes {
		dtos[i] = toNotificationDTO(n)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// MarkNotificationRead flips the read flag.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireActor(w, r); !ok {
		return
	}
	if err := h.Notes.MarkRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to mark notification read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ListScenarios returns the available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []ScenarioDTO{
		{
			ID:          "office",
			Name:        "Office document flow",
			Description: "Four users (Admin, HR, Accounting, Audit) and three documents in different custody states",
		},
	})
}

// LoadScenario seeds the demo scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	if h.Seeder == nil {
		writeError(w, http.StatusNotFound, "Seeding not available", nil)
		return
	}
	if err := h.Seeder.Load(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeCommandError maps the custody error taxonomy onto HTTP statuses.
func writeCommandError(w http.ResponseWriter, err error) {
	switch {
	case custody.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case custody.IsAuthorization(err):
		writeError(w, http.StatusForbidden, err.Error(), nil)
	case custody.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case custody.IsStateConflict(err):
		writeError(w, http.StatusConflict, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "Command failed", err)
	}
}
