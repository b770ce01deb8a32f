/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Structural validation (parseable dates, known enums) happens in
  handlers; business validation lives in the custody package.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/custody-engine/custody"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// UserDTO represents a directory entry in API responses.
type UserDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// PossessionRecordDTO represents one custody assertion.
type PossessionRecordDTO struct {
	ID             string  `json:"id"`
	UserID         string  `json:"user_id"`
	UserName       string  `json:"user_name,omitempty"`
	PossessionType string  `json:"possession_type"`
	ReceivedAt     string  `json:"received_at"`
	AcceptedAt     *string `json:"accepted_at,omitempty"`
	TransferredAt  *string `json:"transferred_at,omitempty"`
	TransferredTo  string  `json:"transferred_to,omitempty"`
	Location       string  `json:"location,omitempty"`
	Notes          string  `json:"notes,omitempty"`
	Status         string  `json:"status"`
}

// WorkflowStepDTO represents one audit-log entry.
type WorkflowStepDTO struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	UserID    string `json:"user_id"`
	Action    string `json:"action"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Comment   string `json:"comment,omitempty"`
}

// CommentDTO represents one comment.
type CommentDTO struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
}

// DocumentDTO represents a document in API responses.
type DocumentDTO struct {
	ID                 string                `json:"id"`
	Title              string                `json:"title"`
	Description        string                `json:"description,omitempty"`
	Type               string                `json:"type"`
	Category           string                `json:"category,omitempty"`
	Status             string                `json:"status"`
	Priority           string                `json:"priority"`
	UploadedBy         string                `json:"uploaded_by"`
	UploadedAt         string                `json:"uploaded_at"`
	Reviewer           string                `json:"reviewer"`
	DueDate            *string               `json:"due_date,omitempty"`
	FileSize           int64                 `json:"file_size"`
	FileName           string                `json:"file_name"`
	Tags               []string              `json:"tags"`
	PossessionType     string                `json:"possession_type"`
	CurrentPossession  PossessionRecordDTO   `json:"current_possession"`
	PossessionHistory  []PossessionRecordDTO `json:"possession_history"`
	TargetDestination  string                `json:"target_destination,omitempty"`
	AwaitingAcceptance bool                  `json:"awaiting_acceptance"`
	Workflow           []WorkflowStepDTO     `json:"workflow"`
	Comments           []CommentDTO          `json:"comments"`
}

// UploadRequest is the request to create a document.
type UploadRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Type           string `json:"type"`
	Category       string `json:"category"`
	Priority       string `json:"priority"`
	DueDate        string `json:"due_date,omitempty"` // YYYY-MM-DD
	FileName       string `json:"file_name,omitempty"`
	FileSize       int64  `json:"file_size,omitempty"`
	PossessionType string `json:"possession_type"`
	Location       string `json:"location,omitempty"`
	TargetUserID   string `json:"target_user_id,omitempty"`
	TransferNotes  string `json:"transfer_notes,omitempty"`
}

// TransferRequest is the request to transfer custody.
type TransferRequest struct {
	ToUserID       string `json:"to_user_id"`
	PossessionType string `json:"possession_type"`
	Notes          string `json:"notes,omitempty"`
	Location       string `json:"location,omitempty"`
}

// AcceptRequest is the request to accept an outstanding transfer.
type AcceptRequest struct {
	Location string `json:"location,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// RejectPossessionRequest declines an outstanding transfer.
type RejectPossessionRequest struct {
	Reason string `json:"reason"`
}

// ReviewRequest applies an approve/reject verdict.
type ReviewRequest struct {
	Action  string `json:"action"` // "approve" | "reject"
	Comment string `json:"comment,omitempty"`
}

// CommentRequest appends a comment.
type CommentRequest struct {
	Content string `json:"content"`
}

// StatsDTO is the dashboard summary for one user.
type StatsDTO struct {
	TotalDocuments     int `json:"total_documents"`
	PendingReview      int `json:"pending_review"`
	ApprovedToday      int `json:"approved_today"`
	OverdueDocuments   int `json:"overdue_documents"`
	MyDocuments        int `json:"my_documents"`
	RecentActivity     int `json:"recent_activity"`
	AwaitingAcceptance int `json:"awaiting_acceptance"`
	InMyPossession     int `json:"in_my_possession"`
}

// NotificationDTO represents a delivered notification.
type NotificationDTO struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	Type           string `json:"type"`
	DocumentID     string `json:"document_id,omitempty"`
	Read           bool   `json:"read"`
	Timestamp      string `json:"timestamp"`
	ActionRequired bool   `json:"action_required"`
}

// ScenarioDTO represents a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toUserDTO(u custody.User) UserDTO {
	return UserDTO{
		ID:    string(u.ID),
		Name:  u.Name,
		Email: u.Email,
		Role:  string(u.Role),
	}
}

func toPossessionDTO(r custody.PossessionRecord) PossessionRecordDTO {
	dto := PossessionRecordDTO{
		ID:             r.ID,
		UserID:         string(r.UserID),
		UserName:       r.UserName,
		PossessionType: string(r.PossessionType),
		ReceivedAt:     r.ReceivedAt.Format(time.RFC3339),
		TransferredTo:  string(r.TransferredTo),
		Location:       r.Location,
		Notes:          r.Notes,
		Status:         string(r.Status),
	}
	if r.AcceptedAt != nil {
		s := r.AcceptedAt.Format(time.RFC3339)
		dto.AcceptedAt = &s
	}
	if r.TransferredAt != nil {
		s := r.TransferredAt.Format(time.RFC3339)
		dto.TransferredAt = &s
	}
	return dto
}

func toDocumentDTO(d *custody.Document) DocumentDTO {
	dto := DocumentDTO{
		ID:                 string(d.ID),
		Title:              d.Title,
		Description:        d.Description,
		Type:               string(d.Type),
		Category:           d.Category,
		Status:             string(d.Status),
		Priority:           string(d.Priority),
		UploadedBy:         string(d.UploadedBy),
		UploadedAt:         d.UploadedAt.Format(time.RFC3339),
		Reviewer:           string(d.Reviewer),
		FileSize:           d.FileSize,
		FileName:           d.FileName,
		Tags:               d.Tags,
		PossessionType:     string(d.PossessionType),
		CurrentPossession:  toPossessionDTO(d.CurrentPossession),
		PossessionHistory:  make([]PossessionRecordDTO, 0, len(d.PossessionHistory)),
		TargetDestination:  string(d.TargetDestination),
		AwaitingAcceptance: d.AwaitingAcceptance,
		Workflow:           make([]WorkflowStepDTO, 0, len(d.Workflow)),
		Comments:           make([]CommentDTO, 0, len(d.Comments)),
	}
	if d.Tags == nil {
		dto.Tags = []string{}
	}
	if d.DueDate != nil {
		s := d.DueDate.Format("2006-01-02")
		dto.DueDate = &s
	}
	for _, r := range d.PossessionHistory {
		dto.PossessionHistory = append(dto.PossessionHistory, toPossessionDTO(r))
	}
	for _, step := range d.Workflow {
		dto.Workflow = append(dto.Workflow, WorkflowStepDTO{
			ID:        step.ID,
			Role:      string(step.Role),
			UserID:    string(step.UserID),
			Action:    string(step.Action),
			Status:    string(step.Status),
			Timestamp: step.Timestamp.Format(time.RFC3339),
			Comment:   step.Comment,
		})
	}
	for _, c := range d.Comments {
		dto.Comments = append(dto.Comments, CommentDTO{
			ID:        c.ID,
			UserID:    string(c.UserID),
			UserName:  c.UserName,
			Content:   c.Content,
			Timestamp: c.Timestamp.Format(time.RFC3339),
			Type:      string(c.Type),
		})
	}
	return dto
}

func toDocumentDTOs(docs []*custody.Document) []DocumentDTO {
	dtos := make([]DocumentDTO, len(docs))
	for i, d := range docs {
		dtos[i] = toDocumentDTO(d)
	}
	return dtos
}

func toNotificationDTO(n custody.Notification) NotificationDTO {
	return NotificationDTO{
		ID:             n.ID,
		UserID:         string(n.UserID),
		Title:          n.Title,
		Message:        n.Message,
		Type:           string(n.Type),
		DocumentID:     string(n.DocumentID),
		Read:           n.Read,
		Timestamp:      n.Timestamp.Format(time.RFC3339),
		ActionRequired: n.ActionRequired,
	}
}

func toStatsDTO(s custody.DashboardStats) StatsDTO {
	return StatsDTO{
		TotalDocuments:     s.TotalDocuments,
		PendingReview:      s.PendingReview,
		ApprovedToday:      s.ApprovedToday,
		OverdueDocuments:   s.OverdueDocuments,
		MyDocuments:        s.MyDocuments,
		RecentActivity:     s.RecentActivity,
		AwaitingAcceptance: s.AwaitingAcceptance,
		InMyPossession:     s.InMyPossession,
	}
}
