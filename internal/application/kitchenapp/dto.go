package kitchenapp

import (
	"time"

	"github.com/google/uuid"

	"github.com/localcooks/backend/internal/domain/kitchenapp"
)

// ApplyRequest represents a chef's request to cook at a location
type ApplyRequest struct {
	LocationID uuid.UUID `json:"location_id" binding:"required"`
	Message    string    `json:"message" binding:"max=2000"`
}

// PresignDocumentRequest asks for an upload slot against a requirement
type PresignDocumentRequest struct {
	RequirementID uuid.UUID `json:"requirement_id" binding:"required"`
	FileName      string    `json:"file_name" binding:"required,min=1,max=255"`
	ContentType   string    `json:"content_type" binding:"required"`
	Size          int64     `json:"size" binding:"required,min=1"`
}

// PresignDocumentResponse carries the presigned PUT the client uploads to
type PresignDocumentResponse struct {
	DocumentID uuid.UUID `json:"document_id"`
	StorageKey string    `json:"storage_key"`
	UploadURL  string    `json:"upload_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// RejectRequest carries the mandatory rejection note
type RejectRequest struct {
	Note string `json:"note" binding:"required,min=1,max=2000"`
}

// ReviewListFilter narrows the manager and admin application queues
type ReviewListFilter struct {
	Status     string     `form:"status" binding:"omitempty,oneof=SUBMITTED IN_REVIEW APPROVED REJECTED WITHDRAWN"`
	LocationID *uuid.UUID `form:"location_id"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// DocumentResponse represents an uploaded document in API responses
type DocumentResponse struct {
	ID            uuid.UUID  `json:"id"`
	RequirementID uuid.UUID  `json:"requirement_id"`
	FileName      string     `json:"file_name"`
	ContentType   string     `json:"content_type"`
	Size          int64      `json:"size"`
	Status        string     `json:"status"`
	UploadedAt    *time.Time `json:"uploaded_at,omitempty"`
	DownloadURL   string     `json:"download_url,omitempty"`
}

// ApplicationResponse represents an application in API responses
type ApplicationResponse struct {
	ID         uuid.UUID          `json:"id"`
	ChefID     uuid.UUID          `json:"chef_id"`
	LocationID uuid.UUID          `json:"location_id"`
	Message    string             `json:"message"`
	Status     string             `json:"status"`
	ReviewerID *uuid.UUID         `json:"reviewer_id,omitempty"`
	ReviewNote string             `json:"review_note,omitempty"`
	DecidedAt  *time.Time         `json:"decided_at,omitempty"`
	Documents  []DocumentResponse `json:"documents"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// ApplicationListResult is a paginated application list
type ApplicationListResult struct {
	Applications []ApplicationResponse `json:"applications"`
	Total        int64                 `json:"total"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"page_size"`
	TotalPages   int                   `json:"total_pages"`
}

// ToDocumentResponse converts a domain document to its response shape
func ToDocumentResponse(doc *kitchenapp.ApplicationDocument) DocumentResponse {
	return DocumentResponse{
		ID:            doc.ID,
		RequirementID: doc.RequirementID,
		FileName:      doc.FileName,
		ContentType:   doc.ContentType,
		Size:          doc.Size,
		Status:        string(doc.Status),
		UploadedAt:    doc.UploadedAt,
	}
}

// ToApplicationResponse converts a domain application to its response shape
func ToApplicationResponse(app *kitchenapp.KitchenApplication) ApplicationResponse {
	documents := make([]DocumentResponse, len(app.Documents))
	for i := range app.Documents {
		documents[i] = ToDocumentResponse(&app.Documents[i])
	}

	return ApplicationResponse{
		ID:         app.ID,
		ChefID:     app.ChefID,
		LocationID: app.LocationID,
		Message:    app.Message,
		Status:     app.Status.String(),
		ReviewerID: app.ReviewerID,
		ReviewNote: app.ReviewNote,
		DecidedAt:  app.DecidedAt,
		Documents:  documents,
		CreatedAt:  app.CreatedAt,
		UpdatedAt:  app.UpdatedAt,
	}
}
