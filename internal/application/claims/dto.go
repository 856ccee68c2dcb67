package claims

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/localcooks/backend/internal/domain/claims"
)

// FileClaimRequest is a manager filing a damage claim against a booking
type FileClaimRequest struct {
	BookingID   uuid.UUID       `json:"booking_id" binding:"required"`
	Title       string          `json:"title" binding:"required,min=1,max=200"`
	Description string          `json:"description" binding:"max=5000"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
}

// RespondClaimRequest is the chef's answer: accept the claim or dispute it.
// A dispute needs a note; an acceptance may carry one.
type RespondClaimRequest struct {
	Action string `json:"action" binding:"required,oneof=accept dispute"`
	Note   string `json:"note" binding:"max=2000"`
}

// AdjudicateClaimRequest is the admin's ruling on a disputed claim. Upholding
// may adjust the charged amount downward; FinalAmount empty means charge as
// filed.
type AdjudicateClaimRequest struct {
	Ruling      string           `json:"ruling" binding:"required,oneof=uphold dismiss"`
	FinalAmount *decimal.Decimal `json:"final_amount"`
	Note        string           `json:"note" binding:"max=2000"`
}

// PresignEvidenceRequest asks for an upload slot for a photo or document
type PresignEvidenceRequest struct {
	FileName    string `json:"file_name" binding:"required,min=1,max=255"`
	ContentType string `json:"content_type" binding:"required"`
	Size        int64  `json:"size" binding:"required,min=1"`
}

// PresignEvidenceResponse carries the presigned PUT the client uploads to
type PresignEvidenceResponse struct {
	EvidenceID uuid.UUID `json:"evidence_id"`
	StorageKey string    `json:"storage_key"`
	UploadURL  string    `json:"upload_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ClaimListFilter narrows claim listings
type ClaimListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=OPEN ACCEPTED DISPUTED UNCONTESTED UPHELD DISMISSED WITHDRAWN SETTLED"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// EvidenceResponse represents an evidence file in API responses
type EvidenceResponse struct {
	ID          uuid.UUID `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedBy  uuid.UUID `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
	DownloadURL string    `json:"download_url,omitempty"`
}

// ClaimResponse represents a damage claim in API responses
type ClaimResponse struct {
	ID            uuid.UUID `json:"id"`
	ClaimNumber   string    `json:"claim_number"`
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	LocationID    uuid.UUID `json:"location_id"`
	ManagerID     uuid.UUID `json:"manager_id"`
	ChefID        uuid.UUID `json:"chef_id"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	Amount      decimal.Decimal `json:"amount"`
	FinalAmount decimal.Decimal `json:"final_amount"`

	Status           string    `json:"status"`
	ResponseDeadline time.Time `json:"response_deadline"`

	ResponseNote string     `json:"response_note,omitempty"`
	RespondedAt  *time.Time `json:"responded_at,omitempty"`

	AdjudicatorID    *uuid.UUID `json:"adjudicator_id,omitempty"`
	AdjudicationNote string     `json:"adjudication_note,omitempty"`
	AdjudicatedAt    *time.Time `json:"adjudicated_at,omitempty"`

	ChargeStatus    string     `json:"charge_status"`
	ChargeAttempts  int        `json:"charge_attempts"`
	LastChargeError string     `json:"last_charge_error,omitempty"`
	ChargedAt       *time.Time `json:"charged_at,omitempty"`

	Evidence []EvidenceResponse `json:"evidence"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClaimListResult is a paginated claim list
type ClaimListResult struct {
	Claims     []ClaimResponse `json:"claims"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// ToEvidenceResponse converts an evidence file to its response form
func ToEvidenceResponse(e *claims.EvidenceFile) EvidenceResponse {
	return EvidenceResponse{
		ID:          e.ID,
		FileName:    e.FileName,
		ContentType: e.ContentType,
		Size:        e.Size,
		UploadedBy:  e.UploadedBy,
		UploadedAt:  e.UploadedAt,
	}
}

// ToClaimResponse converts a claim aggregate to its response form
func ToClaimResponse(c *claims.DamageClaim) *ClaimResponse {
	evidence := make([]EvidenceResponse, len(c.Evidence))
	for i := range c.Evidence {
		evidence[i] = ToEvidenceResponse(&c.Evidence[i])
	}

	return &ClaimResponse{
		ID:               c.ID,
		ClaimNumber:      c.ClaimNumber,
		BookingID:        c.BookingID,
		BookingNumber:    c.BookingNumber,
		LocationID:       c.LocationID,
		ManagerID:        c.ManagerID,
		ChefID:           c.ChefID,
		Title:            c.Title,
		Description:      c.Description,
		Amount:           c.Amount,
		FinalAmount:      c.FinalAmount,
		Status:           c.Status.String(),
		ResponseDeadline: c.ResponseDeadline,
		ResponseNote:     c.ResponseNote,
		RespondedAt:      c.RespondedAt,
		AdjudicatorID:    c.AdjudicatorID,
		AdjudicationNote: c.AdjudicationNote,
		AdjudicatedAt:    c.AdjudicatedAt,
		ChargeStatus:     c.ChargeStatus.String(),
		ChargeAttempts:   c.ChargeAttempts,
		LastChargeError:  c.LastChargeError,
		ChargedAt:        c.ChargedAt,
		Evidence:         evidence,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}
