package kitchenapp

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/localcooks/backend/internal/domain/shared"
)

// ApplicationStatus represents the status of a kitchen application
type ApplicationStatus string

const (
	ApplicationStatusSubmitted ApplicationStatus = "SUBMITTED"
	ApplicationStatusInReview  ApplicationStatus = "IN_REVIEW"
	ApplicationStatusApproved  ApplicationStatus = "APPROVED"
	ApplicationStatusRejected  ApplicationStatus = "REJECTED"
	ApplicationStatusWithdrawn ApplicationStatus = "WITHDRAWN"
)

// IsValid checks if the status is a valid ApplicationStatus
func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationStatusSubmitted, ApplicationStatusInReview, ApplicationStatusApproved,
		ApplicationStatusRejected, ApplicationStatusWithdrawn:
		return true
	}
	return false
}

// String returns the string representation of ApplicationStatus
func (s ApplicationStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s ApplicationStatus) CanTransitionTo(target ApplicationStatus) bool {
	switch s {
	case ApplicationStatusSubmitted:
		return target == ApplicationStatusInReview || target == ApplicationStatusWithdrawn
	case ApplicationStatusInReview:
		return target == ApplicationStatusApproved || target == ApplicationStatusRejected ||
			target == ApplicationStatusWithdrawn
	case ApplicationStatusApproved, ApplicationStatusRejected, ApplicationStatusWithdrawn:
		return false // Terminal states
	}
	return false
}

// IsTerminal returns true for states that allow no further transitions
func (s ApplicationStatus) IsTerminal() bool {
	return s == ApplicationStatusApproved || s == ApplicationStatusRejected ||
		s == ApplicationStatusWithdrawn
}

// DocumentStatus tracks an upload from presign to confirmation.
// A document stays PENDING until the client confirms the presigned PUT
// landed; only ACTIVE documents satisfy requirements.
type DocumentStatus string

const (
	DocumentStatusPending DocumentStatus = "PENDING"
	DocumentStatusActive  DocumentStatus = "ACTIVE"
)

// ApplicationDocument is an uploaded file satisfying one of the location's
// requirements. The file itself lives in object storage; this records the key.
type ApplicationDocument struct {
	shared.BaseEntity
	ApplicationID uuid.UUID      `gorm:"type:uuid;not null;index"`
	RequirementID uuid.UUID      `gorm:"type:uuid;not null;index"`
	FileName      string         `gorm:"type:varchar(255);not null"`
	StorageKey    string         `gorm:"type:varchar(512);not null"`
	ContentType   string         `gorm:"type:varchar(100);not null"`
	Size          int64          `gorm:"not null"`
	Status        DocumentStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	UploadedAt    *time.Time
}

// IsActive returns true once the upload has been confirmed
func (d *ApplicationDocument) IsActive() bool {
	return d.Status == DocumentStatusActive
}

// TableName returns the table name for GORM
func (ApplicationDocument) TableName() string {
	return "application_documents"
}

// Uploads above this size are rejected before a presigned URL is issued.
const MaxDocumentSize = 20 << 20 // 20 MiB

// NewApplicationDocument creates a new application document record
func NewApplicationDocument(applicationID, requirementID uuid.UUID, fileName, storageKey, contentType string, size int64) (*ApplicationDocument, error) {
	if requirementID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REQUIREMENT", "Requirement ID cannot be empty")
	}
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, shared.NewDomainError("INVALID_DOCUMENT", "File name cannot be empty")
	}
	if len(fileName) > 255 {
		return nil, shared.NewDomainError("INVALID_DOCUMENT", "File name cannot exceed 255 characters")
	}
	if storageKey == "" {
		return nil, shared.NewDomainError("INVALID_DOCUMENT", "Storage key cannot be empty")
	}
	if contentType == "" {
		return nil, shared.NewDomainError("INVALID_DOCUMENT", "Content type cannot be empty")
	}
	if size <= 0 {
		return nil, shared.NewDomainError("INVALID_DOCUMENT", "Document size must be positive")
	}
	if size > MaxDocumentSize {
		return nil, shared.NewDomainError("DOCUMENT_TOO_LARGE", "Document cannot exceed 20 MiB")
	}

	return &ApplicationDocument{
		BaseEntity:    shared.NewBaseEntity(),
		ApplicationID: applicationID,
		RequirementID: requirementID,
		FileName:      fileName,
		StorageKey:    storageKey,
		ContentType:   contentType,
		Size:          size,
		Status:        DocumentStatusPending,
	}, nil
}

// KitchenApplication is a chef's request to cook at a location.
// An APPROVED application is the gate for booking that location.
type KitchenApplication struct {
	shared.BaseAggregateRoot
	ChefID     uuid.UUID         `gorm:"type:uuid;not null;index:idx_application_chef_location"`
	LocationID uuid.UUID         `gorm:"type:uuid;not null;index:idx_application_chef_location"`
	Message    string            `gorm:"type:text"`
	Status     ApplicationStatus `gorm:"type:varchar(20);not null;default:'SUBMITTED'"`
	ReviewerID *uuid.UUID        `gorm:"type:uuid"`
	ReviewNote string            `gorm:"type:text"`
	DecidedAt  *time.Time

	Documents []ApplicationDocument `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (KitchenApplication) TableName() string {
	return "kitchen_applications"
}

// NewKitchenApplication creates a new application in SUBMITTED status.
// One open application per chef+location is enforced by the application
// layer against the repository before calling this.
func NewKitchenApplication(chefID, locationID uuid.UUID, message string) (*KitchenApplication, error) {
	if chefID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CHEF", "Chef ID cannot be empty")
	}
	if locationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Location ID cannot be empty")
	}
	if len(message) > 2000 {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Message cannot exceed 2000 characters")
	}

	app := &KitchenApplication{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ChefID:            chefID,
		LocationID:        locationID,
		Message:           strings.TrimSpace(message),
		Status:            ApplicationStatusSubmitted,
		Documents:         make([]ApplicationDocument, 0),
	}

	app.AddDomainEvent(NewApplicationSubmittedEvent(app))

	return app, nil
}

// InitiateDocument reserves a PENDING document slot for a presigned upload.
// Only open applications accept documents.
func (a *KitchenApplication) InitiateDocument(requirementID uuid.UUID, fileName, storageKey, contentType string, size int64) (*ApplicationDocument, error) {
	if a.Status.IsTerminal() {
		return nil, shared.NewDomainError("APPLICATION_CLOSED", "Cannot attach documents to a closed application")
	}

	doc, err := NewApplicationDocument(a.ID, requirementID, fileName, storageKey, contentType, size)
	if err != nil {
		return nil, err
	}

	a.Documents = append(a.Documents, *doc)
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	return doc, nil
}

// ConfirmDocument activates a pending document once the upload landed
func (a *KitchenApplication) ConfirmDocument(documentID uuid.UUID) (*ApplicationDocument, error) {
	if a.Status.IsTerminal() {
		return nil, shared.NewDomainError("APPLICATION_CLOSED", "Cannot confirm documents on a closed application")
	}

	for i := range a.Documents {
		if a.Documents[i].ID != documentID {
			continue
		}
		if a.Documents[i].Status == DocumentStatusActive {
			return nil, shared.NewDomainError("DOCUMENT_ALREADY_CONFIRMED", "Document has already been confirmed")
		}

		now := time.Now()
		a.Documents[i].Status = DocumentStatusActive
		a.Documents[i].UploadedAt = &now
		a.Documents[i].UpdatedAt = now
		a.UpdatedAt = now
		a.IncrementVersion()

		doc := &a.Documents[i]
		a.AddDomainEvent(NewApplicationDocumentAttachedEvent(a, doc))

		return doc, nil
	}

	return nil, shared.NewDomainError("DOCUMENT_NOT_FOUND", "Document not found")
}

// RemoveDocument deletes a document record while the application is open
func (a *KitchenApplication) RemoveDocument(documentID uuid.UUID) error {
	if a.Status.IsTerminal() {
		return shared.NewDomainError("APPLICATION_CLOSED", "Cannot remove documents from a closed application")
	}

	for i := range a.Documents {
		if a.Documents[i].ID == documentID {
			a.Documents = append(a.Documents[:i], a.Documents[i+1:]...)
			a.UpdatedAt = time.Now()
			a.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("DOCUMENT_NOT_FOUND", "Document not found")
}

// HasDocumentFor returns true if at least one confirmed document covers
// the requirement. Pending slots whose upload never landed do not count.
func (a *KitchenApplication) HasDocumentFor(requirementID uuid.UUID) bool {
	for i := range a.Documents {
		if a.Documents[i].RequirementID == requirementID && a.Documents[i].IsActive() {
			return true
		}
	}
	return false
}

// StartReview moves the application to IN_REVIEW
func (a *KitchenApplication) StartReview(reviewerID uuid.UUID) error {
	if reviewerID == uuid.Nil {
		return shared.NewDomainError("INVALID_REVIEWER", "Reviewer ID cannot be empty")
	}
	if !a.Status.CanTransitionTo(ApplicationStatusInReview) {
		return shared.NewDomainError("INVALID_STATE", "Only a submitted application can enter review")
	}

	a.Status = ApplicationStatusInReview
	a.ReviewerID = &reviewerID
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	a.AddDomainEvent(NewApplicationReviewStartedEvent(a))

	return nil
}

// Approve closes the application as APPROVED. Every required requirement
// must be covered by an uploaded document; the caller passes the required
// requirement IDs from the location's current requirement set.
func (a *KitchenApplication) Approve(reviewerID uuid.UUID, requiredRequirementIDs []uuid.UUID) error {
	if reviewerID == uuid.Nil {
		return shared.NewDomainError("INVALID_REVIEWER", "Reviewer ID cannot be empty")
	}
	if !a.Status.CanTransitionTo(ApplicationStatusApproved) {
		return shared.NewDomainError("INVALID_STATE", "Only an application in review can be approved")
	}

	for _, reqID := range requiredRequirementIDs {
		if !a.HasDocumentFor(reqID) {
			return shared.NewDomainError("MISSING_DOCUMENTS", "Every required document must be uploaded before approval")
		}
	}

	now := time.Now()
	a.Status = ApplicationStatusApproved
	a.ReviewerID = &reviewerID
	a.DecidedAt = &now
	a.UpdatedAt = now
	a.IncrementVersion()

	a.AddDomainEvent(NewApplicationApprovedEvent(a))

	return nil
}

// Reject closes the application as REJECTED. A note is required so the
// chef knows what to fix before resubmitting.
func (a *KitchenApplication) Reject(reviewerID uuid.UUID, note string) error {
	if reviewerID == uuid.Nil {
		return shared.NewDomainError("INVALID_REVIEWER", "Reviewer ID cannot be empty")
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return shared.NewDomainError("NOTE_REQUIRED", "A rejection note is required")
	}
	if !a.Status.CanTransitionTo(ApplicationStatusRejected) {
		return shared.NewDomainError("INVALID_STATE", "Only an application in review can be rejected")
	}

	now := time.Now()
	a.Status = ApplicationStatusRejected
	a.ReviewerID = &reviewerID
	a.ReviewNote = note
	a.DecidedAt = &now
	a.UpdatedAt = now
	a.IncrementVersion()

	a.AddDomainEvent(NewApplicationRejectedEvent(a))

	return nil
}

// Withdraw closes the application at the chef's request
func (a *KitchenApplication) Withdraw() error {
	if !a.Status.CanTransitionTo(ApplicationStatusWithdrawn) {
		return shared.NewDomainError("INVALID_STATE", "Only an open application can be withdrawn")
	}

	now := time.Now()
	a.Status = ApplicationStatusWithdrawn
	a.DecidedAt = &now
	a.UpdatedAt = now
	a.IncrementVersion()

	a.AddDomainEvent(NewApplicationWithdrawnEvent(a))

	return nil
}

// IsOpen returns true while the application awaits a decision
func (a *KitchenApplication) IsOpen() bool {
	return !a.Status.IsTerminal()
}

// IsApproved returns true if the application was approved
func (a *KitchenApplication) IsApproved() bool {
	return a.Status == ApplicationStatusApproved
}

// GetDocument returns a document by ID
func (a *KitchenApplication) GetDocument(documentID uuid.UUID) (*ApplicationDocument, error) {
	for i := range a.Documents {
		if a.Documents[i].ID == documentID {
			return &a.Documents[i], nil
		}
	}
	return nil, shared.NewDomainError("DOCUMENT_NOT_FOUND", "Document not found")
}
