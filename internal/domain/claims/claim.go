package claims

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/localcooks/backend/internal/domain/shared"
	"github.com/localcooks/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ClaimStatus represents the status of a damage claim
type ClaimStatus string

const (
	ClaimStatusOpen        ClaimStatus = "OPEN"
	ClaimStatusAccepted    ClaimStatus = "ACCEPTED"
	ClaimStatusDisputed    ClaimStatus = "DISPUTED"
	ClaimStatusUncontested ClaimStatus = "UNCONTESTED"
	ClaimStatusUpheld      ClaimStatus = "UPHELD"
	ClaimStatusDismissed   ClaimStatus = "DISMISSED"
	ClaimStatusWithdrawn   ClaimStatus = "WITHDRAWN"
	ClaimStatusSettled     ClaimStatus = "SETTLED"
)

// IsValid checks if the status is a valid ClaimStatus
func (s ClaimStatus) IsValid() bool {
	switch s {
	case ClaimStatusOpen, ClaimStatusAccepted, ClaimStatusDisputed, ClaimStatusUncontested,
		ClaimStatusUpheld, ClaimStatusDismissed, ClaimStatusWithdrawn, ClaimStatusSettled:
		return true
	}
	return false
}

// String returns the string representation of ClaimStatus
func (s ClaimStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s ClaimStatus) CanTransitionTo(target ClaimStatus) bool {
	switch s {
	case ClaimStatusOpen:
		return target == ClaimStatusAccepted || target == ClaimStatusDisputed ||
			target == ClaimStatusUncontested || target == ClaimStatusWithdrawn
	case ClaimStatusDisputed:
		return target == ClaimStatusUpheld || target == ClaimStatusDismissed ||
			target == ClaimStatusWithdrawn
	case ClaimStatusAccepted, ClaimStatusUncontested, ClaimStatusUpheld:
		return target == ClaimStatusSettled
	case ClaimStatusDismissed, ClaimStatusWithdrawn, ClaimStatusSettled:
		return false // Terminal states
	}
	return false
}

// IsTerminal returns true for states that allow no further transitions
func (s ClaimStatus) IsTerminal() bool {
	switch s {
	case ClaimStatusDismissed, ClaimStatusWithdrawn, ClaimStatusSettled:
		return true
	}
	return false
}

// IsChargeable returns true when the claim's final amount should be
// charged against the chef's saved payment method
func (s ClaimStatus) IsChargeable() bool {
	switch s {
	case ClaimStatusAccepted, ClaimStatusUncontested, ClaimStatusUpheld:
		return true
	}
	return false
}

// ChargeStatus tracks the off-session charge on a chargeable claim
type ChargeStatus string

const (
	ChargeStatusNone      ChargeStatus = "NONE"
	ChargeStatusPending   ChargeStatus = "PENDING"
	ChargeStatusSucceeded ChargeStatus = "SUCCEEDED"
	ChargeStatusFailed    ChargeStatus = "FAILED"
)

// IsValid checks if the status is a valid ChargeStatus
func (s ChargeStatus) IsValid() bool {
	switch s {
	case ChargeStatusNone, ChargeStatusPending, ChargeStatusSucceeded, ChargeStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of ChargeStatus
func (s ChargeStatus) String() string {
	return string(s)
}

// MaxEvidenceSize caps a single evidence upload at 20 MiB.
// Uploads above this size are rejected before a presigned URL is issued.
const MaxEvidenceSize = 20 << 20

// EvidenceFile is one uploaded photo or document supporting a claim.
// Both sides attach evidence: the manager when filing, the chef when
// disputing.
type EvidenceFile struct {
	shared.BaseEntity
	ClaimID     uuid.UUID `gorm:"type:uuid;not null;index"`
	StorageKey  string    `gorm:"type:varchar(512);not null"`
	FileName    string    `gorm:"type:varchar(255);not null"`
	ContentType string    `gorm:"type:varchar(100);not null"`
	Size        int64     `gorm:"not null"`
	UploadedBy  uuid.UUID `gorm:"type:uuid;not null"`
	UploadedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (EvidenceFile) TableName() string {
	return "claim_evidence"
}

func newEvidenceFile(claimID uuid.UUID, storageKey, fileName, contentType string, size int64, uploadedBy uuid.UUID) (*EvidenceFile, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, shared.NewDomainError("INVALID_EVIDENCE", "Evidence file name cannot be empty")
	}
	if len(fileName) > 255 {
		return nil, shared.NewDomainError("INVALID_EVIDENCE", "Evidence file name cannot exceed 255 characters")
	}
	if storageKey == "" {
		return nil, shared.NewDomainError("INVALID_EVIDENCE", "Evidence storage key cannot be empty")
	}
	if contentType == "" {
		return nil, shared.NewDomainError("INVALID_EVIDENCE", "Evidence content type cannot be empty")
	}
	if size <= 0 {
		return nil, shared.NewDomainError("INVALID_EVIDENCE", "Evidence size must be positive")
	}
	if size > MaxEvidenceSize {
		return nil, shared.NewDomainError("EVIDENCE_TOO_LARGE", "Evidence files cannot exceed 20 MiB")
	}
	if uploadedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_EVIDENCE", "Evidence uploader cannot be empty")
	}

	return &EvidenceFile{
		BaseEntity:  shared.NewBaseEntity(),
		ClaimID:     claimID,
		StorageKey:  storageKey,
		FileName:    fileName,
		ContentType: contentType,
		Size:        size,
		UploadedBy:  uploadedBy,
		UploadedAt:  time.Now(),
	}, nil
}

// DamageClaim is the aggregate root for a manager's damage claim against a
// completed booking. The chef gets a response window to accept or dispute;
// silence makes the claim uncontested. Disputes go to an admin. Accepted,
// uncontested, and upheld claims end in an off-session charge for the
// final amount; the charge block tracks that attempt by attempt.
type DamageClaim struct {
	shared.BaseAggregateRoot
	ClaimNumber   string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	BookingID     uuid.UUID `gorm:"type:uuid;not null;index"`
	BookingNumber string    `gorm:"type:varchar(50);not null"`
	LocationID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ManagerID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ChefID        uuid.UUID `gorm:"type:uuid;not null;index"`

	Title       string `gorm:"type:varchar(200);not null"`
	Description string `gorm:"type:text"`

	// Amount is what the manager filed; FinalAmount is what gets charged.
	// They differ only when an admin upholds with a downward adjustment.
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	FinalAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	Status           ClaimStatus `gorm:"type:varchar(20);not null;default:'OPEN'"`
	ResponseDeadline time.Time   `gorm:"not null"`

	ResponseNote string `gorm:"type:varchar(2000)"`
	RespondedAt  *time.Time

	AdjudicatorID    *uuid.UUID `gorm:"type:uuid"`
	AdjudicationNote string     `gorm:"type:varchar(2000)"`
	AdjudicatedAt    *time.Time

	ChargeStatus    ChargeStatus `gorm:"type:varchar(20);not null;default:'NONE'"`
	ChargeID        string       `gorm:"type:varchar(100)"`
	ChargeAttempts  int          `gorm:"not null;default:0"`
	LastChargeError string       `gorm:"type:varchar(500)"`
	ChargedAt       *time.Time

	Evidence []EvidenceFile `gorm:"foreignKey:ClaimID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (DamageClaim) TableName() string {
	return "damage_claims"
}

// NewDamageClaim files a claim against a booking. The caller verifies the
// booking is eligible (completed or past its first approved start, inside
// the filing window) and that no other claim is open on it; maxAmount is
// the configured filing cap. The response deadline starts now.
func NewDamageClaim(claimNumber string, bookingID uuid.UUID, bookingNumber string, locationID, managerID, chefID uuid.UUID, title, description string, amount, maxAmount valueobject.Money, responseWindow time.Duration) (*DamageClaim, error) {
	if claimNumber == "" {
		return nil, shared.NewDomainError("INVALID_CLAIM_NUMBER", "Claim number cannot be empty")
	}
	if len(claimNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_CLAIM_NUMBER", "Claim number cannot exceed 50 characters")
	}
	if bookingID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BOOKING", "Booking ID cannot be empty")
	}
	if bookingNumber == "" {
		return nil, shared.NewDomainError("INVALID_BOOKING", "Booking number cannot be empty")
	}
	if locationID == uuid.Nil || managerID == uuid.Nil || chefID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTY", "Location, manager, and chef IDs are required")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Claim title cannot be empty")
	}
	if len(title) > 200 {
		return nil, shared.NewDomainError("INVALID_TITLE", "Claim title cannot exceed 200 characters")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Claim amount must be positive")
	}
	if over, err := amount.GreaterThan(maxAmount); err != nil {
		return nil, shared.NewDomainError("INVALID_AMOUNT", err.Error())
	} else if over {
		return nil, shared.NewDomainError("AMOUNT_EXCEEDS_CAP", fmt.Sprintf("Claim amount cannot exceed %s", maxAmount.StringFixed(2)))
	}
	if responseWindow <= 0 {
		return nil, shared.NewDomainError("INVALID_WINDOW", "Response window must be positive")
	}

	claim := &DamageClaim{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ClaimNumber:       claimNumber,
		BookingID:         bookingID,
		BookingNumber:     bookingNumber,
		LocationID:        locationID,
		ManagerID:         managerID,
		ChefID:            chefID,
		Title:             title,
		Description:       strings.TrimSpace(description),
		Amount:            amount.Amount(),
		FinalAmount:       decimal.Zero,
		Status:            ClaimStatusOpen,
		ChargeStatus:      ChargeStatusNone,
		Evidence:          make([]EvidenceFile, 0),
	}
	claim.ResponseDeadline = claim.CreatedAt.Add(responseWindow)

	claim.AddDomainEvent(NewClaimFiledEvent(claim))

	return claim, nil
}

// Accept is the chef agreeing to pay the filed amount
func (c *DamageClaim) Accept(note string, now time.Time) error {
	if err := c.guardResponse(now); err != nil {
		return err
	}

	c.Status = ClaimStatusAccepted
	c.FinalAmount = c.Amount
	c.ResponseNote = strings.TrimSpace(note)
	c.RespondedAt = &now
	c.UpdatedAt = now
	c.IncrementVersion()

	c.AddDomainEvent(NewClaimAcceptedEvent(c))

	return nil
}

// Dispute is the chef contesting the claim; the note is their side of it
func (c *DamageClaim) Dispute(note string, now time.Time) error {
	if err := c.guardResponse(now); err != nil {
		return err
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return shared.NewDomainError("NOTE_REQUIRED", "A dispute needs an explanation")
	}
	if len(note) > 2000 {
		return shared.NewDomainError("INVALID_NOTE", "Dispute note cannot exceed 2000 characters")
	}

	c.Status = ClaimStatusDisputed
	c.ResponseNote = note
	c.RespondedAt = &now
	c.UpdatedAt = now
	c.IncrementVersion()

	c.AddDomainEvent(NewClaimDisputedEvent(c))

	return nil
}

// guardResponse enforces that the chef can still respond. A response after
// the deadline conflicts with the sweep that marks claims uncontested.
func (c *DamageClaim) guardResponse(now time.Time) error {
	if c.Status != ClaimStatusOpen {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot respond to a claim in %s status", c.Status))
	}
	if !now.Before(c.ResponseDeadline) {
		return shared.NewDomainError("RESPONSE_DEADLINE_PASSED", "The response window for this claim has closed")
	}
	return nil
}

// MarkUncontested is the sweep closing the response window on a silent
// chef; the filed amount becomes the charge amount
func (c *DamageClaim) MarkUncontested(now time.Time) error {
	if c.Status != ClaimStatusOpen {
		return shared.NewDomainError("INVALID_STATE", "Only an open claim can become uncontested")
	}
	if now.Before(c.ResponseDeadline) {
		return shared.NewDomainError("NOT_EXPIRED", "Response deadline has not passed")
	}

	c.Status = ClaimStatusUncontested
	c.FinalAmount = c.Amount
	c.UpdatedAt = now
	c.IncrementVersion()

	c.AddDomainEvent(NewClaimUncontestedEvent(c))

	return nil
}

// Uphold is the admin siding with the manager, optionally adjusting the
// charge downward. The note is required; it goes to both parties.
func (c *DamageClaim) Uphold(adjudicatorID uuid.UUID, finalAmount valueobject.Money, note string, now time.Time) error {
	if c.Status != ClaimStatusDisputed {
		return shared.NewDomainError("INVALID_STATE", "Only a disputed claim can be adjudicated")
	}
	if adjudicatorID == uuid.Nil {
		return shared.NewDomainError("INVALID_ADJUDICATOR", "Adjudicator ID cannot be empty")
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return shared.NewDomainError("NOTE_REQUIRED", "An adjudication needs an explanation")
	}
	if !finalAmount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Final amount must be positive")
	}
	if over, err := finalAmount.GreaterThan(c.GetAmountMoney()); err != nil {
		return shared.NewDomainError("INVALID_AMOUNT", err.Error())
	} else if over {
		return shared.NewDomainError("AMOUNT_EXCEEDS_FILED", "Final amount cannot exceed the filed amount")
	}

	c.Status = ClaimStatusUpheld
	c.FinalAmount = finalAmount.Amount()
	c.AdjudicatorID = &adjudicatorID
	c.AdjudicationNote = note
	c.AdjudicatedAt = &now
	c.UpdatedAt = now
	c.IncrementVersion()

	c.AddDomainEvent(NewClaimUpheldEvent(c))

	return nil
}

// Dismiss is the admin siding with the chef; nothing is charged
func (c *DamageClaim) Dismiss(adjudicatorID uuid.UUID, note string, now time.Time) error {
	if c.Status != ClaimStatusDisputed {
		return shared.NewDomainError("INVALID_STATE", "Only a disputed claim can be adjudicated")
	}
	if adjudicatorID == uuid.Nil {
		return shared.NewDomainError("INVALID_ADJUDICATOR", "Adjudicator ID cannot be empty")
	}

	c.Status = ClaimStatusDismissed
	c.AdjudicatorID = &adjudicatorID
	c.AdjudicationNote = strings.TrimSpace(note)
	c.AdjudicatedAt = &now
	c.UpdatedAt = now
	c.IncrementVersion()

	c.AddDomainEvent(NewClaimDismissedEvent(c))

	return nil
}

// Withdraw is the manager pulling the claim back. Allowed while open and
// while a dispute is still waiting on the admin.
func (c *DamageClaim) Withdraw(now time.Time) error {
	if !c.Status.CanTransitionTo(ClaimStatusWithdrawn) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot withdraw a claim in %s status", c.Status))
	}

	c.Status = ClaimStatusWithdrawn
	c.UpdatedAt = now
	c.IncrementVersion()

	c.AddDomainEvent(NewClaimWithdrawnEvent(c))

	return nil
}

// AttachEvidence adds an uploaded file to the claim record
func (c *DamageClaim) AttachEvidence(storageKey, fileName, contentType string, size int64, uploadedBy uuid.UUID) (*EvidenceFile, error) {
	if c.Status.IsTerminal() {
		return nil, shared.NewDomainError("CLAIM_CLOSED", "Cannot attach evidence to a closed claim")
	}

	file, err := newEvidenceFile(c.ID, storageKey, fileName, contentType, size, uploadedBy)
	if err != nil {
		return nil, err
	}

	c.Evidence = append(c.Evidence, *file)
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewClaimEvidenceAttachedEvent(c, file))

	return file, nil
}

// BeginCharge reserves a charge attempt before the gateway call. It fails
// once the configured attempt budget is spent; the claim then waits for
// manual follow-up.
func (c *DamageClaim) BeginCharge(maxAttempts int, now time.Time) error {
	if !c.Status.IsChargeable() {
		return shared.NewDomainError("NOT_CHARGEABLE", fmt.Sprintf("Cannot charge a claim in %s status", c.Status))
	}
	if c.ChargeStatus == ChargeStatusPending {
		return shared.NewDomainError("CHARGE_IN_FLIGHT", "A charge is already in flight")
	}
	if c.ChargeStatus == ChargeStatusSucceeded {
		return shared.NewDomainError("ALREADY_CHARGED", "Claim has already been charged")
	}
	if maxAttempts > 0 && c.ChargeAttempts >= maxAttempts {
		return shared.NewDomainError("ATTEMPTS_EXHAUSTED", "Charge attempt budget is spent")
	}
	if !c.FinalAmount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Claim has no final amount to charge")
	}

	c.ChargeStatus = ChargeStatusPending
	c.ChargeAttempts++
	c.UpdatedAt = now
	c.IncrementVersion()

	return nil
}

// RecordChargeSuccess settles the claim after the gateway accepted the
// off-session charge
func (c *DamageClaim) RecordChargeSuccess(chargeID string, now time.Time) error {
	if c.ChargeStatus != ChargeStatusPending {
		return shared.NewDomainError("INVALID_STATE", "No charge in flight to record")
	}
	if chargeID == "" {
		return shared.NewDomainError("INVALID_CHARGE", "Charge ID cannot be empty")
	}

	c.ChargeStatus = ChargeStatusSucceeded
	c.ChargeID = chargeID
	c.ChargedAt = &now
	c.Status = ClaimStatusSettled
	c.UpdatedAt = now
	c.IncrementVersion()

	c.AddDomainEvent(NewClaimSettledEvent(c))

	return nil
}

// RecordChargeFailure books a failed attempt; the claim keeps its
// pre-charge status so the retry sweep can pick it up again
func (c *DamageClaim) RecordChargeFailure(reason string, now time.Time) error {
	if c.ChargeStatus != ChargeStatusPending {
		return shared.NewDomainError("INVALID_STATE", "No charge in flight to record")
	}

	reason = truncateReason(strings.TrimSpace(reason), 500)

	c.ChargeStatus = ChargeStatusFailed
	c.LastChargeError = reason
	c.UpdatedAt = now
	c.IncrementVersion()

	c.AddDomainEvent(NewClaimChargeFailedEvent(c))

	return nil
}

// truncateReason caps a gateway error message at maxBytes without cutting
// a multi-byte character in half
func truncateReason(reason string, maxBytes int) string {
	if len(reason) <= maxBytes {
		return reason
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(reason[cut]) {
		cut--
	}
	return reason[:cut]
}

// CanRespond returns true while the chef may still accept or dispute
func (c *DamageClaim) CanRespond(now time.Time) bool {
	return c.Status == ClaimStatusOpen && now.Before(c.ResponseDeadline)
}

// IsSettled returns true when the charge went through
func (c *DamageClaim) IsSettled() bool {
	return c.Status == ClaimStatusSettled
}

// IsFiledBy returns true if the given manager filed the claim
func (c *DamageClaim) IsFiledBy(managerID uuid.UUID) bool {
	return c.ManagerID == managerID
}

// IsAgainst returns true if the given chef is on the hook for the claim
func (c *DamageClaim) IsAgainst(chefID uuid.UUID) bool {
	return c.ChefID == chefID
}

// GetAmountMoney returns the filed amount as Money value object
func (c *DamageClaim) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(c.Amount)
}

// GetFinalAmountMoney returns the charge amount as Money value object
func (c *DamageClaim) GetFinalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(c.FinalAmount)
}

// GetEvidence returns an evidence file by ID
func (c *DamageClaim) GetEvidence(evidenceID uuid.UUID) (*EvidenceFile, error) {
	for i := range c.Evidence {
		if c.Evidence[i].ID == evidenceID {
			return &c.Evidence[i], nil
		}
	}
	return nil, shared.NewDomainError("EVIDENCE_NOT_FOUND", "Evidence file not found")
}
