package claims

import (
	"time"

	"github.com/google/uuid"
	"github.com/localcooks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeDamageClaim = "DamageClaim"

// Event type constants
const (
	EventTypeClaimFiled            = "ClaimFiled"
	EventTypeClaimAccepted         = "ClaimAccepted"
	EventTypeClaimDisputed         = "ClaimDisputed"
	EventTypeClaimUncontested      = "ClaimUncontested"
	EventTypeClaimUpheld           = "ClaimUpheld"
	EventTypeClaimDismissed        = "ClaimDismissed"
	EventTypeClaimWithdrawn        = "ClaimWithdrawn"
	EventTypeClaimSettled          = "ClaimSettled"
	EventTypeClaimChargeFailed     = "ClaimChargeFailed"
	EventTypeClaimEvidenceAttached = "ClaimEvidenceAttached"
)

// claimEventBase carries the fields every claim event snapshots
type claimEventBase struct {
	ClaimID       uuid.UUID `json:"claim_id"`
	ClaimNumber   string    `json:"claim_number"`
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	LocationID    uuid.UUID `json:"location_id"`
	ManagerID     uuid.UUID `json:"manager_id"`
	ChefID        uuid.UUID `json:"chef_id"`
	Title         string    `json:"title"`
}

func snapshotClaim(c *DamageClaim) claimEventBase {
	return claimEventBase{
		ClaimID:       c.ID,
		ClaimNumber:   c.ClaimNumber,
		BookingID:     c.BookingID,
		BookingNumber: c.BookingNumber,
		LocationID:    c.LocationID,
		ManagerID:     c.ManagerID,
		ChefID:        c.ChefID,
		Title:         c.Title,
	}
}

// ClaimFiledEvent is raised when a manager files a damage claim; it feeds
// the chef's notification and starts the response clock
type ClaimFiledEvent struct {
	shared.BaseDomainEvent
	claimEventBase
	Amount           decimal.Decimal `json:"amount"`
	ResponseDeadline time.Time       `json:"response_deadline"`
}

// NewClaimFiledEvent creates a new ClaimFiledEvent
func NewClaimFiledEvent(c *DamageClaim) *ClaimFiledEvent {
	return &ClaimFiledEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeClaimFiled, AggregateTypeDamageClaim, c.ID),
		claimEventBase:   snapshotClaim(c),
		Amount:           c.Amount,
		ResponseDeadline: c.ResponseDeadline,
	}
}

// EventType returns the event type name
func (e *ClaimFiledEvent) EventType() string {
	return EventTypeClaimFiled
}

// ClaimAcceptedEvent is raised when the chef accepts the claim
type ClaimAcceptedEvent struct {
	shared.BaseDomainEvent
	claimEventBase
	FinalAmount decimal.Decimal `json:"final_amount"`
	RespondedAt time.Time       `json:"responded_at"`
}

// NewClaimAcceptedEvent creates a new ClaimAcceptedEvent
func NewClaimAcceptedEvent(c *DamageClaim) *ClaimAcceptedEvent {
	respondedAt := c.UpdatedAt
	if c.RespondedAt != nil {
		respondedAt = *c.RespondedAt
	}
	return &ClaimAcceptedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClaimAccepted, AggregateTypeDamageClaim, c.ID),
		claimEventBase:  snapshotClaim(c),
		FinalAmount:     c.FinalAmount,
		RespondedAt:     respondedAt,
	}
}

// EventType returns the event type name
func (e *ClaimAcceptedEvent) EventType() string {
	return EventTypeClaimAccepted
}

// ClaimDisputedEvent is raised when the chef disputes the claim; admins
// pick disputes up from their adjudication queue
type ClaimDisputedEvent struct {
	shared.BaseDomainEvent
	claimEventBase
	ResponseNote string    `json:"response_note"`
	RespondedAt  time.Time `json:"responded_at"`
}

// NewClaimDisputedEvent creates a new ClaimDisputedEvent
func NewClaimDisputedEvent(c *DamageClaim) *ClaimDisputedEvent {
	respondedAt := c.UpdatedAt
	if c.RespondedAt != nil {
		respondedAt = *c.RespondedAt
	}
	return &ClaimDisputedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClaimDisputed, AggregateTypeDamageClaim, c.ID),
		claimEventBase:  snapshotClaim(c),
		ResponseNote:    c.ResponseNote,
		RespondedAt:     respondedAt,
	}
}

// EventType returns the event type name
func (e *ClaimDisputedEvent) EventType() string {
	return EventTypeClaimDisputed
}

// ClaimUncontestedEvent is raised when the response window closes with no
// chef response; the filed amount will be charged
type ClaimUncontestedEvent struct {
	shared.BaseDomainEvent
	claimEventBase
	FinalAmount      decimal.Decimal `json:"final_amount"`
	ResponseDeadline time.Time       `json:"response_deadline"`
}

// NewClaimUncontestedEvent creates a new ClaimUncontestedEvent
func NewClaimUncontestedEvent(c *DamageClaim) *ClaimUncontestedEvent {
	return &ClaimUncontestedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeClaimUncontested, AggregateTypeDamageClaim, c.ID),
		claimEventBase:   snapshotClaim(c),
		FinalAmount:      c.FinalAmount,
		ResponseDeadline: c.ResponseDeadline,
	}
}

// EventType returns the event type name
func (e *ClaimUncontestedEvent) EventType() string {
	return EventTypeClaimUncontested
}

// ClaimUpheldEvent is raised when an admin upholds a disputed claim
type ClaimUpheldEvent struct {
	shared.BaseDomainEvent
	claimEventBase
	FiledAmount      decimal.Decimal `json:"filed_amount"`
	FinalAmount      decimal.Decimal `json:"final_amount"`
	AdjudicatorID    uuid.UUID       `json:"adjudicator_id"`
	AdjudicationNote string          `json:"adjudication_note"`
}

// NewClaimUpheldEvent creates a new ClaimUpheldEvent
func NewClaimUpheldEvent(c *DamageClaim) *ClaimUpheldEvent {
	adjudicatorID := uuid.Nil
	if c.AdjudicatorID != nil {
		adjudicatorID = *c.AdjudicatorID
	}
	return &ClaimUpheldEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeClaimUpheld, AggregateTypeDamageClaim, c.ID),
		claimEventBase:   snapshotClaim(c),
		FiledAmount:      c.Amount,
		FinalAmount:      c.FinalAmount,
		AdjudicatorID:    adjudicatorID,
		AdjudicationNote: c.AdjudicationNote,
	}
}

// EventType returns the event type name
func (e *ClaimUpheldEvent) EventType() string {
	return EventTypeClaimUpheld
}

// ClaimDismissedEvent is raised when an admin dismisses a disputed claim
type ClaimDismissedEvent struct {
	shared.BaseDomainEvent
	claimEventBase
	AdjudicatorID    uuid.UUID `json:"adjudicator_id"`
	AdjudicationNote string    `json:"adjudication_note"`
}

// NewClaimDismissedEvent creates a new ClaimDismissedEvent
func NewClaimDismissedEvent(c *DamageClaim) *ClaimDismissedEvent {
	adjudicatorID := uuid.Nil
	if c.AdjudicatorID != nil {
		adjudicatorID = *c.AdjudicatorID
	}
	return &ClaimDismissedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeClaimDismissed, AggregateTypeDamageClaim, c.ID),
		claimEventBase:   snapshotClaim(c),
		AdjudicatorID:    adjudicatorID,
		AdjudicationNote: c.AdjudicationNote,
	}
}

// EventType returns the event type name
func (e *ClaimDismissedEvent) EventType() string {
	return EventTypeClaimDismissed
}

// ClaimWithdrawnEvent is raised when the manager withdraws the claim
type ClaimWithdrawnEvent struct {
	shared.BaseDomainEvent
	claimEventBase
}

// NewClaimWithdrawnEvent creates a new ClaimWithdrawnEvent
func NewClaimWithdrawnEvent(c *DamageClaim) *ClaimWithdrawnEvent {
	return &ClaimWithdrawnEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClaimWithdrawn, AggregateTypeDamageClaim, c.ID),
		claimEventBase:  snapshotClaim(c),
	}
}

// EventType returns the event type name
func (e *ClaimWithdrawnEvent) EventType() string {
	return EventTypeClaimWithdrawn
}

// ClaimSettledEvent is raised when the off-session charge succeeds
type ClaimSettledEvent struct {
	shared.BaseDomainEvent
	claimEventBase
	FinalAmount decimal.Decimal `json:"final_amount"`
	ChargeID    string          `json:"charge_id"`
	ChargedAt   time.Time       `json:"charged_at"`
}

// NewClaimSettledEvent creates a new ClaimSettledEvent
func NewClaimSettledEvent(c *DamageClaim) *ClaimSettledEvent {
	chargedAt := c.UpdatedAt
	if c.ChargedAt != nil {
		chargedAt = *c.ChargedAt
	}
	return &ClaimSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClaimSettled, AggregateTypeDamageClaim, c.ID),
		claimEventBase:  snapshotClaim(c),
		FinalAmount:     c.FinalAmount,
		ChargeID:        c.ChargeID,
		ChargedAt:       chargedAt,
	}
}

// EventType returns the event type name
func (e *ClaimSettledEvent) EventType() string {
	return EventTypeClaimSettled
}

// ClaimChargeFailedEvent is raised when a charge attempt fails; the retry
// sweep and the ops alerting both consume it
type ClaimChargeFailedEvent struct {
	shared.BaseDomainEvent
	claimEventBase
	FinalAmount     decimal.Decimal `json:"final_amount"`
	ChargeAttempts  int             `json:"charge_attempts"`
	LastChargeError string          `json:"last_charge_error"`
}

// NewClaimChargeFailedEvent creates a new ClaimChargeFailedEvent
func NewClaimChargeFailedEvent(c *DamageClaim) *ClaimChargeFailedEvent {
	return &ClaimChargeFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClaimChargeFailed, AggregateTypeDamageClaim, c.ID),
		claimEventBase:  snapshotClaim(c),
		FinalAmount:     c.FinalAmount,
		ChargeAttempts:  c.ChargeAttempts,
		LastChargeError: c.LastChargeError,
	}
}

// EventType returns the event type name
func (e *ClaimChargeFailedEvent) EventType() string {
	return EventTypeClaimChargeFailed
}

// ClaimEvidenceAttachedEvent is raised when either side uploads evidence
type ClaimEvidenceAttachedEvent struct {
	shared.BaseDomainEvent
	claimEventBase
	EvidenceID uuid.UUID `json:"evidence_id"`
	FileName   string    `json:"file_name"`
	UploadedBy uuid.UUID `json:"uploaded_by"`
}

// NewClaimEvidenceAttachedEvent creates a new ClaimEvidenceAttachedEvent
func NewClaimEvidenceAttachedEvent(c *DamageClaim, file *EvidenceFile) *ClaimEvidenceAttachedEvent {
	return &ClaimEvidenceAttachedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClaimEvidenceAttached, AggregateTypeDamageClaim, c.ID),
		claimEventBase:  snapshotClaim(c),
		EvidenceID:      file.ID,
		FileName:        file.FileName,
		UploadedBy:      file.UploadedBy,
	}
}

// EventType returns the event type name
func (e *ClaimEvidenceAttachedEvent) EventType() string {
	return EventTypeClaimEvidenceAttached
}
