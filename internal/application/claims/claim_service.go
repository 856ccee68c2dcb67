package claims

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/localcooks/backend/internal/domain/booking"
	"github.com/localcooks/backend/internal/domain/claims"
	"github.com/localcooks/backend/internal/domain/identity"
	"github.com/localcooks/backend/internal/domain/location"
	"github.com/localcooks/backend/internal/domain/payment"
	"github.com/localcooks/backend/internal/domain/shared"
	"github.com/localcooks/backend/internal/domain/shared/valueobject"
)

// AllowedEvidenceContentTypes is the whitelist for evidence uploads.
// SVG is excluded because it can carry scripts.
var AllowedEvidenceContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// ObjectStorage is the slice of object storage this package needs
type ObjectStorage interface {
	// GenerateUploadURL returns a presigned PUT for the given key
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)

	// GenerateDownloadURL returns a presigned GET for the given key
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

const defaultSweepBatch = 50

// ClaimServiceConfig holds the filing, response, and charge policies
type ClaimServiceConfig struct {
	// FileWindowDays is how long after booking completion a claim may be filed
	FileWindowDays int
	// ResponseWindowDays is how long the chef has to accept or dispute
	ResponseWindowDays int
	// MaxClaimAmount caps what a manager can file
	MaxClaimAmount valueobject.Money
	// MaxChargeAttempts caps off-session charge retries; 0 means unlimited
	MaxChargeAttempts int

	UploadURLExpiry   time.Duration
	DownloadURLExpiry time.Duration
}

// DefaultClaimServiceConfig returns the default configuration
func DefaultClaimServiceConfig() ClaimServiceConfig {
	return ClaimServiceConfig{
		FileWindowDays:     14,
		ResponseWindowDays: 7,
		MaxClaimAmount:     valueobject.NewMoneyUSDFromFloat(5000),
		MaxChargeAttempts:  3,
		UploadURLExpiry:    15 * time.Minute,
		DownloadURLExpiry:  1 * time.Hour,
	}
}

// ClaimService runs the damage-claim workflow: a manager files against a
// started or completed booking, the chef accepts or disputes inside the
// response window, silence makes the claim uncontested, disputes go to an
// admin, and every chargeable outcome ends in an off-session charge on the
// chef's saved card.
type ClaimService struct {
	claimRepo      claims.ClaimRepository
	bookingRepo    booking.BookingRepository
	locationRepo   location.LocationRepository
	userRepo       identity.UserRepository
	gateway        payment.Gateway
	storage        ObjectStorage
	txManager      shared.TxManager
	config         ClaimServiceConfig
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewClaimService creates a new claim service
func NewClaimService(
	claimRepo claims.ClaimRepository,
	bookingRepo booking.BookingRepository,
	locationRepo location.LocationRepository,
	userRepo identity.UserRepository,
	gateway payment.Gateway,
	storage ObjectStorage,
	txManager shared.TxManager,
	logger *zap.Logger,
) *ClaimService {
	return &ClaimService{
		claimRepo:    claimRepo,
		bookingRepo:  bookingRepo,
		locationRepo: locationRepo,
		userRepo:     userRepo,
		gateway:      gateway,
		storage:      storage,
		txManager:    txManager,
		config:       DefaultClaimServiceConfig(),
		logger:       logger,
	}
}

// SetConfig sets the service configuration
func (s *ClaimService) SetConfig(config ClaimServiceConfig) {
	if config.FileWindowDays <= 0 {
		config.FileWindowDays = DefaultClaimServiceConfig().FileWindowDays
	}
	if config.ResponseWindowDays <= 0 {
		config.ResponseWindowDays = DefaultClaimServiceConfig().ResponseWindowDays
	}
	if !config.MaxClaimAmount.IsPositive() {
		config.MaxClaimAmount = DefaultClaimServiceConfig().MaxClaimAmount
	}
	if config.UploadURLExpiry <= 0 {
		config.UploadURLExpiry = DefaultClaimServiceConfig().UploadURLExpiry
	}
	if config.DownloadURLExpiry <= 0 {
		config.DownloadURLExpiry = DefaultClaimServiceConfig().DownloadURLExpiry
	}
	s.config = config
}

// SetEventPublisher sets the publisher that fans out domain events to
// notification handlers and the live feed
func (s *ClaimService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvents drains the aggregate's pending events onto the bus. Event
// delivery is asynchronous; a publish failure never fails the operation.
func (s *ClaimService) publishEvents(ctx context.Context, agg shared.AggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	events := agg.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish domain events", zap.Error(err))
	}
	agg.ClearDomainEvents()
}

// File opens a damage claim against a booking. The booking must have
// started or completed, the filing window must still be open, and no other
// claim may be live on the same booking.
func (s *ClaimService) File(ctx context.Context, actor identity.Actor, req *FileClaimRequest) (*ClaimResponse, error) {
	b, err := s.bookingRepo.FindByID(ctx, req.BookingID)
	if err != nil {
		return nil, shared.NewDomainError("BOOKING_NOT_FOUND", "Booking not found")
	}

	loc, err := s.locationRepo.FindByID(ctx, b.LocationID)
	if err != nil {
		return nil, shared.NewDomainError("LOCATION_NOT_FOUND", "Location not found")
	}
	if !loc.IsOwnedBy(actor.ID) && !actor.IsAdmin() {
		return nil, shared.NewDomainError("FORBIDDEN", "You do not manage this location")
	}

	now := time.Now()
	if err := s.checkClaimable(b, now); err != nil {
		return nil, err
	}

	active, err := s.claimRepo.FindActiveByBookingID(ctx, b.ID)
	if err != nil {
		s.logger.Error("Failed to check active claims", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check existing claims")
	}
	if active != nil {
		return nil, shared.NewDomainError("CLAIM_ALREADY_OPEN",
			fmt.Sprintf("Claim %s is already live on this booking", active.ClaimNumber))
	}

	claimNumber, err := s.claimRepo.GenerateClaimNumber(ctx)
	if err != nil {
		s.logger.Error("Failed to generate claim number", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate claim number")
	}

	responseWindow := time.Duration(s.config.ResponseWindowDays) * 24 * time.Hour
	claim, err := claims.NewDamageClaim(
		claimNumber,
		b.ID,
		b.BookingNumber,
		b.LocationID,
		loc.ManagerID,
		b.ChefID,
		req.Title,
		req.Description,
		valueobject.NewMoneyUSD(req.Amount),
		s.config.MaxClaimAmount,
		responseWindow,
	)
	if err != nil {
		return nil, err
	}

	if err := s.claimRepo.Create(ctx, claim); err != nil {
		s.logger.Error("Failed to create claim", zap.Error(err))
		return nil, fmt.Errorf("failed to create claim: %w", err)
	}

	s.publishEvents(ctx, claim)

	s.logger.Info("Damage claim filed",
		zap.String("claim_number", claim.ClaimNumber),
		zap.String("booking_number", claim.BookingNumber),
		zap.String("amount", claim.Amount.StringFixed(2)))

	return ToClaimResponse(claim), nil
}

// GetForChef returns a claim to the chef it was filed against
func (s *ClaimService) GetForChef(ctx context.Context, actor identity.Actor, claimID uuid.UUID) (*ClaimResponse, error) {
	claim, err := s.claimRepo.FindByID(ctx, claimID)
	if err != nil {
		return nil, shared.NewDomainError("CLAIM_NOT_FOUND", "Claim not found")
	}
	if !claim.IsAgainst(actor.ID) && !actor.IsAdmin() {
		return nil, shared.NewDomainError("FORBIDDEN", "You can only view claims filed against you")
	}

	resp := ToClaimResponse(claim)
	s.attachDownloadURLs(ctx, claim, resp)
	return resp, nil
}

// GetForManager returns a claim to the manager who filed it
func (s *ClaimService) GetForManager(ctx context.Context, actor identity.Actor, claimID uuid.UUID) (*ClaimResponse, error) {
	claim, err := s.claimRepo.FindByID(ctx, claimID)
	if err != nil {
		return nil, shared.NewDomainError("CLAIM_NOT_FOUND", "Claim not found")
	}
	if !claim.IsFiledBy(actor.ID) && !actor.IsAdmin() {
		return nil, shared.NewDomainError("FORBIDDEN", "You can only view claims you filed")
	}

	resp := ToClaimResponse(claim)
	s.attachDownloadURLs(ctx, claim, resp)
	return resp, nil
}

// ListForChef returns claims filed against the chef
func (s *ClaimService) ListForChef(ctx context.Context, actor identity.Actor, filter *ClaimListFilter) (*ClaimListResult, error) {
	f := s.buildClaimFilter(filter)
	list, total, err := s.claimRepo.FindByChefID(ctx, actor.ID, f)
	if err != nil {
		s.logger.Error("Failed to list claims", zap.Error(err))
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	return buildClaimListResult(list, total, f), nil
}

// ListForManager returns claims the manager filed
func (s *ClaimService) ListForManager(ctx context.Context, actor identity.Actor, filter *ClaimListFilter) (*ClaimListResult, error) {
	f := s.buildClaimFilter(filter)
	list, total, err := s.claimRepo.FindByManagerID(ctx, actor.ID, f)
	if err != nil {
		s.logger.Error("Failed to list claims", zap.Error(err))
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	return buildClaimListResult(list, total, f), nil
}

// ListAll returns claims across the platform for the admin queue
func (s *ClaimService) ListAll(ctx context.Context, actor identity.Actor, filter *ClaimListFilter) (*ClaimListResult, error) {
	if !actor.IsAdmin() {
		return nil, shared.NewDomainError("FORBIDDEN", "Only admins can view the claim queue")
	}
	f := s.buildClaimFilter(filter)
	list, total, err := s.claimRepo.FindAll(ctx, f)
	if err != nil {
		s.logger.Error("Failed to list claims", zap.Error(err))
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	return buildClaimListResult(list, total, f), nil
}

// Respond records the chef's answer. Accepting locks the filed amount in
// and triggers the charge; disputing sends the claim to the admin queue.
func (s *ClaimService) Respond(ctx context.Context, actor identity.Actor, claimID uuid.UUID, req *RespondClaimRequest) (*ClaimResponse, error) {
	var resp *ClaimResponse
	var responded *claims.DamageClaim
	accepted := false

	err := s.txManager.InTx(ctx, func(ctx context.Context) error {
		claim, err := s.claimRepo.FindByIDForUpdate(ctx, claimID)
		if err != nil {
			return shared.NewDomainError("CLAIM_NOT_FOUND", "Claim not found")
		}
		if !claim.IsAgainst(actor.ID) {
			return shared.NewDomainError("FORBIDDEN", "You can only respond to claims filed against you")
		}

		now := time.Now()
		switch req.Action {
		case "accept":
			if err := claim.Accept(req.Note, now); err != nil {
				return err
			}
			accepted = true
		case "dispute":
			if err := claim.Dispute(req.Note, now); err != nil {
				return err
			}
		default:
			return shared.NewDomainError("INVALID_ACTION", "Action must be accept or dispute")
		}

		if err := s.claimRepo.Update(ctx, claim); err != nil {
			return fmt.Errorf("failed to update claim: %w", err)
		}

		s.logger.Info("Chef responded to claim",
			zap.String("claim_number", claim.ClaimNumber),
			zap.String("action", req.Action))

		resp = ToClaimResponse(claim)
		responded = claim
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, responded)

	// The acceptance stands whether or not the charge goes through; a
	// failed charge is retried by the scheduler.
	if accepted {
		if charged, err := s.attemptCharge(ctx, claimID); err == nil && charged != nil {
			resp = ToClaimResponse(charged)
		}
	}

	return resp, nil
}

// Adjudicate records the admin's ruling on a disputed claim
func (s *ClaimService) Adjudicate(ctx context.Context, actor identity.Actor, claimID uuid.UUID, req *AdjudicateClaimRequest) (*ClaimResponse, error) {
	if !actor.IsAdmin() {
		return nil, shared.NewDomainError("FORBIDDEN", "Only admins can adjudicate claims")
	}

	var resp *ClaimResponse
	var ruled *claims.DamageClaim
	upheld := false

	err := s.txManager.InTx(ctx, func(ctx context.Context) error {
		claim, err := s.claimRepo.FindByIDForUpdate(ctx, claimID)
		if err != nil {
			return shared.NewDomainError("CLAIM_NOT_FOUND", "Claim not found")
		}

		now := time.Now()
		switch req.Ruling {
		case "uphold":
			finalAmount := claim.GetAmountMoney()
			if req.FinalAmount != nil {
				finalAmount = valueobject.NewMoneyUSD(*req.FinalAmount)
			}
			if err := claim.Uphold(actor.ID, finalAmount, req.Note, now); err != nil {
				return err
			}
			upheld = true
		case "dismiss":
			if err := claim.Dismiss(actor.ID, req.Note, now); err != nil {
				return err
			}
		default:
			return shared.NewDomainError("INVALID_RULING", "Ruling must be uphold or dismiss")
		}

		if err := s.claimRepo.Update(ctx, claim); err != nil {
			return fmt.Errorf("failed to update claim: %w", err)
		}

		s.logger.Info("Claim adjudicated",
			zap.String("claim_number", claim.ClaimNumber),
			zap.String("ruling", req.Ruling),
			zap.String("final_amount", claim.FinalAmount.StringFixed(2)))

		resp = ToClaimResponse(claim)
		ruled = claim
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, ruled)

	if upheld {
		if charged, err := s.attemptCharge(ctx, claimID); err == nil && charged != nil {
			resp = ToClaimResponse(charged)
		}
	}

	return resp, nil
}

// Withdraw pulls a claim back before it has been ruled on
func (s *ClaimService) Withdraw(ctx context.Context, actor identity.Actor, claimID uuid.UUID) (*ClaimResponse, error) {
	var resp *ClaimResponse
	var withdrawn *claims.DamageClaim

	err := s.txManager.InTx(ctx, func(ctx context.Context) error {
		claim, err := s.claimRepo.FindByIDForUpdate(ctx, claimID)
		if err != nil {
			return shared.NewDomainError("CLAIM_NOT_FOUND", "Claim not found")
		}
		if !claim.IsFiledBy(actor.ID) && !actor.IsAdmin() {
			return shared.NewDomainError("FORBIDDEN", "You can only withdraw claims you filed")
		}

		if err := claim.Withdraw(time.Now()); err != nil {
			return err
		}

		if err := s.claimRepo.Update(ctx, claim); err != nil {
			return fmt.Errorf("failed to update claim: %w", err)
		}

		s.logger.Info("Claim withdrawn", zap.String("claim_number", claim.ClaimNumber))

		resp = ToClaimResponse(claim)
		withdrawn = claim
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, withdrawn)
	return resp, nil
}

// PresignEvidence records an evidence file on the claim and returns the
// presigned PUT for the actual upload. Both parties may attach evidence
// while the claim is live.
func (s *ClaimService) PresignEvidence(ctx context.Context, actor identity.Actor, claimID uuid.UUID, req *PresignEvidenceRequest) (*PresignEvidenceResponse, error) {
	claim, err := s.claimRepo.FindByID(ctx, claimID)
	if err != nil {
		return nil, shared.NewDomainError("CLAIM_NOT_FOUND", "Claim not found")
	}
	if !claim.IsFiledBy(actor.ID) && !claim.IsAgainst(actor.ID) && !actor.IsAdmin() {
		return nil, shared.NewDomainError("FORBIDDEN", "Only the parties to a claim can attach evidence")
	}

	if !AllowedEvidenceContentTypes[strings.ToLower(req.ContentType)] {
		return nil, shared.NewDomainError("DISALLOWED_CONTENT_TYPE",
			fmt.Sprintf("Content type '%s' is not allowed. Allowed types: JPEG, PNG, WebP, and PDF", req.ContentType))
	}

	storageKey := evidenceStorageKey(claim.ID, req.FileName)

	file, err := claim.AttachEvidence(storageKey, req.FileName, req.ContentType, req.Size, actor.ID)
	if err != nil {
		return nil, err
	}

	if err := s.claimRepo.Update(ctx, claim); err != nil {
		return nil, fmt.Errorf("failed to save evidence record: %w", err)
	}

	uploadURL, expiresAt, err := s.storage.GenerateUploadURL(ctx, storageKey, req.ContentType, s.config.UploadURLExpiry)
	if err != nil {
		s.logger.Error("Failed to presign evidence upload", zap.Error(err))
		return nil, shared.NewDomainError("UPLOAD_URL_FAILED", "Failed to generate upload URL")
	}

	return &PresignEvidenceResponse{
		EvidenceID: file.ID,
		StorageKey: storageKey,
		UploadURL:  uploadURL,
		ExpiresAt:  expiresAt,
	}, nil
}

// SweepResponseDeadlines closes the response window on silent chefs. Each
// claim flips to UNCONTESTED in its own transaction and is then charged.
func (s *ClaimService) SweepResponseDeadlines(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = defaultSweepBatch
	}

	candidates, err := s.claimRepo.FindOpenPastDeadline(ctx, time.Now(), batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to scan overdue claims: %w", err)
	}

	marked := 0
	for _, candidate := range candidates {
		var flipped *claims.DamageClaim
		err := s.txManager.InTx(ctx, func(ctx context.Context) error {
			claim, err := s.claimRepo.FindByIDForUpdate(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if claim.Status != claims.ClaimStatusOpen {
				// Responded or withdrawn between the scan and the lock.
				return nil
			}
			if err := claim.MarkUncontested(time.Now()); err != nil {
				return err
			}
			if err := s.claimRepo.Update(ctx, claim); err != nil {
				return err
			}
			flipped = claim
			return nil
		})
		if err != nil {
			s.logger.Error("Failed to mark claim uncontested",
				zap.String("claim_id", candidate.ID.String()),
				zap.Error(err))
			continue
		}
		if flipped == nil {
			continue
		}
		s.publishEvents(ctx, flipped)
		marked++
		if _, err := s.attemptCharge(ctx, candidate.ID); err != nil {
			s.logger.Error("Failed to charge uncontested claim",
				zap.String("claim_id", candidate.ID.String()),
				zap.Error(err))
		}
	}

	if marked > 0 {
		s.logger.Info("Marked overdue claims uncontested", zap.Int("count", marked))
	}
	return marked, nil
}

// RetryFailedCharges retries off-session charges that failed, up to the
// attempt budget. Returns how many claims settled this pass.
func (s *ClaimService) RetryFailedCharges(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = defaultSweepBatch
	}

	candidates, err := s.claimRepo.FindRetryableCharges(ctx, s.config.MaxChargeAttempts, batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to scan retryable charges: %w", err)
	}

	settled := 0
	for _, candidate := range candidates {
		claim, err := s.attemptCharge(ctx, candidate.ID)
		if err != nil {
			s.logger.Error("Failed to retry claim charge",
				zap.String("claim_id", candidate.ID.String()),
				zap.Error(err))
			continue
		}
		if claim != nil && claim.IsSettled() {
			settled++
		}
	}

	if settled > 0 {
		s.logger.Info("Settled claims on retry", zap.Int("count", settled))
	}
	return settled, nil
}

// attemptCharge runs one off-session charge attempt under a row lock.
// Gateway declines are recorded on the claim rather than returned; only
// repository failures surface as errors. The gateway idempotency key is the
// claim number plus the attempt counter, so a replay of the same attempt
// cannot double-charge while a fresh retry after a decline gets a new key.
func (s *ClaimService) attemptCharge(ctx context.Context, claimID uuid.UUID) (*claims.DamageClaim, error) {
	var out *claims.DamageClaim

	err := s.txManager.InTx(ctx, func(ctx context.Context) error {
		claim, err := s.claimRepo.FindByIDForUpdate(ctx, claimID)
		if err != nil {
			return err
		}
		out = claim

		now := time.Now()
		if err := claim.BeginCharge(s.config.MaxChargeAttempts, now); err != nil {
			// In-flight, already charged, or attempts exhausted; nothing
			// to do this pass.
			s.logger.Warn("Skipping claim charge",
				zap.String("claim_number", claim.ClaimNumber),
				zap.Error(err))
			return nil
		}

		chef, err := s.userRepo.FindByID(ctx, claim.ChefID)
		if err != nil || chef.StripeCustomerID == "" || chef.DefaultPaymentMethodID == "" {
			if err := claim.RecordChargeFailure("No saved payment method to charge", now); err != nil {
				return err
			}
			s.logger.Warn("Claim charge has no payment method",
				zap.String("claim_number", claim.ClaimNumber))
			return s.claimRepo.Update(ctx, claim)
		}

		result, err := s.gateway.ChargeOffSession(ctx, payment.ChargeRequest{
			CustomerID:      chef.StripeCustomerID,
			PaymentMethodID: chef.DefaultPaymentMethodID,
			Amount:          claim.GetFinalAmountMoney(),
			Description:     fmt.Sprintf("Damage claim %s for booking %s", claim.ClaimNumber, claim.BookingNumber),
			IdempotencyKey:  fmt.Sprintf("%s-%d", claim.ClaimNumber, claim.ChargeAttempts),
			Metadata: map[string]string{
				"claim_id":     claim.ID.String(),
				"claim_number": claim.ClaimNumber,
				"booking_id":   claim.BookingID.String(),
			},
		})
		if err != nil {
			if recordErr := claim.RecordChargeFailure(err.Error(), now); recordErr != nil {
				return recordErr
			}
			s.logger.Warn("Claim charge failed",
				zap.String("claim_number", claim.ClaimNumber),
				zap.Int("attempt", claim.ChargeAttempts),
				zap.Error(err))
			return s.claimRepo.Update(ctx, claim)
		}

		switch result.Outcome {
		case payment.ChargeOutcomeSucceeded:
			if err := claim.RecordChargeSuccess(result.ChargeID, now); err != nil {
				return err
			}
			s.logger.Info("Claim charged",
				zap.String("claim_number", claim.ClaimNumber),
				zap.String("charge_id", result.ChargeID),
				zap.String("amount", claim.FinalAmount.StringFixed(2)))
		case payment.ChargeOutcomePending:
			// The charge stays PENDING until the gateway webhook reports
			// the outcome.
			s.logger.Info("Claim charge pending at gateway",
				zap.String("claim_number", claim.ClaimNumber),
				zap.String("charge_id", result.ChargeID))
		default:
			reason := result.FailureMessage
			if reason == "" {
				reason = result.FailureCode
			}
			if err := claim.RecordChargeFailure(reason, now); err != nil {
				return err
			}
			s.logger.Warn("Claim charge declined",
				zap.String("claim_number", claim.ClaimNumber),
				zap.Int("attempt", claim.ChargeAttempts),
				zap.String("failure_code", result.FailureCode))
		}

		return s.claimRepo.Update(ctx, claim)
	})
	if err != nil {
		return nil, err
	}

	if out != nil {
		s.publishEvents(ctx, out)
	}
	return out, nil
}

// checkClaimable enforces booking eligibility: completed, or approved and
// past the first approved start. Completed bookings also respect the
// filing window.
func (s *ClaimService) checkClaimable(b *booking.Booking, now time.Time) error {
	switch b.Status {
	case booking.BookingStatusCompleted:
		if b.CompletedAt != nil {
			windowEnd := b.CompletedAt.Add(time.Duration(s.config.FileWindowDays) * 24 * time.Hour)
			if now.After(windowEnd) {
				return shared.NewDomainError("CLAIM_WINDOW_CLOSED",
					fmt.Sprintf("Claims must be filed within %d days of completion", s.config.FileWindowDays))
			}
		}
		return nil
	case booking.BookingStatusApproved, booking.BookingStatusPartiallyApproved:
		start := b.EarliestApprovedStartAt()
		if start == nil || now.Before(*start) {
			return shared.NewDomainError("BOOKING_NOT_CLAIMABLE", "The booking has not started yet")
		}
		return nil
	default:
		return shared.NewDomainError("BOOKING_NOT_CLAIMABLE", "Claims can only be filed against approved or completed bookings")
	}
}

func (s *ClaimService) attachDownloadURLs(ctx context.Context, claim *claims.DamageClaim, resp *ClaimResponse) {
	for i := range claim.Evidence {
		url, _, err := s.storage.GenerateDownloadURL(ctx, claim.Evidence[i].StorageKey, s.config.DownloadURLExpiry)
		if err != nil {
			continue
		}
		resp.Evidence[i].DownloadURL = url
	}
}

func (s *ClaimService) buildClaimFilter(filter *ClaimListFilter) claims.ClaimFilter {
	f := claims.NewClaimFilter()
	if filter == nil {
		return f
	}
	if filter.Status != "" {
		f = f.WithStatus(claims.ClaimStatus(filter.Status))
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	return f.WithPagination(page, pageSize)
}

func buildClaimListResult(list []*claims.DamageClaim, total int64, f claims.ClaimFilter) *ClaimListResult {
	responses := make([]ClaimResponse, len(list))
	for i, claim := range list {
		responses[i] = *ToClaimResponse(claim)
	}

	totalPages := int(total) / f.PageSize
	if int(total)%f.PageSize > 0 {
		totalPages++
	}

	return &ClaimListResult{
		Claims:     responses,
		Total:      total,
		Page:       f.Page,
		PageSize:   f.PageSize,
		TotalPages: totalPages,
	}
}

// evidenceStorageKey builds the object key for an evidence file
func evidenceStorageKey(claimID uuid.UUID, fileName string) string {
	base := filepath.Base(strings.TrimSpace(fileName))
	return fmt.Sprintf("claims/%s/evidence/%s-%s", claimID.String(), uuid.New().String(), base)
}
