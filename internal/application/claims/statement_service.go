package claims

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/localcooks/backend/internal/domain/claims"
	"github.com/localcooks/backend/internal/domain/identity"
	"github.com/localcooks/backend/internal/domain/shared"
)

// StatementEvent is one entry in the claim's timeline
type StatementEvent struct {
	Label string
	Note  string
	At    time.Time
}

// StatementEvidence is one evidence file listed on the statement
type StatementEvidence struct {
	FileName    string
	ContentType string
	Size        int64
	UploadedBy  string
	UploadedAt  time.Time
}

// StatementData is everything the statement renderer needs, already
// flattened so the renderer never touches domain types
type StatementData struct {
	ClaimNumber   string
	BookingNumber string
	Title         string
	Description   string
	Status        string

	ManagerName string
	ChefName    string

	FiledAmount      decimal.Decimal
	FinalAmount      decimal.Decimal
	ResponseDeadline time.Time

	Timeline []StatementEvent
	Evidence []StatementEvidence

	ChargeStatus string
	ChargeID     string
	ChargedAt    *time.Time

	IssuedAt time.Time
}

// StatementRenderer renders a claim statement into a PDF document
type StatementRenderer interface {
	RenderStatement(ctx context.Context, data *StatementData) ([]byte, error)
}

// StatementService produces the printable record of a claim: what was
// filed, how each side responded, what the ruling was, and what was
// charged.
type StatementService struct {
	claimRepo claims.ClaimRepository
	userRepo  identity.UserRepository
	renderer  StatementRenderer
	logger    *zap.Logger
}

// NewStatementService creates a new statement service
func NewStatementService(
	claimRepo claims.ClaimRepository,
	userRepo identity.UserRepository,
	renderer StatementRenderer,
	logger *zap.Logger,
) *StatementService {
	return &StatementService{
		claimRepo: claimRepo,
		userRepo:  userRepo,
		renderer:  renderer,
		logger:    logger,
	}
}

// Render builds the statement PDF for a claim. Both parties and admins can
// pull it at any point in the lifecycle.
func (s *StatementService) Render(ctx context.Context, actor identity.Actor, claimID uuid.UUID) ([]byte, string, error) {
	claim, err := s.claimRepo.FindByID(ctx, claimID)
	if err != nil {
		return nil, "", shared.NewDomainError("CLAIM_NOT_FOUND", "Claim not found")
	}
	if !claim.IsAgainst(actor.ID) && !claim.IsFiledBy(actor.ID) && !actor.IsAdmin() {
		return nil, "", shared.NewDomainError("FORBIDDEN", "Only the parties to a claim can view its statement")
	}

	data := s.buildStatementData(ctx, claim)

	pdf, err := s.renderer.RenderStatement(ctx, data)
	if err != nil {
		s.logger.Error("Failed to render claim statement",
			zap.String("claim_number", claim.ClaimNumber),
			zap.Error(err))
		return nil, "", shared.NewDomainError("STATEMENT_FAILED", "Failed to render statement")
	}

	filename := fmt.Sprintf("statement-%s.pdf", claim.ClaimNumber)
	return pdf, filename, nil
}

func (s *StatementService) buildStatementData(ctx context.Context, claim *claims.DamageClaim) *StatementData {
	managerName := s.lookupName(ctx, claim.ManagerID)
	chefName := s.lookupName(ctx, claim.ChefID)

	evidence := make([]StatementEvidence, len(claim.Evidence))
	for i := range claim.Evidence {
		uploadedBy := "Chef"
		if claim.Evidence[i].UploadedBy == claim.ManagerID {
			uploadedBy = "Manager"
		}
		evidence[i] = StatementEvidence{
			FileName:    claim.Evidence[i].FileName,
			ContentType: claim.Evidence[i].ContentType,
			Size:        claim.Evidence[i].Size,
			UploadedBy:  uploadedBy,
			UploadedAt:  claim.Evidence[i].UploadedAt,
		}
	}

	return &StatementData{
		ClaimNumber:      claim.ClaimNumber,
		BookingNumber:    claim.BookingNumber,
		Title:            claim.Title,
		Description:      claim.Description,
		Status:           claim.Status.String(),
		ManagerName:      managerName,
		ChefName:         chefName,
		FiledAmount:      claim.Amount,
		FinalAmount:      claim.FinalAmount,
		ResponseDeadline: claim.ResponseDeadline,
		Timeline:         buildTimeline(claim),
		Evidence:         evidence,
		ChargeStatus:     claim.ChargeStatus.String(),
		ChargeID:         claim.ChargeID,
		ChargedAt:        claim.ChargedAt,
		IssuedAt:         time.Now(),
	}
}

func (s *StatementService) lookupName(ctx context.Context, userID uuid.UUID) string {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return ""
	}
	return user.FullName()
}

// buildTimeline reconstructs the claim's history from its timestamps
func buildTimeline(claim *claims.DamageClaim) []StatementEvent {
	timeline := []StatementEvent{
		{Label: "Claim filed", At: claim.CreatedAt},
	}

	if claim.RespondedAt != nil {
		label := "Accepted by chef"
		if claim.Status == claims.ClaimStatusDisputed || claim.AdjudicatedAt != nil {
			label = "Disputed by chef"
		}
		timeline = append(timeline, StatementEvent{
			Label: label,
			Note:  claim.ResponseNote,
			At:    *claim.RespondedAt,
		})
	}

	if claim.Status == claims.ClaimStatusUncontested ||
		(claim.RespondedAt == nil && claim.Status == claims.ClaimStatusSettled) {
		timeline = append(timeline, StatementEvent{
			Label: "Response window closed without an answer",
			At:    claim.ResponseDeadline,
		})
	}

	if claim.AdjudicatedAt != nil {
		label := "Upheld by admin"
		if claim.Status == claims.ClaimStatusDismissed {
			label = "Dismissed by admin"
		}
		timeline = append(timeline, StatementEvent{
			Label: label,
			Note:  claim.AdjudicationNote,
			At:    *claim.AdjudicatedAt,
		})
	}

	if claim.Status == claims.ClaimStatusWithdrawn {
		timeline = append(timeline, StatementEvent{
			Label: "Withdrawn by manager",
			At:    claim.UpdatedAt,
		})
	}

	if claim.ChargedAt != nil {
		timeline = append(timeline, StatementEvent{
			Label: fmt.Sprintf("Charged %s to the chef's card", claim.FinalAmount.StringFixed(2)),
			At:    *claim.ChargedAt,
		})
	}

	return timeline
}
