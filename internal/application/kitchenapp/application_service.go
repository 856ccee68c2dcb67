package kitchenapp

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/localcooks/backend/internal/domain/identity"
	"github.com/localcooks/backend/internal/domain/kitchenapp"
	"github.com/localcooks/backend/internal/domain/location"
	"github.com/localcooks/backend/internal/domain/shared"
)

// AllowedDocumentContentTypes is the whitelist for requirement uploads.
// SVG is excluded because it can carry scripts.
var AllowedDocumentContentTypes = map[string]bool{
	"image/jpeg":         true,
	"image/png":          true,
	"image/webp":         true,
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain": true,
}

// ObjectStorage is the slice of object storage this package needs. The
// S3 presigner in the infrastructure layer implements it.
type ObjectStorage interface {
	// GenerateUploadURL returns a presigned PUT for the given key
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)

	// GenerateDownloadURL returns a presigned GET for the given key
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)

	// ObjectExists checks whether the upload actually landed
	ObjectExists(ctx context.Context, storageKey string) (bool, error)

	// DeleteObject removes an object from storage
	DeleteObject(ctx context.Context, storageKey string) error
}

// ApplicationServiceConfig holds upload URL lifetimes
type ApplicationServiceConfig struct {
	UploadURLExpiry   time.Duration
	DownloadURLExpiry time.Duration
}

// DefaultApplicationServiceConfig returns the default configuration
func DefaultApplicationServiceConfig() ApplicationServiceConfig {
	return ApplicationServiceConfig{
		UploadURLExpiry:   15 * time.Minute,
		DownloadURLExpiry: 1 * time.Hour,
	}
}

// ApplicationService handles the chef application workflow
type ApplicationService struct {
	applicationRepo kitchenapp.ApplicationRepository
	locationRepo    location.LocationRepository
	storage         ObjectStorage
	config          ApplicationServiceConfig
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
}

// NewApplicationService creates a new application service
func NewApplicationService(
	applicationRepo kitchenapp.ApplicationRepository,
	locationRepo location.LocationRepository,
	storage ObjectStorage,
	logger *zap.Logger,
) *ApplicationService {
	return &ApplicationService{
		applicationRepo: applicationRepo,
		locationRepo:    locationRepo,
		storage:         storage,
		config:          DefaultApplicationServiceConfig(),
		logger:          logger,
	}
}

// SetConfig sets the service configuration
func (s *ApplicationService) SetConfig(config ApplicationServiceConfig) {
	s.config = config
}

// SetEventPublisher sets the publisher that fans out domain events to
// notification handlers and the live feed
func (s *ApplicationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvents drains the aggregate's pending events onto the bus. Event
// delivery is asynchronous; a publish failure never fails the operation.
func (s *ApplicationService) publishEvents(ctx context.Context, agg shared.AggregateRoot) {
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

// Apply submits a new application. A chef holds at most one open
// application per location; resubmission after a rejection or a
// withdrawal is allowed.
func (s *ApplicationService) Apply(ctx context.Context, actor identity.Actor, req ApplyRequest) (*ApplicationResponse, error) {
	loc, err := s.locationRepo.FindByID(ctx, req.LocationID)
	if err != nil {
		return nil, shared.NewDomainError("LOCATION_NOT_FOUND", "Location not found")
	}
	if !loc.IsPublished() {
		return nil, shared.NewDomainError("LOCATION_NOT_PUBLISHED", "Applications are only accepted for published locations")
	}

	open, err := s.applicationRepo.FindOpenByChefAndLocation(ctx, actor.ID, req.LocationID)
	if err != nil {
		s.logger.Error("Failed to check open applications", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check existing applications")
	}
	if open != nil {
		return nil, shared.NewDomainError("APPLICATION_EXISTS", "You already have an open application for this location")
	}

	app, err := kitchenapp.NewKitchenApplication(actor.ID, req.LocationID, req.Message)
	if err != nil {
		return nil, err
	}

	if err := s.applicationRepo.Create(ctx, app); err != nil {
		s.logger.Error("Failed to create application", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to submit application")
	}

	s.publishEvents(ctx, app)

	s.logger.Info("Application submitted",
		zap.String("application_id", app.ID.String()),
		zap.String("chef_id", actor.ID.String()),
		zap.String("location_id", req.LocationID.String()))

	resp := ToApplicationResponse(app)
	return &resp, nil
}

// ListByChef returns the chef's applications, newest first
func (s *ApplicationService) ListByChef(ctx context.Context, chefID uuid.UUID) ([]ApplicationResponse, error) {
	apps, err := s.applicationRepo.FindByChefID(ctx, chefID)
	if err != nil {
		s.logger.Error("Failed to list applications", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list applications")
	}

	responses := make([]ApplicationResponse, len(apps))
	for i, app := range apps {
		responses[i] = ToApplicationResponse(app)
	}
	return responses, nil
}

// GetForChef returns one of the chef's applications with fresh download URLs
func (s *ApplicationService) GetForChef(ctx context.Context, actor identity.Actor, applicationID uuid.UUID) (*ApplicationResponse, error) {
	app, err := s.applicationRepo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, shared.NewDomainError("APPLICATION_NOT_FOUND", "Application not found")
	}
	if app.ChefID != actor.ID && !actor.IsAdmin() {
		return nil, shared.NewDomainError("FORBIDDEN", "You can only view your own applications")
	}

	resp := ToApplicationResponse(app)
	s.enrichDocumentURLs(ctx, &resp, app)
	return &resp, nil
}

// Withdraw closes an open application at the chef's request
func (s *ApplicationService) Withdraw(ctx context.Context, actor identity.Actor, applicationID uuid.UUID) (*ApplicationResponse, error) {
	app, err := s.applicationRepo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, shared.NewDomainError("APPLICATION_NOT_FOUND", "Application not found")
	}
	if app.ChefID != actor.ID {
		return nil, shared.NewDomainError("FORBIDDEN", "You can only withdraw your own applications")
	}

	if err := app.Withdraw(); err != nil {
		return nil, err
	}

	if err := s.applicationRepo.Update(ctx, app); err != nil {
		s.logger.Error("Failed to withdraw application", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to withdraw application")
	}

	s.publishEvents(ctx, app)

	s.logger.Info("Application withdrawn", zap.String("application_id", app.ID.String()))

	resp := ToApplicationResponse(app)
	return &resp, nil
}

// PresignDocument reserves a document slot and returns a presigned PUT.
// The slot stays PENDING until the chef confirms the upload landed.
func (s *ApplicationService) PresignDocument(ctx context.Context, actor identity.Actor, applicationID uuid.UUID, req PresignDocumentRequest) (*PresignDocumentResponse, error) {
	app, err := s.applicationRepo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, shared.NewDomainError("APPLICATION_NOT_FOUND", "Application not found")
	}
	if app.ChefID != actor.ID {
		return nil, shared.NewDomainError("FORBIDDEN", "You can only upload to your own applications")
	}

	if !AllowedDocumentContentTypes[strings.ToLower(req.ContentType)] {
		return nil, shared.NewDomainError("DISALLOWED_CONTENT_TYPE",
			fmt.Sprintf("Content type '%s' is not allowed. Allowed types: images, PDF, Word documents, and plain text", req.ContentType))
	}

	loc, err := s.locationRepo.FindByID(ctx, app.LocationID)
	if err != nil {
		s.logger.Error("Failed to load location for requirement check", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to verify requirement")
	}
	if !hasRequirement(loc, req.RequirementID) {
		return nil, shared.NewDomainError("REQUIREMENT_NOT_FOUND", "The location has no such requirement")
	}

	storageKey := documentStorageKey(app.ID, req.FileName)

	doc, err := app.InitiateDocument(req.RequirementID, req.FileName, storageKey, req.ContentType, req.Size)
	if err != nil {
		return nil, err
	}

	if err := s.applicationRepo.Update(ctx, app); err != nil {
		s.logger.Error("Failed to persist document slot", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to prepare upload")
	}

	uploadURL, expiresAt, err := s.storage.GenerateUploadURL(ctx, storageKey, req.ContentType, s.config.UploadURLExpiry)
	if err != nil {
		s.logger.Error("Failed to presign upload", zap.Error(err))
		return nil, shared.NewDomainError("UPLOAD_URL_FAILED", "Failed to generate upload URL")
	}

	return &PresignDocumentResponse{
		DocumentID: doc.ID,
		StorageKey: storageKey,
		UploadURL:  uploadURL,
		ExpiresAt:  expiresAt,
	}, nil
}

// ConfirmDocument activates a pending document once the file is in storage
func (s *ApplicationService) ConfirmDocument(ctx context.Context, actor identity.Actor, applicationID, documentID uuid.UUID) (*DocumentResponse, error) {
	app, err := s.applicationRepo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, shared.NewDomainError("APPLICATION_NOT_FOUND", "Application not found")
	}
	if app.ChefID != actor.ID {
		return nil, shared.NewDomainError("FORBIDDEN", "You can only confirm uploads on your own applications")
	}

	doc, err := app.GetDocument(documentID)
	if err != nil {
		return nil, err
	}

	exists, err := s.storage.ObjectExists(ctx, doc.StorageKey)
	if err != nil {
		s.logger.Error("Failed to verify upload", zap.Error(err))
		return nil, shared.NewDomainError("STORAGE_CHECK_FAILED", "Failed to verify upload")
	}
	if !exists {
		return nil, shared.NewDomainError("UPLOAD_NOT_FOUND", "File not found in storage. Please upload the file first")
	}

	confirmed, err := app.ConfirmDocument(documentID)
	if err != nil {
		return nil, err
	}

	if err := s.applicationRepo.Update(ctx, app); err != nil {
		s.logger.Error("Failed to confirm document", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to confirm upload")
	}

	s.logger.Info("Application document confirmed",
		zap.String("application_id", app.ID.String()),
		zap.String("document_id", documentID.String()))

	resp := ToDocumentResponse(confirmed)
	if url, _, err := s.storage.GenerateDownloadURL(ctx, confirmed.StorageKey, s.config.DownloadURLExpiry); err == nil {
		resp.DownloadURL = url
	}
	return &resp, nil
}

// ListForManager returns applications across the manager's locations
func (s *ApplicationService) ListForManager(ctx context.Context, actor identity.Actor, req ReviewListFilter) (*ApplicationListResult, error) {
	filter := buildFilter(req)

	apps, total, err := s.applicationRepo.FindByManagerID(ctx, actor.ID, filter)
	if err != nil {
		s.logger.Error("Failed to list applications for manager", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list applications")
	}

	return buildListResult(apps, total, filter), nil
}

// ListAll returns applications across the platform for admins
func (s *ApplicationService) ListAll(ctx context.Context, req ReviewListFilter) (*ApplicationListResult, error) {
	filter := buildFilter(req)

	apps, total, err := s.applicationRepo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list applications", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list applications")
	}

	return buildListResult(apps, total, filter), nil
}

// GetForReviewer returns one application for the owning manager or an admin
func (s *ApplicationService) GetForReviewer(ctx context.Context, actor identity.Actor, applicationID uuid.UUID) (*ApplicationResponse, error) {
	app, _, err := s.findForReview(ctx, actor, applicationID)
	if err != nil {
		return nil, err
	}

	resp := ToApplicationResponse(app)
	s.enrichDocumentURLs(ctx, &resp, app)
	return &resp, nil
}

// StartReview moves an application to IN_REVIEW
func (s *ApplicationService) StartReview(ctx context.Context, actor identity.Actor, applicationID uuid.UUID) (*ApplicationResponse, error) {
	app, _, err := s.findForReview(ctx, actor, applicationID)
	if err != nil {
		return nil, err
	}

	if err := app.StartReview(actor.ID); err != nil {
		return nil, err
	}

	if err := s.applicationRepo.Update(ctx, app); err != nil {
		s.logger.Error("Failed to start review", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to start review")
	}

	s.publishEvents(ctx, app)

	s.logger.Info("Application review started",
		zap.String("application_id", app.ID.String()),
		zap.String("reviewer_id", actor.ID.String()))

	resp := ToApplicationResponse(app)
	return &resp, nil
}

// Approve closes an application as APPROVED, unlocking bookings at the
// location for this chef. Every required requirement needs a confirmed
// document.
func (s *ApplicationService) Approve(ctx context.Context, actor identity.Actor, applicationID uuid.UUID) (*ApplicationResponse, error) {
	app, loc, err := s.findForReview(ctx, actor, applicationID)
	if err != nil {
		return nil, err
	}

	required := loc.RequiredRequirements()
	requiredIDs := make([]uuid.UUID, len(required))
	for i, r := range required {
		requiredIDs[i] = r.ID
	}

	if err := app.Approve(actor.ID, requiredIDs); err != nil {
		return nil, err
	}

	if err := s.applicationRepo.Update(ctx, app); err != nil {
		s.logger.Error("Failed to approve application", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to approve application")
	}

	s.publishEvents(ctx, app)

	s.logger.Info("Application approved",
		zap.String("application_id", app.ID.String()),
		zap.String("chef_id", app.ChefID.String()),
		zap.String("location_id", app.LocationID.String()))

	resp := ToApplicationResponse(app)
	return &resp, nil
}

// Reject closes an application as REJECTED with a note for the chef
func (s *ApplicationService) Reject(ctx context.Context, actor identity.Actor, applicationID uuid.UUID, req RejectRequest) (*ApplicationResponse, error) {
	app, _, err := s.findForReview(ctx, actor, applicationID)
	if err != nil {
		return nil, err
	}

	if err := app.Reject(actor.ID, req.Note); err != nil {
		return nil, err
	}

	if err := s.applicationRepo.Update(ctx, app); err != nil {
		s.logger.Error("Failed to reject application", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to reject application")
	}

	s.publishEvents(ctx, app)

	s.logger.Info("Application rejected", zap.String("application_id", app.ID.String()))

	resp := ToApplicationResponse(app)
	return &resp, nil
}

// findForReview loads an application and its location, checking that the
// actor owns the location or is an admin
func (s *ApplicationService) findForReview(ctx context.Context, actor identity.Actor, applicationID uuid.UUID) (*kitchenapp.KitchenApplication, *location.Location, error) {
	app, err := s.applicationRepo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, nil, shared.NewDomainError("APPLICATION_NOT_FOUND", "Application not found")
	}

	loc, err := s.locationRepo.FindByID(ctx, app.LocationID)
	if err != nil {
		s.logger.Error("Failed to load location for application", zap.Error(err))
		return nil, nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load location")
	}

	if !loc.IsOwnedBy(actor.ID) && !actor.IsAdmin() {
		return nil, nil, shared.NewDomainError("FORBIDDEN", "Only the location's manager can review this application")
	}

	return app, loc, nil
}

// enrichDocumentURLs adds presigned download URLs for confirmed documents
func (s *ApplicationService) enrichDocumentURLs(ctx context.Context, resp *ApplicationResponse, app *kitchenapp.KitchenApplication) {
	for i := range app.Documents {
		if !app.Documents[i].IsActive() {
			continue
		}
		url, _, err := s.storage.GenerateDownloadURL(ctx, app.Documents[i].StorageKey, s.config.DownloadURLExpiry)
		if err != nil {
			continue
		}
		resp.Documents[i].DownloadURL = url
	}
}

// documentStorageKey builds the object key for an application document
func documentStorageKey(applicationID uuid.UUID, fileName string) string {
	ext := filepath.Ext(fileName)
	return fmt.Sprintf("applications/%s/docs/%s%s", applicationID.String(), uuid.New().String(), ext)
}

func hasRequirement(loc *location.Location, requirementID uuid.UUID) bool {
	for i := range loc.Requirements {
		if loc.Requirements[i].ID == requirementID {
			return true
		}
	}
	return false
}

func buildFilter(req ReviewListFilter) kitchenapp.ApplicationFilter {
	filter := kitchenapp.NewApplicationFilter()
	if req.Status != "" {
		filter = filter.WithStatus(kitchenapp.ApplicationStatus(req.Status))
	}
	if req.LocationID != nil {
		filter = filter.WithLocation(*req.LocationID)
	}
	if req.Page > 0 || req.PageSize > 0 {
		page := req.Page
		if page < 1 {
			page = 1
		}
		pageSize := req.PageSize
		if pageSize < 1 {
			pageSize = 20
		}
		filter = filter.WithPagination(page, pageSize)
	}
	return filter
}

func buildListResult(apps []*kitchenapp.KitchenApplication, total int64, filter kitchenapp.ApplicationFilter) *ApplicationListResult {
	responses := make([]ApplicationResponse, len(apps))
	for i, app := range apps {
		responses[i] = ToApplicationResponse(app)
	}

	totalPages := int(total) / filter.PageSize
	if int(total)%filter.PageSize > 0 {
		totalPages++
	}

	return &ApplicationListResult{
		Applications: responses,
		Total:        total,
		Page:         filter.Page,
		PageSize:     filter.PageSize,
		TotalPages:   totalPages,
	}
}
