package location

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/localcooks/backend/internal/domain/shared"
	"github.com/localcooks/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// LocationStatus represents the lifecycle of a listing
type LocationStatus string

const (
	LocationStatusDraft       LocationStatus = "DRAFT"
	LocationStatusPublished   LocationStatus = "PUBLISHED"
	LocationStatusUnpublished LocationStatus = "UNPUBLISHED"
)

// IsValid checks if the status is valid
func (s LocationStatus) IsValid() bool {
	switch s {
	case LocationStatusDraft, LocationStatusPublished, LocationStatusUnpublished:
		return true
	}
	return false
}

// String returns the string representation of the status
func (s LocationStatus) String() string {
	return string(s)
}

// DocumentKind classifies what a requirement asks the chef to upload
type DocumentKind string

const (
	DocumentKindLicense     DocumentKind = "LICENSE"
	DocumentKindInsurance   DocumentKind = "INSURANCE"
	DocumentKindCertificate DocumentKind = "CERTIFICATE"
	DocumentKindOther       DocumentKind = "OTHER"
)

// IsValid checks if the document kind is valid
func (k DocumentKind) IsValid() bool {
	switch k {
	case DocumentKindLicense, DocumentKindInsurance, DocumentKindCertificate, DocumentKindOther:
		return true
	}
	return false
}

// Requirement is a document the location asks applying chefs to provide.
// Requirements are child entities of Location, replaced as a set.
type Requirement struct {
	shared.BaseEntity
	LocationID   uuid.UUID    `gorm:"type:uuid;not null;index"`
	Name         string       `gorm:"type:varchar(200);not null"`
	Description  string       `gorm:"type:text"`
	DocumentKind DocumentKind `gorm:"type:varchar(20);not null"`
	Required     bool         `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Requirement) TableName() string {
	return "location_requirements"
}

// RequirementSpec is the input for replacing a location's requirement set
type RequirementSpec struct {
	Name         string
	Description  string
	DocumentKind DocumentKind
	Required     bool
}

func newRequirement(locationID uuid.UUID, spec RequirementSpec) (*Requirement, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_REQUIREMENT", "Requirement name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_REQUIREMENT", "Requirement name cannot exceed 200 characters")
	}
	kind := spec.DocumentKind
	if kind == "" {
		kind = DocumentKindOther
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_REQUIREMENT", "Unknown document kind")
	}

	return &Requirement{
		BaseEntity:   shared.NewBaseEntity(),
		LocationID:   locationID,
		Name:         name,
		Description:  strings.TrimSpace(spec.Description),
		DocumentKind: kind,
		Required:     spec.Required,
	}, nil
}

// EquipmentItem is rentable gear attached to a location. Bookings snapshot
// the daily rate at creation, so editing an item never touches past bookings.
type EquipmentItem struct {
	shared.BaseEntity
	LocationID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name       string          `gorm:"type:varchar(200);not null"`
	DailyRate  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Notes      string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (EquipmentItem) TableName() string {
	return "location_equipment"
}

// NewEquipmentItem creates a new equipment item
func NewEquipmentItem(locationID uuid.UUID, name string, dailyRate valueobject.Money, notes string) (*EquipmentItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_EQUIPMENT", "Equipment name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_EQUIPMENT", "Equipment name cannot exceed 200 characters")
	}
	if dailyRate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_RATE", "Daily rate cannot be negative")
	}

	return &EquipmentItem{
		BaseEntity: shared.NewBaseEntity(),
		LocationID: locationID,
		Name:       name,
		DailyRate:  dailyRate.Amount(),
		Notes:      notes,
	}, nil
}

// GetDailyRateMoney returns the daily rate as Money value object
func (e *EquipmentItem) GetDailyRateMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(e.DailyRate)
}

// CancellationPolicy governs how much of a captured booking the platform
// keeps when the chef cancels close to the start time.
type CancellationPolicy struct {
	FreeCancelHours          int `gorm:"not null;default:48"`
	LateCancelCapturePercent int `gorm:"not null;default:50"`
}

// Validate checks the policy bounds
func (p CancellationPolicy) Validate() error {
	if p.FreeCancelHours < 0 {
		return shared.NewDomainError("INVALID_POLICY", "Free cancel hours cannot be negative")
	}
	if p.LateCancelCapturePercent < 0 || p.LateCancelCapturePercent > 100 {
		return shared.NewDomainError("INVALID_POLICY", "Late cancel capture percent must be between 0 and 100")
	}
	return nil
}

// Location represents a kitchen space listing.
// It is the aggregate root for listing operations: rates, cancellation
// policy, application requirements, and rentable equipment.
type Location struct {
	shared.BaseAggregateRoot
	ManagerID         uuid.UUID           `gorm:"type:uuid;not null;index"`
	Name              string              `gorm:"type:varchar(200);not null"`
	Description       string              `gorm:"type:text"`
	Address           valueobject.Address `gorm:"type:jsonb"`
	KitchenHourlyRate decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	StorageDailyRate  decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	TaxRateBps        int64               `gorm:"not null;default:0"`
	ServiceFeeBps     int64               `gorm:"not null;default:0"`
	Policy            CancellationPolicy  `gorm:"embedded;embeddedPrefix:cancel_"`
	Status            LocationStatus      `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	Requirements      []Requirement       `gorm:"foreignKey:LocationID;constraint:OnDelete:CASCADE"`
	Equipment         []EquipmentItem     `gorm:"foreignKey:LocationID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (Location) TableName() string {
	return "locations"
}

const maxBps = 10000

// NewLocation creates a new draft listing
func NewLocation(managerID uuid.UUID, name string, address valueobject.Address) (*Location, error) {
	if managerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MANAGER", "Manager ID cannot be empty")
	}
	if err := validateLocationName(name); err != nil {
		return nil, err
	}

	loc := &Location{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ManagerID:         managerID,
		Name:              strings.TrimSpace(name),
		Address:           address,
		KitchenHourlyRate: decimal.Zero,
		StorageDailyRate:  decimal.Zero,
		Policy: CancellationPolicy{
			FreeCancelHours:          48,
			LateCancelCapturePercent: 50,
		},
		Status:       LocationStatusDraft,
		Requirements: make([]Requirement, 0),
		Equipment:    make([]EquipmentItem, 0),
	}

	loc.AddDomainEvent(NewLocationCreatedEvent(loc))

	return loc, nil
}

// UpdateDetails updates the listing's name and description
func (l *Location) UpdateDetails(name, description string) error {
	if err := validateLocationName(name); err != nil {
		return err
	}

	l.Name = strings.TrimSpace(name)
	l.Description = description
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	l.AddDomainEvent(NewLocationUpdatedEvent(l))

	return nil
}

// SetAddress replaces the listing's address
func (l *Location) SetAddress(address valueobject.Address) error {
	if address.IsEmpty() {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot be empty")
	}

	l.Address = address
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	l.AddDomainEvent(NewLocationUpdatedEvent(l))

	return nil
}

// SetRates sets the kitchen hourly and storage daily rates
func (l *Location) SetRates(kitchenHourly, storageDaily valueobject.Money) error {
	if kitchenHourly.IsNegative() {
		return shared.NewDomainError("INVALID_RATE", "Kitchen hourly rate cannot be negative")
	}
	if storageDaily.IsNegative() {
		return shared.NewDomainError("INVALID_RATE", "Storage daily rate cannot be negative")
	}

	l.KitchenHourlyRate = kitchenHourly.Amount()
	l.StorageDailyRate = storageDaily.Amount()
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	l.AddDomainEvent(NewLocationRatesChangedEvent(l))

	return nil
}

// SetTaxRate sets the tax rate applied to bookings, in basis points
func (l *Location) SetTaxRate(bps int64) error {
	if bps < 0 || bps > maxBps {
		return shared.NewDomainError("INVALID_TAX_RATE", "Tax rate must be between 0 and 10000 basis points")
	}

	l.TaxRateBps = bps
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	return nil
}

// SetServiceFee sets the platform service fee, in basis points
func (l *Location) SetServiceFee(bps int64) error {
	if bps < 0 || bps > maxBps {
		return shared.NewDomainError("INVALID_SERVICE_FEE", "Service fee must be between 0 and 10000 basis points")
	}

	l.ServiceFeeBps = bps
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	return nil
}

// SetCancellationPolicy replaces the cancellation policy
func (l *Location) SetCancellationPolicy(policy CancellationPolicy) error {
	if err := policy.Validate(); err != nil {
		return err
	}

	l.Policy = policy
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	return nil
}

// Publish makes the listing bookable. A publishable listing needs a name,
// an address, at least one positive rate, and bps fields in range.
func (l *Location) Publish() error {
	if l.Status == LocationStatusPublished {
		return shared.NewDomainError("ALREADY_PUBLISHED", "Location is already published")
	}
	if strings.TrimSpace(l.Name) == "" {
		return shared.NewDomainError("NOT_PUBLISHABLE", "Location needs a name before publishing")
	}
	if l.Address.IsEmpty() {
		return shared.NewDomainError("NOT_PUBLISHABLE", "Location needs an address before publishing")
	}
	if !l.KitchenHourlyRate.IsPositive() && !l.StorageDailyRate.IsPositive() {
		return shared.NewDomainError("NOT_PUBLISHABLE", "Location needs at least one rate above zero")
	}
	if l.TaxRateBps < 0 || l.TaxRateBps > maxBps || l.ServiceFeeBps < 0 || l.ServiceFeeBps > maxBps {
		return shared.NewDomainError("NOT_PUBLISHABLE", "Tax and service fee must be between 0 and 10000 basis points")
	}

	oldStatus := l.Status
	l.Status = LocationStatusPublished
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	l.AddDomainEvent(NewLocationPublishedEvent(l, oldStatus))

	return nil
}

// Unpublish blocks new bookings. Existing bookings are unaffected.
func (l *Location) Unpublish() error {
	if l.Status != LocationStatusPublished {
		return shared.NewDomainError("NOT_PUBLISHED", "Only a published location can be unpublished")
	}

	l.Status = LocationStatusUnpublished
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	l.AddDomainEvent(NewLocationUnpublishedEvent(l))

	return nil
}

// ReplaceRequirements swaps the whole requirement set. The PUT surface
// sends the full list every time, so partial edits are not modeled.
func (l *Location) ReplaceRequirements(specs []RequirementSpec) error {
	requirements := make([]Requirement, 0, len(specs))
	for _, spec := range specs {
		req, err := newRequirement(l.ID, spec)
		if err != nil {
			return err
		}
		requirements = append(requirements, *req)
	}

	l.Requirements = requirements
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	l.AddDomainEvent(NewLocationRequirementsReplacedEvent(l))

	return nil
}

// RequiredRequirements returns the requirements applicants must satisfy
func (l *Location) RequiredRequirements() []Requirement {
	required := make([]Requirement, 0, len(l.Requirements))
	for _, req := range l.Requirements {
		if req.Required {
			required = append(required, req)
		}
	}
	return required
}

// AddEquipment attaches a rentable equipment item
func (l *Location) AddEquipment(name string, dailyRate valueobject.Money, notes string) (*EquipmentItem, error) {
	item, err := NewEquipmentItem(l.ID, name, dailyRate, notes)
	if err != nil {
		return nil, err
	}

	l.Equipment = append(l.Equipment, *item)
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	return item, nil
}

// UpdateEquipment updates an equipment item's rate and notes
func (l *Location) UpdateEquipment(itemID uuid.UUID, name string, dailyRate valueobject.Money, notes string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_EQUIPMENT", "Equipment name cannot be empty")
	}
	if dailyRate.IsNegative() {
		return shared.NewDomainError("INVALID_RATE", "Daily rate cannot be negative")
	}

	for i := range l.Equipment {
		if l.Equipment[i].ID == itemID {
			l.Equipment[i].Name = name
			l.Equipment[i].DailyRate = dailyRate.Amount()
			l.Equipment[i].Notes = notes
			l.Equipment[i].UpdatedAt = time.Now()
			l.UpdatedAt = time.Now()
			l.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("EQUIPMENT_NOT_FOUND", "Equipment item not found")
}

// RemoveEquipment detaches an equipment item. Bookings keep their
// snapshotted rates, so removal never rewrites history.
func (l *Location) RemoveEquipment(itemID uuid.UUID) error {
	for i := range l.Equipment {
		if l.Equipment[i].ID == itemID {
			l.Equipment = append(l.Equipment[:i], l.Equipment[i+1:]...)
			l.UpdatedAt = time.Now()
			l.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("EQUIPMENT_NOT_FOUND", "Equipment item not found")
}

// GetEquipmentItem returns an equipment item by ID
func (l *Location) GetEquipmentItem(itemID uuid.UUID) (*EquipmentItem, error) {
	for i := range l.Equipment {
		if l.Equipment[i].ID == itemID {
			return &l.Equipment[i], nil
		}
	}
	return nil, shared.NewDomainError("EQUIPMENT_NOT_FOUND", "Equipment item not found")
}

// GetKitchenHourlyRateMoney returns the kitchen rate as Money value object
func (l *Location) GetKitchenHourlyRateMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(l.KitchenHourlyRate)
}

// GetStorageDailyRateMoney returns the storage rate as Money value object
func (l *Location) GetStorageDailyRateMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(l.StorageDailyRate)
}

// IsPublished returns true if the listing is live
func (l *Location) IsPublished() bool {
	return l.Status == LocationStatusPublished
}

// AcceptsBookings returns true if new bookings may reference the listing
func (l *Location) AcceptsBookings() bool {
	return l.Status == LocationStatusPublished
}

// IsOwnedBy returns true if the given user manages this listing
func (l *Location) IsOwnedBy(userID uuid.UUID) bool {
	return l.ManagerID == userID
}

func validateLocationName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Location name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Location name cannot exceed 200 characters")
	}
	return nil
}
