package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is a value object representing a physical street address
// It is immutable - all operations return new Address instances
type Address struct {
	line1      string
	line2      string
	city       string
	state      string
	postalCode string
	country    string
}

// AddressOption is a functional option for configuring Address
type AddressOption func(*Address)

// WithLine2 sets the secondary address line (unit, suite, floor)
func WithLine2(line2 string) AddressOption {
	return func(a *Address) {
		a.line2 = strings.TrimSpace(line2)
	}
}

// WithPostalCode sets the postal code for the address
func WithPostalCode(postalCode string) AddressOption {
	return func(a *Address) {
		a.postalCode = strings.TrimSpace(postalCode)
	}
}

// WithCountry sets the country for the address
func WithCountry(country string) AddressOption {
	return func(a *Address) {
		a.country = strings.TrimSpace(country)
	}
}

// NewAddress creates a new Address with the required fields.
// Line1, city, and state are required; line2, postal code, and country are optional.
func NewAddress(line1, city, state string, opts ...AddressOption) (Address, error) {
	line1 = strings.TrimSpace(line1)
	city = strings.TrimSpace(city)
	state = strings.TrimSpace(state)

	if err := validateLine1(line1); err != nil {
		return Address{}, err
	}
	if err := validateCity(city); err != nil {
		return Address{}, err
	}
	if err := validateState(state); err != nil {
		return Address{}, err
	}

	addr := Address{
		line1:   line1,
		city:    city,
		state:   state,
		country: "US",
	}

	for _, opt := range opts {
		opt(&addr)
	}

	if addr.line2 != "" && len(addr.line2) > 200 {
		return Address{}, fmt.Errorf("address line 2 cannot exceed 200 characters")
	}
	if addr.postalCode != "" {
		if err := validatePostalCode(addr.postalCode); err != nil {
			return Address{}, err
		}
	}
	if addr.country != "" && len(addr.country) > 100 {
		return Address{}, fmt.Errorf("country cannot exceed 100 characters")
	}

	return addr, nil
}

// NewAddressFull creates a new Address with all fields
func NewAddressFull(line1, line2, city, state, postalCode, country string) (Address, error) {
	return NewAddress(line1, city, state,
		WithLine2(line2), WithPostalCode(postalCode), WithCountry(country))
}

// MustNewAddress creates a new Address, panics on error
func MustNewAddress(line1, city, state string, opts ...AddressOption) Address {
	addr, err := NewAddress(line1, city, state, opts...)
	if err != nil {
		panic(err)
	}
	return addr
}

// EmptyAddress returns an empty address (for optional address fields)
func EmptyAddress() Address {
	return Address{}
}

// Line1 returns the primary street line
func (a Address) Line1() string {
	return a.line1
}

// Line2 returns the secondary line (unit, suite)
func (a Address) Line2() string {
	return a.line2
}

// City returns the city
func (a Address) City() string {
	return a.city
}

// State returns the state or province
func (a Address) State() string {
	return a.state
}

// PostalCode returns the postal code
func (a Address) PostalCode() string {
	return a.postalCode
}

// Country returns the country
func (a Address) Country() string {
	return a.country
}

// IsEmpty returns true if the address is empty (all fields are blank)
func (a Address) IsEmpty() bool {
	return a.line1 == "" && a.city == "" && a.state == ""
}

// FullAddress returns the complete formatted address string
// Format: Line1, Line2, City, State PostalCode, Country
func (a Address) FullAddress() string {
	if a.IsEmpty() {
		return ""
	}

	parts := make([]string, 0, 4)
	if a.line1 != "" {
		parts = append(parts, a.line1)
	}
	if a.line2 != "" {
		parts = append(parts, a.line2)
	}
	if a.city != "" {
		parts = append(parts, a.city)
	}

	region := a.state
	if a.postalCode != "" {
		region = strings.TrimSpace(region + " " + a.postalCode)
	}
	if region != "" {
		parts = append(parts, region)
	}
	if a.country != "" {
		parts = append(parts, a.country)
	}
	return strings.Join(parts, ", ")
}

// ShortAddress returns a shortened address (City, State)
func (a Address) ShortAddress() string {
	if a.IsEmpty() {
		return ""
	}

	parts := make([]string, 0, 2)
	if a.city != "" {
		parts = append(parts, a.city)
	}
	if a.state != "" {
		parts = append(parts, a.state)
	}
	return strings.Join(parts, ", ")
}

// String returns a string representation of the address
func (a Address) String() string {
	return a.FullAddress()
}

// Equals returns true if both addresses are equal
func (a Address) Equals(other Address) bool {
	return a.line1 == other.line1 &&
		a.line2 == other.line2 &&
		a.city == other.city &&
		a.state == other.state &&
		a.postalCode == other.postalCode &&
		a.country == other.country
}

// SameCity returns true if both addresses are in the same city and state
func (a Address) SameCity(other Address) bool {
	return strings.EqualFold(a.city, other.city) && strings.EqualFold(a.state, other.state)
}

// addressJSON is used for JSON marshaling/unmarshaling
type addressJSON struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(addressJSON{
		Line1:      a.line1,
		Line2:      a.line2,
		City:       a.city,
		State:      a.state,
		PostalCode: a.postalCode,
		Country:    a.country,
	})
}

// UnmarshalJSON implements json.Unmarshaler. Delegates to NewAddressFull so
// the validation rules apply on every deserialization path.
func (a *Address) UnmarshalJSON(data []byte) error {
	var v addressJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	// Allow empty addresses from JSON
	if v.Line1 == "" && v.City == "" && v.State == "" {
		*a = EmptyAddress()
		return nil
	}

	addr, err := NewAddressFull(v.Line1, v.Line2, v.City, v.State, v.PostalCode, v.Country)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// ParseAddressFromJSON creates an Address from JSON data with explicit error
// handling, returning a new value rather than mutating a pointer.
func ParseAddressFromJSON(data []byte) (Address, error) {
	var v addressJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return Address{}, fmt.Errorf("failed to parse address JSON: %w", err)
	}

	if v.Line1 == "" && v.City == "" && v.State == "" {
		return EmptyAddress(), nil
	}

	return NewAddressFull(v.Line1, v.Line2, v.City, v.State, v.PostalCode, v.Country)
}

// Value implements driver.Valuer for database storage
// Stores as JSON string
func (a Address) Value() (driver.Value, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner for database retrieval. Delegates to
// UnmarshalJSON so validation applies to values read back from the database.
func (a *Address) Scan(value any) error {
	if value == nil {
		*a = EmptyAddress()
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}

	if len(data) == 0 || string(data) == "null" {
		*a = EmptyAddress()
		return nil
	}

	return a.UnmarshalJSON(data)
}

func validateLine1(line1 string) error {
	if line1 == "" {
		return fmt.Errorf("address line 1 cannot be empty")
	}
	if len(line1) > 200 {
		return fmt.Errorf("address line 1 cannot exceed 200 characters")
	}
	return nil
}

func validateCity(city string) error {
	if city == "" {
		return fmt.Errorf("city cannot be empty")
	}
	if len(city) > 100 {
		return fmt.Errorf("city cannot exceed 100 characters")
	}
	return nil
}

func validateState(state string) error {
	if state == "" {
		return fmt.Errorf("state cannot be empty")
	}
	if len(state) > 100 {
		return fmt.Errorf("state cannot exceed 100 characters")
	}
	return nil
}

func validatePostalCode(postalCode string) error {
	if len(postalCode) > 20 {
		return fmt.Errorf("postal code cannot exceed 20 characters")
	}
	return nil
}
