package inventory

import (
	"strings"
	"time"

	"github.com/pharmstock/backend/internal/domain/shared"
	"golang.org/x/text/cases"
)

// Batch represents one received lot of a medicine: units of a named medicine
// at a given strength, sharing a single expiry date. It is the aggregate root
// of the inventory context.
type Batch struct {
	shared.BaseEntity
	Seq        int64     `gorm:"not null;uniqueIndex"` // insertion sequence, assigned by the store
	Name       string    `gorm:"type:varchar(200);not null"`
	NameKey    string    `gorm:"type:varchar(200);not null;index"` // case-folded Name, maintained by the entity
	Strength   string    `gorm:"type:varchar(100);not null"`
	Quantity   int64     `gorm:"not null;default:0"`
	ExpiryDate time.Time `gorm:"type:date;not null"`
}

// TableName returns the table name for GORM
func (Batch) TableName() string {
	return "medicine_batches"
}

// NewBatch validates the human-entered fields and creates a batch. The expiry
// date is truncated to midnight UTC: only the calendar day is significant.
func NewBatch(name, strength string, quantity int64, expiryDate time.Time) (*Batch, error) {
	name = strings.TrimSpace(name)
	strength = strings.TrimSpace(strength)

	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateStrength(strength); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Quantity must be a positive integer")
	}
	if expiryDate.IsZero() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Expiry date is required")
	}

	return &Batch{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		NameKey:    FoldName(name),
		Strength:   strength,
		Quantity:   quantity,
		ExpiryDate: TruncateToDay(expiryDate),
	}, nil
}

// FoldName normalizes a medicine name (or search term) for case-insensitive
// matching. Unicode case folding handles human-entered names beyond ASCII.
func FoldName(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Add increases the batch quantity (stock intake merging into this batch).
func (b *Batch) Add(quantity int64) {
	b.Quantity += quantity
	b.Touch()
}

// Deduct reduces the batch quantity, never below zero.
// Returns the quantity actually deducted.
func (b *Batch) Deduct(quantity int64) int64 {
	deducted := quantity
	if deducted > b.Quantity {
		deducted = b.Quantity
	}
	b.Quantity -= deducted
	b.Touch()
	return deducted
}

// LowerExpiry moves the expiry date earlier if the given date precedes the
// current one. Merges under the name-only identity model keep the soonest
// expiry so status classification and sale ordering stay conservative.
func (b *Batch) LowerExpiry(expiryDate time.Time) {
	expiryDate = TruncateToDay(expiryDate)
	if expiryDate.Before(b.ExpiryDate) {
		b.ExpiryDate = expiryDate
		b.Touch()
	}
}

// IsDepleted returns true once the batch holds no stock. Depleted batches are
// removed from the collection in the same mutation that emptied them.
func (b *Batch) IsDepleted() bool {
	return b.Quantity == 0
}

// Status classifies the batch's expiry date relative to the given day.
func (b *Batch) Status(today time.Time) ExpiryStatus {
	return ClassifyExpiry(b.ExpiryDate, today)
}

// MatchesSearch reports whether the folded search term occurs in the batch's
// name or strength. An empty term matches everything.
func (b *Batch) MatchesSearch(foldedTerm string) bool {
	if foldedTerm == "" {
		return true
	}
	return strings.Contains(b.NameKey, foldedTerm) ||
		strings.Contains(FoldName(b.Strength), foldedTerm)
}

func validateName(name string) error {
	if name == "" {
		return shared.NewDomainError(shared.CodeValidation, "Medicine name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError(shared.CodeValidation, "Medicine name cannot exceed 200 characters")
	}
	return nil
}

func validateStrength(strength string) error {
	if strength == "" {
		return shared.NewDomainError(shared.CodeValidation, "Strength cannot be empty")
	}
	if len(strength) > 100 {
		return shared.NewDomainError(shared.CodeValidation, "Strength cannot exceed 100 characters")
	}
	return nil
}
