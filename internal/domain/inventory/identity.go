package inventory

import (
	"fmt"

	"github.com/pharmstock/backend/internal/domain/shared"
)

// IdentityModel is the rule deciding whether two add-stock requests refer to
// the same batch. Deployments disagree on what a "medicine" is, so the model
// is configuration, not a hard-coded invariant.
type IdentityModel string

const (
	// IdentityNameStrengthExpiry keys batches by the full case-sensitive
	// (name, strength, expiry date) tuple: matching stock merges into the
	// existing batch, anything else coexists as its own row.
	IdentityNameStrengthExpiry IdentityModel = "name-strength-expiry"

	// IdentityNameOnly keeps at most one batch per exact medicine name.
	// What happens to a second delivery of an existing name is decided by
	// the ConflictPolicy.
	IdentityNameOnly IdentityModel = "name-only"
)

// ParseIdentityModel validates a configured identity model value.
func ParseIdentityModel(value string) (IdentityModel, error) {
	switch value {
	case "", string(IdentityNameStrengthExpiry):
		return IdentityNameStrengthExpiry, nil
	case string(IdentityNameOnly):
		return IdentityNameOnly, nil
	default:
		return "", shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Invalid identity model %q: expected name-strength-expiry or name-only", value))
	}
}

// ConflictPolicy decides how the name-only identity model treats stock for a
// name that already exists.
type ConflictPolicy string

const (
	// ConflictReject fails the add with a conflict error.
	ConflictReject ConflictPolicy = "reject"

	// ConflictMerge folds the delivery into the existing batch: quantities
	// are summed and the earlier of the two expiry dates is kept.
	ConflictMerge ConflictPolicy = "merge"
)

// ParseConflictPolicy validates a configured conflict policy value.
func ParseConflictPolicy(value string) (ConflictPolicy, error) {
	switch value {
	case "", string(ConflictReject):
		return ConflictReject, nil
	case string(ConflictMerge):
		return ConflictMerge, nil
	default:
		return "", shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Invalid conflict policy %q: expected reject or merge", value))
	}
}
