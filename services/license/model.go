package license

import (
	"strings"
	"time"
)

// License is the single licensing record for one identity. A row is never
// deleted; revocation flips Active off and pins ExpiresAt to the moment of
// cancellation.
type License struct {
	ID                   string     `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt            time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"column:updated_at" json:"updated_at"`
	Email                string     `gorm:"column:email;uniqueIndex" json:"email"`
	Active               bool       `gorm:"column:active" json:"active"`
	ExpiresAt            *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
	StripeCustomerID     *string    `gorm:"column:stripe_customer_id" json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID *string    `gorm:"column:stripe_subscription_id" json:"stripe_subscription_id,omitempty"`
}

func (License) TableName() string {
	return "licenses"
}

// NormalizeEmail lower-cases and trims the identity key. Every read and
// write goes through this, so User@Example.com and user@example.com share
// one row.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validation messages returned by the query path. Business negatives are
// answers, not errors.
const (
	ReasonMissingIdentity = "missing identity"
	ReasonNotLicensed     = "not licensed"
	ReasonInactive        = "inactive"
	ReasonExpired         = "expired"
	ReasonValid           = "valid"
)

type Validation struct {
	Valid     bool       `json:"valid"`
	Message   string     `json:"message"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
