package license

import (
	"context"
	"fmt"
	"time"

	"license-sync/pkg/db/pagination"
	"license-sync/pkg/errutil"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service is the reconciliation authority for License rows. Every mutation
// funnels into the same full-replace upsert: the last command to commit wins
// for every column it sets, regardless of where the command came from.
type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	repo *Repository
	now  func() time.Time
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,
		repo: NewRepository(RepositoryParams{DB: p.DB}),
		now:  time.Now,
	}
}

func (s *Service) licenseID() string {
	return fmt.Sprintf("lic_%s", s.node.Generate().String())
}

// Grant activates a license for months calendar months from now. Months
// arithmetic follows time.AddDate: day-of-month overflow normalizes forward
// (Jan 31 plus one month lands in early March). An admin grant is
// authoritative over billing state, so the Stripe refs are cleared.
func (s *Service) Grant(ctx context.Context, email string, months int) (*License, error) {
	zapLog := zap.L().With(traceFields(ctx)...)

	email = NormalizeEmail(email)
	if email == "" {
		return nil, errutil.ValidationFailed("email is required", nil)
	}
	if months <= 0 {
		months = 1
	}

	now := s.now()
	expires := now.AddDate(0, months, 0)

	lic := &License{
		ID:        s.licenseID(),
		CreatedAt: now,
		UpdatedAt: now,
		Email:     email,
		Active:    true,
		ExpiresAt: &expires,
	}

	out, err := s.repo.Upsert(ctx, lic,
		"active", "expires_at", "stripe_customer_id", "stripe_subscription_id")
	if err != nil {
		zapLog.Error("failed to grant license", zap.String("email", email), zap.Error(err))
		return nil, errutil.Internal("failed to grant license", err)
	}

	zapLog.Info("license granted",
		zap.String("email", email),
		zap.Int("months", months),
		zap.Time("expires_at", expires),
	)

	return out, nil
}

// Activate records a paid billing cycle: one month of access from now, with
// the Stripe refs attached. Renewals reset the expiry rather than extending
// the previous one, so a replayed event never stacks duration.
func (s *Service) Activate(ctx context.Context, email, customerID, subscriptionID string) (*License, error) {
	zapLog := zap.L().With(traceFields(ctx)...)

	email = NormalizeEmail(email)
	if email == "" {
		return nil, errutil.ValidationFailed("email is required", nil)
	}

	now := s.now()
	expires := now.AddDate(0, 1, 0)

	lic := &License{
		ID:        s.licenseID(),
		CreatedAt: now,
		UpdatedAt: now,
		Email:     email,
		Active:    true,
		ExpiresAt: &expires,
	}
	// A missing ref stays NULL; an empty string is not a reference.
	if customerID != "" {
		lic.StripeCustomerID = &customerID
	}
	if subscriptionID != "" {
		lic.StripeSubscriptionID = &subscriptionID
	}

	out, err := s.repo.Upsert(ctx, lic,
		"active", "expires_at", "stripe_customer_id", "stripe_subscription_id")
	if err != nil {
		zapLog.Error("failed to activate license", zap.String("email", email), zap.Error(err))
		return nil, errutil.Internal("failed to activate license", err)
	}

	zapLog.Info("license activated",
		zap.String("email", email),
		zap.String("stripe_customer_id", customerID),
		zap.Time("expires_at", expires),
	)

	return out, nil
}

// Deactivate revokes access: active goes false and expires_at is pinned to
// now. The row and its Stripe refs are kept, a canceled subscription is a
// terminal state, not a deletion.
func (s *Service) Deactivate(ctx context.Context, email string) (*License, error) {
	zapLog := zap.L().With(traceFields(ctx)...)

	email = NormalizeEmail(email)
	if email == "" {
		return nil, errutil.ValidationFailed("email is required", nil)
	}

	now := s.now()

	lic := &License{
		ID:        s.licenseID(),
		CreatedAt: now,
		UpdatedAt: now,
		Email:     email,
		Active:    false,
		ExpiresAt: &now,
	}

	out, err := s.repo.Upsert(ctx, lic, "active", "expires_at")
	if err != nil {
		zapLog.Error("failed to deactivate license", zap.String("email", email), zap.Error(err))
		return nil, errutil.Internal("failed to deactivate license", err)
	}

	zapLog.Info("license deactivated", zap.String("email", email))

	return out, nil
}

// Validate answers "is this identity currently entitled". Inactive
// short-circuits before expiry, and expiry is evaluated against the clock at
// call time: a license expiring exactly now is already expired.
func (s *Service) Validate(ctx context.Context, email string) (*Validation, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return &Validation{Valid: false, Message: ReasonMissingIdentity}, nil
	}

	lic, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		zap.L().Error("failed to query license", zap.String("email", email), zap.Error(err))
		return nil, errutil.Internal("failed to query license", err)
	}

	switch {
	case lic == nil:
		return &Validation{Valid: false, Message: ReasonNotLicensed}, nil
	case !lic.Active:
		return &Validation{Valid: false, Message: ReasonInactive}, nil
	case lic.ExpiresAt != nil && !lic.ExpiresAt.After(s.now()):
		return &Validation{Valid: false, Message: ReasonExpired}, nil
	default:
		return &Validation{Valid: true, Message: ReasonValid, ExpiresAt: lic.ExpiresAt}, nil
	}
}

// List returns licenses for the admin surface, newest first.
func (s *Service) List(ctx context.Context, p pagination.Pagination) ([]*License, *pagination.PageInfo, error) {
	zapLog := zap.L().With(traceFields(ctx)...)

	if p.Limit <= 0 {
		p.Limit = 10
	}

	licenses, err := s.repo.List(ctx, p)
	if err != nil {
		zapLog.Error("failed to list licenses", zap.Error(err))
		return nil, nil, errutil.Internal("failed to list licenses", err)
	}

	pageInfo := pagination.BuildCursorPageInfo(licenses, p.Limit, func(l *License) string {
		cursor, _ := pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: l.CreatedAt.UTC().Format(time.RFC3339Nano),
			ID:        l.ID,
		})
		return cursor
	})

	if len(licenses) > p.Limit {
		licenses = licenses[:p.Limit]
	}

	return licenses, pageInfo, nil
}

func traceFields(ctx context.Context) []zap.Field {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return nil
	}

	return []zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	}
}
