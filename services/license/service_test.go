package license

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"license-sync/pkg/db/pagination"
	"license-sync/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &License{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParams{DB: db, Node: node})
}

func TestGrantCreatesLicense(t *testing.T) {
	svc := newTestService(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	lic, err := svc.Grant(context.Background(), "a@x.com", 1)
	require.NoError(t, err)
	require.True(t, lic.Active)
	require.Equal(t, "a@x.com", lic.Email)
	require.NotNil(t, lic.ExpiresAt)
	require.WithinDuration(t, now.AddDate(0, 1, 0), lic.ExpiresAt.UTC(), time.Second)
	require.Nil(t, lic.StripeCustomerID)
	require.Nil(t, lic.StripeSubscriptionID)

	result, err := svc.Validate(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Equal(t, ReasonValid, result.Message)
	require.NotNil(t, result.ExpiresAt)
}

func TestGrantMissingEmail(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Grant(context.Background(), "   ", 1)
	require.Error(t, err)
}

func TestGrantDefaultsToOneMonth(t *testing.T) {
	svc := newTestService(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	lic, err := svc.Grant(context.Background(), "a@x.com", 0)
	require.NoError(t, err)
	require.WithinDuration(t, now.AddDate(0, 1, 0), lic.ExpiresAt.UTC(), time.Second)
}

func TestGrantIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	first := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }

	before, err := svc.Grant(context.Background(), "a@x.com", 2)
	require.NoError(t, err)

	second := first.Add(time.Hour)
	svc.now = func() time.Time { return second }

	after, err := svc.Grant(context.Background(), "a@x.com", 2)
	require.NoError(t, err)

	// Same row, same identity; only the timestamps move forward.
	require.Equal(t, before.ID, after.ID)
	require.WithinDuration(t, before.CreatedAt.UTC(), after.CreatedAt.UTC(), time.Second)
	require.True(t, after.UpdatedAt.After(before.UpdatedAt))
	require.WithinDuration(t, second.AddDate(0, 2, 0), after.ExpiresAt.UTC(), time.Second)

	count, err := svc.repo.repo.Count(context.Background(), &License{})
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestGrantIsCaseInsensitive(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Grant(context.Background(), "User@Example.com", 1)
	require.NoError(t, err)

	result, err := svc.Validate(context.Background(), "user@example.com")
	require.NoError(t, err)
	require.True(t, result.Valid)

	count, err := svc.repo.repo.Count(context.Background(), &License{})
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestAdminGrantClearsBillingRefs(t *testing.T) {
	svc := newTestService(t)

	lic, err := svc.Activate(context.Background(), "a@x.com", "cus_123", "sub_456")
	require.NoError(t, err)
	require.NotNil(t, lic.StripeCustomerID)
	require.NotNil(t, lic.StripeSubscriptionID)

	lic, err = svc.Grant(context.Background(), "a@x.com", 1)
	require.NoError(t, err)
	require.Nil(t, lic.StripeCustomerID)
	require.Nil(t, lic.StripeSubscriptionID)
	require.True(t, lic.Active)
}

func TestActivateWithoutRefsKeepsThemNull(t *testing.T) {
	svc := newTestService(t)

	lic, err := svc.Activate(context.Background(), "a@x.com", "cus_123", "")
	require.NoError(t, err)
	require.NotNil(t, lic.StripeCustomerID)
	require.Nil(t, lic.StripeSubscriptionID)

	lic, err = svc.Activate(context.Background(), "b@x.com", "", "")
	require.NoError(t, err)
	require.Nil(t, lic.StripeCustomerID)
	require.Nil(t, lic.StripeSubscriptionID)
}

func TestActivateResetsExpiryInsteadOfStacking(t *testing.T) {
	svc := newTestService(t)
	first := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }

	_, err := svc.Activate(context.Background(), "a@x.com", "cus_123", "sub_456")
	require.NoError(t, err)

	second := first.Add(48 * time.Hour)
	svc.now = func() time.Time { return second }

	lic, err := svc.Activate(context.Background(), "a@x.com", "cus_123", "sub_456")
	require.NoError(t, err)

	// One month from the second event's processing time, not first + 2 months.
	require.WithinDuration(t, second.AddDate(0, 1, 0), lic.ExpiresAt.UTC(), time.Second)
}

func TestDeactivateKeepsRowAndRefs(t *testing.T) {
	svc := newTestService(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.Activate(context.Background(), "a@x.com", "cus_123", "sub_456")
	require.NoError(t, err)

	canceled := now.Add(time.Hour)
	svc.now = func() time.Time { return canceled }

	lic, err := svc.Deactivate(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.False(t, lic.Active)
	require.WithinDuration(t, canceled, lic.ExpiresAt.UTC(), time.Second)
	require.NotNil(t, lic.StripeCustomerID)
	require.Equal(t, "cus_123", *lic.StripeCustomerID)

	result, err := svc.Validate(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Equal(t, ReasonInactive, result.Message)
}

func TestValidateMissingIdentity(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.Validate(context.Background(), "")
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Equal(t, ReasonMissingIdentity, result.Message)
}

func TestValidateNotLicensed(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.Validate(context.Background(), "b@x.com")
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Equal(t, ReasonNotLicensed, result.Message)
}

func TestValidateExpired(t *testing.T) {
	svc := newTestService(t)
	granted := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return granted }

	_, err := svc.Grant(context.Background(), "c@x.com", 1)
	require.NoError(t, err)

	svc.now = func() time.Time { return granted.AddDate(0, 1, 0).Add(24 * time.Hour) }

	result, err := svc.Validate(context.Background(), "c@x.com")
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Equal(t, ReasonExpired, result.Message)
}

func TestValidateExpiryBoundaryIsExclusive(t *testing.T) {
	svc := newTestService(t)
	granted := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return granted }

	_, err := svc.Grant(context.Background(), "c@x.com", 1)
	require.NoError(t, err)

	expiry := granted.AddDate(0, 1, 0)

	// Exactly at expiry the license is already expired.
	svc.now = func() time.Time { return expiry }
	result, err := svc.Validate(context.Background(), "c@x.com")
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Equal(t, ReasonExpired, result.Message)

	// One instant before it is still valid.
	svc.now = func() time.Time { return expiry.Add(-time.Second) }
	result, err = svc.Validate(context.Background(), "c@x.com")
	require.NoError(t, err)
	require.True(t, result.Valid)
}

func TestInactiveShortCircuitsExpiry(t *testing.T) {
	svc := newTestService(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.Activate(context.Background(), "d@x.com", "cus_1", "sub_1")
	require.NoError(t, err)
	_, err = svc.Deactivate(context.Background(), "d@x.com")
	require.NoError(t, err)

	// Well past expiry; inactive still wins.
	svc.now = func() time.Time { return now.AddDate(1, 0, 0) }

	result, err := svc.Validate(context.Background(), "d@x.com")
	require.NoError(t, err)
	require.Equal(t, ReasonInactive, result.Message)
}

func TestListPaginates(t *testing.T) {
	svc := newTestService(t)
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	emails := []string{"a@x.com", "b@x.com", "c@x.com"}
	for i, email := range emails {
		tick := base.Add(time.Duration(i) * time.Minute)
		svc.now = func() time.Time { return tick }
		_, err := svc.Grant(context.Background(), email, 1)
		require.NoError(t, err)
	}

	licenses, pageInfo, err := svc.List(context.Background(), pagination.Pagination{Limit: 2})
	require.NoError(t, err)
	require.Len(t, licenses, 2)
	require.True(t, pageInfo.HasMore)
	require.NotEmpty(t, pageInfo.NextCursor)

	// Newest first.
	require.Equal(t, "c@x.com", licenses[0].Email)
	require.Equal(t, "b@x.com", licenses[1].Email)
}

func TestListFollowsCursorToNextPage(t *testing.T) {
	svc := newTestService(t)
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	emails := []string{"a@x.com", "b@x.com", "c@x.com"}
	for i, email := range emails {
		tick := base.Add(time.Duration(i) * time.Minute)
		svc.now = func() time.Time { return tick }
		_, err := svc.Grant(context.Background(), email, 1)
		require.NoError(t, err)
	}

	first, pageInfo, err := svc.List(context.Background(), pagination.Pagination{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.True(t, pageInfo.HasMore)

	second, pageInfo, err := svc.List(context.Background(), pagination.Pagination{
		Limit:  2,
		Cursor: pageInfo.NextCursor,
	})
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Equal(t, "a@x.com", second[0].Email)
	require.False(t, pageInfo.HasMore)
}
