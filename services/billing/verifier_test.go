package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

const testSecret = "whsec_test_secret"

func signPayload(t *testing.T, secret string, timestamp time.Time, payload []byte) string {
	t.Helper()

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp.Unix())
	mac.Write(payload)

	return fmt.Sprintf("t=%d,v1=%s", timestamp.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func newTestVerifier(now time.Time) *Verifier {
	v := NewVerifier(testSecret, 5*time.Minute)
	v.now = func() time.Time { return now }
	return v
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	payload := []byte(`{"id":"evt_1","type":"invoice.paid"}`)

	v := newTestVerifier(now)
	require.NoError(t, v.Verify(payload, signPayload(t, testSecret, now, payload)))
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	payload := []byte(`{"id":"evt_1","type":"invoice.paid"}`)
	header := signPayload(t, testSecret, now, payload)

	tampered := []byte(`{"id":"evt_1","type":"invoice.paid","amount":0}`)

	v := newTestVerifier(now)
	require.ErrorIs(t, v.Verify(tampered, header), ErrInvalidSignature)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	payload := []byte(`{}`)
	header := signPayload(t, "whsec_other", now, payload)

	v := newTestVerifier(now)
	require.ErrorIs(t, v.Verify(payload, header), ErrInvalidSignature)
}

func TestVerifyRejectsMissingHeader(t *testing.T) {
	v := newTestVerifier(time.Now())
	require.ErrorIs(t, v.Verify([]byte(`{}`), ""), ErrMissingSignature)
}

func TestVerifyRejectsMalformedHeader(t *testing.T) {
	v := newTestVerifier(time.Now())
	require.Error(t, v.Verify([]byte(`{}`), "not a signature"))
	require.Error(t, v.Verify([]byte(`{}`), "t=abc,v1=00"))
	require.Error(t, v.Verify([]byte(`{}`), "t=123"))
}

func TestVerifyRejectsStaleTimestamp(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	payload := []byte(`{}`)
	header := signPayload(t, testSecret, now.Add(-time.Hour), payload)

	v := newTestVerifier(now)
	require.ErrorIs(t, v.Verify(payload, header), ErrSignatureTooOld)
}

func TestVerifyAcceptsOneOfManySignatures(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	payload := []byte(`{"id":"evt_1"}`)

	valid := signPayload(t, testSecret, now, payload)
	// Rotated-secret deliveries carry multiple v1 entries.
	header := fmt.Sprintf("%s,v1=%s", valid, hex.EncodeToString(make([]byte, 32)))

	v := newTestVerifier(now)
	require.NoError(t, v.Verify(payload, header))
}
