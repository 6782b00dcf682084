package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader is the provider header carrying "t=<unix>,v1=<hex hmac>".
const SignatureHeader = "Stripe-Signature"

var (
	ErrMissingSignature  = errors.New("missing signature header")
	ErrInvalidSignature  = errors.New("signature does not match payload")
	ErrSignatureTooOld   = errors.New("signature timestamp outside tolerance")
	ErrMalformedHeader   = errors.New("malformed signature header")
	errNoSignedTimestamp = errors.New("signature header has no timestamp")
)

// Verifier checks that a webhook delivery was signed by the provider with
// the shared endpoint secret. Verification runs over the exact raw payload
// bytes; any transformation of the body before this point breaks it.
type Verifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	if tolerance <= 0 {
		tolerance = 5 * time.Minute
	}
	return &Verifier{
		secret:    []byte(secret),
		tolerance: tolerance,
		now:       time.Now,
	}
}

// Verify returns nil only when one of the header's v1 signatures is a valid
// HMAC-SHA256 of "<timestamp>.<payload>" and the timestamp is within
// tolerance. Any failure means the caller must reject the delivery without
// touching state.
func (v *Verifier) Verify(payload []byte, header string) error {
	if header == "" {
		return ErrMissingSignature
	}

	timestamp, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	age := v.now().Sub(time.Unix(timestamp, 0))
	if age > v.tolerance || age < -v.tolerance {
		return ErrSignatureTooOld
	}

	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		decoded, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}

	return ErrInvalidSignature
}

func parseSignatureHeader(header string) (int64, []string, error) {
	var timestamp int64
	var haveTimestamp bool
	var signatures []string

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return 0, nil, ErrMalformedHeader
		}

		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, ErrMalformedHeader
			}
			timestamp = ts
			haveTimestamp = true
		case "v1":
			signatures = append(signatures, value)
		default:
			// Unknown schemes (v0 test-mode signatures) are ignored.
		}
	}

	if !haveTimestamp {
		return 0, nil, errNoSignedTimestamp
	}
	if len(signatures) == 0 {
		return 0, nil, ErrMalformedHeader
	}

	return timestamp, signatures, nil
}
