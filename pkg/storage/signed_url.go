package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/noah-isme/wedding-dispatch-api/pkg/errors"
)

// PhotoLinkSigner issues short-lived tokens that let admins view arrival
// photos without exposing the upload directory.
type PhotoLinkSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewPhotoLinkSigner constructs a signer with the provided secret and TTL.
func NewPhotoLinkSigner(secret string, ttl time.Duration) *PhotoLinkSigner {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &PhotoLinkSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token binding checkinID to the stored photo ref.
func (s *PhotoLinkSigner) Sign(checkinID int64, ref string) (string, time.Time, error) {
	if checkinID <= 0 || ref == "" {
		return "", time.Time{}, fmt.Errorf("checkin id and photo ref required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl)
	id := strconv.FormatInt(checkinID, 10)
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedRef := base64.RawURLEncoding.EncodeToString([]byte(ref))
	token := strings.Join([]string{id, exp, encodedRef, s.mac(id, exp, encodedRef)}, ".")
	return token, expiresAt, nil
}

// Verify validates a token and returns the embedded checkin id and ref.
func (s *PhotoLinkSigner) Verify(token string) (checkinID int64, ref string, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return 0, "", appErrors.Clone(appErrors.ErrValidation, "invalid photo link")
	}
	id, exp, encodedRef, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.mac(id, exp, encodedRef)), []byte(signature)) {
		return 0, "", appErrors.Clone(appErrors.ErrForbidden, "invalid photo link signature")
	}
	expUnix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return 0, "", appErrors.Clone(appErrors.ErrValidation, "invalid photo link expiry")
	}
	if s.now().After(time.Unix(expUnix, 0)) {
		return 0, "", appErrors.ErrLinkExpired
	}
	checkinID, err = strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, "", appErrors.Clone(appErrors.ErrValidation, "invalid photo link id")
	}
	rawRef, err := base64.RawURLEncoding.DecodeString(encodedRef)
	if err != nil {
		return 0, "", appErrors.Clone(appErrors.ErrValidation, "invalid photo link ref")
	}
	return checkinID, string(rawRef), nil
}

func (s *PhotoLinkSigner) mac(id, exp, encodedRef string) string {
	m := hmac.New(sha256.New, s.secret)
	_, _ = m.Write([]byte(id + "|" + exp + "|" + encodedRef))
	return hex.EncodeToString(m.Sum(nil))
}
