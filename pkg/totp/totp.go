package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	// Digits is the code length (RFC 6238 standard).
	Digits = 6
	// Period is the code validity window in seconds (RFC 6238 standard).
	Period = 30
	// DefaultSkew is the number of adjacent time steps accepted on either
	// side of the current one to tolerate clock drift.
	DefaultSkew = 1

	secretBytes = 20 // 160-bit secret per RFC 4226 recommendation
)

var (
	// secretRegex enforces Base32 without padding: uppercase A-Z, digits 2-7.
	secretRegex = regexp.MustCompile(`^[A-Z2-7]+$`)
	codeRegex   = regexp.MustCompile(fmt.Sprintf(`^\d{%d}$`, Digits))

	b32 = base32.StdEncoding.WithPadding(base32.NoPadding)
)

// GenerateSecret creates a new Base32-encoded shared secret.
func GenerateSecret() (string, error) {
	secret := make([]byte, secretBytes)
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Join(ErrFailedToGenerateSecret, err)
	}
	return b32.EncodeToString(secret), nil
}

// GenerateCode computes the TOTP code for the time step containing t.
func GenerateCode(secret string, t time.Time) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	return formatCode(hotp(key, t.Unix()/Period)), nil
}

// Validate reports whether code matches the secret at time t, accepting
// codes from up to skew adjacent time steps on either side. A negative skew
// is treated as zero (exact step only).
func Validate(secret, code string, skew int, t time.Time) (bool, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return false, err
	}

	code = strings.TrimSpace(code)
	if !codeRegex.MatchString(code) {
		return false, ErrInvalidCodeFormat
	}

	if skew < 0 {
		skew = 0
	}

	counter := t.Unix() / Period
	for i := -skew; i <= skew; i++ {
		candidate := formatCode(hotp(key, counter+int64(i)))
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(code)) == 1 {
			return true, nil
		}
	}
	return false, nil
}

// URIParams describes a provisioning URI for authenticator apps.
type URIParams struct {
	Secret      string // Base32 shared secret (required)
	AccountName string // user identifier shown in the app (required)
	Issuer      string // service name shown in the app (required)
}

// URI renders the otpauth:// provisioning URI per the Key Uri Format:
// https://github.com/google/google-authenticator/wiki/Key-Uri-Format
func URI(p URIParams) (string, error) {
	if _, err := decodeSecret(p.Secret); err != nil {
		return "", err
	}
	if p.AccountName == "" {
		return "", ErrMissingAccountName
	}
	if p.Issuer == "" {
		return "", ErrMissingIssuer
	}

	label := fmt.Sprintf("%s:%s", url.PathEscape(p.Issuer), url.PathEscape(p.AccountName))

	query := url.Values{}
	query.Set("secret", strings.ToUpper(strings.TrimSpace(p.Secret)))
	query.Set("issuer", p.Issuer)
	query.Set("algorithm", "SHA1")
	query.Set("digits", fmt.Sprintf("%d", Digits))
	query.Set("period", fmt.Sprintf("%d", Period))

	return fmt.Sprintf("otpauth://totp/%s?%s", label, query.Encode()), nil
}

func decodeSecret(secret string) ([]byte, error) {
	secret = strings.TrimSpace(strings.ToUpper(secret))
	if !secretRegex.MatchString(secret) {
		return nil, ErrInvalidSecret
	}
	key, err := b32.DecodeString(secret)
	if err != nil {
		return nil, errors.Join(ErrInvalidSecret, err)
	}
	return key, nil
}

func formatCode(code int) string {
	return fmt.Sprintf("%0*d", Digits, code)
}

// hotp implements the RFC 4226 HMAC-based one-time-password algorithm.
func hotp(key []byte, counter int64) int {
	// Counter is encoded as a big-endian 8-byte value.
	counterBytes := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		counterBytes[i] = byte(counter & 0xff)
		counter >>= 8
	}

	mac := hmac.New(sha1.New, key)
	mac.Write(counterBytes)
	sum := mac.Sum(nil)

	// Dynamic truncation: low 4 bits of the last byte select the offset,
	// the MSB of the extracted word is cleared to keep the value positive.
	offset := sum[len(sum)-1] & 0x0f
	code := (int(sum[offset]&0x7f) << 24) |
		(int(sum[offset+1]&0xff) << 16) |
		(int(sum[offset+2]&0xff) << 8) |
		int(sum[offset+3]&0xff)

	return code % int(math.Pow10(Digits))
}
