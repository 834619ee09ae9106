package codec

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// TokenBytes is the entropy of opaque session tokens (256 bits).
	TokenBytes = 32

	// BackupCodeBytes is the entropy of a single backup code (64 bits),
	// rendered as a 16-character uppercase hex string.
	BackupCodeBytes = 8
)

// Digits generates a random decimal code of exactly n digits, including
// leading zeros. Each digit is drawn independently from crypto/rand with
// rejection sampling so the distribution is uniform.
func Digits(n int) (string, error) {
	if n < 1 {
		return "", ErrInvalidCodeLength
	}

	code := make([]byte, n)
	buf := make([]byte, 1)
	for i := 0; i < n; {
		if _, err := rand.Read(buf); err != nil {
			return "", errors.Join(ErrFailedToGenerateCode, err)
		}
		// Reject values >= 250 to avoid modulo bias over 10 digits.
		if buf[0] >= 250 {
			continue
		}
		code[i] = '0' + buf[0]%10
		i++
	}
	return string(code), nil
}

// BackupCodes generates count single-use backup codes. Each code carries
// 64 bits of entropy and is returned as uppercase hex for easy transcription.
func BackupCodes(count int) ([]string, error) {
	if count < 1 {
		return nil, ErrInvalidBackupCodeCount
	}

	codes := make([]string, count)
	for i := range count {
		b := make([]byte, BackupCodeBytes)
		if _, err := rand.Read(b); err != nil {
			return nil, errors.Join(ErrFailedToGenerateCode, err)
		}
		codes[i] = fmt.Sprintf("%X", b)
	}
	return codes, nil
}

// Hash creates a bcrypt hash of a plaintext code for storage. OTP values and
// backup codes are short and low-entropy compared to passwords, so a slow
// salted hash is required to make offline brute force of a leaked store
// impractical.
func Hash(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Join(ErrFailedToHashCode, err)
	}
	return string(hash), nil
}

// Compare checks a plaintext code against a stored bcrypt hash.
// bcrypt comparison is constant-time with respect to the hash contents.
func Compare(code, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}

// Token creates a high-entropy opaque token suitable for step-up sessions.
func Token() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrFailedToGenerateToken, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
