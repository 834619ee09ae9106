package codec_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stepauth/pkg/codec"
)

func TestDigits(t *testing.T) {
	t.Parallel()

	t.Run("fixed length with leading zeros allowed", func(t *testing.T) {
		t.Parallel()
		re := regexp.MustCompile(`^\d{6}$`)
		for range 50 {
			code, err := codec.Digits(6)
			require.NoError(t, err)
			assert.Regexp(t, re, code)
		}
	})

	t.Run("rejects non-positive length", func(t *testing.T) {
		t.Parallel()
		_, err := codec.Digits(0)
		assert.ErrorIs(t, err, codec.ErrInvalidCodeLength)
	})

	t.Run("codes are not constant", func(t *testing.T) {
		t.Parallel()
		seen := make(map[string]struct{})
		for range 20 {
			code, err := codec.Digits(6)
			require.NoError(t, err)
			seen[code] = struct{}{}
		}
		assert.Greater(t, len(seen), 1)
	})
}

func TestBackupCodes(t *testing.T) {
	t.Parallel()

	codes, err := codec.BackupCodes(10)
	require.NoError(t, err)
	require.Len(t, codes, 10)

	re := regexp.MustCompile(`^[0-9A-F]{16}$`)
	unique := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		assert.Regexp(t, re, c)
		unique[c] = struct{}{}
	}
	assert.Len(t, unique, len(codes))

	_, err = codec.BackupCodes(0)
	assert.ErrorIs(t, err, codec.ErrInvalidBackupCodeCount)
}

func TestHashAndCompare(t *testing.T) {
	t.Parallel()

	hash, err := codec.Hash("482913")
	require.NoError(t, err)
	assert.NotEqual(t, "482913", hash)

	assert.True(t, codec.Compare("482913", hash))
	assert.False(t, codec.Compare("482914", hash))
	assert.False(t, codec.Compare("", hash))
}

func TestToken(t *testing.T) {
	t.Parallel()

	a, err := codec.Token()
	require.NoError(t, err)
	b, err := codec.Token()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	// 32 bytes base64url without padding is 43 characters.
	assert.Len(t, a, 43)
}
