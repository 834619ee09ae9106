package qrcode_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stepauth/pkg/qrcode"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	png, err := qrcode.Generate("otpauth://totp/StepAuth:admin@example.com?secret=ABCDEFGH", 128)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
	// PNG magic bytes
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])

	_, err = qrcode.Generate("   ", 128)
	assert.ErrorIs(t, err, qrcode.ErrEmptyContent)
}

func TestGenerateBase64Image(t *testing.T) {
	t.Parallel()

	img, err := qrcode.GenerateBase64Image("otpauth://totp/test", 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(img, "data:image/png;base64,"))
}
