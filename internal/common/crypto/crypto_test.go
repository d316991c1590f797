package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAESRoundTrip(t *testing.T) {
	a, err := NewAES("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	ciphertext, err := a.Encrypt("123.456.789-09")
	require.NoError(t, err)
	assert.NotEqual(t, "123.456.789-09", ciphertext)

	plaintext, err := a.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "123.456.789-09", plaintext)
}

func TestNewAESInvalidKey(t *testing.T) {
	_, err := NewAES("short")
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestDecryptShortCiphertext(t *testing.T) {
	a, err := NewAES("0123456789abcdef")
	require.NoError(t, err)

	_, err = a.Decrypt("YWJj")
	assert.ErrorIs(t, err, ErrCiphertextShort)
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3nh4-forte")
	require.NoError(t, err)
	assert.NotEqual(t, "s3nh4-forte", hash)

	assert.True(t, VerifyPassword("s3nh4-forte", hash))
	assert.False(t, VerifyPassword("errada", hash))
}

func TestMasks(t *testing.T) {
	assert.Equal(t, "5511****54", MaskWhatsApp("5511987654"))
	assert.Equal(t, "123", MaskWhatsApp("123"))
	assert.Equal(t, "123.***.***-09", MaskCPF("12345678909"))
	assert.Equal(t, "123", MaskCPF("123"))
	assert.Equal(t, "ma***@exemplo.com", MaskEmail("maria@exemplo.com"))
	assert.Equal(t, "ab@x.com", MaskEmail("ab@x.com"))
}
