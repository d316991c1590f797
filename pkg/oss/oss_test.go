package oss

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockUploader(t *testing.T) {
	uploader := NewMockUploader()
	ctx := context.Background()

	t.Run("upload and fetch url", func(t *testing.T) {
		url, err := uploader.Upload(ctx, "cards/1/token.png", []byte{0x89, 0x50, 0x4E, 0x47}, "image/png")
		require.NoError(t, err)
		assert.Contains(t, url, "cards/1/token.png")
		assert.Equal(t, []byte{0x89, 0x50, 0x4E, 0x47}, uploader.Files["cards/1/token.png"])
	})

	t.Run("upload from reader", func(t *testing.T) {
		url, err := uploader.UploadStream(ctx, "logos/1.png", strings.NewReader("conteudo"), "image/png")
		require.NoError(t, err)
		assert.Contains(t, url, "logos/1.png")
		assert.Equal(t, []byte("conteudo"), uploader.Files["logos/1.png"])
	})

	t.Run("delete", func(t *testing.T) {
		_, err := uploader.Upload(ctx, "tmp/x.txt", []byte("x"), "text/plain")
		require.NoError(t, err)
		require.NoError(t, uploader.Delete(ctx, "tmp/x.txt"))
		_, ok := uploader.Files["tmp/x.txt"]
		assert.False(t, ok)
	})

	t.Run("signed url carries expiry", func(t *testing.T) {
		url, err := uploader.GetSignedURL("cards/1/token.png", time.Hour)
		require.NoError(t, err)
		assert.Contains(t, url, "expires=3600")
	})
}

func TestGenerateObjectKey(t *testing.T) {
	a := GenerateObjectKey("uploads", "logo.png")
	b := GenerateObjectKey("uploads", "logo.png")

	assert.True(t, strings.HasPrefix(a, "uploads/"))
	assert.True(t, strings.HasSuffix(a, ".png"))
	assert.NotEqual(t, a, b)
}
