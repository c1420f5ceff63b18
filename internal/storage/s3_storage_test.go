package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Legalistas/brixar-sub002/internal/config"
)

func TestCleanFilename(t *testing.T) {
	assert.Equal(t, "boleto.pdf", cleanFilename("boleto.pdf"))
	assert.Equal(t, "passwd", cleanFilename("../../etc/passwd"))
	assert.Equal(t, "escritura.pdf", cleanFilename(`C:\docs\escritura.pdf`))
	assert.Equal(t, "contrato_final__1_.pdf", cleanFilename("contrato final (1).pdf"))
	assert.Equal(t, "a_o.pdf", cleanFilename("año.pdf"))
	assert.Equal(t, "document", cleanFilename(""))
}

func TestNewS3Storage_RequiresBucket(t *testing.T) {
	_, err := NewS3Storage(&config.Config{AwsRegion: "us-east-1"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestPresignSaleDocument(t *testing.T) {
	store, err := NewS3Storage(&config.Config{
		AwsRegion:          "us-east-1",
		AwsS3Bucket:        "brixar-docs",
		AwsAccessKeyID:     "AKIDEXAMPLE",
		AwsSecretAccessKey: "secret",
		DocumentBaseURL:    "https://cdn.brixar.test/",
	})
	require.NoError(t, err)

	upload, err := store.PresignSaleDocument(context.Background(), 42, "boleto compraventa.pdf", "application/pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(upload.Key, "sales/42/"))
	assert.True(t, strings.HasSuffix(upload.Key, "_boleto_compraventa.pdf"))
	assert.Contains(t, upload.UploadURL, "brixar-docs")
	assert.Contains(t, upload.UploadURL, "X-Amz-Signature=")
	assert.Equal(t, "https://cdn.brixar.test/"+upload.Key, upload.URL)
	assert.False(t, upload.ExpiresAt.IsZero())
}
