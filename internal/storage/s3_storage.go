package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/Legalistas/brixar-sub002/internal/config"
)

// ErrNotConfigured is returned by NewS3Storage when no bucket is set.
var ErrNotConfigured = errors.New("document storage is not configured")

const uploadURLExpiry = 15 * time.Minute

// Upload describes a pre-signed upload slot for a sale document.
type Upload struct {
	UploadURL string    `json:"uploadUrl"`
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IS3Storage hands out upload slots for sale documents.
type IS3Storage interface {
	PresignSaleDocument(ctx context.Context, saleID uint, filename, contentType string) (*Upload, error)
}

type s3Storage struct {
	cfg           *config.Config
	presignClient *s3.PresignClient
}

// NewS3Storage creates the S3-backed document store.
func NewS3Storage(cfg *config.Config) (IS3Storage, error) {
	if cfg.AwsS3Bucket == "" {
		return nil, ErrNotConfigured
	}
	opts := []func(*aws_config.LoadOptions) error{aws_config.WithRegion(cfg.AwsRegion)}
	if cfg.AwsAccessKeyID != "" {
		opts = append(opts, aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"",
		)))
	}
	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &s3Storage{
		cfg:           cfg,
		presignClient: s3.NewPresignClient(s3.NewFromConfig(awsCfg)),
	}, nil
}

// cleanFilename keeps the base name and replaces anything outside [A-Za-z0-9._-].
func cleanFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	cleaned := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' || r == '_') {
			return r
		}
		return '_'
	}, base)
	if cleaned == "" || cleaned == "." || cleaned == "/" {
		return "document"
	}
	return cleaned
}

func saleDocumentKey(saleID uint, filename string) string {
	return fmt.Sprintf("sales/%d/%s_%s", saleID, uuid.NewString(), cleanFilename(filename))
}

func (s *s3Storage) objectURL(key string) string {
	if s.cfg.DocumentBaseURL != "" {
		return strings.TrimRight(s.cfg.DocumentBaseURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.AwsS3Bucket, s.cfg.AwsRegion, key)
}

// PresignSaleDocument returns a PUT URL for a new document of the sale and
// the URL it will be readable at once uploaded.
func (s *s3Storage) PresignSaleDocument(ctx context.Context, saleID uint, filename, contentType string) (*Upload, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	objectKey := saleDocumentKey(saleID, filename)

	presignedReq, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.AwsS3Bucket),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(uploadURLExpiry))
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned PUT URL for key %s: %w", objectKey, err)
	}

	config.GetLogger().WithField("key", objectKey).Debug("presigned sale document upload")
	return &Upload{
		UploadURL: presignedReq.URL,
		Key:       objectKey,
		URL:       s.objectURL(objectKey),
		ExpiresAt: time.Now().UTC().Add(uploadURLExpiry),
	}, nil
}
