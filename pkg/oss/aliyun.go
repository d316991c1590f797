// Package oss wraps object storage for uploaded assets.
package oss

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// Uploader stores objects and resolves their public URLs.
type Uploader interface {
	Upload(ctx context.Context, objectKey string, data []byte, contentType string) (string, error)
	UploadStream(ctx context.Context, objectKey string, reader io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, objectKey string) error
	GetURL(objectKey string) string
	GetSignedURL(objectKey string, expires time.Duration) (string, error)
}

// AliyunConfig configures the OSS bucket.
type AliyunConfig struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	BucketName      string
	Domain          string // optional custom domain
	BasePath        string // key prefix, e.g. "uploads/"
}

// AliyunUploader stores objects in an Aliyun OSS bucket.
type AliyunUploader struct {
	bucket *oss.Bucket
	config *AliyunConfig
}

// NewAliyunUploader connects to the configured bucket.
func NewAliyunUploader(config *AliyunConfig) (*AliyunUploader, error) {
	client, err := oss.New(config.Endpoint, config.AccessKeyID, config.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("criar cliente OSS: %w", err)
	}

	bucket, err := client.Bucket(config.BucketName)
	if err != nil {
		return nil, fmt.Errorf("abrir bucket: %w", err)
	}

	return &AliyunUploader{bucket: bucket, config: config}, nil
}

// Upload stores an object and returns its public URL.
func (u *AliyunUploader) Upload(ctx context.Context, objectKey string, data []byte, contentType string) (string, error) {
	return u.UploadStream(ctx, objectKey, bytes.NewReader(data), contentType)
}

// UploadStream stores an object from a reader.
func (u *AliyunUploader) UploadStream(_ context.Context, objectKey string, reader io.Reader, contentType string) (string, error) {
	fullKey := u.getFullKey(objectKey)

	options := []oss.Option{}
	if contentType != "" {
		options = append(options, oss.ContentType(contentType))
	}

	if err := u.bucket.PutObject(fullKey, reader, options...); err != nil {
		return "", fmt.Errorf("enviar objeto: %w", err)
	}
	return u.GetURL(objectKey), nil
}

// Delete removes an object.
func (u *AliyunUploader) Delete(_ context.Context, objectKey string) error {
	return u.bucket.DeleteObject(u.getFullKey(objectKey))
}

// GetURL resolves the public URL of an object.
func (u *AliyunUploader) GetURL(objectKey string) string {
	fullKey := u.getFullKey(objectKey)

	if u.config.Domain != "" {
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(u.config.Domain, "/"), fullKey)
	}
	return fmt.Sprintf("https://%s.%s/%s", u.config.BucketName, u.config.Endpoint, fullKey)
}

// GetSignedURL resolves a temporary signed URL.
func (u *AliyunUploader) GetSignedURL(objectKey string, expires time.Duration) (string, error) {
	return u.bucket.SignURL(u.getFullKey(objectKey), oss.HTTPGet, int64(expires.Seconds()))
}

func (u *AliyunUploader) getFullKey(objectKey string) string {
	if u.config.BasePath == "" {
		return objectKey
	}
	return path.Join(u.config.BasePath, objectKey)
}

// GenerateObjectKey builds a collision-free key for an uploaded file.
func GenerateObjectKey(prefix, filename string) string {
	ext := path.Ext(filename)
	sum := md5.Sum([]byte(fmt.Sprintf("%s-%d", filename, time.Now().UnixNano())))
	name := hex.EncodeToString(sum[:])
	datePath := time.Now().Format("2006/01/02")
	return path.Join(prefix, datePath, name+ext)
}
