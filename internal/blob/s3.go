// Package blob предоставляет хранилище файлов цифровых материалов на базе S3.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/mmeshcher/storefront/internal/model"
)

// S3Config содержит параметры подключения к бакету.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // MinIO, LocalStack и т.п.
	PublicURL string // базовый адрес, по которому файлы доступны покупателям
}

// S3Store хранит файлы в одном бакете S3.
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3Store создаёт хранилище, загружая учётные данные AWS из окружения.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Store(client, cfg), nil
}

func newS3Store(client *s3.Client, cfg S3Config) *S3Store {
	public := strings.TrimRight(cfg.PublicURL, "/")
	if public == "" {
		if cfg.Endpoint != "" {
			public = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			public = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}

	return &S3Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: public,
	}
}

// Upload сохраняет файл под указанным ключом и возвращает его публичный адрес.
func (s *S3Store) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w: %w", key, model.ErrStoreUnavailable, err)
	}

	return s.PublicURL(key), nil
}

// Download возвращает содержимое файла.
func (s *S3Store) Download(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%w: file %s", model.ErrNotFound, key)
		}
		return nil, fmt.Errorf("s3 get %s: %w: %w", key, model.ErrStoreUnavailable, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read %s: %w: %w", key, model.ErrStoreUnavailable, err)
	}
	return data, nil
}

// Remove удаляет файл. Отсутствие файла ошибкой не считается.
func (s *S3Store) Remove(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w: %w", key, model.ErrStoreUnavailable, err)
	}
	return nil
}

// PublicURL возвращает публичный адрес файла.
func (s *S3Store) PublicURL(key string) string {
	return s.publicURL + "/" + url.PathEscape(key)
}
