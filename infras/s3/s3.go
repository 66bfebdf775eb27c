// Package s3 stores booking QR images in the configured S3 compatible bucket
// and maps objects to the public URLs handed to booking holders.
package s3

//go:generate go run go.uber.org/mock/mockgen -source=./s3.go -destination=./mocks/s3_mock.go -package=mocks

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"parking/config"
	"parking/infras/otel"
	"parking/shared/constant"
)

const (
	otelAttrKey    = "s3.key"
	otelAttrBucket = "s3.bucket"

	// Objects are immutable per key; a new booking gets a new key.
	cacheControl = "public, max-age=86400, immutable"
)

type S3 interface {
	// Enabled is false when no bucket is configured.
	Enabled() bool
	Put(ctx context.Context, key, contentType string, body []byte) (url string, err error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) string
}

type s3Impl struct {
	client *s3.Client
	cfg    *config.Config
	otel   otel.Otel
}

func New(cfg *config.Config, otel otel.Otel) S3 {
	settings := cfg.External.S3

	awsCfg, err := awsConfig.LoadDefaultConfig(
		context.Background(),
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(settings.AccessKeyID, settings.SecretAccessKey, "")),
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to load object storage configuration")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if settings.APIEndpoint != "" {
			o.BaseEndpoint = aws.String(settings.APIEndpoint)
		}

		o.UsePathStyle = true
		o.Region = "auto"
	})

	return &s3Impl{
		client: client,
		cfg:    cfg,
		otel:   otel,
	}
}

func (svc *s3Impl) bucket() string {
	return svc.cfg.External.S3.BucketName
}

func (svc *s3Impl) Enabled() bool {
	return svc.bucket() != ""
}

func (svc *s3Impl) scope(ctx context.Context, op, key string) (context.Context, otel.Scope) {
	ctx, scope := svc.otel.NewScope(ctx, constant.OtelS3ScopeName, constant.OtelS3ScopeName+"."+op)
	scope.SetAttributes(map[string]any{
		otelAttrKey:    key,
		otelAttrBucket: svc.bucket(),
	})

	return ctx, scope
}

// Put uploads body under key and returns its public URL.
func (svc *s3Impl) Put(ctx context.Context, key, contentType string, body []byte) (url string, err error) {
	ctx, scope := svc.scope(ctx, "Put", key)
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	_, err = svc.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(svc.bucket()),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
		CacheControl:  aws.String(cacheControl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}

	return svc.publicPrefix() + key, nil
}

func (svc *s3Impl) Delete(ctx context.Context, key string) (err error) {
	ctx, scope := svc.scope(ctx, "Delete", key)
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	_, err = svc.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(svc.bucket()),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}

	return nil
}

// publicPrefix is the CDN domain when one is configured, otherwise the
// path-style bucket URL on the API endpoint.
func (svc *s3Impl) publicPrefix() string {
	settings := svc.cfg.External.S3
	if settings.PublicDomain != "" {
		return strings.TrimSuffix(settings.PublicDomain, "/") + "/"
	}

	return strings.TrimSuffix(settings.APIEndpoint, "/") + "/" + svc.bucket() + "/"
}

// KeyFromURL reverses Put. Foreign URLs yield "".
func (svc *s3Impl) KeyFromURL(url string) string {
	key, ok := strings.CutPrefix(url, svc.publicPrefix())
	if !ok {
		return ""
	}

	return key
}
