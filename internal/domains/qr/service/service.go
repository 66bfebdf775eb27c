package service

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"parking/config"
	"parking/infras/otel"
	"parking/infras/s3"
	"parking/shared/constant"
	"path"

	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

const (
	defaultImageSize = 256
	fileExtension    = ".png"
)

// QR renders verification tokens as PNG codes and stores them for the booking holder.
type QR interface {
	Render(ctx context.Context, token string) ([]byte, error)
	Publish(ctx context.Context, bookingID, token string) (string, error)
	Remove(ctx context.Context, url string) error
}

type serviceImpl struct {
	s3   s3.S3
	cfg  *config.Config
	otel otel.Otel
}

func New(s3 s3.S3, cfg *config.Config, otel otel.Otel) QR {
	return &serviceImpl{
		s3:   s3,
		cfg:  cfg,
		otel: otel,
	}
}

func (s *serviceImpl) size() int {
	if s.cfg.QR.ImageSize <= 0 {
		return defaultImageSize
	}

	return s.cfg.QR.ImageSize
}

func (s *serviceImpl) Render(ctx context.Context, token string) (res []byte, err error) {
	_, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".qr.Render")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	code, err := qrcode.New(token, qrcode.Medium)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode qr code")

		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}

	var buf bytes.Buffer
	if err = png.Encode(&buf, code.Image(s.size())); err != nil {
		log.Error().Err(err).Msg("failed to render qr code")

		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}

	return buf.Bytes(), nil
}

// Publish uploads the rendered code and returns its public URL. Without a
// configured bucket nothing is stored and the URL is empty.
func (s *serviceImpl) Publish(ctx context.Context, bookingID, token string) (url string, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".qr.Publish")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttribute("booking_id", bookingID)

	if !s.s3.Enabled() {
		log.Debug().Str("bookingID", bookingID).Msg("no bucket configured, qr image not stored")

		return constant.Empty, nil
	}

	data, err := s.Render(ctx, token)
	if err != nil {
		return constant.Empty, err
	}

	url, err = s.s3.Put(ctx, path.Join(s.cfg.QR.Directory, bookingID+fileExtension), constant.ContentTypePNG, data)
	if err != nil {
		log.Error().Err(err).Str("bookingID", bookingID).Msg("failed to upload qr image")

		return constant.Empty, fmt.Errorf("failed to upload qr image: %w", err)
	}

	return url, nil
}

func (s *serviceImpl) Remove(ctx context.Context, url string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".qr.Remove")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if url == "" || !s.s3.Enabled() {
		return nil
	}

	key := s.s3.KeyFromURL(url)
	if key == "" {
		return nil
	}

	if err = s.s3.Delete(ctx, key); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to delete qr image")

		return fmt.Errorf("failed to delete qr image: %w", err)
	}

	return nil
}
