package s3_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"parking/config"
	"parking/infras/otel/mocks"
	"parking/infras/s3"
)

func TestKeyFromURL(t *testing.T) {
	withDomain := &config.Config{}
	withDomain.External.S3.BucketName = "parking"
	withDomain.External.S3.PublicDomain = "https://cdn.example.com/"

	pathStyle := &config.Config{}
	pathStyle.External.S3.BucketName = "parking"
	pathStyle.External.S3.APIEndpoint = "https://storage.example.com"

	tests := []struct {
		name string
		cfg  *config.Config
		url  string
		want string
	}{
		{name: "public domain", cfg: withDomain, url: "https://cdn.example.com/qr/booking-1.png", want: "qr/booking-1.png"},
		{name: "path style", cfg: pathStyle, url: "https://storage.example.com/parking/qr/booking-1.png", want: "qr/booking-1.png"},
		{name: "foreign url", cfg: withDomain, url: "https://elsewhere.example.com/qr/booking-1.png", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := s3.New(tt.cfg, mocks.NewOtel())

			assert.True(t, store.Enabled())
			assert.Equal(t, tt.want, store.KeyFromURL(tt.url))
		})
	}
}

func TestEnabled(t *testing.T) {
	assert.False(t, s3.New(&config.Config{}, mocks.NewOtel()).Enabled())
}
