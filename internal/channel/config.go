package channel

import (
	"errors"
	"os"
	"time"
)

// Config holds the voice provider connection settings.
type Config struct {
	URL              string
	PublicKey        string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
}

func NewConfig() (*Config, error) {
	url := os.Getenv("VOICE_CHANNEL_URL")
	if url == "" {
		return nil, errors.New("VOICE_CHANNEL_URL environment variable is required")
	}

	key := os.Getenv("VOICE_CHANNEL_PUBLIC_KEY")
	if key == "" {
		return nil, errors.New("VOICE_CHANNEL_PUBLIC_KEY environment variable is required")
	}

	handshake := 10 * time.Second
	if v := os.Getenv("VOICE_CHANNEL_HANDSHAKE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			handshake = d
		}
	}

	return &Config{
		URL:              url,
		PublicKey:        key,
		HandshakeTimeout: handshake,
		WriteTimeout:     5 * time.Second,
	}, nil
}
