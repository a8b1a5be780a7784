// Package kafka configures broker access for the directory change events.
package kafka

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
	"go.uber.org/zap"
)

// Config holds the broker list and optional SASL/PLAIN credentials.
type Config struct {
	Brokers   []string `yaml:"brokers"`
	Topic     string   `yaml:"topic"`
	APIKey    string   `yaml:"api_key"`
	APISecret string   `yaml:"api_secret"`
}

// Enabled reports whether any broker is configured.
func (c Config) Enabled() bool {
	return len(c.Brokers) > 0
}

// NewDialer returns a dialer with SASL/PLAIN over TLS when credentials are
// set, and a plain dialer for local development otherwise.
func NewDialer(cfg Config) *kafka.Dialer {
	if cfg.APIKey != "" && cfg.APISecret != "" {
		return &kafka.Dialer{
			Timeout:   10 * time.Second,
			DualStack: true,
			SASLMechanism: plain.Mechanism{
				Username: cfg.APIKey,
				Password: cfg.APISecret,
			},
			TLS: &tls.Config{MinVersion: tls.VersionTLS12},
		}
	}

	return &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
}

// WaitForBroker dials the first broker until it answers, up to attempts times.
func WaitForBroker(ctx context.Context, dialer *kafka.Dialer, cfg Config, attempts int, logger *zap.Logger) error {
	if !cfg.Enabled() {
		return fmt.Errorf("no kafka brokers configured")
	}

	var err error
	for i := 1; i <= attempts; i++ {
		logger.Sugar().Infof("Kafka connection attempt %d/%d...", i, attempts)

		var conn *kafka.Conn
		conn, err = dialer.DialContext(ctx, "tcp", cfg.Brokers[0])
		if err == nil {
			conn.Close()
			return nil
		}

		if i < attempts {
			select {
			case <-time.After(2 * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("failed to reach kafka broker %s: %w", cfg.Brokers[0], err)
}
