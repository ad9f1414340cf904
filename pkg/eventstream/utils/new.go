// Package eventstreamutils builds the configured answer event publisher.
package eventstreamutils

import (
	"fmt"
	"log/slog"

	"github.com/papercomputeco/gridiron/pkg/config"
	"github.com/papercomputeco/gridiron/pkg/eventstream"
	"github.com/papercomputeco/gridiron/pkg/eventstream/kafka"
	"github.com/papercomputeco/gridiron/pkg/eventstream/nop"
)

// NewPublisher selects the answer event publisher named by the config.
// An empty provider disables publishing.
func NewPublisher(c config.EventsConfig, logger *slog.Logger) (eventstream.Publisher, error) {
	switch c.Provider {
	case "", "nop":
		return nop.NewPublisher(), nil
	case "kafka":
		return kafka.NewPublisher(kafka.Config{
			Brokers: c.Brokers,
			Topic:   c.Topic,
			Logger:  logger,
		})
	default:
		return nil, fmt.Errorf("unknown events provider: %q", c.Provider)
	}
}
