// Package forwarder relays notifications to external chat/webhook services through shoutrrr.
package forwarder

import (
	"fmt"
	"sync"

	"ezm_trade_backend/internal/config"
	"ezm_trade_backend/internal/platform/metrics"

	"github.com/containrrr/shoutrrr"
	"go.uber.org/zap"
)

// SendFunc delivers a message to a single shoutrrr URL.
type SendFunc func(url, message string) error

// Forwarder sends messages to every configured URL in the background.
type Forwarder struct {
	urls   []string
	send   SendFunc
	logger *zap.Logger
	wg     sync.WaitGroup
}

// New builds a Forwarder for the URLs in NOTIFICATION_FORWARD_URLS.
// With no URLs configured Forward is a no-op.
func New(cfg *config.Config, logger *zap.Logger) *Forwarder {
	return NewWithSender(cfg.NotificationForwardURLs, shoutrrr.Send, logger)
}

// NewWithSender builds a Forwarder with an explicit transport.
func NewWithSender(urls []string, send SendFunc, logger *zap.Logger) *Forwarder {
	return &Forwarder{
		urls:   urls,
		send:   send,
		logger: logger.Named("Forwarder"),
	}
}

// Enabled reports whether any destination is configured.
func (f *Forwarder) Enabled() bool {
	return f != nil && len(f.urls) > 0
}

// Forward delivers title and message to every destination without blocking the caller.
func (f *Forwarder) Forward(title, message string) {
	if !f.Enabled() {
		return
	}
	body := fmt.Sprintf("%s\n%s", title, message)
	for _, url := range f.urls {
		f.wg.Add(1)
		go func(url string) {
			defer f.wg.Done()
			if err := f.send(url, body); err != nil {
				metrics.ForwardFailures.Inc()
				f.logger.Warn("Failed to forward notification", zap.String("title", title), zap.Error(err))
			}
		}(url)
	}
}

// Wait blocks until in-flight deliveries finish.
func (f *Forwarder) Wait() {
	if f == nil {
		return
	}
	f.wg.Wait()
}
