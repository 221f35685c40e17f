package emergency

import (
	"context"
	"errors"
	"log/slog"
)

const defaultMessage = "SOS! I need help. This is an automated emergency alert from my vision assistant."

var ErrNotConfigured = errors.New("emergency contact not configured")

// Locator resolves an approximate position for the alert.
type Locator interface {
	Locate(ctx context.Context) (*Location, error)
}

// Dispatcher composes and sends emergency alerts. It is deliberately
// independent of conversational state: an SOS goes out the same way
// whether or not a document or object context is open.
type Dispatcher struct {
	transport Transport
	locator   Locator
	logger    *slog.Logger
}

func NewDispatcher(transport Transport, locator Locator, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		transport: transport,
		locator:   locator,
		logger:    logger.With("component", "emergency"),
	}
}

// Dispatch sends one alert, with the default SOS text when message is
// empty. A failed location lookup downgrades the alert rather than
// blocking it.
func (d *Dispatcher) Dispatch(ctx context.Context, message string) (string, error) {
	if d.transport == nil || !d.transport.Configured() {
		return "", ErrNotConfigured
	}

	if message == "" {
		message = defaultMessage
	}

	alert := Alert{Message: message}
	if d.locator != nil {
		loc, err := d.locator.Locate(ctx)
		if err != nil {
			d.logger.Warn("location lookup failed, sending alert without location", "error", err)
		} else {
			alert.Location = loc
		}
	}

	if err := d.transport.Send(ctx, alert); err != nil {
		d.logger.Error("emergency alert failed", "error", err)
		return "", err
	}

	d.logger.Info("emergency alert sent", "located", alert.Location != nil)
	if alert.Location != nil {
		return "Emergency alert sent with your approximate location near " + alert.Location.Describe() + ".", nil
	}
	return "Emergency alert sent.", nil
}
