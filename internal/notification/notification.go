package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	// KindOTPCode carries a registration verification code.
	KindOTPCode = "otp_code"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Subject     string
	Body        string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// OTPMessage builds the email that delivers a verification code.
func OTPMessage(email, code string, ttl time.Duration) Message {
	return Message{
		Kind:        KindOTPCode,
		Destination: email,
		Subject:     "Your verification code",
		Body:        fmt.Sprintf("Your verification code is %s. It expires in %s.", code, humanize(ttl)),
	}
}

// humanize renders ttl in whole minutes when it divides evenly, otherwise
// in seconds.
func humanize(ttl time.Duration) string {
	ttl = ttl.Round(time.Second)
	if ttl >= time.Minute && ttl%time.Minute == 0 {
		return plural(int(ttl/time.Minute), "minute")
	}
	return plural(int(ttl/time.Second), "second")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// LoggerNotifier is a stub implementation that writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		"kind", message.Kind,
		"destination", message.Destination,
		"subject", message.Subject,
		"body", message.Body,
	)
	return nil
}
