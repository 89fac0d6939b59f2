package notification

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/trn-portal/trn_portal/internal/logging"
)

func TestOTPMessage(t *testing.T) {
	msg := OTPMessage("ana@example.com", "012345", 5*time.Minute)
	if msg.Kind != KindOTPCode || msg.Destination != "ana@example.com" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if !strings.Contains(msg.Body, "012345") || !strings.Contains(msg.Body, "5 minutes") {
		t.Fatalf("unexpected body %q", msg.Body)
	}
}

func TestOTPMessageExpiryWording(t *testing.T) {
	cases := map[time.Duration]string{
		5 * time.Minute:         "It expires in 5 minutes.",
		time.Minute:             "It expires in 1 minute.",
		90 * time.Second:        "It expires in 90 seconds.",
		30 * time.Second:        "It expires in 30 seconds.",
		time.Second:             "It expires in 1 second.",
		1500 * time.Millisecond: "It expires in 2 seconds.",
	}
	for ttl, want := range cases {
		if body := OTPMessage("ana@example.com", "012345", ttl).Body; !strings.HasSuffix(body, want) {
			t.Fatalf("ttl %s: expected %q in %q", ttl, want, body)
		}
	}
}

func TestLoggerNotifierWrites(t *testing.T) {
	var buf bytes.Buffer
	n := NewLoggerNotifier(logging.NewWithWriter(&buf, "info", ""))
	if err := n.Send(context.Background(), OTPMessage("ana@example.com", "012345", time.Minute)); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(buf.String(), `"destination":"ana@example.com"`) {
		t.Fatalf("expected destination in log, got %s", buf.String())
	}

	var nilNotifier *LoggerNotifier
	if err := nilNotifier.Send(context.Background(), Message{}); err != nil {
		t.Fatalf("nil notifier should be a no-op, got %v", err)
	}
}
