package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareCountsRequests(t *testing.T) {
	m := New()
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })
	app.Get("/metrics", m.Handler())

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ping", nil))
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		resp.Body.Close()
	}

	if got := testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/ping", "200")); got != 2 {
		t.Fatalf("expected 2 requests, got %v", got)
	}

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `http_requests_total{method="GET",path="/ping",status="200"} 2`) {
		t.Fatalf("scrape missing request counter:\n%s", body)
	}
}

func TestDomainCounters(t *testing.T) {
	m := New()
	m.OTPIssued("register")
	m.OTPIssued("resend")
	m.OTPIssued("resend")
	m.OTPVerified("success")
	m.Login("invalid")

	if got := testutil.ToFloat64(m.otpIssued.WithLabelValues("resend")); got != 2 {
		t.Fatalf("expected 2 resends, got %v", got)
	}
	if got := testutil.ToFloat64(m.otpVerifications.WithLabelValues("success")); got != 1 {
		t.Fatalf("expected 1 success, got %v", got)
	}
	if got := testutil.ToFloat64(m.logins.WithLabelValues("invalid")); got != 1 {
		t.Fatalf("expected 1 invalid login, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.OTPIssued("register")
	m.OTPVerified("success")
	m.Login("success")

	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}
