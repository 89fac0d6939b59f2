package auth

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/trn-portal/trn_portal/internal/logging"
	"github.com/trn-portal/trn_portal/internal/otp"
)

func newHandlerApp(t *testing.T) (*fiber.App, *fixture) {
	t.Helper()
	f := newFixture(t, otp.Options{})
	h := NewHandler(f.svc, logging.Discard())

	app := fiber.New()
	app.Post("/api/login", h.Login)
	app.Post("/api/register", h.Register)
	app.Post("/api/send-otp", h.SendOTP)
	app.Post("/api/verify-otp", h.VerifyOTP)
	app.Post("/api/cancel-otp", h.CancelOTP)
	app.Post("/api/admin-eligible", h.AdminEligible)
	return app, f
}

func call(t *testing.T, app *fiber.App, path, body string) map[string]any {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("%s: expected 200 got %d", path, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %s: %v (%s)", path, err, raw)
	}
	return out
}

const registerBody = `{
	"email": "ana@example.com",
	"password": "s3cret!",
	"confirmPassword": "s3cret!",
	"role": "user",
	"firstName": "Ana",
	"middleName": "Reyes",
	"lastName": "Cruz",
	"phoneNumber": "09171234567",
	"position": "Encoder",
	"province": "Cebu"
}`

func TestHandlerRegistrationFlow(t *testing.T) {
	app, f := newHandlerApp(t)

	out := call(t, app, "/api/register", registerBody)
	if out["success"] != true {
		t.Fatalf("register failed: %v", out)
	}

	out = call(t, app, "/api/verify-otp", `{"email":"ana@example.com","otp":"abc"}`)
	if out["success"] != false || out["message"] != "Invalid OTP" {
		t.Fatalf("unexpected mismatch reply: %v", out)
	}

	code := f.notifier.code("ana@example.com")
	out = call(t, app, "/api/verify-otp", `{"email":"ana@example.com","otp":"`+code+`"}`)
	if out["success"] != true {
		t.Fatalf("verify failed: %v", out)
	}

	out = call(t, app, "/api/login", `{"email":"ana@example.com","password":"s3cret!"}`)
	if out["success"] != true || out["role"] != "user" {
		t.Fatalf("login failed: %v", out)
	}

	out = call(t, app, "/api/login", `{"email":"ana@example.com","password":"nope"}`)
	if out["success"] != false || out["message"] != "Invalid email or password" {
		t.Fatalf("unexpected bad-login reply: %v", out)
	}
	if _, ok := out["role"]; ok {
		t.Fatalf("failed login must not carry a role: %v", out)
	}
}

func TestHandlerRejectsMismatchedPasswords(t *testing.T) {
	app, f := newHandlerApp(t)

	body := strings.Replace(registerBody, `"confirmPassword": "s3cret!"`, `"confirmPassword": "other"`, 1)
	out := call(t, app, "/api/register", body)
	if out["success"] != false || out["message"] != "Passwords do not match" {
		t.Fatalf("unexpected reply: %v", out)
	}
	if len(f.notifier.sent) != 0 {
		t.Fatalf("no OTP may be sent")
	}
}

func TestHandlerMalformedBody(t *testing.T) {
	app, _ := newHandlerApp(t)

	for _, path := range []string{"/api/login", "/api/register", "/api/send-otp", "/api/verify-otp", "/api/cancel-otp"} {
		out := call(t, app, path, `{"email":`)
		if out["success"] != false || out["message"] != "Invalid request" {
			t.Fatalf("%s: unexpected reply %v", path, out)
		}
	}

	out := call(t, app, "/api/admin-eligible", `not json`)
	if out["eligible"] != false {
		t.Fatalf("malformed eligibility request must be ineligible: %v", out)
	}
}

func TestHandlerSendOTPUnknownEmail(t *testing.T) {
	app, _ := newHandlerApp(t)

	out := call(t, app, "/api/send-otp", `{"email":"ghost@example.com"}`)
	if out["success"] != false {
		t.Fatalf("expected failure: %v", out)
	}
	if msg, _ := out["message"].(string); !strings.Contains(msg, "No pending verification") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestHandlerCancel(t *testing.T) {
	app, f := newHandlerApp(t)

	call(t, app, "/api/register", registerBody)
	code := f.notifier.code("ana@example.com")

	out := call(t, app, "/api/cancel-otp", `{"email":"ana@example.com"}`)
	if out["success"] != true {
		t.Fatalf("cancel failed: %v", out)
	}
	out = call(t, app, "/api/verify-otp", `{"email":"ana@example.com","otp":"`+code+`"}`)
	if out["success"] != false {
		t.Fatalf("verify after cancel must fail: %v", out)
	}
}

func TestHandlerAdminEligible(t *testing.T) {
	app, _ := newHandlerApp(t)

	out := call(t, app, "/api/admin-eligible", `{"firstName":" ana ","middleName":"REYES","lastName":"cruz","email":"Ana@Example.com"}`)
	if out["eligible"] != true {
		t.Fatalf("expected eligible: %v", out)
	}
	out = call(t, app, "/api/admin-eligible", `{"firstName":"Ana","lastName":"Cruz","email":"other@example.com"}`)
	if out["eligible"] != false {
		t.Fatalf("expected ineligible: %v", out)
	}
}
