package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/trn-portal/trn_portal/internal/account"
	"github.com/trn-portal/trn_portal/internal/options"
	"github.com/trn-portal/trn_portal/internal/otp"
)

// Handler exposes the login and registration endpoints. Every domain outcome
// is answered 200 with a success flag.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandler constructs an auth HTTP handler.
func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{svc: svc, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Role            string `json:"role"`
	FirstName       string `json:"firstName"`
	MiddleName      string `json:"middleName"`
	LastName        string `json:"lastName"`
	PhoneNumber     string `json:"phoneNumber"`
	Position        string `json:"position"`
	Province        string `json:"province"`
}

type eligibilityRequest struct {
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
}

type result struct {
	Success bool   `json:"success"`
	Role    string `json:"role,omitempty"`
	Message string `json:"message,omitempty"`
}

// Login handles POST /api/login.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return reply(c, result{Message: "Invalid request"})
	}
	role, err := h.svc.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return h.failure(c, "auth.login", err)
	}
	return reply(c, result{Success: true, Role: role})
}

// Register handles POST /api/register.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return reply(c, result{Message: "Invalid request"})
	}
	err := h.svc.Register(c.UserContext(), RegistrationForm{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Role:            req.Role,
		FirstName:       req.FirstName,
		MiddleName:      req.MiddleName,
		LastName:        req.LastName,
		PhoneNumber:     req.PhoneNumber,
		Position:        req.Position,
		Province:        req.Province,
	})
	if err != nil {
		return h.failure(c, "auth.register", err)
	}
	return reply(c, result{Success: true, Message: "OTP sent to your email"})
}

// SendOTP handles POST /api/send-otp (resend).
func (h *Handler) SendOTP(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return reply(c, result{Message: "Invalid request"})
	}
	if err := h.svc.SendOTP(c.UserContext(), req.Email); err != nil {
		return h.failure(c, "auth.send_otp", err)
	}
	return reply(c, result{Success: true, Message: "A new OTP has been sent to your email"})
}

// VerifyOTP handles POST /api/verify-otp.
func (h *Handler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return reply(c, result{Message: "Invalid request"})
	}
	if err := h.svc.VerifyOTP(c.UserContext(), req.Email, req.OTP); err != nil {
		return h.failure(c, "auth.verify_otp", err)
	}
	return reply(c, result{Success: true, Message: "Registration complete"})
}

// CancelOTP handles POST /api/cancel-otp.
func (h *Handler) CancelOTP(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return reply(c, result{Message: "Invalid request"})
	}
	if err := h.svc.CancelOTP(c.UserContext(), req.Email); err != nil {
		return h.failure(c, "auth.cancel_otp", err)
	}
	return reply(c, result{Success: true, Message: "Registration cancelled"})
}

// AdminEligible handles POST /api/admin-eligible.
func (h *Handler) AdminEligible(c *fiber.Ctx) error {
	var req eligibilityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusOK).JSON(fiber.Map{"eligible": false})
	}
	eligible := h.svc.AdminEligible(req.FirstName, req.MiddleName, req.LastName, req.Email)
	return c.Status(http.StatusOK).JSON(fiber.Map{"eligible": eligible})
}

var otpMessages = map[error]string{
	otp.ErrNotFound:        "No pending verification for this email. Please register again.",
	otp.ErrExpired:         "OTP has expired. Please request a new one.",
	otp.ErrMismatch:        "Invalid OTP",
	otp.ErrCooldown:        "Please wait before requesting a new OTP",
	otp.ErrTooManyAttempts: "Too many incorrect attempts. Please register again.",
	otp.ErrConflict:        "Please try again",
}

func (h *Handler) failure(c *fiber.Ctx, op string, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return reply(c, result{Message: verr.Message})
	}
	if errors.Is(err, account.ErrInvalidCredentials) {
		return reply(c, result{Message: "Invalid email or password"})
	}
	for sentinel, msg := range otpMessages {
		if errors.Is(err, sentinel) {
			return reply(c, result{Message: msg})
		}
	}
	var empty *options.EmptyError
	if errors.As(err, &empty) {
		return reply(c, result{Message: empty.Error()})
	}

	h.logger.Error(op+" failed", slog.Any("error", err))
	if errors.Is(err, ErrDelivery) {
		return reply(c, result{Message: "Unable to send OTP. Please try again."})
	}
	return reply(c, result{Message: "Something went wrong. Please try again."})
}

func reply(c *fiber.Ctx, r result) error {
	return c.Status(http.StatusOK).JSON(r)
}
