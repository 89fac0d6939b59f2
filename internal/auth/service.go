package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/trn-portal/trn_portal/internal/account"
	"github.com/trn-portal/trn_portal/internal/eligibility"
	"github.com/trn-portal/trn_portal/internal/metrics"
	"github.com/trn-portal/trn_portal/internal/notification"
	"github.com/trn-portal/trn_portal/internal/options"
	"github.com/trn-portal/trn_portal/internal/otp"
)

const phoneDigits = 11

// Settings are the policy knobs of the registration flow.
type Settings struct {
	PhonePrefix string
	OTPTTL      time.Duration
}

// Deps aggregates the collaborators of the auth service.
type Deps struct {
	Accounts *account.Service
	Registry otp.Registry
	Roster   *eligibility.Roster
	Options  *options.Service
	Notifier notification.Notifier
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Service orchestrates login and the OTP-gated registration flow.
type Service struct {
	deps     Deps
	settings Settings
}

// NewService builds the auth service.
func NewService(deps Deps, settings Settings) *Service {
	if settings.OTPTTL <= 0 {
		settings.OTPTTL = otp.DefaultTTL
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	return &Service{deps: deps, settings: settings}
}

// RegistrationForm is the submitted sign-up form.
type RegistrationForm struct {
	Email           string
	Password        string
	ConfirmPassword string
	Role            string
	FirstName       string
	MiddleName      string
	LastName        string
	PhoneNumber     string
	Position        string
	Province        string
}

// Login checks credentials and returns the account's role.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	acct, err := s.deps.Accounts.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			s.deps.Metrics.Login("invalid")
		} else {
			s.deps.Metrics.Login("error")
		}
		return "", err
	}
	s.deps.Metrics.Login("success")
	return acct.Role, nil
}

// AdminEligible reports whether the admin role may be offered.
func (s *Service) AdminEligible(firstName, middleName, lastName, email string) bool {
	return s.deps.Roster.IsEligible(firstName, middleName, lastName, email)
}

// Register validates the form, parks it behind a fresh code and delivers the
// code to the submitted email.
func (s *Service) Register(ctx context.Context, form RegistrationForm) error {
	pending, err := s.validate(ctx, form)
	if err != nil {
		return err
	}

	code, err := s.deps.Registry.Issue(ctx, pending.Email, pending)
	if err != nil {
		return fmt.Errorf("issue otp: %w", err)
	}
	s.deps.Metrics.OTPIssued("register")

	if err := s.deliver(ctx, pending.Email, code); err != nil {
		if cErr := s.deps.Registry.Cancel(ctx, pending.Email); cErr != nil {
			s.deps.Logger.Warn("cancel after failed delivery", slog.String("email", pending.Email), slog.Any("error", cErr))
		}
		return err
	}

	s.deps.Logger.Info("registration pending verification",
		slog.String("email", pending.Email),
		slog.String("role", pending.Role),
	)
	return nil
}

// SendOTP issues a fresh code for an existing pending registration.
func (s *Service) SendOTP(ctx context.Context, email string) error {
	email = account.NormalizeEmail(email)
	if email == "" {
		return invalid("Email is required")
	}
	code, err := s.deps.Registry.Reissue(ctx, email)
	if err != nil {
		return err
	}
	s.deps.Metrics.OTPIssued("resend")
	return s.deliver(ctx, email, code)
}

// VerifyOTP consumes the code and promotes the pending registration to an account.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) error {
	email = account.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return invalid("Email and OTP are required")
	}

	pending, err := s.deps.Registry.Verify(ctx, email, code)
	if err != nil {
		s.deps.Metrics.OTPVerified(outcome(err))
		return err
	}
	s.deps.Metrics.OTPVerified("success")

	acct, err := s.deps.Accounts.Create(ctx, account.NewAccount{
		Email:        pending.Email,
		PasswordHash: pending.PasswordHash,
		Role:         pending.Role,
		Profile:      pending.Profile,
	})
	if err != nil {
		if errors.Is(err, account.ErrExists) {
			return invalid("Email is already registered")
		}
		// park the registration again so a resend can finish it
		if _, rErr := s.deps.Registry.Issue(ctx, email, pending); rErr != nil {
			s.deps.Logger.Error("restore pending registration", slog.String("email", email), slog.Any("error", rErr))
		}
		return fmt.Errorf("create account: %w", err)
	}

	s.deps.Logger.Info("registration completed",
		slog.String("account_id", acct.ID),
		slog.String("email", acct.Email),
		slog.String("role", acct.Role),
	)
	return nil
}

// CancelOTP abandons a pending registration.
func (s *Service) CancelOTP(ctx context.Context, email string) error {
	email = account.NormalizeEmail(email)
	if email == "" {
		return invalid("Email is required")
	}
	return s.deps.Registry.Cancel(ctx, email)
}

func (s *Service) deliver(ctx context.Context, email, code string) error {
	if s.deps.Notifier == nil {
		return nil
	}
	if err := s.deps.Notifier.Send(ctx, notification.OTPMessage(email, code, s.settings.OTPTTL)); err != nil {
		s.deps.Logger.Error("otp delivery failed", slog.String("email", email), slog.Any("error", err))
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}

func (s *Service) validate(ctx context.Context, form RegistrationForm) (otp.Pending, error) {
	email := account.NormalizeEmail(form.Email)
	f := RegistrationForm{
		Email:       email,
		Role:        strings.ToLower(strings.TrimSpace(form.Role)),
		FirstName:   strings.TrimSpace(form.FirstName),
		MiddleName:  strings.TrimSpace(form.MiddleName),
		LastName:    strings.TrimSpace(form.LastName),
		PhoneNumber: strings.TrimSpace(form.PhoneNumber),
		Position:    strings.TrimSpace(form.Position),
		Province:    strings.TrimSpace(form.Province),
	}
	if f.Role == "" {
		f.Role = account.RoleUser
	}

	if f.Email == "" || form.Password == "" || f.FirstName == "" || f.LastName == "" ||
		f.PhoneNumber == "" || f.Position == "" || f.Province == "" {
		return otp.Pending{}, invalid("Please fill in all required fields")
	}
	if addr, err := mail.ParseAddress(f.Email); err != nil || addr.Address != f.Email {
		return otp.Pending{}, invalid("Invalid email address")
	}
	if form.Password != form.ConfirmPassword {
		return otp.Pending{}, invalid("Passwords do not match")
	}
	if !s.validPhone(f.PhoneNumber) {
		return otp.Pending{}, invalid(fmt.Sprintf("Phone number must be %d digits starting with %s", phoneDigits, s.settings.PhonePrefix))
	}
	if !account.ValidRole(f.Role) {
		return otp.Pending{}, invalid("Invalid role")
	}
	if f.Role == account.RoleAdmin && !s.AdminEligible(f.FirstName, f.MiddleName, f.LastName, f.Email) {
		return otp.Pending{}, invalid("You are not eligible for the admin role")
	}

	if err := s.requireOption(ctx, options.KindPosition, f.Position, "Please select a valid position"); err != nil {
		return otp.Pending{}, err
	}
	if err := s.requireOption(ctx, options.KindProvince, f.Province, "Please select a valid province"); err != nil {
		return otp.Pending{}, err
	}

	registered, err := s.deps.Accounts.Registered(ctx, f.Email)
	if err != nil {
		return otp.Pending{}, fmt.Errorf("check email: %w", err)
	}
	if registered {
		return otp.Pending{}, invalid("Email is already registered")
	}

	hash, err := account.HashPassword(form.Password)
	if err != nil {
		return otp.Pending{}, fmt.Errorf("hash password: %w", err)
	}

	return otp.Pending{
		Email:        f.Email,
		PasswordHash: hash,
		Role:         f.Role,
		Profile: account.Profile{
			FirstName:   f.FirstName,
			MiddleName:  f.MiddleName,
			LastName:    f.LastName,
			PhoneNumber: f.PhoneNumber,
			Position:    f.Position,
			Province:    f.Province,
		},
	}, nil
}

func (s *Service) requireOption(ctx context.Context, kind, value, message string) error {
	ok, err := s.deps.Options.Contains(ctx, kind, value)
	if err != nil {
		return err
	}
	if !ok {
		return invalid(message)
	}
	return nil
}

func (s *Service) validPhone(phone string) bool {
	if len(phone) != phoneDigits || !strings.HasPrefix(phone, s.settings.PhonePrefix) {
		return false
	}
	for i := 0; i < len(phone); i++ {
		if phone[i] < '0' || phone[i] > '9' {
			return false
		}
	}
	return true
}

func outcome(err error) string {
	switch {
	case errors.Is(err, otp.ErrNotFound):
		return "not_found"
	case errors.Is(err, otp.ErrExpired):
		return "expired"
	case errors.Is(err, otp.ErrMismatch):
		return "mismatch"
	case errors.Is(err, otp.ErrTooManyAttempts):
		return "locked"
	default:
		return "error"
	}
}
