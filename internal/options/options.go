package options

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kinds of dropdown lists.
const (
	KindPosition = "position"
	KindProvince = "province"
	KindStatus   = "status"
)

var plurals = map[string]string{
	KindPosition: "positions",
	KindProvince: "provinces",
	KindStatus:   "statuses",
}

// ErrEmpty means the backing dropdown source is missing a list. It points at
// a configuration fault rather than a user error.
var ErrEmpty = errors.New("options: empty list")

// EmptyError carries the kind of the list that came back empty.
type EmptyError struct {
	Kind string
}

func (e *EmptyError) Error() string {
	return fmt.Sprintf("No %s found. Check your Dropdown sheet.", plurals[e.Kind])
}

func (e *EmptyError) Unwrap() error { return ErrEmpty }

// Service serves dropdown lists.
type Service struct {
	repo Repository
}

// NewService builds an options service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the non-blank values of kind in display order.
func (s *Service) List(ctx context.Context, kind string) ([]string, error) {
	if _, ok := plurals[kind]; !ok {
		return nil, fmt.Errorf("unknown option kind %q", kind)
	}
	values, err := s.repo.List(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, &EmptyError{Kind: kind}
	}
	return out, nil
}

// Positions lists job positions offered at registration.
func (s *Service) Positions(ctx context.Context) ([]string, error) {
	return s.List(ctx, KindPosition)
}

// Provinces lists provinces offered at registration.
func (s *Service) Provinces(ctx context.Context) ([]string, error) {
	return s.List(ctx, KindProvince)
}

// Statuses lists recapture statuses a TRN record may take.
func (s *Service) Statuses(ctx context.Context) ([]string, error) {
	return s.List(ctx, KindStatus)
}

// Contains reports whether value is one of the options of kind.
func (s *Service) Contains(ctx context.Context, kind, value string) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return false, nil
	}
	values, err := s.List(ctx, kind)
	if err != nil {
		return false, err
	}
	for _, v := range values {
		if v == value {
			return true, nil
		}
	}
	return false, nil
}
