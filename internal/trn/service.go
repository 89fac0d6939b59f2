package trn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/trn-portal/trn_portal/internal/options"
)

// Service implements TRN search and recapture updates.
type Service struct {
	repo    Repository
	options *options.Service
	now     func() time.Time
}

// NewService builds a TRN service. Status values are validated against the
// status dropdown list.
func NewService(repo Repository, opts *options.Service) *Service {
	return &Service{repo: repo, options: opts, now: time.Now}
}

// Search looks up a record by TRN. Malformed input never reaches the store.
func (s *Service) Search(ctx context.Context, raw string) (Record, error) {
	trn, err := Normalize(raw)
	if err != nil {
		return Record{}, err
	}
	return s.repo.FindByTRN(ctx, trn)
}

// UpdateInput is a requested change to one record.
type UpdateInput struct {
	RowNumber       int
	TRN             string
	Status          string
	NewTRN          string
	DateOfRecapture string
}

// Update validates and applies a recapture status change.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Record, error) {
	trn, err := Normalize(in.TRN)
	if err != nil {
		return Record{}, err
	}
	if in.RowNumber <= 0 {
		return Record{}, ErrInvalidRow
	}

	var newTRN string
	if strings.TrimSpace(in.NewTRN) != "" {
		if newTRN, err = Normalize(in.NewTRN); err != nil {
			return Record{}, ErrInvalidNewTRN
		}
	}

	status := strings.TrimSpace(in.Status)
	ok, err := s.options.Contains(ctx, options.KindStatus, status)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, ErrInvalidStatus
	}

	date, err := ParseDate(in.DateOfRecapture)
	if err != nil {
		return Record{}, err
	}

	rec, err := s.repo.FindByRow(ctx, in.RowNumber)
	if err != nil {
		return Record{}, err
	}
	if rec.TRN != trn {
		return Record{}, ErrRowMismatch
	}

	at := s.now().UTC()
	rec.Status = status
	rec.NewTRN = newTRN
	rec.DateOfRecapture = date
	rec.UpdatedAt = &at

	if err := s.repo.Update(ctx, rec); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Record{}, ErrRowMismatch
		}
		return Record{}, fmt.Errorf("update row %d: %w", in.RowNumber, err)
	}
	return rec, nil
}
