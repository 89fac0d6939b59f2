package trn

import (
	"errors"
	"strings"
	"time"
)

// Length is the number of digits in a TRN.
const Length = 29

// DateLayout is the wire format of dateOfRecapture.
const DateLayout = "2006-01-02"

var (
	ErrInvalidTRN    = errors.New("trn: invalid trn")
	ErrInvalidNewTRN = errors.New("trn: invalid new trn")
	ErrInvalidStatus = errors.New("trn: invalid status")
	ErrInvalidDate   = errors.New("trn: invalid date of recapture")
	ErrInvalidRow    = errors.New("trn: invalid row number")
	ErrNotFound      = errors.New("trn: not found")
	ErrRowMismatch   = errors.New("trn: row holds a different trn")
)

// Record is one recapture-status row.
type Record struct {
	RowNumber       int        `json:"rowNumber"`
	TRN             string     `json:"trn"`
	Status          string     `json:"status"`
	NewTRN          string     `json:"newTrn"`
	DateOfRecapture string     `json:"dateOfRecapture"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
}

// Normalize strips every non-digit from raw and requires exactly Length
// ASCII digits to remain.
func Normalize(raw string) (string, error) {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	if b.Len() != Length {
		return "", ErrInvalidTRN
	}
	return b.String(), nil
}

// ParseDate validates an optional YYYY-MM-DD date. Blank input yields "".
func ParseDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return "", ErrInvalidDate
	}
	return d.Format(DateLayout), nil
}
