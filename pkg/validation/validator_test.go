package validation

import (
	"errors"
	"testing"
)

type entryRequest struct {
	Date    string `json:"date" validate:"required,isodate"`
	Count   *int   `json:"count" validate:"required,min=0"`
	NewDate string `json:"new_date,omitempty" validate:"omitempty,isodate"`
	Format  string `json:"format" validate:"omitempty,oneof=csv json"`
	Plain   int    `validate:"max=10"`
}

func intPtr(v int) *int { return &v }

func TestValidator_Singleton(t *testing.T) {
	v1 := Validator()
	v2 := Validator()

	if v1 != v2 {
		t.Error("Validator() should return the same instance")
	}
	if v1 == nil {
		t.Error("Validator() returned nil")
	}
}

func TestStruct_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input entryRequest
	}{
		{"minimal", entryRequest{Date: "2024-01-01", Count: intPtr(0)}},
		{"with new date", entryRequest{Date: "2024-01-01", Count: intPtr(5), NewDate: "2024-02-29"}},
		{"with format", entryRequest{Date: "2024-01-01", Count: intPtr(5), Format: "csv"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Struct(&tt.input); err != nil {
				t.Errorf("Struct() error = %v", err)
			}
		})
	}
}

func TestStruct_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		input     entryRequest
		wantField string
		wantTag   string
		wantMsg   string
	}{
		{
			name:      "missing date",
			input:     entryRequest{Count: intPtr(1)},
			wantField: "date",
			wantTag:   "required",
			wantMsg:   "date is required",
		},
		{
			name:      "bad date",
			input:     entryRequest{Date: "01/02/2024", Count: intPtr(1)},
			wantField: "date",
			wantTag:   "isodate",
			wantMsg:   "date must be a date in YYYY-MM-DD format",
		},
		{
			name:      "missing count",
			input:     entryRequest{Date: "2024-01-01"},
			wantField: "count",
			wantTag:   "required",
			wantMsg:   "count is required",
		},
		{
			name:      "negative count",
			input:     entryRequest{Date: "2024-01-01", Count: intPtr(-1)},
			wantField: "count",
			wantTag:   "min",
			wantMsg:   "count must be at least 0",
		},
		{
			name:      "bad new date",
			input:     entryRequest{Date: "2024-01-01", Count: intPtr(1), NewDate: "2024-13-01"},
			wantField: "new_date",
			wantTag:   "isodate",
			wantMsg:   "new_date must be a date in YYYY-MM-DD format",
		},
		{
			name:      "bad format",
			input:     entryRequest{Date: "2024-01-01", Count: intPtr(1), Format: "xml"},
			wantField: "format",
			wantTag:   "oneof",
			wantMsg:   "format must be one of csv, json",
		},
		{
			name:      "field without json tag",
			input:     entryRequest{Date: "2024-01-01", Count: intPtr(1), Plain: 11},
			wantField: "Plain",
			wantTag:   "max",
			wantMsg:   "Plain must be at most 10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(&tt.input)
			if err == nil {
				t.Fatal("Struct() returned nil, want error")
			}

			var verr *Error
			if !errors.As(err, &verr) {
				t.Fatalf("Struct() error type = %T, want *Error", err)
			}
			if len(verr.Fields) != 1 {
				t.Fatalf("len(Fields) = %d, want 1: %v", len(verr.Fields), verr)
			}
			if f := verr.Fields[0]; f.Field != tt.wantField || f.Tag != tt.wantTag {
				t.Errorf("Fields[0] = %+v, want field=%s tag=%s", f, tt.wantField, tt.wantTag)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestStruct_MultipleErrors(t *testing.T) {
	err := Struct(&entryRequest{})
	if err == nil {
		t.Fatal("Struct() returned nil, want error")
	}
	if got, want := err.Error(), "date is required; count is required"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestError_Empty(t *testing.T) {
	if got := (&Error{}).Error(); got != "validation failed" {
		t.Errorf("Error() = %q", got)
	}
}
