package domain

import (
	"math/big"
	"testing"
)

func TestCreateProjectInputValidate(t *testing.T) {
	valid := CreateProjectInput{
		Title:           "Ocean cleanup",
		Description:     "Remove plastic from the coast",
		TargetAmountWei: big.NewInt(1),
		DurationDays:    30,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name  string
		mut   func(*CreateProjectInput)
		field string
	}{
		{"blank title", func(in *CreateProjectInput) { in.Title = "   " }, "title"},
		{"blank description", func(in *CreateProjectInput) { in.Description = "" }, "description"},
		{"zero target", func(in *CreateProjectInput) { in.TargetAmountWei = big.NewInt(0) }, "targetAmount"},
		{"nil target", func(in *CreateProjectInput) { in.TargetAmountWei = nil }, "targetAmount"},
		{"zero days", func(in *CreateProjectInput) { in.DurationDays = 0 }, "duration"},
		{"too many days", func(in *CreateProjectInput) { in.DurationDays = 366 }, "duration"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mut(&in)
			err := in.Validate()
			if !IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if ve := err.(*ValidationError); ve.Field != tc.field {
				t.Fatalf("field = %q, want %q", ve.Field, tc.field)
			}
		})
	}

	edge := valid
	edge.DurationDays = 365
	if err := edge.Validate(); err != nil {
		t.Fatalf("365 days should be accepted: %v", err)
	}
	edge.DurationDays = 1
	if err := edge.Validate(); err != nil {
		t.Fatalf("1 day should be accepted: %v", err)
	}
}

func TestDurationSeconds(t *testing.T) {
	in := CreateProjectInput{DurationDays: 5}
	if got := in.DurationSeconds().Int64(); got != 432000 {
		t.Fatalf("DurationSeconds = %d, want 432000", got)
	}
}

func TestParseAndFormatEther(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1", "1000000000000000000"},
		{"0.5", "500000000000000000"},
		{".25", "250000000000000000"},
		{"0.000000000000000001", "1"},
	}
	for _, tc := range tests {
		got, err := ParseEther(tc.in)
		if err != nil {
			t.Fatalf("ParseEther(%q) error: %v", tc.in, err)
		}
		if got.String() != tc.want {
			t.Fatalf("ParseEther(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
	for _, bad := range []string{"", "-1", "abc", "1.2.3", "0.0000000000000000001"} {
		if _, err := ParseEther(bad); err == nil {
			t.Fatalf("ParseEther(%q) expected error", bad)
		}
	}
	if got := FormatEther(big.NewInt(1_500_000_000_000_000_000)); got != "1.5" {
		t.Fatalf("FormatEther = %q", got)
	}
	if got := FormatEther(big.NewInt(1)); got != "0.000000000000000001" {
		t.Fatalf("FormatEther = %q", got)
	}
	if got := FormatEther(big.NewInt(0)); got != "0" {
		t.Fatalf("FormatEther(0) = %q", got)
	}
}
