package knx

import (
	"errors"
	"testing"
)

func TestParseGroupAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    GroupAddress
		wantErr bool
	}{
		{"simple", "1/2/3", GroupAddress{1, 2, 3}, false},
		{"zeros", "0/0/0", GroupAddress{0, 0, 0}, false},
		{"max values", "31/7/255", GroupAddress{31, 7, 255}, false},
		{"light state", "1/0/7", GroupAddress{1, 0, 7}, false},
		{"temperature", "9/1/0", GroupAddress{9, 1, 0}, false},
		{"main too large", "32/0/0", GroupAddress{}, true},
		{"middle too large", "1/8/0", GroupAddress{}, true},
		{"sub too large", "1/0/256", GroupAddress{}, true},
		{"two levels", "1/2", GroupAddress{}, true},
		{"four levels", "1/2/3/4", GroupAddress{}, true},
		{"empty", "", GroupAddress{}, true},
		{"non-numeric", "a/b/c", GroupAddress{}, true},
		{"negative", "-1/0/0", GroupAddress{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGroupAddress(tt.input)

			if tt.wantErr {
				if !errors.Is(err, ErrInvalidGroupAddress) {
					t.Errorf("ParseGroupAddress(%q) error = %v, want ErrInvalidGroupAddress", tt.input, err)
				}
				return
			}

			if err != nil {
				t.Errorf("ParseGroupAddress(%q) unexpected error: %v", tt.input, err)
				return
			}
			if got != tt.want {
				t.Errorf("ParseGroupAddress(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestGroupAddressString(t *testing.T) {
	tests := []struct {
		ga   GroupAddress
		want string
	}{
		{GroupAddress{1, 2, 3}, "1/2/3"},
		{GroupAddress{0, 0, 0}, "0/0/0"},
		{GroupAddress{31, 7, 255}, "31/7/255"},
	}

	for _, tt := range tests {
		if got := tt.ga.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestGroupAddressWireRoundTrip(t *testing.T) {
	addresses := []GroupAddress{
		{0, 0, 0},
		{1, 2, 3},
		{1, 0, 7},
		{9, 1, 0},
		{31, 7, 255},
	}

	for _, ga := range addresses {
		raw := ga.ToUint16()
		back := GroupAddressFromUint16(raw)
		if back != ga {
			t.Errorf("wire round trip: %v → 0x%04X → %v", ga, raw, back)
		}
	}
}

func TestGroupAddressToUint16(t *testing.T) {
	tests := []struct {
		ga   GroupAddress
		want uint16
	}{
		{GroupAddress{1, 2, 3}, 0x0A03},
		{GroupAddress{0, 0, 0}, 0x0000},
		{GroupAddress{31, 7, 255}, 0xFFFF},
		{GroupAddress{1, 0, 7}, 0x0807},
	}

	for _, tt := range tests {
		if got := tt.ga.ToUint16(); got != tt.want {
			t.Errorf("%v.ToUint16() = 0x%04X, want 0x%04X", tt.ga, got, tt.want)
		}
	}
}

func TestGroupAddressIsValid(t *testing.T) {
	if !(GroupAddress{31, 7, 255}).IsValid() {
		t.Error("IsValid() = false for max address")
	}
	if !(GroupAddress{0, 0, 0}).IsValid() {
		t.Error("IsValid() = false for zero address")
	}
	if (GroupAddress{32, 0, 0}).IsValid() {
		t.Error("IsValid() = true for out-of-range main")
	}
}
