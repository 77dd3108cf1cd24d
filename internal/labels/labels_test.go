package labels

import (
	"strings"
	"testing"
)

func TestAll(t *testing.T) {
	got := All()
	if len(got) != 80 {
		t.Fatalf("All() returned %d labels, want 80", len(got))
	}
	if got[0] != "person" {
		t.Errorf("first label = %q, want person", got[0])
	}
	if got[79] != "toothbrush" {
		t.Errorf("last label = %q, want toothbrush", got[79])
	}
	if Count() != 80 {
		t.Errorf("Count() = %d, want 80", Count())
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	first := All()
	first[0] = "mutated"

	if got := All()[0]; got != "person" {
		t.Errorf("All() leaked internal state, first label = %q", got)
	}
}

func TestHas(t *testing.T) {
	if !Has("dog") {
		t.Error("Has(dog) = false")
	}
	if Has("dragon") {
		t.Error("Has(dragon) = true")
	}
	// Labelmap entries with spaces are single labels.
	if !Has("traffic light") {
		t.Error("Has(traffic light) = false")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  bool
		wantHint string
	}{
		{"known label", "person", false, ""},
		{"padded label", "  car  ", false, ""},
		{"empty", "", true, "empty"},
		{"unknown", "dragon", true, `"dragon"`},
		{"case slip", "Person", true, `did you mean "person"`},
		{"plural", "cars", true, `did you mean "car"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && tt.wantHint != "" && !strings.Contains(err.Error(), tt.wantHint) {
				t.Errorf("Validate(%q) error = %v, should mention %s", tt.input, err, tt.wantHint)
			}
		})
	}
}
