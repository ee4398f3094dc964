package position

import (
	"testing"
)

func TestEncodeMove(t *testing.T) {
	tests := []struct {
		name  string
		from  int
		to    int
		promo byte
	}{
		{"e2e4", 12, 28, PromoNone},
		{"e7e8q", 52, 60, PromoQueen},
		{"a1h8", 0, 63, PromoNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeMove(tt.from, tt.to, tt.promo)
			from, to, promo := DecodeMove(got)
			if from != tt.from || to != tt.to || promo != tt.promo {
				t.Errorf("EncodeMove(%d, %d, %d) = %x, but decode gives (%d, %d, %d)",
					tt.from, tt.to, tt.promo, got, from, to, promo)
			}
			if got.String() != tt.name {
				t.Errorf("String() = %q, want %q", got.String(), tt.name)
			}
		})
	}
}

func TestEncodeMove_OutOfRange(t *testing.T) {
	if m := EncodeMove(-1, 10, PromoNone); m != MoveNone {
		t.Errorf("EncodeMove(-1, 10) = %v, want none", m)
	}
	if m := EncodeMove(1, 64, PromoNone); m != MoveNone {
		t.Errorf("EncodeMove(1, 64) = %v, want none", m)
	}
	if m := EncodeMove(48, 56, 7); m != MoveNone {
		t.Errorf("EncodeMove with bad promo = %v, want none", m)
	}
}

func TestParseMove_RoundTrip(t *testing.T) {
	for _, s := range []string{"e2e4", "g1f3", "e7e8q", "a7a8r", "h2h1b", "b7b8n", "a1h8"} {
		m, err := ParseMove(s)
		if err != nil {
			t.Fatalf("ParseMove(%q): %v", s, err)
		}
		if m.String() != s {
			t.Errorf("ParseMove(%q).String() = %q", s, m.String())
		}
	}
}

func TestParseMove_None(t *testing.T) {
	for _, s := range []string{"none", "resign", "NONE"} {
		m, err := ParseMove(s)
		if err != nil {
			t.Errorf("ParseMove(%q) error: %v", s, err)
		}
		if m != MoveNone {
			t.Errorf("ParseMove(%q) = %v, want none", s, m)
		}
	}
	if MoveNone.String() != "none" {
		t.Errorf("MoveNone.String() = %q, want none", MoveNone.String())
	}
}

func TestParseMove_Invalid(t *testing.T) {
	for _, s := range []string{"", "e2", "i2e4", "e9e4", "e7e8k", "e2e4e5"} {
		if _, err := ParseMove(s); err == nil {
			t.Errorf("ParseMove(%q) expected error", s)
		}
	}
}
