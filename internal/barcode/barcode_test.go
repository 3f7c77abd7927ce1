package barcode

import (
	"errors"
	"testing"
	"time"
)

func fixedGenerator(millis int64, random int) *Generator {
	return &Generator{
		now:    func() time.Time { return time.UnixMilli(millis) },
		random: func(int) int { return random },
	}
}

func TestChecksum_KnownPayload(t *testing.T) {
	check, err := Checksum("123456789012")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if check != 8 {
		t.Errorf("expected check digit 8, got %d", check)
	}
}

func TestChecksum_InvalidPayload(t *testing.T) {
	for _, payload := range []string{"", "12345", "12345678901a", "1234567890123"} {
		if _, err := Checksum(payload); !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("payload %q: expected ErrInvalidPayload, got %v", payload, err)
		}
	}
}

func TestGenerate_EAN13(t *testing.T) {
	gen := fixedGenerator(1735689600123, 0)

	code, err := gen.Generate(KindEAN13)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(code) != 13 {
		t.Fatalf("expected 13 characters, got %q", code)
	}
	if code[:12] != "735689600123" {
		t.Errorf("expected last 12 timestamp digits as payload, got %s", code[:12])
	}
	if !ValidEAN13(code) {
		t.Errorf("generated code %s failed checksum validation", code)
	}
}

func TestGenerate_EAN13_ShortTimestampIsPadded(t *testing.T) {
	gen := fixedGenerator(42, 0)

	code, err := gen.Generate(KindEAN13)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code[:12] != "000000000042" {
		t.Errorf("expected zero padded payload, got %s", code[:12])
	}
	if !ValidEAN13(code) {
		t.Errorf("generated code %s failed checksum validation", code)
	}
}

func TestGenerate_EAN13_AlwaysValid(t *testing.T) {
	base := int64(1700000000000)
	for i := int64(0); i < 500; i++ {
		code, err := fixedGenerator(base+i*7919, 0).Generate(KindEAN13)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(code) != 13 || !IsDigits(code) || !ValidEAN13(code) {
			t.Fatalf("invalid EAN13 %q", code)
		}
	}
}

func TestGenerate_CODE128(t *testing.T) {
	gen := fixedGenerator(1735689600123, 42)

	code, err := gen.Generate(KindCODE128)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 13 timestamp digits + "000042", truncated to 15
	if code != "173568960012300" {
		t.Errorf("unexpected code %s", code)
	}
}

func TestGenerate_CODE128_DigitsWithinLimit(t *testing.T) {
	gen := NewGenerator()
	for i := 0; i < 200; i++ {
		code, err := gen.Generate(KindCODE128)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(code) > 15 || !IsDigits(code) {
			t.Fatalf("invalid CODE128 %q", code)
		}
	}
}

func TestGenerate_UnknownKind(t *testing.T) {
	_, err := NewGenerator().Generate(Kind("QR"))
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	cases := []struct {
		in   string
		want Kind
		err  bool
	}{
		{"", KindEAN13, false},
		{"ean13", KindEAN13, false},
		{" CODE128 ", KindCODE128, false},
		{"upc", "", true},
	}
	for _, c := range cases {
		got, err := ParseKind(c.in)
		if (err != nil) != c.err {
			t.Fatalf("ParseKind(%q) error = %v, want error %v", c.in, err, c.err)
		}
		if got != c.want {
			t.Errorf("ParseKind(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestValidEAN13(t *testing.T) {
	cases := map[string]bool{
		"1234567890128":  true,
		"4006381333931":  true,
		"1234567890127":  false,
		"123456789012":   false,
		"12345678901280": false,
		"123456789012x":  false,
	}
	for code, want := range cases {
		if got := ValidEAN13(code); got != want {
			t.Errorf("ValidEAN13(%q) = %v, want %v", code, got, want)
		}
	}
}
