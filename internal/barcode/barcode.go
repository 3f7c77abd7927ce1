// Package barcode generates retail barcodes for products that arrive without one.
package barcode

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

// Kind selects the symbology of a generated code.
type Kind string

const (
	KindEAN13   Kind = "EAN13"
	KindCODE128 Kind = "CODE128"
)

const (
	ean13PayloadLen = 12
	code128MaxLen   = 15
)

var (
	ErrUnknownKind    = errors.New("unknown barcode kind")
	ErrInvalidPayload = errors.New("barcode payload must be 12 digits")
)

// Generator builds codes from the current millisecond timestamp.
// Uniqueness against the catalog is the caller's job.
type Generator struct {
	now    func() time.Time
	random func(n int) int
}

func NewGenerator() *Generator {
	return &Generator{now: time.Now, random: rand.IntN}
}

// ParseKind accepts the kind names case-insensitively. Empty defaults to EAN13.
func ParseKind(s string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(KindEAN13):
		return KindEAN13, nil
	case string(KindCODE128):
		return KindCODE128, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (g *Generator) Generate(kind Kind) (string, error) {
	millis := strconv.FormatInt(g.now().UnixMilli(), 10)

	switch kind {
	case KindCODE128:
		code := millis + fmt.Sprintf("%06d", g.random(1000000))
		if len(code) > code128MaxLen {
			code = code[:code128MaxLen]
		}
		return code, nil
	case KindEAN13:
		payload := millis
		if len(payload) > ean13PayloadLen {
			payload = payload[len(payload)-ean13PayloadLen:]
		} else {
			payload = strings.Repeat("0", ean13PayloadLen-len(payload)) + payload
		}
		check, err := Checksum(payload)
		if err != nil {
			return "", err
		}
		return payload + strconv.Itoa(check), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// Checksum computes the EAN-13 check digit of a 12 digit payload.
// Digits at even 0-based positions weigh 1, odd positions weigh 3.
func Checksum(payload string) (int, error) {
	if len(payload) != ean13PayloadLen || !IsDigits(payload) {
		return 0, ErrInvalidPayload
	}
	sum := 0
	for i := 0; i < len(payload); i++ {
		d := int(payload[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return (10 - sum%10) % 10, nil
}

// ValidEAN13 checks length, digits and the trailing check digit.
func ValidEAN13(code string) bool {
	if len(code) != ean13PayloadLen+1 {
		return false
	}
	check, err := Checksum(code[:ean13PayloadLen])
	if err != nil {
		return false
	}
	return int(code[ean13PayloadLen]-'0') == check
}

// IsDigits reports whether s is a non-empty run of ASCII digits.
func IsDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
