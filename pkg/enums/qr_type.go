package enums

import (
	"fmt"
	"strings"
)

// QRType is the closed set of payload kinds a code can encode.
type QRType string

const (
	QRTypeURL   QRType = "url"
	QRTypeText  QRType = "text"
	QRTypeWifi  QRType = "wifi"
	QRTypeEmail QRType = "email"
	QRTypePhone QRType = "phone"
	QRTypeSMS   QRType = "sms"
)

var validQRTypes = []QRType{
	QRTypeURL,
	QRTypeText,
	QRTypeWifi,
	QRTypeEmail,
	QRTypePhone,
	QRTypeSMS,
}

// String implements fmt.Stringer.
func (t QRType) String() string {
	return string(t)
}

// IsValid reports whether the value is known.
func (t QRType) IsValid() bool {
	for _, candidate := range validQRTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseQRType converts raw input into a QRType. Legacy rows store the
// value upper-cased, so matching is case-insensitive.
func ParseQRType(value string) (QRType, error) {
	lowered := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validQRTypes {
		if string(candidate) == lowered {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid qr type %q", value)
}
