package enums

import "fmt"

// ErrorCorrection mirrors the QR symbol recovery levels.
type ErrorCorrection string

const (
	ErrorCorrectionLow     ErrorCorrection = "L"
	ErrorCorrectionMedium  ErrorCorrection = "M"
	ErrorCorrectionQuart   ErrorCorrection = "Q"
	ErrorCorrectionHighest ErrorCorrection = "H"
)

var validErrorCorrections = []ErrorCorrection{
	ErrorCorrectionLow,
	ErrorCorrectionMedium,
	ErrorCorrectionQuart,
	ErrorCorrectionHighest,
}

// String implements fmt.Stringer.
func (e ErrorCorrection) String() string {
	return string(e)
}

// IsValid reports whether the value is known.
func (e ErrorCorrection) IsValid() bool {
	for _, candidate := range validErrorCorrections {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseErrorCorrection converts raw input into an ErrorCorrection.
func ParseErrorCorrection(value string) (ErrorCorrection, error) {
	for _, candidate := range validErrorCorrections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid error correction level %q", value)
}
