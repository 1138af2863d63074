package qrcodes

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/scanlyhq/scanly-backend/pkg/enums"
)

// AuxData carries the type-dependent fields that accompany the primary
// payload string.
type AuxData struct {
	Security string
	Password string
	Subject  string
	Body     string
	Message  string
}

// FormatPayload maps a logical payload into the literal string encoded by
// the QR symbol. It is pure: same inputs always yield the same output. No
// validation is applied beyond the url scheme prefix rule; malformed data
// passes through as-is.
func FormatPayload(qrType enums.QRType, data string, aux AuxData) (string, error) {
	switch qrType {
	case enums.QRTypeURL:
		if strings.HasPrefix(data, "http") {
			return data, nil
		}
		return "https://" + data, nil

	case enums.QRTypeWifi:
		return fmt.Sprintf("WIFI:T:%s;S:%s;P:%s;H:false;;", aux.Security, data, aux.Password), nil

	case enums.QRTypeEmail:
		out := "mailto:" + data
		var params []string
		if aux.Subject != "" {
			params = append(params, "subject="+queryEscape(aux.Subject))
		}
		if aux.Body != "" {
			params = append(params, "body="+queryEscape(aux.Body))
		}
		if len(params) > 0 {
			out += "?" + strings.Join(params, "&")
		}
		return out, nil

	case enums.QRTypePhone:
		return "tel:" + data, nil

	case enums.QRTypeSMS:
		if aux.Message != "" {
			return "sms:" + data + "?body=" + queryEscape(aux.Message), nil
		}
		return "sms:" + data, nil

	case enums.QRTypeText:
		return data, nil

	default:
		return "", fmt.Errorf("unknown qr type %q", qrType)
	}
}

// queryEscape percent-encodes spaces rather than using '+', matching how
// scanner apps expect mailto/sms query parameters.
func queryEscape(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}
