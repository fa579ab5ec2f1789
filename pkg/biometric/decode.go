package biometric

import (
	"encoding/base64"
	"strings"
)

var encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// DecodeImage strips an optional data-URI header (everything up to and
// including the first comma) and decodes the base64 payload.
func DecodeImage(field, payload string) ([]byte, error) {
	if i := strings.IndexByte(payload, ','); i >= 0 {
		payload = payload[i+1:]
	}
	payload = strings.Join(strings.Fields(payload), "")

	if payload == "" {
		return nil, &ValidationError{Field: field, Err: ErrMissingImage}
	}

	for _, enc := range encodings {
		if data, err := enc.DecodeString(payload); err == nil && len(data) > 0 {
			return data, nil
		}
	}
	return nil, &ValidationError{Field: field, Err: ErrMalformedImage}
}
