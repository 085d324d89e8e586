package analysis

import (
	"encoding/base64"
	"net/http"
	"strings"
)

const defaultMIME = "image/jpeg"

// ParseDataURI strips a "data:<mime>;base64," header when present and decodes
// the payload. A bare base64 string is accepted too.
func ParseDataURI(s string) (Image, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Image{}, ErrMissingImage
	}

	mime := ""
	payload := s
	if i := strings.IndexByte(s, ','); i >= 0 {
		header := s[:i]
		payload = s[i+1:]
		if strings.HasPrefix(header, "data:") {
			mime = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		}
	}
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return Image{}, ErrMissingImage
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return Image{}, ErrMalformedImage
		}
	}

	if mime == "" {
		mime = http.DetectContentType(data)
		if !strings.HasPrefix(mime, "image/") {
			mime = defaultMIME
		}
	}
	return Image{MIMEType: mime, Data: data}, nil
}

// DataURI encodes the image back into data URI form for vendors that take
// images inline.
func (img Image) DataURI() string {
	mime := img.MIMEType
	if mime == "" {
		mime = defaultMIME
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
