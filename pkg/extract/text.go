package extract

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// textExtractor decodes plain text, trying UTF-8 first and falling back
// through legacy single-byte encodings. Total decode failure degrades to a
// lossy UTF-8 replacement rather than failing the document.
type textExtractor struct{}

func (e *textExtractor) Extract(raw []byte) (string, Metadata, error) {

	if utf8.Valid(raw) {
		return strings.TrimSpace(string(raw)), Metadata{}, nil
	}

	for _, cm := range []*charmap.Charmap{charmap.ISO8859_1, charmap.Windows1252} {
		decoded, err := cm.NewDecoder().Bytes(raw)
		if err == nil {
			return strings.TrimSpace(string(decoded)), Metadata{}, nil
		}
	}

	lossy := strings.ToValidUTF8(string(raw), string(utf8.RuneError))
	return strings.TrimSpace(lossy), Metadata{}, nil
}
