package documents

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/lyrics-extractor/constants"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readText decodes UTF-8, then Windows-1252 when C1 bytes are present,
// then ISO-8859-1, which accepts any byte sequence.
func readText(content []byte) (Document, error) {
	doc := Document{Method: constants.MethodText, Pages: 1}
	doc.Text = strings.TrimSpace(decodeText(content))
	return doc, nil
}

func decodeText(content []byte) string {
	content = bytes.TrimPrefix(content, utf8BOM)
	if utf8.Valid(content) {
		return string(content)
	}
	dec := charmap.ISO8859_1.NewDecoder()
	if hasC1(content) {
		dec = charmap.Windows1252.NewDecoder()
	}
	out, err := dec.Bytes(content)
	if err != nil {
		return strings.ToValidUTF8(string(content), "�")
	}
	return string(out)
}

func hasC1(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 && c <= 0x9F {
			return true
		}
	}
	return false
}
