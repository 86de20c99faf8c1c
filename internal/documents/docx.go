package documents

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/joseph-ayodele/lyrics-extractor/constants"
	"github.com/joseph-ayodele/lyrics-extractor/internal/common"
)

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// readDOCX returns one line per paragraph of word/document.xml.
func readDOCX(content []byte) (Document, error) {
	doc := Document{Method: constants.MethodDOCX, Pages: 1}
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return doc, fmt.Errorf("%w: not a docx archive: %v", common.ErrInvalidInput, err)
	}
	var body *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			body = f
			break
		}
	}
	if body == nil {
		return doc, fmt.Errorf("%w: docx has no word/document.xml", common.ErrInvalidInput)
	}
	rc, err := body.Open()
	if err != nil {
		return doc, fmt.Errorf("%w: open document.xml: %v", common.ErrInvalidInput, err)
	}
	defer rc.Close()

	paras, err := docxParagraphs(rc)
	if err != nil {
		return doc, fmt.Errorf("%w: parse document.xml: %v", common.ErrInvalidInput, err)
	}
	doc.Text = strings.TrimSpace(strings.Join(paras, "\n"))
	return doc, nil
}

func docxParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		paras  []string
		cur    strings.Builder
		inPara bool
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "p":
				inPara = true
				cur.Reset()
			case "t":
				inText = true
			case "tab":
				if inPara {
					cur.WriteByte('\t')
				}
			case "br", "cr":
				if inPara {
					cur.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				inPara = false
				paras = append(paras, cur.String())
			}
		case xml.CharData:
			if inText && inPara {
				cur.Write(t)
			}
		}
	}
	return paras, nil
}
