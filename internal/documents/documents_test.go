package documents

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/joseph-ayodele/lyrics-extractor/constants"
	"github.com/joseph-ayodele/lyrics-extractor/internal/common"
	"github.com/joseph-ayodele/lyrics-extractor/internal/core"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	mu       sync.Mutex
	calls    []call
	pdfText  string
	pages    int
	missing  map[string]bool
	failWith map[string]error
}

func (f *fakeRunner) Run(ctx context.Context, name string, logger *slog.Logger, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{name: name, args: args})
	f.mu.Unlock()
	if f.missing[name] {
		return nil, nil, &exec.Error{Name: name, Err: exec.ErrNotFound}
	}
	if err := f.failWith[name]; err != nil {
		return nil, []byte("boom"), err
	}
	switch name {
	case "pdftotext":
		return []byte(f.pdfText), nil, nil
	case "pdftoppm":
		prefix := args[len(args)-1]
		for i := 1; i <= f.pages; i++ {
			if err := os.WriteFile(fmt.Sprintf("%s-%d.png", prefix, i), []byte(fmt.Sprintf("page%d", i)), 0o600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	default:
		// converters take the output path last
		out := args[len(args)-1]
		if err := os.WriteFile(out, []byte("converted"), 0o600); err != nil {
			return nil, nil, err
		}
		return nil, nil, nil
	}
}

func (f *fakeRunner) argsOf(name string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c.name == name {
			return c.args
		}
	}
	return nil
}

type fakeImages struct {
	mu     sync.Mutex
	seen   []string
	result func(data []byte) (core.Result, error)
}

func (f *fakeImages) ExtractImageBytes(ctx context.Context, data []byte) (core.Result, error) {
	f.mu.Lock()
	f.seen = append(f.seen, string(data))
	f.mu.Unlock()
	if f.result != nil {
		return f.result(data)
	}
	return core.Result{Text: "text of " + string(data), Label: "original_hin+eng_psm6", Score: 4.2}, nil
}

func newTestReader(r *fakeRunner, img *fakeImages) *Reader {
	return NewReader(Config{TempDir: os.TempDir()}, img, r, nil)
}

func TestDetect(t *testing.T) {
	cases := map[string]string{
		"scan.JPG":    constants.IMAGE,
		"photo.heic":  constants.IMAGE,
		"book.pdf":    constants.PDF,
		"bhajan.docx": constants.DOCX,
		"old.doc":     constants.DOCX,
		"notes.txt":   constants.TXT,
	}
	for name, want := range cases {
		got, err := Detect(name)
		if err != nil || got != want {
			t.Errorf("Detect(%q) = %q, %v; want %q", name, got, err, want)
		}
	}
	if _, err := Detect("sheet.xlsx"); !errors.Is(err, common.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := Detect("noext"); !errors.Is(err, common.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat for missing extension, got %v", err)
	}
}

func TestReadEmptyContent(t *testing.T) {
	rd := newTestReader(&fakeRunner{}, &fakeImages{})
	if _, err := rd.Read(context.Background(), "a.txt", nil); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestReadImage(t *testing.T) {
	img := &fakeImages{}
	rd := newTestReader(&fakeRunner{}, img)
	doc, err := rd.Read(context.Background(), "scan.png", []byte("pixels"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if doc.Text != "text of pixels" || doc.Method != constants.MethodImageOCR || doc.Format != constants.IMAGE {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if doc.Label != "original_hin+eng_psm6" || doc.Score != 4.2 || doc.Pages != 1 {
		t.Fatalf("winner not carried: %+v", doc)
	}
}

func TestReadImageNoText(t *testing.T) {
	img := &fakeImages{result: func([]byte) (core.Result, error) { return core.Result{}, common.ErrNoText }}
	rd := newTestReader(&fakeRunner{}, img)
	if _, err := rd.Read(context.Background(), "scan.png", []byte("x")); !errors.Is(err, common.ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}

func TestReadImageTooShort(t *testing.T) {
	tests := []struct {
		text    string
		wantErr bool
	}{
		{"  हरि  ", true},
		{"राधे!", true},
		{"राधे!!", false},
	}
	for _, tt := range tests {
		text := tt.text
		img := &fakeImages{result: func([]byte) (core.Result, error) {
			return core.Result{Text: text, Label: "combined_hin_only_psm6", Score: 0.4}, nil
		}}
		rd := newTestReader(&fakeRunner{}, img)
		doc, err := rd.Read(context.Background(), "scan.png", []byte("x"))
		if tt.wantErr {
			if !errors.Is(err, common.ErrNoText) {
				t.Errorf("%q: expected ErrNoText, got %v", tt.text, err)
			}
			if doc.Text != "" || len(doc.Warnings) != 1 {
				t.Errorf("%q: unexpected document %+v", tt.text, doc)
			}
			continue
		}
		if err != nil || doc.Text != text {
			t.Errorf("%q: Read = %q, %v", tt.text, doc.Text, err)
		}
	}
}

func TestReadHEICConverts(t *testing.T) {
	r := &fakeRunner{}
	img := &fakeImages{}
	rd := newTestReader(r, img)
	doc, err := rd.Read(context.Background(), "phone.HEIC", []byte("heic-bytes"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if doc.Text != "text of converted" {
		t.Fatalf("converted bytes not recognised: %+v", doc)
	}
	args := r.argsOf("magick")
	if len(args) != 2 || !strings.HasSuffix(args[0], "page.heic") || !strings.HasSuffix(args[1], "page.png") {
		t.Fatalf("unexpected magick args: %v", args)
	}
}

func TestReadHEICSips(t *testing.T) {
	r := &fakeRunner{}
	rd := NewReader(Config{HeicConverter: "sips"}, &fakeImages{}, r, nil)
	if _, err := rd.Read(context.Background(), "phone.heif", []byte("x")); err != nil {
		t.Fatalf("Read: %v", err)
	}
	args := r.argsOf("sips")
	if len(args) != 6 || args[0] != "-s" || args[4] != "--out" {
		t.Fatalf("unexpected sips args: %v", args)
	}
}

func TestReadHEICConverterMissing(t *testing.T) {
	r := &fakeRunner{missing: map[string]bool{"magick": true}}
	rd := newTestReader(r, &fakeImages{})
	if _, err := rd.Read(context.Background(), "phone.heic", []byte("x")); !errors.Is(err, common.ErrEngineUnavailable) {
		t.Fatalf("expected ErrEngineUnavailable, got %v", err)
	}
}

func TestReadHEICUnknownConverter(t *testing.T) {
	rd := NewReader(Config{HeicConverter: "gimp"}, &fakeImages{}, &fakeRunner{}, nil)
	if _, err := rd.Read(context.Background(), "phone.heic", []byte("x")); !errors.Is(err, common.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestReadPDFNativeText(t *testing.T) {
	native := strings.Repeat("radhe radhe shyam ", 5) + "\f" + "second page bhajan line\f"
	r := &fakeRunner{pdfText: native}
	img := &fakeImages{}
	rd := newTestReader(r, img)
	doc, err := rd.Read(context.Background(), "book.pdf", []byte("%PDF"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if doc.Method != constants.MethodPDFText || doc.Pages != 2 {
		t.Fatalf("unexpected method/pages: %+v", doc)
	}
	if strings.Contains(doc.Text, "\f") {
		t.Fatal("form feeds must be replaced")
	}
	if r.argsOf("pdftoppm") != nil || len(img.seen) != 0 {
		t.Fatal("OCR fallback must not run when native text suffices")
	}
	args := r.argsOf("pdftotext")
	if strings.Join(args[:5], " ") != "-layout -enc UTF-8 -eol unix" || args[len(args)-1] != "-" {
		t.Fatalf("unexpected pdftotext args: %v", args)
	}
}

func TestReadPDFFallsBackToOCR(t *testing.T) {
	r := &fakeRunner{pdfText: "  short \f", pages: 2}
	img := &fakeImages{}
	rd := newTestReader(r, img)
	doc, err := rd.Read(context.Background(), "scan.pdf", []byte("%PDF"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if doc.Method != constants.MethodPDFOCR || doc.Pages != 2 {
		t.Fatalf("unexpected method/pages: %+v", doc)
	}
	if doc.Text != "text of page1\n\ntext of page2" {
		t.Fatalf("unexpected text: %q", doc.Text)
	}
	args := strings.Join(r.argsOf("pdftoppm"), " ")
	if !strings.HasPrefix(args, "-r 300 -f 1 -l 5 -png ") {
		t.Fatalf("unexpected pdftoppm args: %s", args)
	}
}

func TestReadPDFPageErrorsBecomeWarnings(t *testing.T) {
	r := &fakeRunner{pages: 3}
	img := &fakeImages{result: func(data []byte) (core.Result, error) {
		if string(data) == "page2" {
			return core.Result{}, common.ErrNoText
		}
		return core.Result{Text: string(data), Label: "l-" + string(data), Score: float64(len(data))}, nil
	}}
	rd := newTestReader(r, img)
	doc, err := rd.Read(context.Background(), "scan.pdf", []byte("%PDF"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if doc.Text != "page1\n\npage3" {
		t.Fatalf("unexpected text: %q", doc.Text)
	}
	if len(doc.Warnings) != 1 || !strings.Contains(doc.Warnings[0], "page 2") {
		t.Fatalf("expected one page warning, got %v", doc.Warnings)
	}
}

func TestReadPDFNoPageText(t *testing.T) {
	r := &fakeRunner{pages: 1}
	img := &fakeImages{result: func([]byte) (core.Result, error) { return core.Result{}, common.ErrNoText }}
	rd := newTestReader(r, img)
	if _, err := rd.Read(context.Background(), "scan.pdf", []byte("%PDF")); !errors.Is(err, common.ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}

func TestReadPDFEngineUnavailableIsFatal(t *testing.T) {
	r := &fakeRunner{pages: 2}
	img := &fakeImages{result: func([]byte) (core.Result, error) { return core.Result{}, common.ErrEngineUnavailable }}
	rd := newTestReader(r, img)
	if _, err := rd.Read(context.Background(), "scan.pdf", []byte("%PDF")); !errors.Is(err, common.ErrEngineUnavailable) {
		t.Fatalf("expected ErrEngineUnavailable, got %v", err)
	}
	if len(img.seen) != 1 {
		t.Fatalf("expected to stop after the first page, saw %d", len(img.seen))
	}
}

func TestReadPDFToolsMissing(t *testing.T) {
	r := &fakeRunner{missing: map[string]bool{"pdftotext": true}}
	rd := newTestReader(r, &fakeImages{})
	if _, err := rd.Read(context.Background(), "scan.pdf", []byte("%PDF")); !errors.Is(err, common.ErrEngineUnavailable) {
		t.Fatalf("expected ErrEngineUnavailable, got %v", err)
	}
}

func TestReadPDFRespectsMaxPages(t *testing.T) {
	r := &fakeRunner{pages: 4}
	img := &fakeImages{}
	rd := NewReader(Config{MaxPages: 2}, img, r, nil)
	doc, err := rd.Read(context.Background(), "scan.pdf", []byte("%PDF"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if doc.Pages != 2 || len(img.seen) != 2 {
		t.Fatalf("expected 2 pages, got %d (seen %d)", doc.Pages, len(img.seen))
	}
}

func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	xmlDoc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="` + wordNS + `"><w:body>` + body + `</w:body></w:document>`
	if _, err := w.Write([]byte(xmlDoc)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestReadDOCX(t *testing.T) {
	body := `<w:p><w:r><w:t>हरि </w:t></w:r><w:r><w:t>बोल</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>radhe</w:t><w:tab/><w:t>shyam</w:t><w:br/><w:t>next</w:t></w:r></w:p>` +
		`<w:p/>`
	rd := newTestReader(&fakeRunner{}, &fakeImages{})
	doc, err := rd.Read(context.Background(), "bhajan.docx", buildDOCX(t, body))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if doc.Text != "हरि बोल\nradhe\tshyam\nnext" {
		t.Fatalf("unexpected text: %q", doc.Text)
	}
	if doc.Method != constants.MethodDOCX {
		t.Fatalf("unexpected method %q", doc.Method)
	}
}

func TestReadDOCXInvalid(t *testing.T) {
	rd := newTestReader(&fakeRunner{}, &fakeImages{})
	if _, err := rd.Read(context.Background(), "old.doc", []byte("not a zip")); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestReadDOCXEmpty(t *testing.T) {
	rd := newTestReader(&fakeRunner{}, &fakeImages{})
	if _, err := rd.Read(context.Background(), "blank.docx", buildDOCX(t, "<w:p/>")); !errors.Is(err, common.ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}

func TestDecodeText(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want string
	}{
		{"utf8", []byte("हरि बोल"), "हरि बोल"},
		{"bom", append([]byte{0xEF, 0xBB, 0xBF}, "radhe"...), "radhe"},
		{"cp1252 quotes", []byte{0x93, 'h', 'i', 0x94}, "“hi”"},
		{"latin1", []byte{'c', 'a', 'f', 0xE9}, "café"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := decodeText(tc.in); got != tc.want {
				t.Fatalf("decodeText = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestReadTextTrims(t *testing.T) {
	rd := newTestReader(&fakeRunner{}, &fakeImages{})
	doc, err := rd.Read(context.Background(), "notes.txt", []byte("\n  hari bol  \n"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if doc.Text != "hari bol" || doc.Method != constants.MethodText {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if _, err := rd.Read(context.Background(), "blank.txt", []byte("   \n")); !errors.Is(err, common.ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}

func TestTempFilesRemoved(t *testing.T) {
	dir := t.TempDir()
	r := &fakeRunner{pages: 1}
	rd := NewReader(Config{TempDir: dir}, &fakeImages{}, r, nil)
	if _, err := rd.Read(context.Background(), "scan.pdf", []byte("%PDF")); err != nil {
		t.Fatalf("Read: %v", err)
	}
	left, _ := filepath.Glob(filepath.Join(dir, "*"))
	if len(left) != 0 {
		t.Fatalf("temp files left behind: %v", left)
	}
}
