package ocr

import "fmt"

// Configuration is one recognizer setting in the matrix.
type Configuration struct {
	Name      string
	Languages string // tesseract language spec, e.g. "hin+eng"
	OEM       int    // engine mode: 3 default, 1 LSTM only
	PSM       int    // page segmentation mode
}

func (c Configuration) String() string {
	return fmt.Sprintf("%s(-l %s --oem %d --psm %d)", c.Name, c.Languages, c.OEM, c.PSM)
}

// catalog is the fixed, ordered configuration sweep. Order is part of the
// ranking tie-break, so it must not change casually.
var catalog = [...]Configuration{
	{Name: "hin+eng_psm6", Languages: "hin+eng", OEM: 3, PSM: 6},
	{Name: "hin_only_psm6", Languages: "hin", OEM: 3, PSM: 6},
	{Name: "eng_only_psm6", Languages: "eng", OEM: 3, PSM: 6},
	{Name: "hin+eng_legacy", Languages: "hin+eng", OEM: 1, PSM: 6},
	{Name: "hin_only_legacy", Languages: "hin", OEM: 1, PSM: 6},
}

// Catalog returns a copy of the configuration sweep in order.
func Catalog() []Configuration {
	out := make([]Configuration, len(catalog))
	copy(out, catalog[:])
	return out
}

// Label names a variant/configuration pair.
func Label(variant string, cfg Configuration) string {
	return variant + "_" + cfg.Name
}
