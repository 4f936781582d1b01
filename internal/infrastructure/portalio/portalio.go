// Package portalio reads portal lists from the file formats operators
// commonly keep them in: plain text, CSV, JSON, YAML and IITC exports.
//
// Parsing is lenient per record and strict per document. A line or entry that
// cannot be read becomes an Issue and is skipped; a document that cannot be
// decoded at all is an error.
package portalio

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/turtacn/fieldplan/pkg/errors"
	"github.com/turtacn/fieldplan/pkg/types/plan"
)

// Format names an input format.
type Format string

const (
	FormatText Format = "txt"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatIITC Format = "iitc"
	// FormatAuto detects the format from the content.
	FormatAuto Format = ""
)

// ParseFormat maps a user supplied name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "txt", "text":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "iitc", "bookmarks", "drawtools":
		return FormatIITC, nil
	}
	return FormatAuto, errors.Newf(errors.ErrCodeInputFormat, "unknown input format %q", s)
}

// Record is one portal as read from the input. Line is the 1-based source
// line for text formats and the 1-based entry position otherwise.
type Record struct {
	Name string
	Lat  float64
	Lon  float64
	Line int
}

// Issue is a record that was skipped.
type Issue struct {
	Line    int
	Code    errors.ErrorCode
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("line %d: %s", i.Line, i.Message)
}

// Result is the outcome of parsing one document.
type Result struct {
	Format  Format
	Records []Record
	Issues  []Issue
}

func (r *Result) add(rec Record) {
	p := plan.Portal{Lat: rec.Lat, Lon: rec.Lon}
	if !p.ValidCoordinates() {
		r.issue(rec.Line, errors.ErrCodeCoordinateRange,
			fmt.Sprintf("coordinates out of range (%v,%v)", rec.Lat, rec.Lon))
		return
	}
	rec.Name = strings.TrimSpace(rec.Name)
	r.Records = append(r.Records, rec)
}

func (r *Result) issue(line int, code errors.ErrorCode, msg string) {
	r.Issues = append(r.Issues, Issue{Line: line, Code: code, Message: msg})
}

// Load reads and parses the file at path. The format is taken from the
// extension, falling back to content detection.
func Load(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInputUnreadable, "cannot read portal file").WithDetail(path)
	}
	return ParseBytes(data, FormatFromPath(path))
}

// FormatFromPath guesses a format from the file extension. JSON files are
// left to content detection because IITC exports share the extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return FormatText
	case ".csv":
		return FormatCSV
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatAuto
}

// Parse reads a whole document from r.
func Parse(r io.Reader, format Format) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInputUnreadable, "cannot read portal input")
	}
	return ParseBytes(data, format)
}

// ParseBytes parses data in the given format.
func ParseBytes(data []byte, format Format) (*Result, error) {
	if format == FormatAuto {
		format = Detect(data)
	}
	res := &Result{Format: format}
	var err error
	switch format {
	case FormatText:
		err = parseText(data, res)
	case FormatCSV:
		err = parseCSV(data, res)
	case FormatJSON:
		err = parseJSON(data, res)
	case FormatYAML:
		err = parseYAML(data, res)
	case FormatIITC:
		err = parseIITC(data, res)
	default:
		return nil, errors.Newf(errors.ErrCodeInputFormat, "unknown input format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Detect guesses the format of data from its first significant byte.
func Detect(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return FormatText
	}
	switch trimmed[0] {
	case '[', '{':
		if looksLikeIITC(trimmed) {
			return FormatIITC
		}
		return FormatJSON
	}
	if bytes.HasPrefix(trimmed, []byte("portals:")) || bytes.HasPrefix(trimmed, []byte("---")) {
		return FormatYAML
	}
	return FormatText
}

// Duplicate is a record dropped because an earlier record has the same
// coordinates.
type Duplicate struct {
	Record Record
	// Kept is the index of the surviving portal in Dedup's output.
	Kept int
}

// Warning converts d into a plan warning.
func (d Duplicate) Warning(kept plan.Portal) plan.Warning {
	name := d.Record.Name
	if name == "" {
		name = fmt.Sprintf("line %d", d.Record.Line)
	}
	return plan.Warning{
		Code:    string(errors.ErrCodeDuplicateCoordinate),
		Message: fmt.Sprintf("%s duplicates %s and was dropped", name, kept.Name),
		Portals: []int{d.Kept},
	}
}

// Dedup converts records into portals, dropping records whose coordinates
// repeat an earlier one. Portal IDs are positions in the returned slice.
func Dedup(records []Record) ([]plan.Portal, []Duplicate) {
	out := make([]plan.Portal, 0, len(records))
	seen := make(map[plan.CoordKey]int, len(records))
	var dups []Duplicate
	for _, rec := range records {
		p := plan.Portal{ID: len(out), Name: rec.Name, Lat: rec.Lat, Lon: rec.Lon}
		if first, ok := seen[p.Key()]; ok {
			dups = append(dups, Duplicate{Record: rec, Kept: first})
			continue
		}
		seen[p.Key()] = p.ID
		out = append(out, p)
	}
	return out, dups
}

// Portals is shorthand for Dedup(r.Records) without the duplicate report.
func (r *Result) Portals() []plan.Portal {
	out, _ := Dedup(r.Records)
	return out
}

//Personal.AI order the ending
