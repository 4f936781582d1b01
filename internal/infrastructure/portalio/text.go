package portalio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/turtacn/fieldplan/pkg/errors"
)

// pllPattern matches the portal location parameter of an Intel map URL.
var pllPattern = regexp.MustCompile(`pll=(-?[0-9]+(?:\.[0-9]+)?),(-?[0-9]+(?:\.[0-9]+)?)`)

// parseText reads one portal per line: "lat,lon", "name,lat,lon" or a line
// carrying an Intel URL with a pll= parameter. Tab and semicolon separators
// are accepted in place of commas. Lines starting with # are comments.
func parseText(data []byte, res *Result) error {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if m := pllPattern.FindStringSubmatchIndex(line); m != nil {
			lat, _ := strconv.ParseFloat(line[m[2]:m[3]], 64)
			lon, _ := strconv.ParseFloat(line[m[4]:m[5]], 64)
			res.add(Record{Name: urlLabel(line, m[0]), Lat: lat, Lon: lon, Line: n})
			continue
		}
		sep := separator(line)
		fields := strings.Split(line, sep)
		if len(res.Records) == 0 && len(res.Issues) == 0 && isHeader(fields) {
			continue
		}
		fromFields(fields, sep, n, res)
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeInputUnreadable, "cannot read portal text")
	}
	return nil
}

// urlLabel is whatever precedes the URL holding the pll token at idx.
func urlLabel(line string, idx int) string {
	head := line[:idx]
	if i := strings.Index(head, "http"); i >= 0 {
		head = head[:i]
	}
	return strings.Trim(head, " \t,;")
}

func separator(line string) string {
	switch {
	case strings.Contains(line, "\t"):
		return "\t"
	case strings.Contains(line, ";"):
		return ";"
	}
	return ","
}

// isHeader reports whether fields look like a column header line.
func isHeader(fields []string) bool {
	if len(fields) < 2 {
		return false
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(fields[len(fields)-1]), 64); err == nil {
		return false
	}
	for _, f := range fields {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(f)), "lat") {
			return true
		}
	}
	return false
}

// fromFields takes the last two fields as lat,lon and joins the rest into the
// name, so names may contain the separator.
func fromFields(fields []string, sep string, line int, res *Result) {
	if len(fields) < 2 {
		res.issue(line, errors.ErrCodeInputParse, "expected lat,lon or name,lat,lon")
		return
	}
	k := len(fields)
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(fields[k-2]), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(fields[k-1]), 64)
	if err1 != nil || err2 != nil {
		res.issue(line, errors.ErrCodeInputParse,
			fmt.Sprintf("invalid coordinates %q,%q", strings.TrimSpace(fields[k-2]), strings.TrimSpace(fields[k-1])))
		return
	}
	res.add(Record{Name: strings.Join(fields[:k-2], sep), Lat: lat, Lon: lon, Line: line})
}

// columns locates the name, latitude and longitude columns of a CSV header.
type columns struct {
	name, lat, lon int
}

func headerColumns(header []string) (columns, bool) {
	c := columns{name: -1, lat: -1, lon: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "name", "label", "title", "portal":
			c.name = i
		case "lat", "latitude":
			c.lat = i
		case "lon", "lng", "long", "longitude":
			c.lon = i
		}
	}
	return c, c.lat >= 0 && c.lon >= 0
}

// parseCSV reads RFC 4180 CSV. A header row naming lat and lon columns selects
// columns by name; otherwise rows are read positionally like text input.
func parseCSV(data []byte, res *Result) error {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true

	var cols *columns
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if stderrors.As(err, &pe) {
				res.issue(pe.Line, errors.ErrCodeInputParse, pe.Err.Error())
				continue
			}
			return errors.Wrap(err, errors.ErrCodeInputUnreadable, "cannot read portal csv")
		}
		line, _ := r.FieldPos(0)
		if first {
			first = false
			if c, ok := headerColumns(row); ok {
				cols = &c
				continue
			}
		}
		if cols == nil {
			fromFields(row, ",", line, res)
			continue
		}
		fromColumns(row, *cols, line, res)
	}
	return nil
}

func fromColumns(row []string, c columns, line int, res *Result) {
	if c.lat >= len(row) || c.lon >= len(row) {
		res.issue(line, errors.ErrCodeInputParse, "row is missing lat or lon")
		return
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(row[c.lat]), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(row[c.lon]), 64)
	if err1 != nil || err2 != nil {
		res.issue(line, errors.ErrCodeInputParse,
			fmt.Sprintf("invalid coordinates %q,%q", row[c.lat], row[c.lon]))
		return
	}
	rec := Record{Lat: lat, Lon: lon, Line: line}
	if c.name >= 0 && c.name < len(row) {
		rec.Name = row[c.name]
	}
	res.add(rec)
}

//Personal.AI order the ending
