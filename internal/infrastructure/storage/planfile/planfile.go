// Package planfile reads and writes plan documents: JSON, optionally zstd
// compressed, plus a plain text report.
package planfile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/turtacn/fieldplan/pkg/errors"
	"github.com/turtacn/fieldplan/pkg/types/plan"
)

// Extensions used by WriteFile.
const (
	ExtJSON = ".json"
	ExtZstd = ".json.zst"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// IsCompressed reports whether data starts with the zstd frame magic.
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, zstdMagic)
}

// Marshal encodes p as indented JSON, compressed when compress is set.
func Marshal(p *plan.Plan, compress bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, p, compress); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a plan written by Marshal, compressed or not.
func Unmarshal(data []byte) (*plan.Plan, error) {
	return Read(bytes.NewReader(data))
}

// Write encodes p to w.
func Write(w io.Writer, p *plan.Plan, compress bool) error {
	if !compress {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(p); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "encode plan")
		}
		return nil
	}

	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "create zstd writer")
	}
	if err := json.NewEncoder(zw).Encode(p); err != nil {
		zw.Close()
		return errors.Wrap(err, errors.ErrCodeSerialization, "encode plan")
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "flush zstd stream")
	}
	return nil
}

// Read decodes a plan from r, detecting compression from the stream header.
func Read(r io.Reader) (*plan.Plan, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(zstdMagic))

	var src io.Reader = br
	if IsCompressed(head) {
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStorageCorrupted, "open zstd stream")
		}
		defer zr.Close()
		src = zr
	}

	var p plan.Plan
	if err := json.NewDecoder(src).Decode(&p); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageCorrupted, "decode plan")
	}
	return &p, nil
}

// FileName returns the conventional file name for plan id.
func FileName(id string, compress bool) string {
	if compress {
		return id + ExtZstd
	}
	return id + ExtJSON
}

// WriteFile writes p into dir and returns the file path.
func WriteFile(dir string, p *plan.Plan, compress bool) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "create export dir")
	}
	path := filepath.Join(dir, FileName(p.ID, compress))
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "create plan file")
	}
	if err := Write(f, p, compress); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "close plan file")
	}
	return path, nil
}

// ReadFile reads a plan file written by WriteFile.
func ReadFile(path string) (*plan.Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(err, errors.ErrCodeStorageNotFound, "plan file not found").WithDetail(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "open plan file")
	}
	defer f.Close()
	return Read(f)
}

// ─────────────────────────────────────────────────────────────────────────────
// Text report
// ─────────────────────────────────────────────────────────────────────────────

// FormatText writes a human readable build report.
func FormatText(w io.Writer, p *plan.Plan) error {
	tw := &textWriter{w: w}
	s := p.Summarize()
	tw.printf("Plan %s\n", p.ID)
	tw.printf("Portals: %d  Links: %d  Fields: %d  AP: %d  Walk: %s\n",
		s.Portals, s.Links, s.Fields, s.TotalAP, Distance(s.TotalMeters))
	tw.printf("\nBuild order:\n")
	writeSteps(tw, p, p.Actions)

	for _, ag := range p.Agents {
		tw.printf("\nAgent %d: %d links, %d fields, %d AP, walk %s\n",
			ag.Agent+1, len(ag.Links), len(ag.Fields), ag.TotalAP, Distance(ag.TotalMeters))
		writeSteps(tw, p, ag.Actions)
	}

	if len(p.Warnings) > 0 {
		tw.printf("\nWarnings:\n")
		for _, warn := range p.Warnings {
			tw.printf("  [%s] %s", warn.Code, warn.Message)
			if len(warn.Portals) > 0 {
				names := make([]string, len(warn.Portals))
				for i, idx := range warn.Portals {
					names[i] = p.PortalName(idx)
				}
				tw.printf(" (%s)", strings.Join(names, ", "))
			}
			tw.printf("\n")
		}
	}
	return tw.err
}

// StepLine renders one action as a single report line.
func StepLine(p *plan.Plan, n int, a plan.Action) string {
	switch a.Kind {
	case plan.ActionKey:
		return fmt.Sprintf("%3d. visit %-24s walk %s", n, p.PortalName(a.Origin), Distance(a.WalkMeters))
	default:
		line := fmt.Sprintf("%3d. link  %s -> %s  +%d AP", n, p.PortalName(a.Origin), p.PortalName(a.Dest), a.LinkAP+a.FieldAP)
		if k := len(a.FieldsCompleted); k > 0 {
			line += fmt.Sprintf(" (%d field%s)", k, plural(k))
		}
		return line + fmt.Sprintf("  total %d AP, %s", a.CumulativeAP, Distance(a.CumulativeMeters))
	}
}

func writeSteps(tw *textWriter, p *plan.Plan, actions []plan.Action) {
	for i, a := range actions {
		tw.printf("%s\n", StepLine(p, i+1, a))
	}
}

// Distance renders metres as "850 m" or "2.35 km".
func Distance(m float64) string {
	if m < 1000 {
		return fmt.Sprintf("%.0f m", m)
	}
	return fmt.Sprintf("%.2f km", m/1000)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...interface{}) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

//Personal.AI order the ending
