package tolerance

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	containerElement = "ToleranceCurves"
	blockElement     = "Tolerance"
	pointElement     = "Point"
)

// Document layout:
//
//	<ToleranceCurves>
//	  <Tolerance ratio="1">
//	    <Point level="10" fraction="0.2"/>
//	  </Tolerance>
//	</ToleranceCurves>
//
// A bare <Tolerance> root (ratio optional, default 1.0) is the legacy form.
type xmlContainer struct {
	XMLName xml.Name   `xml:"ToleranceCurves"`
	Blocks  []xmlBlock `xml:"Tolerance"`
}

type xmlBlock struct {
	XMLName xml.Name   `xml:"Tolerance"`
	Attrs   []xml.Attr `xml:",any,attr"`
	Points  []xmlPoint `xml:"Point"`
}

type xmlPoint struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

func attr(attrs []xml.Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Load replaces every table of c with the contents of the document read
// from r. On error c is left exactly as it was. The active ratio is kept.
func (c *Curve) Load(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return parseErr(err, "cannot read document")
	}
	tables, err := decode(data)
	if err != nil {
		return err
	}
	c.tables = tables
	return nil
}

// LoadFile loads the document at path.
func (c *Curve) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open tolerance file %s: %w", path, err)
	}
	defer f.Close()
	if err := c.Load(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func rootName(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", parseErr(nil, "empty document")
			}
			return "", parseErr(err, "invalid XML")
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local, nil
		}
	}
}

func decode(data []byte) (map[float64]*Table, error) {
	root, err := rootName(data)
	if err != nil {
		return nil, err
	}

	tables := make(map[float64]*Table)
	switch root {
	case containerElement:
		var doc xmlContainer
		if err := xml.Unmarshal(data, &doc); err != nil {
			return nil, parseErr(err, "invalid XML")
		}
		for i, b := range doc.Blocks {
			raw, ok := attr(b.Attrs, "ratio")
			if !ok {
				return nil, parseErr(nil, "block %d: missing ratio attribute", i+1)
			}
			if err := decodeBlock(tables, raw, b); err != nil {
				return nil, err
			}
		}
	case blockElement:
		var b xmlBlock
		if err := xml.Unmarshal(data, &b); err != nil {
			return nil, parseErr(err, "invalid XML")
		}
		raw, ok := attr(b.Attrs, "ratio")
		if !ok {
			raw = strconv.FormatFloat(DefaultRatio, 'g', -1, 64)
		}
		if err := decodeBlock(tables, raw, b); err != nil {
			return nil, err
		}
	default:
		return nil, parseErr(nil, "unexpected root element <%s>, want <%s> or <%s>", root, containerElement, blockElement)
	}
	return tables, nil
}

func decodeBlock(tables map[float64]*Table, rawRatio string, b xmlBlock) error {
	ratio, err := strconv.ParseFloat(strings.TrimSpace(rawRatio), 64)
	if err != nil {
		return parseErr(err, "ratio %q is not a number", rawRatio)
	}
	if err := checkRatio(ratio); err != nil {
		return parseErr(err, "ratio %q", rawRatio)
	}
	if _, dup := tables[ratio]; dup {
		return parseErr(nil, "duplicate block for ratio %v", ratio)
	}

	t := newTable()
	for i, p := range b.Points {
		rawLevel, ok := attr(p.Attrs, "level")
		if !ok {
			return parseErr(nil, "ratio %v point %d: missing level attribute", ratio, i+1)
		}
		rawFraction, ok := attr(p.Attrs, "fraction")
		if !ok {
			return parseErr(nil, "ratio %v point %d: missing fraction attribute", ratio, i+1)
		}
		level, err := strconv.Atoi(strings.TrimSpace(rawLevel))
		if err != nil {
			return parseErr(err, "ratio %v point %d: level %q is not an integer", ratio, i+1, rawLevel)
		}
		fraction, err := strconv.ParseFloat(strings.TrimSpace(rawFraction), 64)
		if err != nil {
			return parseErr(err, "ratio %v point %d: fraction %q is not a number", ratio, i+1, rawFraction)
		}
		if _, dup := t.Get(level); dup {
			return parseErr(nil, "ratio %v: duplicate level %d", ratio, level)
		}
		if err := t.Set(level, fraction); err != nil {
			return parseErr(err, "ratio %v point %d", ratio, i+1)
		}
	}
	tables[ratio] = t
	return nil
}

// Save writes every configured ratio in the container form, ratios and
// levels ascending. Load(Save(c)) reproduces every value exactly.
func (c *Curve) Save(w io.Writer) error {
	doc := xmlContainer{}
	for _, r := range c.Ratios() {
		t := c.tables[r]
		b := xmlBlock{Attrs: []xml.Attr{{Name: xml.Name{Local: "ratio"}, Value: formatFloat(r)}}}
		for _, l := range t.Levels() {
			b.Points = append(b.Points, xmlPoint{Attrs: []xml.Attr{
				{Name: xml.Name{Local: "level"}, Value: strconv.Itoa(l)},
				{Name: xml.Name{Local: "fraction"}, Value: formatFloat(t.points[uint8(l)])},
			}})
		}
		doc.Blocks = append(doc.Blocks, b)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal tolerance document: %w", err)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// SaveFile writes c to path through a temporary file and a rename, so a
// reader never observes a half-written document.
func (c *Curve) SaveFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tolerance-*.xml")
	if err != nil {
		return fmt.Errorf("cannot create temp file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if err := c.Save(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	// CreateTemp uses 0600; the curve is shared configuration.
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("cannot write tolerance file %s: %w", path, err)
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
