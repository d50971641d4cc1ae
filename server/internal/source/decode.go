package source

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/clbanning/mxj/v2"
	"github.com/tidwall/gjson"
)

// Format is the encoding of a source document.
type Format string

// Supported document formats.
const (
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
)

// FormatFor returns f if set, otherwise the format implied by the extension
// of location. XML is assumed when nothing else matches.
func FormatFor(f Format, location string) Format {
	if f != "" {
		return f
	}
	if u := strings.SplitN(location, "?", 2)[0]; strings.EqualFold(filepath.Ext(u), ".json") {
		return FormatJSON
	}
	return FormatXML
}

// Entries decodes data and returns the mappings found at the dot-separated
// path. A single mapping at the end of the path is returned as a one-element
// list, since XML collapses a lone repeated element into a mapping.
func Entries(data []byte, format Format, path string) ([]map[string]any, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty entry path", ErrSchemaMismatch)
	}
	switch format {
	case FormatXML:
		return xmlEntries(data, path)
	case FormatJSON:
		return jsonEntries(data, path)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrMalformedSource, format)
	}
}

func xmlEntries(data []byte, path string) ([]map[string]any, error) {
	doc, err := mxj.NewMapXml(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode xml: %w", ErrMalformedSource, err)
	}
	if err := checkXMLTrailer(data); err != nil {
		return nil, fmt.Errorf("%w: decode xml: %w", ErrMalformedSource, err)
	}

	var node any = map[string]any(doc)
	walked := make([]string, 0, 8)
	for _, key := range splitPath(path) {
		m, ok := asMap(node)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not an element", ErrSchemaMismatch, strings.Join(walked, "."))
		}
		walked = append(walked, key)
		if node, ok = m[key]; !ok {
			return nil, fmt.Errorf("%w: path %q not found", ErrSchemaMismatch, strings.Join(walked, "."))
		}
	}
	return entryList(node, path)
}

func jsonEntries(data []byte, path string) ([]map[string]any, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid json", ErrMalformedSource)
	}
	res := gjson.GetBytes(data, path)
	if !res.Exists() {
		return nil, fmt.Errorf("%w: path %q not found", ErrSchemaMismatch, path)
	}
	if !res.IsArray() && !res.IsObject() {
		return nil, fmt.Errorf("%w: %q is neither a list nor an object", ErrSchemaMismatch, path)
	}
	return entryList(jsonValue(res), path)
}

// checkXMLTrailer scans the whole document and rejects anything other than
// whitespace, comments and processing instructions after the root element.
func checkXMLTrailer(data []byte) error {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.CharsetReader = mxj.XmlCharsetReader
	depth, closed := 0, false
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if closed {
				return fmt.Errorf("junk after document element: <%s>", t.Name.Local)
			}
			depth++
		case xml.EndElement:
			depth--
			if depth == 0 {
				closed = true
			}
		case xml.CharData:
			if closed && len(bytes.TrimSpace(t)) > 0 {
				return errors.New("junk after document element")
			}
		}
	}
}

// jsonValue converts r like Result.Value, except numbers stay json.Number
// so integers beyond float64 precision pass through unchanged.
func jsonValue(r gjson.Result) any {
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		return json.Number(r.Raw)
	case gjson.String:
		return r.Str
	}
	if r.IsArray() {
		out := make([]any, 0)
		r.ForEach(func(_, v gjson.Result) bool {
			out = append(out, jsonValue(v))
			return true
		})
		return out
	}
	out := make(map[string]any)
	r.ForEach(func(k, v gjson.Result) bool {
		out[k.Str] = jsonValue(v)
		return true
	})
	return out
}

// entryList normalises the node at the end of the entry path.
func entryList(node any, path string) ([]map[string]any, error) {
	if m, ok := asMap(node); ok {
		return []map[string]any{m}, nil
	}
	list, ok := node.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q is neither a list nor a mapping", ErrSchemaMismatch, path)
	}
	out := make([]map[string]any, 0, len(list))
	for i, item := range list {
		m, ok := asMap(item)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] is not a mapping", ErrSchemaMismatch, path, i)
		}
		out = append(out, m)
	}
	return out, nil
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case mxj.Map:
		return map[string]any(m), true
	default:
		return nil, false
	}
}

func splitPath(path string) []string {
	return strings.Split(path, ".")
}
