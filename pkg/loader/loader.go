// Package loader reads the documents cmtui displays: JSON, NDJSON, YAML (single or multi
// document) and TOML, picked by file name when it has a known suffix and by content
// otherwise.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/cmtui/internal/errs"
	"github.com/oakwood-commons/cmtui/internal/textblock"
)

// Format is a document encoding.
type Format int

const (
	FormatAuto Format = iota
	FormatJSON
	FormatNDJSON
	FormatYAML
	FormatTOML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatNDJSON:
		return "ndjson"
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	}
	return "auto"
}

// ParseFormat resolves a --format flag value.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return FormatAuto, nil
	case "json":
		return FormatJSON, nil
	case "ndjson", "jsonl":
		return FormatNDJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	}
	return FormatAuto, errs.Configf("unknown input format", name, "allowed formats are auto, json, ndjson, yaml, toml")
}

// ErrEmpty is returned for input without any document.
var ErrEmpty = errors.New("empty input")

// Options control Load.
type Options struct {
	// Format forces the decoder; FormatAuto detects it.
	Format Format
	// Name is the file the data came from. Its suffix selects the format when Format is auto.
	Name string
	// Expand replaces string leaves holding JSON or YAML documents with the decoded value.
	Expand bool
}

// Document is a decoded input.
type Document struct {
	Name   string
	Format Format
	// Items holds one entry per document; single-document formats produce one item.
	Items []any
}

// Root returns the single item, or all of them as a sequence.
func (d *Document) Root() any {
	if len(d.Items) == 1 {
		return d.Items[0]
	}
	return d.Items
}

// Load decodes data.
func Load(data []byte, opts Options) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmpty
	}
	format := opts.Format
	if format == FormatAuto {
		format = detect(data, opts.Name)
	}

	var (
		items []any
		err   error
	)
	switch format {
	case FormatJSON:
		items, err = loadJSON(data)
		if err != nil && opts.Format == FormatAuto {
			// YAML flow syntax is a superset of JSON
			if y, yerr := loadYAML(data); yerr == nil {
				items, err, format = y, nil, FormatYAML
			}
		}
	case FormatNDJSON:
		items, err = loadNDJSON(data)
	case FormatTOML:
		items, err = loadTOML(data)
	default:
		format = FormatYAML
		items, err = loadYAML(data)
	}
	if err != nil {
		if opts.Name != "" {
			return nil, fmt.Errorf("%s: %w", opts.Name, err)
		}
		return nil, err
	}
	if opts.Expand {
		for i := range items {
			items[i] = RecursiveDecode(items[i])
		}
	}
	return &Document{Name: opts.Name, Format: format, Items: items}, nil
}

// LoadFile reads and decodes path.
func LoadFile(path string, opts Options) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if opts.Name == "" {
		opts.Name = path
	}
	return Load(data, opts)
}

// LoadReader decodes everything r yields, typically stdin.
func LoadReader(r io.Reader, opts Options) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return Load(data, opts)
}

func detect(data []byte, name string) Format {
	if name != "" {
		id := textblock.Identify(data, textblock.Hints{Key: filepath.Base(name)})
		switch id.Format {
		case textblock.FormatJSON:
			return FormatJSON
		case textblock.FormatYAML:
			return FormatYAML
		case textblock.FormatTOML:
			return FormatTOML
		}
		if strings.HasSuffix(name, ".ndjson") || strings.HasSuffix(name, ".jsonl") {
			return FormatNDJSON
		}
	}

	input := strings.TrimSpace(string(data))
	if strings.HasPrefix(input, "---") || strings.Contains(input, "\n---") {
		return FormatYAML
	}
	if lines := strings.Split(input, "\n"); len(lines) > 1 && isLikelyNDJSON(lines) {
		return FormatNDJSON
	}
	// TOML tables look like JSON arrays, so check them first.
	if isLikelyTOML(input) {
		return FormatTOML
	}
	if strings.HasPrefix(input, "{") || strings.HasPrefix(input, "[") {
		return FormatJSON
	}
	return FormatYAML
}

func loadJSON(data []byte) ([]any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return []any{v}, nil
}

// loadYAML decodes every document of a stream. Empty documents are skipped.
func loadYAML(data []byte) ([]any, error) {
	var out []any
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc any
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		if doc != nil {
			out = append(out, doc)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

// loadNDJSON decodes one value per line. Lines that are not JSON are kept as strings.
func loadNDJSON(data []byte) ([]any, error) {
	var out []any
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			out = append(out, line)
			continue
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

func loadTOML(data []byte) ([]any, error) {
	var v map[string]any
	if err := toml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}
	return []any{v}, nil
}

// isLikelyNDJSON requires a majority of non-empty lines to open a JSON object or array.
// YAML lists of bare items stay YAML.
func isLikelyNDJSON(lines []string) bool {
	jsonCount, nonEmpty := 0, 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonEmpty++
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			jsonCount++
		}
	}
	return nonEmpty > 1 && jsonCount > nonEmpty/2
}

var (
	tomlKey     = `(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')`
	tomlSection = regexp.MustCompile(`^\s*\[{1,2}` + tomlKey + `(?:\.` + tomlKey + `)*\]{1,2}\s*$`)
	tomlAssign  = regexp.MustCompile(`^\s*` + tomlKey + `(?:\.` + tomlKey + `)*\s*=\s*.+$`)
)

// isLikelyTOML accepts input with a table header, or where most lines are key = value.
// JSON arrays like [1, 2] do not match the header pattern.
func isLikelyTOML(input string) bool {
	sections, assigns, nonEmpty := 0, 0, 0
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmpty++
		if tomlSection.MatchString(line) {
			sections++
		}
		if tomlAssign.MatchString(line) {
			assigns++
		}
	}
	return sections > 0 || (nonEmpty > 0 && assigns > nonEmpty/2)
}
