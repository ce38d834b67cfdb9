package render

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a written document
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", errors.NotValidf("output format %q", name)
}

// FormatFor picks the format from the file extension, JSON by default
func FormatFor(path string) Format {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Encode renders v in the given format. YAML goes through the JSON
// encoding so both formats share field names.
func Encode(v interface{}, format Format) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.Annotate(err, "cannot encode document")
	}
	if format != FormatYAML {
		return append(data, '\n'), nil
	}

	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, errors.Annotate(err, "cannot re-read document")
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return nil, errors.Annotate(err, "cannot encode document as YAML")
	}
	return out, nil
}

// Write encodes v to path, or to stdout when path is "-". An empty format
// is picked from the extension.
func Write(v interface{}, path string, format Format) error {
	if format == "" {
		format = FormatFor(path)
	}
	data, err := Encode(v, format)
	if err != nil {
		return errors.Trace(err)
	}

	if path == "-" || path == "" {
		_, err := os.Stdout.Write(data)
		return errors.Trace(err)
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Annotatef(err, "cannot create directory %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Annotatef(err, "cannot write %s", path)
	}
	return nil
}
