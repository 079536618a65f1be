package transfer

import (
	"bytes"
	"encoding/json"
	"path"
	"strings"

	"attrschema/internal/errors"
	"attrschema/internal/usecase"

	"gopkg.in/yaml.v3"
)

// Supported document encodings.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnknownFormat is returned for an encoding other than json or yaml.
var ErrUnknownFormat = errors.New("unknown document format")

// NormalizeFormat maps aliases such as "yml" onto a supported format.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", errors.Wrapf(ErrUnknownFormat, "%q", format)
	}
}

// FormatFromKey guesses the format from a storage key's extension.
func FormatFromKey(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Encode serializes a document. YAML output keeps the key order of the JSON form.
func Encode(doc *usecase.ImportDocument, format string) ([]byte, error) {
	format, err := NormalizeFormat(format)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal document")
	}
	if format == FormatJSON {
		return data, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, errors.Wrap(err, "convert document to yaml")
	}
	clearStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, errors.Wrap(err, "encode yaml document")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "flush yaml document")
	}

	return buf.Bytes(), nil
}

// Decode parses a document, validates its structure and checks that its
// format version is supported by this engine.
func Decode(data []byte, format string) (*usecase.ImportDocument, error) {
	format, err := NormalizeFormat(format)
	if err != nil {
		return nil, err
	}

	if format == FormatYAML {
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, err
		}
	}

	if err := ValidateStructure(data); err != nil {
		return nil, err
	}

	var doc usecase.ImportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "unmarshal document")
	}
	if err := CheckCompatible(doc.FormatVersion, usecase.FormatVersion); err != nil {
		return nil, err
	}

	return &doc, nil
}

// clearStyle drops the flow and quoting styles inherited from the JSON
// source so the encoder emits block YAML.
func clearStyle(node *yaml.Node) {
	node.Style = 0
	for _, child := range node.Content {
		clearStyle(child)
	}
}

// yamlToJSON converts a YAML document into JSON, preserving mapping order.
func yamlToJSON(data []byte) ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, errors.Wrap(err, "parse yaml document")
	}
	var buf bytes.Buffer
	if err := writeJSON(&buf, &node); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, node *yaml.Node) error {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			buf.WriteString("null")

			return nil
		}

		return writeJSON(buf, node.Content[0])
	case yaml.AliasNode:
		return writeJSON(buf, node.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(node.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(node.Content[i].Value)
			if err != nil {
				return errors.WithStack(err)
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeJSON(buf, node.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')

		return nil
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, child := range node.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, child); err != nil {
				return err
			}
		}
		buf.WriteByte(']')

		return nil
	default:
		var v any
		if err := node.Decode(&v); err != nil {
			return errors.Wrapf(err, "decode yaml scalar at line %d", node.Line)
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return errors.Wrapf(err, "encode yaml scalar at line %d", node.Line)
		}
		buf.Write(raw)

		return nil
	}
}
