// Package transfer encodes and decodes import/export documents and checks
// their structure and format version before any definition is applied.
package transfer

import (
	"bytes"
	_ "embed"
	"strings"
	"sync"

	domainerrors "attrschema/internal/domain/errors"
	"attrschema/internal/errors"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/document.schema.json
var schemaBytes []byte

const schemaURL = "document.schema.json"

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

func documentSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = errors.Wrap(err, "unmarshal document schema")

			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = errors.Wrap(err, "add document schema resource")

			return
		}
		compiledSchema, compileErr = c.Compile(schemaURL)
		if compileErr != nil {
			compileErr = errors.Wrap(compileErr, "compile document schema")
		}
	})

	return compiledSchema, compileErr
}

// ValidateStructure checks JSON document bytes against the document schema.
// Structural problems come back as a ValidationFailed error listing each
// offending location.
func ValidateStructure(data []byte) error {
	schema, err := documentSchema()
	if err != nil {
		return err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return domainerrors.NewValidationError([]domainerrors.FieldMessage{{
			Field:   "document",
			Code:    "invalid_format",
			Message: "document is not valid JSON: " + err.Error(),
		}})
	}

	err = schema.Validate(inst)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return errors.Wrap(err, "validate document structure")
	}

	return domainerrors.NewValidationError(collectIssues(ve))
}

func collectIssues(ve *jsonschema.ValidationError) []domainerrors.FieldMessage {
	var out []domainerrors.FieldMessage
	seen := make(map[string]struct{})
	walkIssues(ve, func(path, keyword, msg string) {
		key := path + "|" + keyword + "|" + msg
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, domainerrors.FieldMessage{Field: path, Code: keyword, Message: msg})
	})
	if len(out) == 0 {
		out = append(out, domainerrors.FieldMessage{Field: "document", Code: "invalid_format", Message: ve.Error()})
	}

	return out
}

func walkIssues(ve *jsonschema.ValidationError, emit func(path, keyword, msg string)) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			walkIssues(cause, emit)
		}

		return
	}

	if ve.ErrorKind == nil {
		return
	}
	kwPath := ve.ErrorKind.KeywordPath()
	if len(kwPath) == 0 {
		return
	}
	keyword := kwPath[len(kwPath)-1]
	if keyword == "allOf" || keyword == "$ref" {
		return
	}

	path := "/" + strings.Join(ve.InstanceLocation, "/")
	emit(path, keyword, ve.ErrorKind.LocalizedString(printer))
}
