package apis

import (
	"bytes"
	"fmt"
	"io"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

const registerSchema = `{
	"type": "object",
	"required": ["name", "files"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"creator": {"type": "string"},
		"keywords": {"type": "array", "items": {"type": "string"}},
		"notes": {"type": "string"},
		"files": {"type": "object", "minProperties": 1, "additionalProperties": {"type": "string", "minLength": 1}}
	},
	"additionalProperties": false
}`

const requesterSchema = `{
	"type": "object",
	"properties": {
		"requester": {"type": "string"}
	},
	"additionalProperties": false
}`

const checkinSchema = `{
	"type": "object",
	"required": ["notes", "files"],
	"properties": {
		"requester": {"type": "string"},
		"notes": {"type": "string", "minLength": 1},
		"versionBump": {"enum": ["major", "minor", "patch", ""]},
		"files": {"type": "object", "minProperties": 1, "additionalProperties": {"type": "string", "minLength": 1}}
	},
	"additionalProperties": false
}`

var (
	registerReqSchema  = mustCompileSchema(registerSchema)
	requesterReqSchema = mustCompileSchema(requesterSchema)
	checkinReqSchema   = mustCompileSchema(checkinSchema)
)

func compileSchema(schema string) (*jsonschema.Schema, error) {
	if !gjson.Valid(schema) {
		return nil, fmt.Errorf("invalid JSON schema")
	}
	compiler := jsonschema.NewCompiler()
	compiler.LoadURL = func(url string) (io.ReadCloser, error) {
		return nil, fmt.Errorf("unsupported schema ref: %s", url)
	}
	if err := compiler.AddResource("inline://schema", bytes.NewReader([]byte(schema))); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	compiled, err := compiler.Compile("inline://schema")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return compiled, nil
}

func mustCompileSchema(schema string) *jsonschema.Schema {
	s, err := compileSchema(schema)
	if err != nil {
		panic(err)
	}
	return s
}
