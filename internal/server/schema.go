package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var errInvalidBody = errors.New("invalid request body")

const taskProperties = `{
  "title": {"type": "string", "minLength": 1},
  "description": {"type": "string"},
  "dueDate": {"type": ["string", "null"]},
  "priority": {"enum": ["low", "medium", "high", "urgent"]},
  "project": {"type": "string"},
  "section": {"type": "string"},
  "labels": {"type": "array", "items": {"type": "string"}},
  "recurring": {"type": "boolean"},
  "recurringType": {"enum": ["", "daily", "weekly", "monthly", "custom"]},
  "customRecurringPattern": {"type": "string"},
  "subtasks": {
    "type": "array",
    "items": {
      "type": "object",
      "required": ["text"],
      "properties": {
        "text": {"type": "string"},
        "completed": {"type": "boolean"}
      }
    }
  },
  "completed": {"type": "boolean"}
}`

const (
	createTaskSchemaURL = "mem://taskmanager/task-create.json"
	updateTaskSchemaURL = "mem://taskmanager/task-update.json"
)

var (
	createTaskSchema = `{"type": "object", "required": ["title"], "properties": ` + taskProperties + `}`
	updateTaskSchema = `{"type": "object", "properties": ` + taskProperties + `}`
)

type taskSchemas struct {
	create *jsonschema.Schema
	update *jsonschema.Schema
}

func compileTaskSchemas() (*taskSchemas, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	if err := compiler.AddResource(createTaskSchemaURL, strings.NewReader(createTaskSchema)); err != nil {
		return nil, fmt.Errorf("add create schema: %w", err)
	}
	if err := compiler.AddResource(updateTaskSchemaURL, strings.NewReader(updateTaskSchema)); err != nil {
		return nil, fmt.Errorf("add update schema: %w", err)
	}

	create, err := compiler.Compile(createTaskSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile create schema: %w", err)
	}
	update, err := compiler.Compile(updateTaskSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile update schema: %w", err)
	}
	return &taskSchemas{create: create, update: update}, nil
}

// validateBody checks raw JSON against schema and reports the first leaf failure.
func validateBody(schema *jsonschema.Schema, body []byte) error {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	err := schema.Validate(doc)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	field := strings.TrimPrefix(leaf.InstanceLocation, "/")
	if field == "" {
		return fmt.Errorf("%w: %s", errInvalidBody, leaf.Message)
	}
	return fmt.Errorf("%w: %s: %s", errInvalidBody, strings.ReplaceAll(field, "/", "."), leaf.Message)
}
