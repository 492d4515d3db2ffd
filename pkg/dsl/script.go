package dsl

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/trawler/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Script is a decoded script file: one raw tuple list per task.
type Script struct {
	Tasks [][]any
}

// document is the mapping form of a script file. "actions" is the single
// task payload accepted by the HTTP front-end.
type document struct {
	Tasks   []any `mapstructure:"tasks"`
	Actions []any `mapstructure:"actions"`
}

// LoadFile reads a YAML or JSON script.
func LoadFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	script, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse script %s: %w", path, err)
	}
	return script, nil
}

// Decode accepts:
//   - a list of tuples (one task),
//   - a list of tuple lists (one entry per task),
//   - a mapping with "tasks" (list of tuple lists) or "actions" (one task).
func Decode(data []byte) (*Script, error) {
	var root any
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&root); err != nil {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	return FromValue(root)
}

// FromValue normalises an already decoded document.
func FromValue(root any) (*Script, error) {
	switch v := root.(type) {
	case nil:
		return &Script{}, nil
	case map[string]any:
		var doc document
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: &doc, ErrorUnused: true})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(v); err != nil {
			return nil, err
		}
		script := &Script{}
		for i, t := range doc.Tasks {
			task, ok := asList(t)
			if !ok {
				return nil, fmt.Errorf("task %d must be a list of actions", i+1)
			}
			script.Tasks = append(script.Tasks, task)
		}
		if doc.Actions != nil {
			script.Tasks = append(script.Tasks, doc.Actions)
		}
		return script, nil
	case []any:
		if isTaskList(v) {
			script := &Script{}
			for _, t := range v {
				task, _ := asList(t)
				script.Tasks = append(script.Tasks, task)
			}
			return script, nil
		}
		return &Script{Tasks: [][]any{v}}, nil
	}
	return nil, fmt.Errorf("unsupported script shape %T", root)
}

// isTaskList reports whether v is a list of tuple lists rather than a list of tuples.
func isTaskList(v []any) bool {
	if len(v) == 0 {
		return false
	}
	for _, item := range v {
		list, ok := asList(item)
		if !ok {
			return false
		}
		if len(list) > 0 {
			if _, isVerb := list[0].(string); isVerb {
				return false
			}
		}
	}
	return true
}

// Parse converts every task strictly. Errors name the task and the action.
func (s *Script) Parse() ([][]domain.Action, error) {
	tasks := make([][]domain.Action, 0, len(s.Tasks))
	var errs []error
	for i, raw := range s.Tasks {
		actions, err := Parse(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("task %d: %w", i+1, err))
			continue
		}
		tasks = append(tasks, actions)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return tasks, nil
}

// ParseLenient converts every task, keeping invalid tuples in place.
func (s *Script) ParseLenient() [][]domain.Action {
	tasks := make([][]domain.Action, len(s.Tasks))
	for i, raw := range s.Tasks {
		tasks[i] = ParseLenient(raw)
	}
	return tasks
}
