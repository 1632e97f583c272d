package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadQuestionSet reads a question set from a YAML file. The file may
// override the full set or a subset of fields; Validate runs on the result.
func LoadQuestionSet(path string) (*QuestionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question set: %w", err)
	}

	var set QuestionSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse question set: %w", err)
	}
	if len(set.Questions) == 0 {
		return nil, fmt.Errorf("question set %q contains no questions", path)
	}
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("invalid question set: %w", err)
	}
	return &set, nil
}

// LoadQuestionSetOrDefault loads the question set at path, falling back to
// the built-in default when the file does not exist.
func LoadQuestionSetOrDefault(path string) (*QuestionSet, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultQuestionSet(), nil
	}
	return LoadQuestionSet(path)
}

// SaveQuestionSet writes a question set to a YAML file, creating it with
// owner-only permissions.
func SaveQuestionSet(path string, set *QuestionSet) error {
	if err := set.Validate(); err != nil {
		return fmt.Errorf("invalid question set: %w", err)
	}
	data, err := yaml.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal question set: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write question set: %w", err)
	}
	return nil
}
