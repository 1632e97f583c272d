// Package models contains domain models for commit-reflect.
package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// QuestionType represents the kind of answer a question expects.
type QuestionType string

const (
	QuestionTypeText        QuestionType = "text"
	QuestionTypeMultiline   QuestionType = "multiline"
	QuestionTypeRating      QuestionType = "rating"
	QuestionTypeChoice      QuestionType = "choice"
	QuestionTypeMultiChoice QuestionType = "multichoice"
	QuestionTypeBoolean     QuestionType = "boolean"
	QuestionTypeScale       QuestionType = "scale"
)

// Question is a single reflection question with its validation rules.
type Question struct {
	ID          string       `json:"id" yaml:"id"`
	Text        string       `json:"text" yaml:"text"`
	Type        QuestionType `json:"type" yaml:"type"`
	Required    bool         `json:"required" yaml:"required"`
	HelpText    string       `json:"help_text,omitempty" yaml:"help_text,omitempty"`
	Placeholder string       `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Options     []string     `json:"options,omitempty" yaml:"options,omitempty"`
	MinValue    int          `json:"min_value,omitempty" yaml:"min_value,omitempty"`
	MaxValue    int          `json:"max_value,omitempty" yaml:"max_value,omitempty"`
	Order       int          `json:"order" yaml:"order"`
	// AllowOtherText accepts freeform input on choice questions, stored as
	// "Other: <text>".
	AllowOtherText bool `json:"allow_other_text,omitempty" yaml:"allow_other_text,omitempty"`
}

// Validate checks the question configuration itself.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.ID) == "" {
		return fmt.Errorf("question ID cannot be empty")
	}
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("question %s: text cannot be empty", q.ID)
	}
	switch q.Type {
	case QuestionTypeChoice, QuestionTypeMultiChoice:
		if len(q.Options) == 0 {
			return fmt.Errorf("question %s: %s requires options", q.ID, q.Type)
		}
	case QuestionTypeRating, QuestionTypeScale:
		if q.MinValue >= q.MaxValue {
			return fmt.Errorf("question %s: min_value must be less than max_value", q.ID)
		}
	}
	return nil
}

// NormalizeAnswer validates raw terminal input against the question's rules
// and returns the canonical stored form. Choice answers accept a 1-based
// option number, the option text (case-insensitive), or freeform text when
// AllowOtherText is set. Multichoice accepts a comma-separated mix of the
// same, deduplicated. An empty answer on an optional question normalizes to
// the empty string (a skip).
func (q *Question) NormalizeAnswer(raw string) (string, error) {
	answer := strings.TrimSpace(raw)

	if answer == "" || (!q.Required && strings.EqualFold(answer, "skip")) {
		if q.Required {
			return "", fmt.Errorf("this question requires an answer")
		}
		return "", nil
	}

	switch q.Type {
	case QuestionTypeRating, QuestionTypeScale:
		return q.normalizeScale(answer)
	case QuestionTypeChoice:
		return q.normalizeChoice(answer)
	case QuestionTypeMultiChoice:
		return q.normalizeMultiChoice(answer)
	case QuestionTypeBoolean:
		switch strings.ToLower(answer) {
		case "y", "yes", "true":
			return "yes", nil
		case "n", "no", "false":
			return "no", nil
		}
		return "", fmt.Errorf("answer must be yes/no")
	default:
		// text / multiline / unknown: accept as-is
		return answer, nil
	}
}

func (q *Question) normalizeScale(answer string) (string, error) {
	n, err := strconv.Atoi(answer)
	if err != nil {
		return "", fmt.Errorf("invalid number %q: enter a number from %d to %d", answer, q.MinValue, q.MaxValue)
	}
	if n < q.MinValue || n > q.MaxValue {
		return "", fmt.Errorf("value must be between %d and %d, got %d", q.MinValue, q.MaxValue, n)
	}
	return strconv.Itoa(n), nil
}

func (q *Question) normalizeChoice(answer string) (string, error) {
	if opt, ok := q.matchOption(answer); ok {
		return opt, nil
	}
	// A number that parses but matched nothing is out of range, never
	// freeform text.
	if _, err := strconv.Atoi(answer); err == nil {
		return "", fmt.Errorf("invalid option number %q: enter 1-%d", answer, len(q.Options))
	}
	if q.AllowOtherText {
		return "Other: " + answer, nil
	}
	return "", fmt.Errorf("invalid option %q: enter 1-%d or the option name", answer, len(q.Options))
}

func (q *Question) normalizeMultiChoice(answer string) (string, error) {
	var selected []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(answer, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		opt, ok := q.matchOption(part)
		if !ok {
			if _, err := strconv.Atoi(part); err == nil {
				return "", fmt.Errorf("invalid option number %q: enter 1-%d", part, len(q.Options))
			}
			if !q.AllowOtherText {
				return "", fmt.Errorf("invalid option %q: enter 1-%d or option names, comma-separated", part, len(q.Options))
			}
			opt = "Other: " + part
		}
		if !seen[opt] {
			seen[opt] = true
			selected = append(selected, opt)
		}
	}
	return strings.Join(selected, ", "), nil
}

// matchOption resolves a 1-based index or an option name against Options.
func (q *Question) matchOption(input string) (string, bool) {
	if idx, err := strconv.Atoi(input); err == nil {
		if idx >= 1 && idx <= len(q.Options) {
			return q.Options[idx-1], true
		}
		return "", false
	}
	for _, opt := range q.Options {
		if strings.EqualFold(opt, input) {
			return opt, true
		}
	}
	return "", false
}

// QuestionSet is an ordered collection of questions for one reflection.
type QuestionSet struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string     `json:"version" yaml:"version"`
	Questions   []Question `json:"questions" yaml:"questions"`
}

// Sorted returns the questions ordered by their Order field.
func (s *QuestionSet) Sorted() []Question {
	out := make([]Question, len(s.Questions))
	copy(out, s.Questions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// QuestionByID returns the question with the given ID, if present.
func (s *QuestionSet) QuestionByID(id string) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Validate checks every question in the set.
func (s *QuestionSet) Validate() error {
	if len(s.Questions) == 0 {
		return fmt.Errorf("question set %q has no questions", s.Name)
	}
	for i := range s.Questions {
		if err := s.Questions[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DefaultQuestionSet returns the built-in v2.0 question set covering
// development experience and AI collaboration.
func DefaultQuestionSet() *QuestionSet {
	return &QuestionSet{
		Name:        "default",
		Description: "Default commit reflection questions",
		Version:     "2.0",
		Questions: []Question{
			{
				ID:       "work_type",
				Text:     "What kind of work does this commit primarily represent?",
				Type:     QuestionTypeChoice,
				Required: true,
				Options: []string{
					"New Feature", "Bug fixing", "Refactor", "Tests", "Docs",
					"DevOps/infra/tooling", "Other",
				},
				HelpText: "Select the category that best describes this commit",
				Order:    1,
			},
			{
				ID:       "difficulty",
				Text:     "How difficult was this work for you?",
				Type:     QuestionTypeChoice,
				Required: true,
				Options:  []string{"Easy", "Moderate", "Hard", "Very Hard"},
				HelpText: "Assess the difficulty level of this work",
				Order:    2,
			},
			{
				ID:       "ai_effectiveness",
				Text:     "How effective was AI collaboration on this commit?",
				Type:     QuestionTypeChoice,
				Required: true,
				Options:  []string{"Very Low", "Low", "Medium", "High", "Very High"},
				HelpText: "Rate how helpful AI was in completing this work",
				Order:    3,
			},
			{
				ID:       "who_drove",
				Text:     `For this commit, who did most of the "driving"?`,
				Type:     QuestionTypeChoice,
				Required: true,
				Options:  []string{"Mostly me", "Shared evenly", "Mostly AI"},
				HelpText: "Who was primarily directing the work?",
				Order:    4,
			},
			{
				ID:       "confidence",
				Text:     "How confident are you that this commit is correct and safe to merge?",
				Type:     QuestionTypeChoice,
				Required: true,
				Options:  []string{"Very Low", "Low", "High", "Very High"},
				HelpText: "Your confidence in the correctness and safety of these changes",
				Order:    5,
			},
			{
				ID:          "experience",
				Text:        "How did this work feel?",
				Type:        QuestionTypeMultiline,
				Required:    true,
				HelpText:    "Describe your experience (e.g. Smooth, Frustrating, Lots of back-and-forth, Flow state)",
				Placeholder: "e.g., Smooth, Frustrating, Lots of back-and-forth, Flow state",
				Order:       6,
			},
			{
				ID:       "blockers_and_friction",
				Text:     "Did you hit any blockers or friction on this commit? If yes, what best describes them?",
				Type:     QuestionTypeMultiChoice,
				Required: false,
				Options: []string{
					"AI misunderstanding",
					"Missing requirements context",
					"Tools/environment/infra issues",
					"Codebase complexity/architecture confusion",
					"My own clarity/changing direction",
					"Other",
				},
				HelpText:       "Select all that apply (or skip if no blockers)",
				Order:          7,
				AllowOtherText: true,
			},
			{
				ID:          "learning",
				Text:        "Did you learn something worth remembering from this commit? If yes, what?",
				Type:        QuestionTypeMultiline,
				Required:    false,
				HelpText:    "Share any insights or knowledge gained",
				Placeholder: "I learned that...",
				Order:       8,
			},
			{
				ID:          "agent_feedback",
				Text:        "For this commit, what should the agent do differently next time, if anything?",
				Type:        QuestionTypeMultiline,
				Required:    false,
				HelpText:    "e.g., Ask clarifying questions; Be concise; Propose concrete code changes; Be opinionated; Slow down and verify assumptions; Surface more context like files/tests/docs automatically; Other",
				Placeholder: "e.g., Ask clarifying questions, Be concise, Propose concrete code changes...",
				Order:       9,
			},
			{
				ID:       "outcome",
				Text:     "How would you describe the outcome of this commit?",
				Type:     QuestionTypeChoice,
				Required: true,
				Options: []string{
					"Completed what I intended",
					"Partial progress",
					"Unblocks something else",
					"Spike",
					"Fixed fallout from earlier changes",
					"Other",
				},
				HelpText:       "What did this commit accomplish?",
				Order:          10,
				AllowOtherText: true,
			},
		},
	}
}
