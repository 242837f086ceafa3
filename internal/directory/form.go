package directory

import (
	"math"

	"github.com/google/uuid"
)

// BranchType selects the answer shape of a form question.
type BranchType string

const (
	BranchChoice BranchType = "choice"
	BranchNumber BranchType = "number"
	BranchText   BranchType = "text"
)

// Branch carries the per-type constraints of one question. Only the
// fields of the selected Type are meaningful.
type Branch struct {
	Type BranchType `json:"type"`

	Choices       []string `json:"choices,omitempty"`
	AllowMultiple bool     `json:"allow_multiple,omitempty"`
	AllowCustom   bool     `json:"allow_custom,omitempty"`

	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Integer bool     `json:"integer,omitempty"`

	AllowMultiLine bool `json:"allow_multi_line,omitempty"`
}

type Question struct {
	Content  string `json:"content"`
	Hint     string `json:"hint,omitempty"`
	Required bool   `json:"required"`
	Branch   Branch `json:"branch"`
}

// ApplyForm is the questionnaire a server asks applicants to fill in.
type ApplyForm struct {
	Title     string     `json:"title"`
	Preface   string     `json:"preface,omitempty"`
	Questions []Question `json:"questions"`
}

// Form is one stored revision of a server's apply form. Only the
// latest revision accepts submissions.
type Form struct {
	ID       uuid.UUID `json:"id"`
	ServerID int64     `json:"server_id"`
	IsLatest bool      `json:"is_latest"`
	Body     ApplyForm `json:"body"`
}

// Answer is one response to one question. Choices/Custom answer a
// choice question, Number a number question, Text a text question; an
// answer with none of them set is an explicit skip.
type Answer struct {
	Choices []int    `json:"choices,omitempty"`
	Custom  string   `json:"custom,omitempty"`
	Number  *float64 `json:"number,omitempty"`
	Text    *string  `json:"text,omitempty"`
}

// ValidateForm checks the structural bounds of a form definition.
func ValidateForm(form ApplyForm) bool {
	if form.Title == "" || len(form.Title) > 30 || len(form.Preface) > 300 {
		return false
	}
	if len(form.Questions) < 1 || len(form.Questions) > 30 {
		return false
	}
	for _, q := range form.Questions {
		if q.Content == "" || len(q.Content) > 60 || len(q.Hint) > 300 {
			return false
		}
		switch q.Branch.Type {
		case BranchChoice:
			if len(q.Branch.Choices) < 2 || len(q.Branch.Choices) > 10 {
				return false
			}
			for _, c := range q.Branch.Choices {
				if c == "" || len(c) > 30 {
					return false
				}
			}
		case BranchNumber, BranchText:
		default:
			return false
		}
	}
	return true
}

// ValidateAnswers checks a submission against the form's questions:
// one answer per question, each matching its question's branch and
// constraints.
func ValidateAnswers(questions []Question, answers []Answer) bool {
	if len(answers) != len(questions) {
		return false
	}
	for i, q := range questions {
		if !validAnswer(q, answers[i]) {
			return false
		}
	}
	return true
}

func validAnswer(q Question, a Answer) bool {
	switch q.Branch.Type {
	case BranchChoice:
		if !q.Branch.AllowCustom && a.Custom != "" {
			return false
		}
		if q.Required && len(a.Choices) == 0 && a.Custom == "" {
			return false
		}
		for _, c := range a.Choices {
			if c < 0 || c >= len(q.Branch.Choices) {
				return false
			}
		}
		if !q.Branch.AllowMultiple && len(a.Choices) > 1 {
			return false
		}
		if q.Branch.AllowMultiple && hasDuplicate(a.Choices) {
			return false
		}
		if len(a.Custom) > 30 {
			return false
		}
		return true

	case BranchNumber:
		if a.Number == nil {
			return !q.Required
		}
		n := *a.Number
		if q.Branch.Integer && n != math.Trunc(n) {
			return false
		}
		if q.Branch.Max != nil && n > *q.Branch.Max {
			return false
		}
		if q.Branch.Min != nil && n < *q.Branch.Min {
			return false
		}
		return true

	case BranchText:
		if a.Text == nil {
			return false
		}
		text := *a.Text
		if q.Required && text == "" {
			return false
		}
		if q.Branch.AllowMultiLine {
			return len(text) <= 300
		}
		for _, r := range text {
			if r == '\n' {
				return false
			}
		}
		return len(text) <= 60
	}
	return false
}

func hasDuplicate(choices []int) bool {
	seen := make(map[int]struct{}, len(choices))
	for _, c := range choices {
		if _, ok := seen[c]; ok {
			return true
		}
		seen[c] = struct{}{}
	}
	return false
}
