package directory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func TestValidateAnswers(t *testing.T) {
	choiceQ := func(required, multiple, custom bool) Question {
		return Question{
			Content:  "Favourite mode?",
			Required: required,
			Branch: Branch{
				Type:          BranchChoice,
				Choices:       []string{"Survival", "Creative", "Hardcore"},
				AllowMultiple: multiple,
				AllowCustom:   custom,
			},
		}
	}
	numberQ := func(required bool, branch Branch) Question {
		branch.Type = BranchNumber
		return Question{Content: "How old are you?", Required: required, Branch: branch}
	}
	textQ := func(required, multiLine bool) Question {
		return Question{
			Content:  "Tell us about yourself",
			Required: required,
			Branch:   Branch{Type: BranchText, AllowMultiLine: multiLine},
		}
	}

	tests := []struct {
		name      string
		questions []Question
		answers   []Answer
		want      bool
	}{
		{
			name:      "count mismatch",
			questions: []Question{textQ(false, false)},
			answers:   nil,
			want:      false,
		},
		{
			name:      "single choice",
			questions: []Question{choiceQ(true, false, false)},
			answers:   []Answer{{Choices: []int{1}}},
			want:      true,
		},
		{
			name:      "choice index out of range",
			questions: []Question{choiceQ(true, false, false)},
			answers:   []Answer{{Choices: []int{3}}},
			want:      false,
		},
		{
			name:      "negative choice index",
			questions: []Question{choiceQ(true, false, false)},
			answers:   []Answer{{Choices: []int{-1}}},
			want:      false,
		},
		{
			name:      "multiple picks without allow_multiple",
			questions: []Question{choiceQ(true, false, false)},
			answers:   []Answer{{Choices: []int{0, 1}}},
			want:      false,
		},
		{
			name:      "multiple picks with allow_multiple",
			questions: []Question{choiceQ(true, true, false)},
			answers:   []Answer{{Choices: []int{0, 2}}},
			want:      true,
		},
		{
			name:      "duplicate picks",
			questions: []Question{choiceQ(true, true, false)},
			answers:   []Answer{{Choices: []int{1, 1}}},
			want:      false,
		},
		{
			name:      "custom answer without allow_custom",
			questions: []Question{choiceQ(false, false, false)},
			answers:   []Answer{{Custom: "Spectator"}},
			want:      false,
		},
		{
			name:      "custom answer alone satisfies a required question",
			questions: []Question{choiceQ(true, false, true)},
			answers:   []Answer{{Custom: "Spectator"}},
			want:      true,
		},
		{
			name:      "required choice skipped",
			questions: []Question{choiceQ(true, false, true)},
			answers:   []Answer{{}},
			want:      false,
		},
		{
			name:      "optional choice skipped",
			questions: []Question{choiceQ(false, false, false)},
			answers:   []Answer{{}},
			want:      true,
		},
		{
			name:      "number within bounds",
			questions: []Question{numberQ(true, Branch{Min: floatPtr(13), Max: floatPtr(120)})},
			answers:   []Answer{{Number: floatPtr(30)}},
			want:      true,
		},
		{
			name:      "number below min",
			questions: []Question{numberQ(true, Branch{Min: floatPtr(13)})},
			answers:   []Answer{{Number: floatPtr(12)}},
			want:      false,
		},
		{
			name:      "number above max",
			questions: []Question{numberQ(true, Branch{Max: floatPtr(120)})},
			answers:   []Answer{{Number: floatPtr(121)}},
			want:      false,
		},
		{
			name:      "fractional answer to an integer question",
			questions: []Question{numberQ(true, Branch{Integer: true})},
			answers:   []Answer{{Number: floatPtr(13.5)}},
			want:      false,
		},
		{
			name:      "required number skipped",
			questions: []Question{numberQ(true, Branch{})},
			answers:   []Answer{{}},
			want:      false,
		},
		{
			name:      "optional number skipped",
			questions: []Question{numberQ(false, Branch{})},
			answers:   []Answer{{}},
			want:      true,
		},
		{
			name:      "single-line text",
			questions: []Question{textQ(true, false)},
			answers:   []Answer{{Text: strPtr("I build redstone computers")}},
			want:      true,
		},
		{
			name:      "newline in single-line text",
			questions: []Question{textQ(true, false)},
			answers:   []Answer{{Text: strPtr("line one\nline two")}},
			want:      false,
		},
		{
			name:      "single-line text over sixty characters",
			questions: []Question{textQ(true, false)},
			answers:   []Answer{{Text: strPtr(strings.Repeat("a", 61))}},
			want:      false,
		},
		{
			name:      "multi-line text up to three hundred characters",
			questions: []Question{textQ(true, true)},
			answers:   []Answer{{Text: strPtr("line one\n" + strings.Repeat("b", 290))}},
			want:      true,
		},
		{
			name:      "multi-line text over three hundred characters",
			questions: []Question{textQ(true, true)},
			answers:   []Answer{{Text: strPtr(strings.Repeat("b", 301))}},
			want:      false,
		},
		{
			name:      "text answer missing entirely",
			questions: []Question{textQ(false, false)},
			answers:   []Answer{{}},
			want:      false,
		},
		{
			name:      "empty optional text",
			questions: []Question{textQ(false, false)},
			answers:   []Answer{{Text: strPtr("")}},
			want:      true,
		},
		{
			name:      "empty required text",
			questions: []Question{textQ(true, false)},
			answers:   []Answer{{Text: strPtr("")}},
			want:      false,
		},
		{
			name: "mixed questions all valid",
			questions: []Question{
				choiceQ(true, false, false),
				numberQ(false, Branch{Integer: true}),
				textQ(true, true),
			},
			answers: []Answer{
				{Choices: []int{2}},
				{Number: floatPtr(21)},
				{Text: strPtr("Hi!\nI play on weekends.")},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateAnswers(tt.questions, tt.answers))
		})
	}
}

func TestValidateForm(t *testing.T) {
	valid := ApplyForm{
		Title:   "Join us",
		Preface: "Answer honestly.",
		Questions: []Question{
			{Content: "Why?", Required: true, Branch: Branch{Type: BranchText}},
			{Content: "Pick one", Branch: Branch{Type: BranchChoice, Choices: []string{"A", "B"}}},
		},
	}
	assert.True(t, ValidateForm(valid))

	t.Run("empty title", func(t *testing.T) {
		form := valid
		form.Title = ""
		assert.False(t, ValidateForm(form))
	})

	t.Run("no questions", func(t *testing.T) {
		form := valid
		form.Questions = nil
		assert.False(t, ValidateForm(form))
	})

	t.Run("too many questions", func(t *testing.T) {
		form := valid
		form.Questions = make([]Question, 31)
		for i := range form.Questions {
			form.Questions[i] = Question{Content: "Q", Branch: Branch{Type: BranchText}}
		}
		assert.False(t, ValidateForm(form))
	})

	t.Run("choice question with a single option", func(t *testing.T) {
		form := valid
		form.Questions = []Question{
			{Content: "Pick", Branch: Branch{Type: BranchChoice, Choices: []string{"only"}}},
		}
		assert.False(t, ValidateForm(form))
	})

	t.Run("unknown branch type", func(t *testing.T) {
		form := valid
		form.Questions = []Question{{Content: "Q", Branch: Branch{Type: "slider"}}}
		assert.False(t, ValidateForm(form))
	})
}
