package service

import (
	"strings"

	"surveywizard/internal/model"
)

// Collect reads the answer out of a control snapshot for the given question.
// It reports false when the controls hold no usable answer: blank text, not
// exactly one single-choice selection, or no multiple-choice selection.
func Collect(q *model.Question, snap model.ControlSnapshot) (model.Answer, bool) {
	switch q.Kind {
	case model.KindText:
		text := strings.TrimSpace(snap.Text)
		if text == "" {
			return nil, false
		}
		return model.TextAnswer(text), true

	case model.KindSingleChoice:
		selected := checkedOptions(q.Options, snap.Checked)
		if len(selected) != 1 {
			return nil, false
		}
		return model.ChoiceAnswer(selected[0]), true

	case model.KindMultipleChoice:
		selected := checkedOptions(q.Options, snap.Checked)
		if len(selected) == 0 {
			return nil, false
		}
		return model.MultiChoiceAnswer(selected), true
	}
	return nil, false
}

// checkedOptions ignores flags past the end of the option list
func checkedOptions(options []string, checked []bool) []string {
	var selected []string
	for i, on := range checked {
		if i >= len(options) {
			break
		}
		if on {
			selected = append(selected, options[i])
		}
	}
	return selected
}
