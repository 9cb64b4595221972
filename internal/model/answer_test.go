package model

import "testing"

func TestAnswerText(t *testing.T) {
	if got := TextAnswer("blue").Text(); got != "blue" {
		t.Fatalf("text answer = %q", got)
	}
	if got := ChoiceAnswer("B").Text(); got != "B" {
		t.Fatalf("choice answer = %q", got)
	}
	if got := (MultiChoiceAnswer{"Apple", "Cherry"}).Text(); got != "Apple, Cherry" {
		t.Fatalf("multi answer = %q", got)
	}
}

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		name  string
		a     Answer
		empty bool
	}{
		{"nil", nil, true},
		{"blank text", TextAnswer("   "), true},
		{"text", TextAnswer("x"), false},
		{"blank choice", ChoiceAnswer(""), true},
		{"choice", ChoiceAnswer("A"), false},
		{"no selections", MultiChoiceAnswer{}, true},
		{"selections", MultiChoiceAnswer{"A"}, false},
	}
	for _, tc := range cases {
		if got := IsEmpty(tc.a); got != tc.empty {
			t.Fatalf("%s: IsEmpty = %v, want %v", tc.name, got, tc.empty)
		}
	}
}

func TestTranscriptAnswersAndClone(t *testing.T) {
	tr := Transcript{
		{Text: "Q1", FromUser: false},
		{Text: "blue", FromUser: true},
		{Text: "Q2", FromUser: false},
	}
	if tr.Answers() != 1 {
		t.Fatalf("expected 1 answer, got %d", tr.Answers())
	}

	c := tr.Clone()
	c[0].Text = "changed"
	if tr[0].Text != "Q1" {
		t.Fatal("clone shares backing array")
	}

	var empty Transcript
	if got := empty.Clone(); got == nil || len(got) != 0 {
		t.Fatalf("clone of nil transcript should be empty, got %#v", got)
	}
}
