package model

// NextQuestionRequest is the body POSTed to a remote question endpoint
type NextQuestionRequest struct {
	SessionID  string     `json:"sessionId,omitempty"`
	UserID     string     `json:"userId,omitempty"`
	Transcript Transcript `json:"transcript"`
}

// NextQuestionResponse is the remote endpoint's reply. IsLastQuestion set
// means the survey is over and the other fields are ignored.
type NextQuestionResponse struct {
	Question        string   `json:"question"`
	QuestionType    string   `json:"questionType"`
	PossibleChoices []string `json:"possibleChoices,omitempty"`
	IsLastQuestion  bool     `json:"isLastQuestion"`
}
