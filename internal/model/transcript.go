package model

// Turn is one exchanged message. FromUser is false for questions.
type Turn struct {
	Text     string `json:"text" bson:"text"`
	FromUser bool   `json:"fromUser" bson:"fromUser"`
}

// Transcript is the ordered log of a session's turns
type Transcript []Turn

// Answers returns how many user turns the transcript holds
func (t Transcript) Answers() int {
	n := 0
	for _, turn := range t {
		if turn.FromUser {
			n++
		}
	}
	return n
}

// Clone returns a copy safe to hand outside the owning controller
func (t Transcript) Clone() Transcript {
	c := make(Transcript, len(t))
	copy(c, t)
	return c
}
