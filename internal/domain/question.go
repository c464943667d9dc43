package domain

// QuestionLocation is the opaque handle a writer uses to find the slot of a
// question again. Only the adapter that produced it interprets it.
type QuestionLocation struct {
	Sheet     string `json:"sheet,omitempty"`
	Row       int    `json:"row,omitempty"`
	Paragraph int    `json:"paragraph,omitempty"`
	InTable   bool   `json:"in_table,omitempty"`
}

// Question is a question record extracted from a questionnaire.
type Question struct {
	ID       string           `json:"id"`
	Text     string           `json:"question"`
	Location QuestionLocation `json:"location"`
}

// Answer is one generated response keyed by question ID.
type Answer struct {
	QuestionID string `json:"question_id"`
	Response   string `json:"response"`
}

// AttentionPoint is an item of the completed answer set flagged for review.
type AttentionPoint struct {
	Category       string `json:"category"`
	QuestionID     string `json:"question_id"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}

// AnswerMap indexes answers by question ID. Later duplicates win.
func AnswerMap(answers []Answer) map[string]string {
	m := make(map[string]string, len(answers))
	for _, a := range answers {
		m[a.QuestionID] = a.Response
	}
	return m
}
