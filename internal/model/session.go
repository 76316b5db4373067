package model

// StartSessionRequest is the request body for starting a timed attempt
type StartSessionRequest struct {
	TestType TestType `json:"testType"`
	Count    int      `json:"count"`
	ExamName string   `json:"examName,omitempty"`
}

// DraftRequest carries the text currently typed for the active item
type DraftRequest struct {
	Text string `json:"text"`
}

// TATEvaluateRequest is the request body for scoring one TAT story
type TATEvaluateRequest struct {
	ImageID   string `json:"imageId"`
	StoryText string `json:"storyText"`
}

// WATEntry is one word and the sentence written for it
type WATEntry struct {
	WordID   string `json:"wordId,omitempty"`
	Word     string `json:"word"`
	Response string `json:"response"`
}

// WATEvaluateRequest is the request body for scoring a batch of WAT sentences
type WATEvaluateRequest struct {
	ExamName  string     `json:"examName,omitempty"`
	Responses []WATEntry `json:"responses"`
}
