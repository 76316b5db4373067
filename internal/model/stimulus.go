package model

import "time"

// TestType identifies which psychological exercise a session or report belongs to
type TestType string

const (
	TestTypeTAT TestType = "TAT" // Thematic Apperception Test: story per image
	TestTypeWAT TestType = "WAT" // Word Association Test: sentence per word
)

// Valid reports whether t is a known exercise type
func (t TestType) Valid() bool {
	return t == TestTypeTAT || t == TestTypeWAT
}

// ImageStimulus is one TAT picture with the themes a good story should pick up
type ImageStimulus struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	ImageURL  string    `json:"url" bson:"imageUrl"`
	Themes    []string  `json:"themes" bson:"themes"` // ground truth, ordered
	CreatedAt time.Time `json:"-" bson:"createdAt"`
}

// WordStimulus is one WAT word
type WordStimulus struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Word      string    `json:"word" bson:"word"`
	CreatedAt time.Time `json:"-" bson:"createdAt"`
}

// Item is a stimulus selected into a session. Exactly one of Image or Word is set.
type Item struct {
	Image *ImageStimulus `json:"image,omitempty"`
	Word  *WordStimulus  `json:"word,omitempty"`
}

// ImageItem wraps a copy of img as a session item
func ImageItem(img ImageStimulus) Item {
	cp := img
	cp.Themes = append([]string(nil), img.Themes...)
	return Item{Image: &cp}
}

// WordItem wraps a copy of w as a session item
func WordItem(w WordStimulus) Item {
	cp := w
	return Item{Word: &cp}
}

// Valid reports whether the item carries exactly one usable stimulus
func (i Item) Valid() bool {
	switch {
	case i.Image != nil && i.Word == nil:
		return i.Image.ID != ""
	case i.Word != nil && i.Image == nil:
		return i.Word.Word != ""
	default:
		return false
	}
}

// Ref returns the stimulus id the item points at
func (i Item) Ref() string {
	if i.Image != nil {
		return i.Image.ID
	}
	if i.Word != nil {
		if i.Word.ID != "" {
			return i.Word.ID
		}
		return i.Word.Word
	}
	return ""
}

// Response is one candidate answer to one stimulus
type Response struct {
	Item           Item   `json:"item"`
	Text           string `json:"text"` // may be empty when time ran out
	ElapsedSeconds int    `json:"elapsedSeconds"`
}
