package models

// WordRecord is one vocabulary entry with its translation and example usage.
// Two records are the same vocabulary item when their Word fields match exactly.
type WordRecord struct {
	Word               string `json:"word" db:"word"`
	Translation        string `json:"translation" db:"translation"`
	PartOfSpeech       string `json:"partOfSpeech" db:"part_of_speech"`
	ExampleSentence    string `json:"exampleSentence" db:"example_sentence"`
	ExampleTranslation string `json:"exampleTranslation" db:"example_translation"`
	Notes              string `json:"notes,omitempty" db:"notes"`
}

// Key returns the identity of the record.
func (w WordRecord) Key() string {
	return w.Word
}

// CatalogWord is a WordRecord as stored in the lesson catalog, with its
// lesson placement and optional media handles.
type CatalogWord struct {
	ID            int64  `json:"id" db:"id"`
	Lesson        string `json:"lesson" db:"lesson"`
	Position      int    `json:"position" db:"position"`
	Image         string `json:"image" db:"image"`
	Pronunciation string `json:"pronunciation" db:"pronunciation"` // Optional: URL to audio pronunciation
	WordRecord
}
