package gateway

import "encoding/json"

// command is the inbound frame envelope. Type selects the operation; the
// remaining fields are populated per type.
type command struct {
	Type string `json:"type"`

	// open_document
	Pages      []pagePayload `json:"pages,omitempty"`
	SourceLang string        `json:"source_lang,omitempty"`
	TargetLang string        `json:"target_lang,omitempty"`

	// navigate
	Page int `json:"page,omitempty"`

	// click
	Unit int `json:"unit,omitempty"`

	// set_status, vocabulary filter
	Status string `json:"status,omitempty"`

	// vocabulary filter, edit_word, delete_word
	Lang        string `json:"lang,omitempty"`
	Word        string `json:"word,omitempty"`
	Translation string `json:"translation,omitempty"`

	// speech: raw frame from the browser synthesis engine.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// pagePayload is one page of an opened document. Image bytes arrive
// base64-encoded per encoding/json convention. Tokenized pages are run
// through the tokenizer instead of whitespace segmentation.
type pagePayload struct {
	Text      string `json:"text"`
	Image     []byte `json:"image,omitempty"`
	Tokenized bool   `json:"tokenized,omitempty"`
}

// Inbound command types.
const (
	cmdOpenDocument = "open_document"
	cmdNavigate     = "navigate"
	cmdClick        = "click"
	cmdSetStatus    = "set_status"
	cmdPlay         = "play"
	cmdPause        = "pause"
	cmdStop         = "stop"
	cmdLanguages    = "languages"
	cmdVocabulary   = "vocabulary"
	cmdEditWord     = "edit_word"
	cmdDeleteWord   = "delete_word"
	cmdSpeech       = "speech"
)

// pageEvent carries one rendered page to the client.
type pageEvent struct {
	Type      string         `json:"type"`
	Index     int            `json:"index"`
	PageCount int            `json:"page_count"`
	Fragments []fragmentJSON `json:"fragments"`
	Units     []unitJSON     `json:"units"`
	Image     []byte         `json:"image,omitempty"`
}

// fragmentJSON is one render fragment. Unit is -1 for separator fragments.
type fragmentJSON struct {
	Text string `json:"text"`
	Unit int    `json:"unit"`
}

type unitJSON struct {
	Index  int    `json:"index"`
	Raw    string `json:"raw"`
	Status string `json:"status"`
}

// translationEvent answers a click.
type translationEvent struct {
	Type               string `json:"type"`
	Word               string `json:"word"`
	Translation        string `json:"translation"`
	Status             string `json:"status"`
	SourceSentence     string `json:"source_sentence,omitempty"`
	TranslatedSentence string `json:"translated_sentence,omitempty"`
}

// highlightEvent moves the spoken-word highlight.
type highlightEvent struct {
	Type string `json:"type"`
	Page int    `json:"page"`
	Unit int    `json:"unit"`
}

type clearHighlightEvent struct {
	Type string `json:"type"`
}

// toastEvent is a transient, non-fatal user notification.
type toastEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// errorEvent reports a failed command.
type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ackEvent confirms a command with no other response body.
type ackEvent struct {
	Type string `json:"type"`
	Op   string `json:"op"`
}

type languagesEvent struct {
	Type      string         `json:"type"`
	Languages []languageJSON `json:"languages"`
}

type languageJSON struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type vocabularyEvent struct {
	Type    string      `json:"type"`
	Entries []entryJSON `json:"entries"`
}

type entryJSON struct {
	Word        string `json:"word"`
	Translation string `json:"translation"`
	SourceLang  string `json:"source_lang"`
	TargetLang  string `json:"target_lang"`
	Status      string `json:"status"`
}

// speechEvent relays a synthesis command to the browser's speech engine.
type speechEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}
