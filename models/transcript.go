package models

// Transcript is a cached transcript body and the language it was fetched in.
type Transcript struct {
	VideoID  string
	Language string
	Text     string
}
