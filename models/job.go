package models

import "time"

type JobKind string

const (
	JobKindVideo   JobKind = "video"
	JobKindChannel JobKind = "channel"
)

type Status string

const (
	StatusQueued       Status = "queued"
	StatusDiscovering  Status = "discovering"
	StatusTranscribing Status = "transcribing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

// Job is one transcription request, either a single video or a channel.
// Examined and Found are discovery counters; Done and Total track
// transcript fetching.
type Job struct {
	ID        string    `json:"id"`
	Kind      JobKind   `json:"kind"`
	Input     string    `json:"input"`
	Filter    string    `json:"filter,omitempty"`
	Status    Status    `json:"status"`
	Examined  int       `json:"examined"`
	Found     int       `json:"found"`
	Done      int       `json:"done"`
	Total     int       `json:"total"`
	Error     string    `json:"error,omitempty"`
	Results   []Result  `json:"results,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Result is one manifest line. Text is only loaded for exports.
type Result struct {
	Position int    `json:"-"`
	VideoID  string `json:"video_id"`
	Title    string `json:"title,omitempty"`
	URL      string `json:"url"`
	OK       bool   `json:"ok"`
	Text     string `json:"-"`
	Error    string `json:"error,omitempty"`
}

func (j *Job) IsFinished() bool { return j.Status == StatusCompleted || j.Status == StatusFailed }
func (j *Job) IsCompleted() bool { return j.Status == StatusCompleted }

// Succeeded returns the results that carry a transcript, in order.
func (j *Job) Succeeded() []Result {
	out := make([]Result, 0, len(j.Results))
	for _, r := range j.Results {
		if r.OK {
			out = append(out, r)
		}
	}
	return out
}
