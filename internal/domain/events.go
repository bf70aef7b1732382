package domain

import (
	"time"

	"github.com/sawtfeel/livesync/internal/errors"
)

// EmotionType classifies a detected emotion.
type EmotionType string

const (
	EmotionJoy      EmotionType = "joy"
	EmotionSadness  EmotionType = "sadness"
	EmotionAnger    EmotionType = "anger"
	EmotionFear     EmotionType = "fear"
	EmotionSurprise EmotionType = "surprise"
	EmotionNeutral  EmotionType = "neutral"
)

// WordTiming carries word-level timing inside a transcript segment.
type WordTiming struct {
	Word       string  `json:"word"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// TranscriptSegment is a time-ranged piece of transcribed speech.
// Immutable once created; times are seconds from the start of the media.
type TranscriptSegment struct {
	FileID      string       `json:"file_id,omitempty"`
	Text        string       `json:"text"`
	EnglishText string       `json:"english_text,omitempty"`
	Language    string       `json:"language,omitempty"`
	Words       []WordTiming `json:"words,omitempty"`
	Confidence  float64      `json:"confidence"`
	StartTime   float64      `json:"start_time"`
	EndTime     float64      `json:"end_time"`
	ArrivedAt   time.Time    `json:"-"`
}

// Validate rejects segments with an inverted time range.
func (s TranscriptSegment) Validate() error {
	if s.StartTime > s.EndTime {
		return errors.DataRange("transcript segment start_time after end_time")
	}
	return nil
}

// EmotionSample is a time-ranged emotion reading. Smoothed marks synthetic
// samples produced by windowed aggregation, as opposed to raw readings.
type EmotionSample struct {
	FileID     string      `json:"file_id,omitempty"`
	Emotion    EmotionType `json:"emotion_type"`
	Intensity  float64     `json:"intensity"`
	Confidence float64     `json:"confidence"`
	StartTime  float64     `json:"start_time"`
	EndTime    float64     `json:"end_time"`
	Smoothed   bool        `json:"smoothed,omitempty"`
	ArrivedAt  time.Time   `json:"-"`
}

// Validate rejects samples with an inverted time range.
func (e EmotionSample) Validate() error {
	if e.StartTime > e.EndTime {
		return errors.DataRange("emotion sample start_time after end_time")
	}
	return nil
}

// ResourceStatus is one processing-status reading for a resource, as
// returned by the backend status API.
type ResourceStatus struct {
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Error    string  `json:"error,omitempty"`
}

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Terminal reports whether the status ends a processing run.
func (r ResourceStatus) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}
