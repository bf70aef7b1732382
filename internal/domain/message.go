package domain

import (
	"encoding/json"

	"github.com/sawtfeel/livesync/internal/errors"
)

// Wire message type discriminators.
const (
	TypeConnected        = "connected"
	TypeStatusUpdate     = "status_update"
	TypeProgressUpdate   = "progress_update"
	TypeCompleted        = "completed"
	TypeTimeUpdate       = "time_update"
	TypeEmotionUpdate    = "emotion_update"
	TypeTranscriptUpdate = "transcript_update"
	TypeError            = "error"
	TypePing             = "ping"
	TypePong             = "pong"
	TypePlaybackState    = "playback_state"
	TypeSeekComplete     = "seek_complete"
)

// Message is the tagged union of wire messages. Inbound frames decode into
// exactly one variant; unrecognized types decode into Unknown.
type Message interface {
	Type() string
}

// Connected acknowledges a freshly opened channel.
type Connected struct {
	SessionID string `json:"session_id,omitempty"`
	FileID    string `json:"file_id,omitempty"`
}

func (Connected) Type() string { return TypeConnected }

// StatusUpdate reports backend processing status.
type StatusUpdate struct {
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Error    string  `json:"error,omitempty"`
}

func (StatusUpdate) Type() string { return TypeStatusUpdate }

// ProgressUpdate reports per-stage processing progress.
type ProgressUpdate struct {
	Stage    string  `json:"stage,omitempty"`
	Progress float64 `json:"progress"`
}

func (ProgressUpdate) Type() string { return TypeProgressUpdate }

// Completed signals that backend processing finished.
type Completed struct {
	FileID string `json:"file_id,omitempty"`
}

func (Completed) Type() string { return TypeCompleted }

// TimeUpdate carries the authoritative playback position.
type TimeUpdate struct {
	CurrentTime float64 `json:"current_time"`
}

func (TimeUpdate) Type() string { return TypeTimeUpdate }

// EmotionUpdate delivers one emotion sample.
type EmotionUpdate struct {
	Emotion EmotionSample `json:"emotion"`
}

func (EmotionUpdate) Type() string { return TypeEmotionUpdate }

// TranscriptUpdate delivers one transcript segment.
type TranscriptUpdate struct {
	Transcript TranscriptSegment `json:"transcript"`
}

func (TranscriptUpdate) Type() string { return TypeTranscriptUpdate }

// ErrorMessage carries a backend-reported error.
type ErrorMessage struct {
	Message string `json:"message"`
	FileID  string `json:"file_id,omitempty"`
}

func (ErrorMessage) Type() string { return TypeError }

// Ping is the outbound heartbeat probe.
type Ping struct {
	Timestamp float64 `json:"timestamp,omitempty"`
}

func (Ping) Type() string { return TypePing }

// Pong answers a heartbeat probe.
type Pong struct {
	Timestamp float64 `json:"timestamp,omitempty"`
}

func (Pong) Type() string { return TypePong }

// PlaybackUpdate reports play/pause/seek state from the playback owner.
type PlaybackUpdate struct {
	CurrentTime float64 `json:"current_time"`
	IsPlaying   bool    `json:"is_playing"`
	IsSeeking   bool    `json:"is_seeking"`
}

func (PlaybackUpdate) Type() string { return TypePlaybackState }

// SeekComplete signals that a discontinuous jump has settled.
type SeekComplete struct {
	Position float64 `json:"position"`
}

func (SeekComplete) Type() string { return TypeSeekComplete }

// Unknown preserves frames whose type has no registered variant.
type Unknown struct {
	RawType string
	Raw     json.RawMessage
}

func (u Unknown) Type() string { return u.RawType }

// Decode parses a wire frame into its message variant. Malformed JSON or a
// missing type discriminator yields a protocol error; an unregistered type
// is not an error and yields Unknown.
func Decode(data []byte) (Message, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, errors.Protocol("malformed message frame", err)
	}
	if envelope.Type == "" {
		return nil, errors.Protocol("message frame missing type", nil)
	}

	switch envelope.Type {
	case TypeConnected:
		return decodeAs[Connected](data, envelope.Type)
	case TypeStatusUpdate:
		return decodeAs[StatusUpdate](data, envelope.Type)
	case TypeProgressUpdate:
		return decodeAs[ProgressUpdate](data, envelope.Type)
	case TypeCompleted:
		return decodeAs[Completed](data, envelope.Type)
	case TypeTimeUpdate:
		return decodeAs[TimeUpdate](data, envelope.Type)
	case TypeEmotionUpdate:
		return decodeAs[EmotionUpdate](data, envelope.Type)
	case TypeTranscriptUpdate:
		return decodeAs[TranscriptUpdate](data, envelope.Type)
	case TypeError:
		return decodeAs[ErrorMessage](data, envelope.Type)
	case TypePing:
		return decodeAs[Ping](data, envelope.Type)
	case TypePong:
		return decodeAs[Pong](data, envelope.Type)
	case TypePlaybackState:
		return decodeAs[PlaybackUpdate](data, envelope.Type)
	case TypeSeekComplete:
		return decodeAs[SeekComplete](data, envelope.Type)
	default:
		return Unknown{RawType: envelope.Type, Raw: append([]byte(nil), data...)}, nil
	}
}

func decodeAs[T Message](data []byte, typ string) (Message, error) {
	var m T
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Protocol("malformed "+typ+" payload", err)
	}
	return m, nil
}

// Encode serializes a message with its type discriminator injected.
func Encode(m Message) ([]byte, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Protocol("encode "+m.Type(), err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, errors.Protocol("encode "+m.Type(), err)
	}
	if fields == nil {
		fields = make(map[string]any)
	}
	fields["type"] = m.Type()
	return json.Marshal(fields)
}
