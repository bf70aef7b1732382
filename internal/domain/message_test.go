package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawtfeel/livesync/internal/domain"
	"github.com/sawtfeel/livesync/internal/errors"
)

func TestDecode_DispatchesByType(t *testing.T) {
	msg, err := domain.Decode([]byte(`{"type":"emotion_update","emotion":{"emotion_type":"joy","confidence":0.9,"intensity":0.7,"start_time":1.0,"end_time":2.5}}`))
	require.NoError(t, err)

	update, ok := msg.(domain.EmotionUpdate)
	require.True(t, ok, "expected EmotionUpdate, got %T", msg)
	assert.Equal(t, domain.EmotionJoy, update.Emotion.Emotion)
	assert.Equal(t, 1.0, update.Emotion.StartTime)
	assert.Equal(t, 2.5, update.Emotion.EndTime)
}

func TestDecode_TranscriptWithWords(t *testing.T) {
	msg, err := domain.Decode([]byte(`{"type":"transcript_update","transcript":{"text":"hello there","language":"ar","confidence":0.85,"start_time":0,"end_time":1.2,"words":[{"word":"hello","start":0,"end":0.5,"confidence":0.9}]}}`))
	require.NoError(t, err)

	update, ok := msg.(domain.TranscriptUpdate)
	require.True(t, ok)
	assert.Equal(t, "hello there", update.Transcript.Text)
	require.Len(t, update.Transcript.Words, 1)
	assert.Equal(t, "hello", update.Transcript.Words[0].Word)
}

func TestDecode_UnknownTypeIsNotAnError(t *testing.T) {
	msg, err := domain.Decode([]byte(`{"type":"telemetry_blob","payload":42}`))
	require.NoError(t, err)

	unknown, ok := msg.(domain.Unknown)
	require.True(t, ok)
	assert.Equal(t, "telemetry_blob", unknown.Type())
	assert.JSONEq(t, `{"type":"telemetry_blob","payload":42}`, string(unknown.Raw))
}

func TestDecode_MalformedFrame(t *testing.T) {
	_, err := domain.Decode([]byte(`{not json`))
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindProtocol))
}

func TestDecode_MissingType(t *testing.T) {
	_, err := domain.Decode([]byte(`{"current_time":3.2}`))
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindProtocol))
}

func TestDecode_MalformedPayloadForKnownType(t *testing.T) {
	_, err := domain.Decode([]byte(`{"type":"time_update","current_time":"not-a-number"}`))
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindProtocol))
}

func TestEncode_InjectsTypeDiscriminator(t *testing.T) {
	data, err := domain.Encode(domain.Ping{Timestamp: 12.5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ping","timestamp":12.5}`, string(data))
}

func TestEncodeDecode_PlaybackUpdate(t *testing.T) {
	data, err := domain.Encode(domain.PlaybackUpdate{CurrentTime: 42.1, IsPlaying: true})
	require.NoError(t, err)

	msg, err := domain.Decode(data)
	require.NoError(t, err)
	update, ok := msg.(domain.PlaybackUpdate)
	require.True(t, ok)
	assert.Equal(t, 42.1, update.CurrentTime)
	assert.True(t, update.IsPlaying)
	assert.False(t, update.IsSeeking)
}

func TestValidate_RejectsInvertedRanges(t *testing.T) {
	seg := domain.TranscriptSegment{Text: "x", StartTime: 5, EndTime: 4}
	assert.True(t, errors.IsKind(seg.Validate(), errors.KindDataRange))

	sample := domain.EmotionSample{Emotion: domain.EmotionJoy, StartTime: 2, EndTime: 1}
	assert.True(t, errors.IsKind(sample.Validate(), errors.KindDataRange))

	equal := domain.EmotionSample{Emotion: domain.EmotionJoy, StartTime: 2, EndTime: 2}
	assert.NoError(t, equal.Validate())
}
