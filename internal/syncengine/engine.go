// Package syncengine aligns incoming transcript and emotion events with a
// moving playback clock under bounded tolerance, keeps bounded history and
// smooths noisy emotion readings for display.
package syncengine

import (
	"math"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/sawtfeel/livesync/internal/domain"
	"github.com/sawtfeel/livesync/internal/metrics"
)

// DefaultTolerance is the alignment slack in seconds. Frame-accurate sync
// is a non-goal; half a second is imperceptible alongside subtitle timing.
const DefaultTolerance = 0.5

const (
	defaultHistoryLimit    = 100
	defaultSmoothingWindow = 5
)

// PlaybackClock reads the externally owned playback position in seconds.
// Seeks may move it backwards arbitrarily.
type PlaybackClock interface {
	CurrentTime() float64
}

// Playhead is a trivial PlaybackClock fed by inbound time updates.
type Playhead struct {
	mu sync.RWMutex
	t  float64
}

func (p *Playhead) Set(t float64) {
	p.mu.Lock()
	p.t = t
	p.mu.Unlock()
}

func (p *Playhead) CurrentTime() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.t
}

// InRange reports whether clockTime falls inside [start-tolerance,
// end+tolerance].
func InRange(clockTime, start, end, tolerance float64) bool {
	return clockTime >= start-tolerance && clockTime <= end+tolerance
}

// Options tunes the engine.
type Options struct {
	Tolerance       float64 // default 0.5s
	HistoryLimit    int     // retained events per stream, default 100
	SmoothingWindow int     // default 5
}

func (o Options) withDefaults() Options {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = defaultHistoryLimit
	}
	if o.SmoothingWindow <= 0 {
		o.SmoothingWindow = defaultSmoothingWindow
	}
	return o
}

// Engine ingests timed events in arrival order and resolves current and
// historical views against the playback clock on demand. Because "current"
// is always re-derived from the clock position, seeks and out-of-order
// arrival need no special handling.
type Engine struct {
	mu          sync.Mutex
	opts        Options
	clock       PlaybackClock
	wall        clockwork.Clock
	transcripts []domain.TranscriptSegment
	emotions    []domain.EmotionSample
	playback    domain.PlaybackState
}

// NewEngine creates an engine reading playback position from clock and
// wall time from wall.
func NewEngine(clock PlaybackClock, wall clockwork.Clock, opts Options) *Engine {
	return &Engine{
		opts:     opts.withDefaults(),
		clock:    clock,
		wall:     wall,
		playback: domain.PlaybackState{SyncState: domain.SyncUnknown},
	}
}

// SyncTranscript ingests one transcript segment. Segments with an inverted
// time range are rejected and not stored.
func (e *Engine) SyncTranscript(seg domain.TranscriptSegment) error {
	if err := seg.Validate(); err != nil {
		metrics.SyncRejectedTotal.WithLabelValues("transcript").Inc()
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	seg.ArrivedAt = e.wall.Now()
	e.transcripts = appendBounded(e.transcripts, seg, e.opts.HistoryLimit)
	e.noteIngest(seg.EndTime)
	metrics.SyncEventsTotal.WithLabelValues("transcript").Inc()
	return nil
}

// SyncEmotion ingests one emotion sample, with the same range check.
func (e *Engine) SyncEmotion(sample domain.EmotionSample) error {
	if err := sample.Validate(); err != nil {
		metrics.SyncRejectedTotal.WithLabelValues("emotion").Inc()
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sample.ArrivedAt = e.wall.Now()
	e.emotions = appendBounded(e.emotions, sample, e.opts.HistoryLimit)
	e.noteIngest(sample.EndTime)
	metrics.SyncEventsTotal.WithLabelValues("emotion").Inc()
	return nil
}

// CurrentTranscript resolves the segment matching the playback clock.
// Overlapping segments resolve to the first match in arrival order; with
// no window match the segment nearest by start time is returned. A false
// result only means the history is empty.
func (e *Engine) CurrentTranscript() (domain.TranscriptSegment, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.CurrentTime()
	for _, seg := range e.transcripts {
		if InRange(now, seg.StartTime, seg.EndTime, e.opts.Tolerance) {
			return seg, true
		}
	}
	idx := nearestByStart(len(e.transcripts), now, func(i int) float64 { return e.transcripts[i].StartTime })
	if idx < 0 {
		return domain.TranscriptSegment{}, false
	}
	return e.transcripts[idx], true
}

// CurrentEmotion resolves the emotion sample matching the playback clock,
// with the same window-then-nearest strategy as CurrentTranscript.
func (e *Engine) CurrentEmotion() (domain.EmotionSample, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.CurrentTime()
	for _, sample := range e.emotions {
		if InRange(now, sample.StartTime, sample.EndTime, e.opts.Tolerance) {
			return sample, true
		}
	}
	idx := nearestByStart(len(e.emotions), now, func(i int) float64 { return e.emotions[i].StartTime })
	if idx < 0 {
		return domain.EmotionSample{}, false
	}
	return e.emotions[idx], true
}

// TranscriptHistory returns retained segments overlapping [start, end], in
// arrival order.
func (e *Engine) TranscriptHistory(start, end float64) []domain.TranscriptSegment {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []domain.TranscriptSegment
	for _, seg := range e.transcripts {
		if seg.EndTime >= start && seg.StartTime <= end {
			out = append(out, seg)
		}
	}
	return out
}

// EmotionHistory returns retained samples overlapping [start, end], in
// arrival order.
func (e *Engine) EmotionHistory(start, end float64) []domain.EmotionSample {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []domain.EmotionSample
	for _, sample := range e.emotions {
		if sample.EndTime >= start && sample.StartTime <= end {
			out = append(out, sample)
		}
	}
	return out
}

// Smoothed aggregates the last windowSize emotion samples into a synthetic
// sample: majority-vote emotion type, arithmetic-mean confidence and
// intensity. windowSize <= 0 uses the configured default. Damps
// single-sample noise for display.
func (e *Engine) Smoothed(windowSize int) (domain.EmotionSample, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if windowSize <= 0 {
		windowSize = e.opts.SmoothingWindow
	}
	if len(e.emotions) == 0 {
		return domain.EmotionSample{}, false
	}

	start := len(e.emotions) - windowSize
	if start < 0 {
		start = 0
	}
	window := e.emotions[start:]

	votes := make(map[domain.EmotionType]int)
	var sumConfidence, sumIntensity float64
	for _, sample := range window {
		votes[sample.Emotion]++
		sumConfidence += sample.Confidence
		sumIntensity += sample.Intensity
	}

	majority := window[0].Emotion
	best := 0
	for _, sample := range window {
		// Iterate in window order so ties resolve deterministically.
		if votes[sample.Emotion] > best {
			majority = sample.Emotion
			best = votes[sample.Emotion]
		}
	}

	n := float64(len(window))
	return domain.EmotionSample{
		Emotion:    majority,
		Confidence: sumConfidence / n,
		Intensity:  sumIntensity / n,
		StartTime:  window[0].StartTime,
		EndTime:    window[len(window)-1].EndTime,
		Smoothed:   true,
	}, true
}

// UpdatePlayback records the playback owner's reported state.
func (e *Engine) UpdatePlayback(currentTime float64, playing, seeking bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.playback.CurrentTime = currentTime
	e.playback.Playing = playing
	e.playback.Paused = !playing
	e.playback.Seeking = seeking
	if currentTime > e.playback.Duration {
		e.playback.Duration = currentTime
	}
}

// Playback returns the playback snapshot with sync health recomputed: the
// engine counts as synced while the gap since the last ingested event is
// within tolerance.
func (e *Engine) Playback() domain.PlaybackState {
	e.mu.Lock()
	defer e.mu.Unlock()

	state := e.playback
	if state.LastSyncAt.IsZero() {
		state.SyncState = domain.SyncUnknown
		return state
	}
	gap := e.wall.Now().Sub(state.LastSyncAt).Seconds()
	if gap <= e.opts.Tolerance {
		state.SyncState = domain.SyncSynced
		state.SyncOffset = 0
	} else {
		state.SyncState = domain.SyncUnsynced
		state.SyncOffset = gap
	}
	return state
}

// Clear drops all retained history and resets the playback snapshot.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.transcripts = nil
	e.emotions = nil
	e.playback = domain.PlaybackState{SyncState: domain.SyncUnknown}
}

// noteIngest advances duration and sync bookkeeping. Caller holds the lock.
func (e *Engine) noteIngest(endTime float64) {
	if endTime > e.playback.Duration {
		e.playback.Duration = endTime
	}
	e.playback.LastSyncAt = e.wall.Now()
}

func appendBounded[T any](events []T, event T, limit int) []T {
	events = append(events, event)
	if len(events) > limit {
		// Oldest first. Recency is the point of the buffer, not
		// completeness.
		events = events[1:]
	}
	return events
}

// nearestByStart returns the index minimizing |start(i) - target|, or -1
// for an empty history. First found wins on ties.
func nearestByStart(n int, target float64, start func(int) float64) int {
	best := -1
	bestDist := math.Inf(1)
	for i := 0; i < n; i++ {
		dist := math.Abs(start(i) - target)
		if dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	return best
}
