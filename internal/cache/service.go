package cache

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sawtfeel/livesync/internal/domain"
	"github.com/sawtfeel/livesync/internal/metrics"
)

// Namespaces used for metrics labels.
const (
	nsGeneral      = "general"
	nsFrames       = "frames"
	nsTranslations = "translations"
	nsEmotions     = "emotions"
	nsSocketLog    = "socket_log"
)

// ServiceConfig sizes each namespaced store.
type ServiceConfig struct {
	GeneralCapacity     int
	GeneralTTL          time.Duration
	FrameCapacity       int
	TranslationCapacity int
	EmotionCapacity     int
	SocketLogCapacity   int
}

// DefaultServiceConfig returns the standard sizing for continuous
// streaming playback.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		GeneralCapacity:     256,
		GeneralTTL:          5 * time.Minute,
		FrameCapacity:       120,
		TranslationCapacity: 200,
		EmotionCapacity:     100,
		SocketLogCapacity:   50,
	}
}

// Service owns one instance of each eviction policy and exposes them as
// namespaced operations. Each data type gets its own store because
// capacity, TTL and eviction trade-offs differ: translations are reused
// across seeks (frequency), frames are looked up by timestamp
// (time-window), the raw socket log only needs recency (ring).
type Service struct {
	general      *LRU[any]
	frames       *TimeWindow[any]
	translations *LFU[string]
	emotions     *LRU[domain.EmotionSample]
	socketLog    *Ring[[]byte]
}

// NewService builds the composed cache service.
func NewService(cfg ServiceConfig, clock clockwork.Clock) *Service {
	def := DefaultServiceConfig()
	if cfg.GeneralCapacity <= 0 {
		cfg.GeneralCapacity = def.GeneralCapacity
	}
	if cfg.FrameCapacity <= 0 {
		cfg.FrameCapacity = def.FrameCapacity
	}
	if cfg.TranslationCapacity <= 0 {
		cfg.TranslationCapacity = def.TranslationCapacity
	}
	if cfg.EmotionCapacity <= 0 {
		cfg.EmotionCapacity = def.EmotionCapacity
	}
	if cfg.SocketLogCapacity <= 0 {
		cfg.SocketLogCapacity = def.SocketLogCapacity
	}

	return &Service{
		general:      NewLRU[any](cfg.GeneralCapacity, cfg.GeneralTTL, clock),
		frames:       NewTimeWindow[any](cfg.FrameCapacity),
		translations: NewLFU[string](cfg.TranslationCapacity),
		emotions:     NewLRU[domain.EmotionSample](cfg.EmotionCapacity, 0, clock),
		socketLog:    NewRing[[]byte](cfg.SocketLogCapacity, clock),
	}
}

// --- General KV ---

func (s *Service) Set(key string, value any) {
	if s.general.Set(key, value) {
		metrics.CacheEvictionsTotal.WithLabelValues(nsGeneral).Inc()
	}
}

func (s *Service) Get(key string) (any, bool) {
	value, ok := s.general.Get(key)
	countLookup(nsGeneral, ok)
	return value, ok
}

func (s *Service) Has(key string) bool { return s.general.Has(key) }
func (s *Service) Delete(key string)   { s.general.Delete(key) }

// --- Frames ---

func (s *Service) SetFrame(timestamp float64, frame any) {
	if s.frames.Set(timestamp, frame) {
		metrics.CacheEvictionsTotal.WithLabelValues(nsFrames).Inc()
	}
}

func (s *Service) FrameAt(timestamp float64) (any, bool) {
	value, ok := s.frames.Get(timestamp)
	countLookup(nsFrames, ok)
	return value, ok
}

// ClosestFrame returns the frame nearest to timestamp within tolerance
// seconds, along with the timestamp it was stored under.
func (s *Service) ClosestFrame(timestamp, tolerance float64) (any, float64, bool) {
	value, key, ok := s.frames.Closest(timestamp, tolerance)
	countLookup(nsFrames, ok)
	return value, key, ok
}

// --- Translations ---

func (s *Service) SetTranslation(key, text string) {
	if s.translations.Set(key, text) {
		metrics.CacheEvictionsTotal.WithLabelValues(nsTranslations).Inc()
	}
}

func (s *Service) Translation(key string) (string, bool) {
	text, ok := s.translations.Get(key)
	countLookup(nsTranslations, ok)
	return text, ok
}

// --- Emotions ---

func (s *Service) SetEmotion(key string, sample domain.EmotionSample) {
	if s.emotions.Set(key, sample) {
		metrics.CacheEvictionsTotal.WithLabelValues(nsEmotions).Inc()
	}
}

func (s *Service) Emotion(key string) (domain.EmotionSample, bool) {
	sample, ok := s.emotions.Get(key)
	countLookup(nsEmotions, ok)
	return sample, ok
}

// --- Raw socket log ---

// LogFrame archives a raw inbound socket frame for diagnostics.
func (s *Service) LogFrame(data []byte) {
	if s.socketLog.Append(append([]byte(nil), data...)) {
		metrics.CacheEvictionsTotal.WithLabelValues(nsSocketLog).Inc()
	}
}

// FramesSince returns raw socket frames received after t.
func (s *Service) FramesSince(t time.Time) []RingItem[[]byte] {
	return s.socketLog.Since(t)
}

// ClearAll flushes every namespaced store.
func (s *Service) ClearAll() {
	s.general.Clear()
	s.frames.Clear()
	s.translations.Clear()
	s.emotions.Clear()
	s.socketLog.Clear()
}

func countLookup(namespace string, hit bool) {
	if hit {
		metrics.CacheHitsTotal.WithLabelValues(namespace).Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues(namespace).Inc()
	}
}
