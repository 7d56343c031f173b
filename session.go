package plitki

import (
	"time"

	"github.com/plitki-go/plitki/internal/audioclock"
	"github.com/plitki-go/plitki/internal/conveyor"
	"github.com/plitki-go/plitki/internal/hitsound"
	"github.com/plitki-go/plitki/internal/judge"
	"github.com/plitki-go/plitki/internal/mapmodel"
	"github.com/plitki-go/plitki/internal/scroll"
	"github.com/plitki-go/plitki/internal/stats"
	"github.com/plitki-go/plitki/internal/timing"
)

// SessionOption configures a Session at construction time.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	gameStateOpts  []judge.Option
	hitPosition    int32
	viewportExtent int32
	widgetHeight   conveyor.WidgetHeight
	hitsoundOpts   []hitsound.Option
	sampleRate     int
	enableAudio    bool
}

func defaultSessionConfig() sessionConfig {
	return sessionConfig{
		hitPosition:    0,
		viewportExtent: 1080,
		widgetHeight:   func(int) int32 { return 50 * pixelsPerUnitHeight },
		sampleRate:     48000,
		enableAudio:    true,
	}
}

// pixelsPerUnitHeight keeps the default WidgetHeight in the same pixel scale
// PixelY reports, matching a 50px note skin at the engine's default extent.
const pixelsPerUnitHeight = 1

// WithScrollSpeed sets the initial scroll speed forwarded to the judgement
// state.
func WithScrollSpeed(s scroll.Speed) SessionOption {
	return func(cfg *sessionConfig) { cfg.gameStateOpts = append(cfg.gameStateOpts, judge.WithScrollSpeed(s)) }
}

// WithHitWindow overrides the judgement hit window.
func WithHitWindow(window timing.GameTimeDelta) SessionOption {
	return func(cfg *sessionConfig) { cfg.gameStateOpts = append(cfg.gameStateOpts, judge.WithHitWindow(window)) }
}

// WithGlobalOffset sets the device-latency offset.
func WithGlobalOffset(offset timing.GameTimeDelta) SessionOption {
	return func(cfg *sessionConfig) { cfg.gameStateOpts = append(cfg.gameStateOpts, judge.WithGlobalOffset(offset)) }
}

// WithLocalOffset sets the per-map calibration offset.
func WithLocalOffset(offset timing.MapTimeDelta) SessionOption {
	return func(cfg *sessionConfig) { cfg.gameStateOpts = append(cfg.gameStateOpts, judge.WithLocalOffset(offset)) }
}

// WithHitPosition sets the pixel Y coordinate of the judgement line.
func WithHitPosition(px int32) SessionOption {
	return func(cfg *sessionConfig) { cfg.hitPosition = px }
}

// WithViewportExtent sets the playfield's pixel height, used both for
// pixel<->position conversion and as the conveyor cache's rebuild trigger.
func WithViewportExtent(px int32) SessionOption {
	return func(cfg *sessionConfig) { cfg.viewportExtent = px }
}

// WithWidgetHeight overrides the per-object pixel height used to extend an
// object's visible range past its tail.
func WithWidgetHeight(h conveyor.WidgetHeight) SessionOption {
	return func(cfg *sessionConfig) { cfg.widgetHeight = h }
}

// WithHitsoundOptions forwards additional options to the hitsound.Feedback
// constructor (note/pan mapping, velocity range, and so on).
func WithHitsoundOptions(opts ...hitsound.Option) SessionOption {
	return func(cfg *sessionConfig) { cfg.hitsoundOpts = append(cfg.hitsoundOpts, opts...) }
}

// WithSampleRate sets the sample rate the hitsound engine renders at.
func WithSampleRate(rate int) SessionOption {
	return func(cfg *sessionConfig) { cfg.sampleRate = rate }
}

// WithoutAudio disables hitsound feedback entirely, for headless use (tests,
// batch accuracy replays).
func WithoutAudio() SessionOption {
	return func(cfg *sessionConfig) { cfg.enableAudio = false }
}

// Session wires together the judgement state machine, the per-lane
// visibility conveyors, the hit-error histogram, and (optionally) audible
// hit feedback into a single per-tick facade for a map play-through.
type Session struct {
	Map       *mapmodel.Map
	State     *judge.GameState
	Histogram *stats.Histogram
	Feedback  *hitsound.Feedback // nil when WithoutAudio was used

	// Clock bridges the audio thread's published playback position into the
	// game-time domain Tick expects (spec §5); Requests carries UI->audio
	// track-start requests on the same bounded channel the audio thread
	// drains.
	Clock    audioclock.Slot
	Requests audioclock.Requests

	lanes          []*conveyor.LaneConveyor
	hitPosition    int32
	viewportExtent int32
	widgetHeight   conveyor.WidgetHeight
}

// NewSession builds a Session for m.
func NewSession(m *mapmodel.Map, opts ...SessionOption) (*Session, error) {
	cfg := defaultSessionConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	state := judge.NewGameState(m, cfg.gameStateOpts...)

	var fb *hitsound.Feedback
	if cfg.enableAudio {
		windowMillis := int32(state.HitWindow.D.Duration().Milliseconds())
		f, err := hitsound.NewFeedback(cfg.sampleRate, m.LaneCount(), windowMillis, cfg.hitsoundOpts...)
		if err != nil {
			return nil, err
		}
		fb = f
	}

	s := &Session{
		Map:            m,
		State:          state,
		Histogram:      &stats.Histogram{},
		Feedback:       fb,
		hitPosition:    cfg.hitPosition,
		viewportExtent: cfg.viewportExtent,
		widgetHeight:   cfg.widgetHeight,
		Requests:       audioclock.NewRequests(),
	}
	s.rebuildConveyors()
	return s, nil
}

// TickFromAudioClock extrapolates the current game timestamp for trackID
// from the latest audio-thread publication to Clock, then runs Tick against
// it. If the audio thread hasn't published anything for trackID yet, the
// position is treated as zero (spec §5's "catch up" framing).
func (s *Session) TickFromAudioClock(trackID audioclock.TrackID, now time.Time) timing.GameTimestamp {
	pos := s.Clock.CurrentPosition(trackID, now)
	gameNow := timing.GameTimestampFromMillis(int32(pos.Milliseconds()))
	s.Tick(gameNow)
	return gameNow
}

func (s *Session) positionFunc() conveyor.PositionFunc {
	return func(ts timing.MapTimestamp) scroll.Position { return s.Map.PositionAt(ts) }
}

func (s *Session) rebuildConveyors() {
	s.lanes = make([]*conveyor.LaneConveyor, len(s.Map.Lanes))
	positions := s.positionFunc()
	for i, lane := range s.Map.Lanes {
		s.lanes[i] = conveyor.NewLaneConveyor(lane, positions, s.viewportExtent, s.widgetHeight)
	}
}

// SetViewportExtent updates the playfield's pixel height, rebuilding the
// per-lane visibility caches only when the extent actually changed — scroll
// speed and map-position changes never require a rebuild (spec §4.7).
func (s *Session) SetViewportExtent(px int32) {
	if px == s.viewportExtent {
		return
	}
	s.viewportExtent = px
	positions := s.positionFunc()
	for _, lane := range s.lanes {
		lane.Rebuild(positions, px, s.widgetHeight)
	}
}

// MapPositionAt converts a game timestamp into the scroll-position axis,
// composing the timestamp converter with the map's scroll-velocity
// integral.
func (s *Session) MapPositionAt(now timing.GameTimestamp) scroll.Position {
	return s.Map.PositionAt(s.State.Converter.GameToMap(now))
}

// VisibleObjects returns the indices of lane's objects currently visible at
// mapPosition.
func (s *Session) VisibleObjects(lane int, mapPosition scroll.Position) []int {
	return s.lanes[lane].VisibleObjects(mapPosition, s.State.ScrollSpeed, s.hitPosition, s.viewportExtent)
}

// PixelY returns the screen-space Y coordinate of lane's object at
// mapPosition.
func (s *Session) PixelY(lane, object int, mapPosition scroll.Position) int32 {
	return s.lanes[lane].PixelY(object, mapPosition, s.State.ScrollSpeed, s.hitPosition, s.viewportExtent)
}

// laneHasSustainedHold reports whether lane's active object is a long note
// currently held, the one case KeyPress leaves FirstActive unmoved on a hit.
func (s *Session) laneHasSustainedHold(lane int) bool {
	ls := &s.State.Lanes[lane]
	return ls.FirstActive < len(ls.States) && ls.States[ls.FirstActive].LN == judge.Held
}

func absGameDeltaMillis(d timing.GameTimeDelta) int32 {
	ms := d.D.Duration().Milliseconds()
	if ms < 0 {
		ms = -ms
	}
	return int32(ms)
}

// KeyPress handles a key-down on lane at game timestamp now: it judges the
// press, records it into the hit-error histogram, and (if audio is enabled)
// triggers hit feedback — sustained for a long note's hold, one-shot for a
// regular note.
func (s *Session) KeyPress(lane int, now timing.GameTimestamp) *judge.Event {
	ev := s.State.KeyPress(lane, now)
	if ev == nil {
		return nil
	}
	s.Histogram.RecordHit(ev.Hit.Difference)
	if s.Feedback != nil {
		s.Feedback.TriggerHit(lane, absGameDeltaMillis(ev.Hit.Difference), s.laneHasSustainedHold(lane))
	}
	return ev
}

// KeyRelease handles a key-up on lane at game timestamp now.
func (s *Session) KeyRelease(lane int, now timing.GameTimestamp) *judge.Event {
	ev := s.State.KeyRelease(lane, now)
	if ev == nil {
		return nil
	}
	if s.Feedback != nil {
		s.Feedback.TriggerRelease(lane)
	}
	switch ev.Kind {
	case judge.EventHit:
		s.Histogram.RecordHit(ev.Hit.Difference)
	case judge.EventMiss:
		s.Histogram.RecordMiss()
		if s.Feedback != nil {
			s.Feedback.TriggerMiss(lane)
		}
	}
	return ev
}

// Tick advances every lane's judgement cursor past any object whose window
// has expired without a key event, per spec §4.3's Tick transition. Objects
// the sweep skips without a successful hit are recorded as misses — the
// judgement state machine has no event channel for timeouts it discovers on
// its own, so Session diffs the cursor to find them.
func (s *Session) Tick(now timing.GameTimestamp) {
	for lane := range s.State.Lanes {
		before := s.State.Lanes[lane].FirstActive
		s.State.Tick(lane, now)
		after := s.State.Lanes[lane].FirstActive
		for idx := before; idx < after; idx++ {
			if !s.State.Lanes[lane].States[idx].IsHit() {
				s.Histogram.RecordMiss()
				if s.Feedback != nil {
					s.Feedback.TriggerMiss(lane)
				}
			}
		}
	}
}
