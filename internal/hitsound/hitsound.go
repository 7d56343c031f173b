// Package hitsound turns judgement events (spec §4.3's EventHit/EventMiss)
// into audible feedback. It wraps the FM synth engine behind a small facade
// and runs its output through a short mastering chain, the same way the
// root player wrapped an engine behind a PlayerOption and an effects chain.
package hitsound

import (
	"errors"
	"sync"

	intfx "github.com/plitki-go/plitki/internal/effects"
	intfm "github.com/plitki-go/plitki/internal/fm"
)

// VoiceEngine is the surface a synth backend exposes. Relocated here from
// internal/sequencer, whose MML-specific trigger/loop plumbing has no place
// in judgement-driven hit feedback.
type VoiceEngine interface {
	NoteOn(note int, velocity int, pan int, program int) int
	NoteOff(id int)
	RenderFrame() (float32, float32)
	SetMasterGain(gain float64)
	ActiveVoiceCount() int
	SetFilterType(filterType int)
	SetNoteOnPhase(phase int)
	SetPortamento(fromNote int, frames int)
	SetPitchLFO(depth float64, rateHz float64, waveform int)
	SetAmpLFO(depth float64, rateHz float64, waveform int)
	SetFilterLFO(depth float64, rateHz float64, waveform int)
}

func newEngine(sampleRate int) (VoiceEngine, float64) {
	params := intfm.DefaultParams()
	return intfm.New(sampleRate, params), params.MasterGain
}

// Option configures a Feedback at construction time.
type Option func(*config)

type config struct {
	program       int
	noteForLane   func(lane int) int
	panForLane    func(lane int, laneCount int) int
	missVelocity  int
	minHitVelo    int
	maxHitVelo    int
	missNoteDelta int
	noMasterChain bool
}

func defaultConfig() config {
	return config{
		program:       0,
		noteForLane:   defaultNoteForLane,
		panForLane:    defaultPanForLane,
		missVelocity:  40,
		minHitVelo:    50,
		maxHitVelo:    127,
		missNoteDelta: -5,
	}
}

// defaultNoteForLane assigns each lane a step of a pentatonic scale rooted
// at middle C, so adjacent lanes are audibly distinct without clashing.
func defaultNoteForLane(lane int) int {
	pentatonic := [...]int{0, 2, 4, 7, 9, 12, 14}
	return 60 + pentatonic[lane%len(pentatonic)]
}

// defaultPanForLane spreads lanes evenly across the stereo field, leftmost
// lane hard left and rightmost lane hard right; a single lane is centered.
func defaultPanForLane(lane int, laneCount int) int {
	if laneCount <= 1 {
		return 0
	}
	span := 128
	return -64 + (lane*span)/(laneCount-1)
}

// WithProgram sets the encoded program/channel passed to every NoteOn.
func WithProgram(program int) Option {
	return func(cfg *config) { cfg.program = program }
}

// WithNoteForLane overrides the lane-to-MIDI-note mapping.
func WithNoteForLane(f func(lane int) int) Option {
	return func(cfg *config) { cfg.noteForLane = f }
}

// WithPanForLane overrides the lane-to-stereo-pan mapping.
func WithPanForLane(f func(lane int, laneCount int) int) Option {
	return func(cfg *config) { cfg.panForLane = f }
}

// WithHitVelocityRange sets the velocity range a hit is mapped into: a
// perfectly-timed hit renders at max, the edge of the hit window at min.
func WithHitVelocityRange(min, max int) Option {
	return func(cfg *config) { cfg.minHitVelo, cfg.maxHitVelo = min, max }
}

// WithMissVelocity sets the fixed velocity used for the miss blip.
func WithMissVelocity(v int) Option {
	return func(cfg *config) { cfg.missVelocity = v }
}

// WithoutMasterChain disables the default compressor+EQ mastering stage,
// passing the synth's raw output straight through.
func WithoutMasterChain() Option {
	return func(cfg *config) { cfg.noMasterChain = true }
}

// Feedback renders audible hit/miss feedback for a judgement session. One
// Feedback instance owns one synth engine.
type Feedback struct {
	mu         sync.Mutex
	cfg        config
	engine     VoiceEngine
	laneCount  int
	windowMS   int32
	activeNote map[int]int // lane -> voice id, for a held long note's sustained tone
	master     *intfx.Chain
	masterEQ   *intfx.EQ5Band
}

// newDefaultMasterChain tames the synth's output when several lanes hit at
// once on a dense chart: a touch of compression to keep stacked voices from
// clipping, followed by a gentle EQ5Band tilt mirroring the root player's
// masterEQ.
func newDefaultMasterChain(sampleRate int) (*intfx.Chain, *intfx.EQ5Band) {
	comp := intfx.NewCompressor(sampleRate, -12, 3, 5, 80, 2)
	eq := intfx.NewEQ5Band(sampleRate)
	return intfx.NewChain(comp, eq), eq
}

// NewFeedback constructs a Feedback rendering at sampleRate for a map with
// laneCount lanes, whose hit window (in milliseconds) is used to scale hit
// velocity by timing accuracy.
func NewFeedback(sampleRate, laneCount int, hitWindowMillis int32, opts ...Option) (*Feedback, error) {
	if sampleRate <= 0 {
		return nil, errors.New("hitsound: sampleRate must be positive")
	}
	if laneCount <= 0 {
		return nil, errors.New("hitsound: laneCount must be positive")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	engine, baseGain := newEngine(sampleRate)
	engine.SetMasterGain(baseGain)

	var master *intfx.Chain
	var masterEQ *intfx.EQ5Band
	if !cfg.noMasterChain {
		master, masterEQ = newDefaultMasterChain(sampleRate)
	}

	return &Feedback{
		cfg:        cfg,
		engine:     engine,
		laneCount:  laneCount,
		windowMS:   hitWindowMillis,
		activeNote: make(map[int]int),
		master:     master,
		masterEQ:   masterEQ,
	}, nil
}

// MasterEQ returns the mastering chain's 5-band EQ for runtime gain
// adjustment, or nil when WithoutMasterChain was used.
func (f *Feedback) MasterEQ() *intfx.EQ5Band {
	return f.masterEQ
}

// velocityForAbsMillis maps an absolute hit-error magnitude to a velocity
// between cfg.maxHitVelo (perfect) and cfg.minHitVelo (at the edge of the
// hit window), clamped beyond the window.
func (f *Feedback) velocityForAbsMillis(abs int32) int {
	if f.windowMS <= 0 {
		return f.cfg.maxHitVelo
	}
	if abs >= f.windowMS {
		return f.cfg.minHitVelo
	}
	span := f.cfg.maxHitVelo - f.cfg.minHitVelo
	return f.cfg.maxHitVelo - int(int64(span)*int64(abs)/int64(f.windowMS))
}

// TriggerHit sounds a note for lane, scaled by how far off-center the hit
// was (absDifferenceMillis). sustain requests the voice be held open until a
// matching TriggerRelease arrives (a long note's hold), rather than left to
// its own release envelope.
func (f *Feedback) TriggerHit(lane int, absDifferenceMillis int32, sustain bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	note := f.cfg.noteForLane(lane)
	pan := f.cfg.panForLane(lane, f.laneCount)
	velocity := f.velocityForAbsMillis(absDifferenceMillis)
	id := f.engine.NoteOn(note, velocity, pan, f.cfg.program)
	if sustain {
		f.activeNote[lane] = id
	}
}

// TriggerRelease ends the sustained note started by a prior TriggerHit with
// sustain=true for lane, if one is still open. It is a no-op otherwise,
// since a regular (non-long) note's envelope releases on its own.
func (f *Feedback) TriggerRelease(lane int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, ok := f.activeNote[lane]
	if !ok {
		return
	}
	delete(f.activeNote, lane)
	f.engine.NoteOff(id)
}

// TriggerMiss sounds the fixed miss blip for lane: a short, detuned note at
// a fixed low velocity, immediately released.
func (f *Feedback) TriggerMiss(lane int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	note := f.cfg.noteForLane(lane) + f.cfg.missNoteDelta
	pan := f.cfg.panForLane(lane, f.laneCount)
	id := f.engine.NoteOn(note, f.cfg.missVelocity, pan, f.cfg.program)
	f.engine.NoteOff(id)
}

// Process renders the next block of interleaved stereo samples.
func (f *Feedback) Process(dst []float32) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := 0; i+1 < len(dst); i += 2 {
		l, r := f.engine.RenderFrame()
		if f.master != nil {
			l, r = f.master.Process(l, r)
		}
		dst[i], dst[i+1] = l, r
	}
}

// ActiveVoiceCount reports how many voices are still sounding, useful for
// deciding whether the feedback engine can be idled.
func (f *Feedback) ActiveVoiceCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.engine.ActiveVoiceCount()
}
