// Package qua implements the .qua map file format codec (spec §6): a YAML
// sidecar format, and the conversion between it and the engine's own Map
// model.
package qua

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/plitki-go/plitki/internal/mapmodel"
	"github.com/plitki-go/plitki/internal/scroll"
	"github.com/plitki-go/plitki/internal/timing"
)

// GameMode is the key count a .qua file targets.
type GameMode string

const (
	Keys4 GameMode = "Keys4"
	Keys7 GameMode = "Keys7"
)

// LaneCount returns the number of lanes for the mode.
func (m GameMode) LaneCount() (int, error) {
	switch m {
	case Keys4:
		return 4, nil
	case Keys7:
		return 7, nil
	default:
		return 0, fmt.Errorf("qua: unknown game mode %q", string(m))
	}
}

// HitObject is one entry of a .qua file's HitObjects list. Lane is
// 1-indexed, per the format; EndTime > 0 marks a long note.
type HitObject struct {
	StartTime int32 `yaml:"StartTime"`
	Lane      int32 `yaml:"Lane"`
	EndTime   int32 `yaml:"EndTime,omitempty"`
}

// IsLongNote reports whether the hit object is a long note.
func (h HitObject) IsLongNote() bool { return h.EndTime > 0 }

// TimingPoint is one .qua TimingPoints entry: a BPM change effective from
// StartTime.
type TimingPoint struct {
	StartTime float64 `yaml:"StartTime"`
	BPM       float64 `yaml:"Bpm"`
	Signature int32   `yaml:"Signature,omitempty"`
}

// SliderVelocity is one .qua SliderVelocities entry: a scroll-speed
// multiplier change effective from StartTime.
type SliderVelocity struct {
	StartTime  float64 `yaml:"StartTime"`
	Multiplier float64 `yaml:"Multiplier"`
}

// Document is the full parsed contents of a .qua file.
type Document struct {
	Mode             GameMode         `yaml:"Mode"`
	Title            string           `yaml:"Title,omitempty"`
	Artist           string           `yaml:"Artist,omitempty"`
	Creator          string           `yaml:"Creator,omitempty"`
	DifficultyName   string           `yaml:"DifficultyName,omitempty"`
	AudioFile        string           `yaml:"AudioFile,omitempty"`
	TimingPoints     []TimingPoint    `yaml:"TimingPoints,omitempty"`
	SliderVelocities []SliderVelocity `yaml:"SliderVelocities,omitempty"`
	HitObjects       []HitObject      `yaml:"HitObjects"`
}

// Parse deserializes a Document from a YAML stream.
func Parse(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("qua: parse: %w", err)
	}
	return &doc, nil
}

// Encode serializes doc as YAML into w.
func Encode(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("qua: encode: %w", err)
	}
	return nil
}

// ToMap converts a parsed Document into a mapmodel.Map. A HitObject's Lane
// must satisfy 1 <= Lane <= lane_count(Mode); ToMap converts it to a
// 0-indexed lane internally.
func ToMap(doc *Document) (*mapmodel.Map, error) {
	laneCount, err := doc.Mode.LaneCount()
	if err != nil {
		return nil, err
	}

	lanes := make([]mapmodel.Lane, laneCount)
	for _, ho := range doc.HitObjects {
		if ho.Lane < 1 || int(ho.Lane) > laneCount {
			return nil, fmt.Errorf("qua: hit object lane %d out of range [1,%d]", ho.Lane, laneCount)
		}
		idx := ho.Lane - 1
		var obj mapmodel.Object
		if ho.IsLongNote() {
			obj = mapmodel.NewLongNote(
				timing.MapTimestampFromMillis(ho.StartTime),
				timing.MapTimestampFromMillis(ho.EndTime),
			)
		} else {
			obj = mapmodel.NewRegular(timing.MapTimestampFromMillis(ho.StartTime))
		}
		lanes[idx].Objects = append(lanes[idx].Objects, obj)
	}

	timingPoints := make([]mapmodel.TimingPoint, 0, len(doc.TimingPoints))
	for _, tp := range doc.TimingPoints {
		var beatDuration timing.MapTimeDelta
		if tp.BPM > 0 {
			beatDuration = timing.MapTimeDeltaFromMillis(int32(60000 / tp.BPM))
		}
		beatCount := uint8(4)
		if tp.Signature > 0 {
			beatCount = uint8(tp.Signature)
		}
		timingPoints = append(timingPoints, mapmodel.TimingPoint{
			Timestamp:    timing.MapTimestampFromMillis(int32(tp.StartTime)),
			BeatDuration: beatDuration,
			Signature:    mapmodel.TimeSignature{BeatCount: beatCount, BeatUnit: 4},
		})
	}

	svChanges := make([]scroll.Change, 0, len(doc.SliderVelocities))
	for _, sv := range doc.SliderVelocities {
		mult, err := scroll.FromFloat(sv.Multiplier)
		if err != nil {
			return nil, fmt.Errorf("qua: slider velocity at %vms: %w", sv.StartTime, err)
		}
		svChanges = append(svChanges, scroll.Change{
			Timestamp:  timing.MapTimestampFromMillis(int32(sv.StartTime)),
			Multiplier: mult,
		})
	}

	m, err := mapmodel.New(lanes, timingPoints, svChanges, scroll.DefaultMultiplier)
	if err != nil {
		return nil, err
	}
	m.SongArtist = doc.Artist
	m.SongTitle = doc.Title
	m.Mapper = doc.Creator
	m.DifficultyName = doc.DifficultyName
	m.AudioFile = doc.AudioFile
	return m, nil
}

// FromMap converts a mapmodel.Map back into a Document. The lane count of m
// must be 4 or 7. Object ordering within a lane is preserved; the original
// HitObjects ordering across lanes is not (parse → ToMap → FromMap → Parse
// is a fixed point modulo object ordering within a lane, per spec §6).
func FromMap(m *mapmodel.Map) (*Document, error) {
	var mode GameMode
	switch m.LaneCount() {
	case 4:
		mode = Keys4
	case 7:
		mode = Keys7
	default:
		return nil, fmt.Errorf("qua: invalid lane count %d (must be 4 or 7)", m.LaneCount())
	}

	doc := &Document{
		Mode:           mode,
		Title:          m.SongTitle,
		Artist:         m.SongArtist,
		Creator:        m.Mapper,
		DifficultyName: m.DifficultyName,
		AudioFile:      m.AudioFile,
	}

	for _, tp := range m.TimingPoints {
		var bpm float64
		if tp.BeatDuration.D > 0 {
			bpm = 60000 / float64(tp.BeatDuration.D.Duration().Milliseconds())
		}
		doc.TimingPoints = append(doc.TimingPoints, TimingPoint{
			StartTime: float64(tp.Timestamp.T.Millis()),
			BPM:       bpm,
			Signature: int32(tp.Signature.BeatCount),
		})
	}

	for _, sv := range m.ScrollSpeedChanges() {
		doc.SliderVelocities = append(doc.SliderVelocities, SliderVelocity{
			StartTime:  float64(sv.Timestamp.T.Millis()),
			Multiplier: sv.Multiplier.Float(),
		})
	}

	for laneIdx, lane := range m.Lanes {
		laneNumber := int32(laneIdx + 1)
		for _, obj := range lane.Objects {
			ho := HitObject{Lane: laneNumber}
			if obj.IsLongNote() {
				ho.StartTime = obj.Start.T.Millis()
				ho.EndTime = obj.End.T.Millis()
			} else {
				ho.StartTime = obj.Timestamp.T.Millis()
			}
			doc.HitObjects = append(doc.HitObjects, ho)
		}
	}

	return doc, nil
}
