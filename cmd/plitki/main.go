// Command plitki is a minimal Ebiten-driven reference shell for the core
// engine: it loads a .qua chart, drives a Session one render tick per frame,
// and draws the conveyor's visible-object slices as colored rectangles.
package main

import (
	"errors"
	"fmt"
	"image/color"
	"log"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/plitki-go/plitki"
	"github.com/plitki-go/plitki/internal/audioclock"
	"github.com/plitki-go/plitki/internal/qua"
	"github.com/plitki-go/plitki/internal/scroll"
	"github.com/plitki-go/plitki/internal/timing"
)

const (
	windowH = 720

	laneWidth  = 80
	hitOffsetY = 80 // distance of the judgement line from the bottom edge
)

var laneColors = []color.RGBA{
	{220, 80, 80, 255},
	{220, 200, 80, 255},
	{100, 200, 220, 255},
	{200, 100, 220, 255},
	{100, 220, 140, 255},
	{220, 140, 80, 255},
	{160, 160, 220, 255},
}

var keyLayout4K = []ebiten.Key{ebiten.KeyS, ebiten.KeyD, ebiten.KeyK, ebiten.KeyL}
var keyLayout7K = []ebiten.Key{
	ebiten.KeyA, ebiten.KeyS, ebiten.KeyD, ebiten.KeySpace,
	ebiten.KeyK, ebiten.KeyL, ebiten.KeySemicolon,
}

func keyLayoutFor(laneCount int) ([]ebiten.Key, error) {
	switch laneCount {
	case 4:
		return keyLayout4K, nil
	case 7:
		return keyLayout7K, nil
	default:
		return nil, fmt.Errorf("plitki: unsupported lane count %d (want 4 or 7)", laneCount)
	}
}

// errQuit is returned from Update to end the Ebiten run loop cleanly; main
// treats it as a normal exit rather than a fatal error.
var errQuit = errors.New("plitki: quit requested")

type game struct {
	session    *plitki.Session
	keys       []ebiten.Key
	width      int
	trackID    audioclock.TrackID
	downscroll bool
	extent     int32
	now        timing.GameTimestamp
}

func newGame(m *qua.Document) (*game, error) {
	mm, err := qua.ToMap(m)
	if err != nil {
		return nil, err
	}
	keys, err := keyLayoutFor(mm.LaneCount())
	if err != nil {
		return nil, err
	}
	session, err := plitki.NewSession(mm,
		plitki.WithHitPosition(int32(windowH-hitOffsetY)),
		plitki.WithViewportExtent(windowH),
	)
	if err != nil {
		return nil, err
	}

	return &game{
		session: session,
		keys:    keys,
		width:   len(keys) * laneWidth,
		trackID: audioclock.TrackID(1),
		extent:  windowH,
	}, nil
}

func ctrlHeld() bool {
	return ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight)
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return errQuit
	}
	if ctrlHeld() && inpututil.IsKeyJustPressed(ebiten.KeyC) {
		return errQuit
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyW) {
		g.downscroll = !g.downscroll
	}

	speedStep := scrollSpeedStep(ctrlHeld())
	if inpututil.IsKeyJustPressed(ebiten.KeyF4) {
		g.adjustScrollSpeed(speedStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		g.adjustScrollSpeed(-speedStep)
	}

	offsetStep := localOffsetStep(ctrlHeld())
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) {
		g.adjustLocalOffset(offsetStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) {
		g.adjustLocalOffset(-offsetStep)
	}

	g.now = g.session.TickFromAudioClock(g.trackID, time.Now())
	for lane, key := range g.keys {
		if inpututil.IsKeyJustPressed(key) {
			g.session.KeyPress(lane, g.now)
		}
		if inpututil.IsKeyJustReleased(key) {
			g.session.KeyRelease(lane, g.now)
		}
	}
	return nil
}

// scrollSpeedStep is 1 with Ctrl held, 5 otherwise (spec §6).
func scrollSpeedStep(ctrl bool) int {
	if ctrl {
		return 1
	}
	return 5
}

// localOffsetStep mirrors scrollSpeedStep's modifier convention, in
// milliseconds.
func localOffsetStep(ctrl bool) int32 {
	if ctrl {
		return 1
	}
	return 5
}

func (g *game) adjustScrollSpeed(delta int) {
	current := int(g.session.State.ScrollSpeed)
	next := current + delta
	if next < 1 {
		next = 1
	}
	if next > 255 {
		next = 255
	}
	g.session.State.ScrollSpeed = scroll.Speed(next)
}

func (g *game) adjustLocalOffset(deltaMillis int32) {
	current := g.session.State.Converter.LocalOffset
	g.session.State.Converter.LocalOffset = current.Add(timing.MapTimeDeltaFromMillis(deltaMillis))
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{20, 20, 24, 255})

	mapPosition := g.session.MapPositionAt(g.now)
	hitY := float32(windowH - hitOffsetY)
	vector.StrokeLine(screen, 0, hitY, float32(g.width), hitY, 2, color.RGBA{240, 240, 240, 255}, false)

	for lane := range g.keys {
		x := float32(lane * laneWidth)
		clr := laneColors[lane%len(laneColors)]
		for _, obj := range g.session.VisibleObjects(lane, mapPosition) {
			y := g.session.PixelY(lane, obj, mapPosition)
			drawY := float32(y)
			if g.downscroll {
				drawY = windowH - drawY
			}
			vector.DrawFilledRect(screen, x+4, drawY-10, laneWidth-8, 20, clr, false)
		}
	}

	ebitenutil.DebugPrintAt(screen, fmt.Sprintf(
		"speed=%d  offset=%dms  accuracy=%.2f%%  downscroll=%v",
		g.session.State.ScrollSpeed,
		g.session.State.Converter.LocalOffset.D.Duration().Milliseconds(),
		g.session.Histogram.Accuracy(),
		g.downscroll,
	), 8, 8)
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	if int32(outsideH) != g.extent {
		g.extent = int32(outsideH)
		g.session.SetViewportExtent(g.extent)
	}
	return g.width, windowH
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: plitki <path-to-.qua>")
	}
	f, err := os.Open(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	doc, err := qua.Parse(f)
	if err != nil {
		log.Fatal(err)
	}

	g, err := newGame(doc)
	if err != nil {
		log.Fatal(err)
	}

	ebiten.SetWindowSize(g.width, windowH)
	ebiten.SetWindowTitle("plitki")
	if err := ebiten.RunGame(g); err != nil && err != errQuit {
		log.Fatal(err)
	}
}
