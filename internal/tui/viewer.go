// Package tui renders the engine in a terminal and turns keys and mouse
// clicks into engine commands.
package tui

import (
	"context"
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/zeusync/robonav/internal/core/engine"
	"github.com/zeusync/robonav/internal/core/events/bus"
	"github.com/zeusync/robonav/internal/core/level"
	"github.com/zeusync/robonav/internal/core/observability/log"
	"github.com/zeusync/robonav/internal/core/physics"
)

// Controller is the engine surface the viewer needs.
type Controller interface {
	SetTarget(target physics.Vector2)
	SetObstacleMode(enabled bool)
	Reset()
	Snapshot() engine.Snapshot
	Field() (level.Grid, bool)
	Subscribe(fn func(engine.Snapshot)) (bus.Subscription, error)
	SubscribeField(fn func(engine.FieldChange)) (bus.Subscription, error)
}

var (
	styleFloor    = tcell.StyleDefault
	styleObstacle = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleTarget   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleRobot    = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)
)

// headings indexes glyphs by heading octant. Screen rows grow downwards, so
// positive angles turn clockwise on screen.
var headings = [8]rune{'→', '↘', '↓', '↙', '←', '↖', '↑', '↗'}

// Viewer draws the field, the target and the robot, and redraws on every
// engine change.
type Viewer struct {
	screen tcell.Screen
	ctrl   Controller
	logger log.Log
	dirty  chan struct{}
}

// New wraps an initialised screen. The caller keeps ownership of the screen
// and calls Fini after Run returns.
func New(screen tcell.Screen, ctrl Controller, logger log.Log) *Viewer {
	return &Viewer{
		screen: screen,
		ctrl:   ctrl,
		logger: logger.With(log.String("component", "tui")),
		dirty:  make(chan struct{}, 1),
	}
}

// Run processes input and redraws until ctx is cancelled or the user quits.
func (v *Viewer) Run(ctx context.Context) error {
	stateSub, err := v.ctrl.Subscribe(func(engine.Snapshot) { v.invalidate() })
	if err != nil {
		return fmt.Errorf("subscribe to state changes: %w", err)
	}
	defer stateSub.Cancel()
	fieldSub, err := v.ctrl.SubscribeField(func(engine.FieldChange) { v.invalidate() })
	if err != nil {
		return fmt.Errorf("subscribe to field changes: %w", err)
	}
	defer fieldSub.Cancel()

	v.screen.EnableMouse()
	defer v.screen.DisableMouse()

	events := make(chan tcell.Event, 64)
	quit := make(chan struct{})
	polled := make(chan struct{})
	go func() {
		defer close(polled)
		v.screen.ChannelEvents(events, quit)
	}()
	defer func() {
		close(quit)
		<-polled
	}()

	v.logger.Debug("Viewer started")
	v.draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !v.handle(ev) {
				v.logger.Debug("Viewer closed by user")
				return nil
			}
		case <-v.dirty:
			v.draw()
		}
	}
}

func (v *Viewer) invalidate() {
	select {
	case v.dirty <- struct{}{}:
	default:
	}
}

// handle applies one input event; false means quit.
func (v *Viewer) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
			return false
		case ev.Key() == tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case 'o':
				v.ctrl.SetObstacleMode(!v.ctrl.Snapshot().ObstacleMode)
			case 'r':
				v.ctrl.Reset()
			}
		}
	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 != 0 {
			x, y := ev.Position()
			v.ctrl.SetTarget(physics.Vec2(float64(x)+0.5, float64(y)+0.5))
		}
	case *tcell.EventResize:
		v.screen.Sync()
		v.invalidate()
	}
	return true
}

func (v *Viewer) draw() {
	v.screen.Clear()
	width, height := v.screen.Size()
	snap := v.ctrl.Snapshot()

	if grid, ok := v.ctrl.Field(); ok {
		for y := 0; y < grid.Height() && y < height-1; y++ {
			for x := 0; x < grid.Width() && x < width; x++ {
				if grid.HasObstacle(x, y) {
					v.screen.SetContent(x, y, '#', nil, styleObstacle)
				} else {
					v.screen.SetContent(x, y, '.', nil, styleFloor)
				}
			}
		}
	}

	if tx, ty := snap.Target.Cell(); v.visible(tx, ty, width, height) {
		v.screen.SetContent(tx, ty, 'x', nil, styleTarget)
	}
	if rx, ry := snap.Pose.Position.Cell(); v.visible(rx, ry, width, height) {
		v.screen.SetContent(rx, ry, Heading(snap.Pose.Direction), nil, styleRobot)
	}

	mode := "off"
	if snap.ObstacleMode {
		mode = "on"
	}
	status := fmt.Sprintf(" tick %d  pos %s  target %s  obstacles %s  [click] target [o]bstacles [r]eset [q]uit",
		snap.Tick, snap.Pose.Position, snap.Target, mode)
	for x := 0; x < width; x++ {
		r := ' '
		if x < len(status) {
			r = rune(status[x])
		}
		v.screen.SetContent(x, height-1, r, nil, styleStatus)
	}

	v.screen.Show()
}

// visible keeps the status row free.
func (v *Viewer) visible(x, y, width, height int) bool {
	return x >= 0 && y >= 0 && x < width && y < height-1
}

// Heading picks the arrow closest to direction.
func Heading(direction float64) rune {
	octant := int(math.Round(physics.NormalizeRadians(direction)/(math.Pi/4))) % 8
	return headings[octant]
}
