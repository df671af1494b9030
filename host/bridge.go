package host

import (
	"errors"

	"github.com/Swind/go-tasklet/core"
)

// ErrHostClosed is sent through the event channel when the host stops producing events.
var ErrHostClosed = errors.New("host closed")

// Handler receives host input callbacks.
type Handler interface {
	OnMouseMotion(x, y float64)
	OnMouseDrag(x, y float64)
	OnMousePress(x, y float64, button Button)
	OnMouseRelease(x, y float64, button Button)
	OnKeyPress(code KeyCode)
}

// Source is a host event loop that can be driven one step at a time.
// PollEvents delivers any pending events to h and reports whether the
// host is still open.
type Source interface {
	PollEvents(h Handler) (open bool)
}

// Bridge turns host callbacks into Event sends on a channel.
// Its callbacks must run inside a tasklet of the channel's scheduler, since
// each send blocks until the consumer takes the event.
type Bridge struct {
	events *core.Channel[Event]
}

// NewBridge creates a bridge sending on events.
func NewBridge(events *core.Channel[Event]) *Bridge {
	return &Bridge{events: events}
}

// Events returns the channel the bridge sends on.
func (b *Bridge) Events() *core.Channel[Event] {
	return b.events
}

func (b *Bridge) OnMouseMotion(x, y float64) {
	b.events.Send(Motion{Pos: Vec2{x, y}})
}

// OnMouseDrag is reported as Motion; the consumer tracks button state itself.
func (b *Bridge) OnMouseDrag(x, y float64) {
	b.events.Send(Motion{Pos: Vec2{x, y}})
}

func (b *Bridge) OnMousePress(x, y float64, button Button) {
	b.events.Send(Press{Pos: Vec2{x, y}, Button: button})
}

func (b *Bridge) OnMouseRelease(x, y float64, button Button) {
	b.events.Send(Release{Pos: Vec2{x, y}, Button: button})
}

func (b *Bridge) OnKeyPress(code KeyCode) {
	b.events.Send(Key{Code: code})
}

// Close tells the consumer the host is gone.
func (b *Bridge) Close() {
	b.events.SendError(ErrHostClosed)
}

var _ Handler = (*Bridge)(nil)

// Pump returns a computation that drives src until it closes, then closes the bridge.
// After every yieldEvery polls it calls Schedule so other ready tasklets get a turn;
// yieldEvery <= 0 yields after every poll.
func Pump(sched *core.Scheduler, src Source, bridge *Bridge, yieldEvery int) core.Computation {
	if yieldEvery <= 0 {
		yieldEvery = 1
	}
	return func() error {
		polls := 0
		for src.PollEvents(bridge) {
			polls++
			if polls%yieldEvery == 0 {
				sched.Schedule()
			}
		}
		bridge.Close()
		return nil
	}
}

// Consume returns a computation that receives events and passes them to handle
// until the host closes. Any other error, from the channel or from handle, ends it.
func Consume(events *core.Channel[Event], handle func(Event) error) core.Computation {
	return func() error {
		for {
			evt, err := events.Receive()
			if errors.Is(err, ErrHostClosed) {
				return nil
			}
			if err != nil {
				return err
			}
			if err := handle(evt); err != nil {
				return err
			}
		}
	}
}
