package host

import "fmt"

// Vec2 is a position in window coordinates.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v * k.
func (v Vec2) Scale(k float64) Vec2 { return Vec2{v.X * k, v.Y * k} }

// SquareDist returns the squared euclidean distance between v and o.
func (v Vec2) SquareDist(o Vec2) float64 {
	dx, dy := v.X-o.X, v.Y-o.Y
	return dx*dx + dy*dy
}

func (v Vec2) String() string {
	return fmt.Sprintf("(%g, %g)", v.X, v.Y)
}

// Button identifies a mouse button.
type Button int

const (
	ButtonLeft Button = iota + 1
	ButtonMiddle
	ButtonRight
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	default:
		return "unknown"
	}
}

// KeyCode identifies a key. Printable keys use their rune value.
type KeyCode int

// Named keys live above the Unicode range so they never collide with runes.
const (
	KeyDelete KeyCode = 0x110000 + iota
	KeyBackspace
	KeyReturn
)

func (k KeyCode) String() string {
	switch k {
	case KeyDelete:
		return "delete"
	case KeyBackspace:
		return "backspace"
	case KeyReturn:
		return "return"
	default:
		return string(rune(k))
	}
}

// Event is a host input record. The set of variants is closed: Motion, Press,
// Release and Key.
type Event interface {
	isEvent()
}

// Motion reports the pointer at Pos. Drags are delivered as Motion too.
type Motion struct {
	Pos Vec2
}

// Press reports Button going down at Pos.
type Press struct {
	Pos    Vec2
	Button Button
}

// Release reports Button going up at Pos.
type Release struct {
	Pos    Vec2
	Button Button
}

// Key reports a key press.
type Key struct {
	Code KeyCode
}

func (Motion) isEvent()  {}
func (Press) isEvent()   {}
func (Release) isEvent() {}
func (Key) isEvent()     {}
