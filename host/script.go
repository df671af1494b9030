package host

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v2"
)

// ScriptEvent is one recorded host callback in a YAML event script.
type ScriptEvent struct {
	Type   string  `yaml:"type"`
	X      float64 `yaml:"x,omitempty"`
	Y      float64 `yaml:"y,omitempty"`
	Button string  `yaml:"button,omitempty"`
	Key    string  `yaml:"key,omitempty"`
}

// Script is a recorded sequence of host callbacks.
//
//	events:
//	  - {type: motion, x: 10, y: 20}
//	  - {type: press, x: 10, y: 20, button: left}
//	  - {type: drag, x: 40, y: 25}
//	  - {type: release, x: 40, y: 25, button: left}
//	  - {type: key, key: delete}
type Script struct {
	Events []ScriptEvent `yaml:"events"`
}

// LoadScript decodes and validates a YAML script.
func LoadScript(r io.Reader) (*Script, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	var s Script
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScriptFile loads a YAML script from path.
func LoadScriptFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	s, err := LoadScript(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Validate checks every event type, button and key name.
func (s *Script) Validate() error {
	for i, e := range s.Events {
		if err := e.validate(); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}

// Encode writes s as YAML.
func (s *Script) Encode(w io.Writer) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode script: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func (e ScriptEvent) validate() error {
	switch e.Type {
	case "motion", "drag":
		return nil
	case "press", "release":
		_, err := ParseButton(e.Button)
		return err
	case "key":
		_, err := ParseKey(e.Key)
		return err
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
}

// dispatch calls the Handler method matching e. e must be valid.
func (e ScriptEvent) dispatch(h Handler) {
	switch e.Type {
	case "motion":
		h.OnMouseMotion(e.X, e.Y)
	case "drag":
		h.OnMouseDrag(e.X, e.Y)
	case "press":
		b, _ := ParseButton(e.Button)
		h.OnMousePress(e.X, e.Y, b)
	case "release":
		b, _ := ParseButton(e.Button)
		h.OnMouseRelease(e.X, e.Y, b)
	case "key":
		k, _ := ParseKey(e.Key)
		h.OnKeyPress(k)
	}
}

// ParseButton parses left, middle or right.
func ParseButton(name string) (Button, error) {
	switch strings.ToLower(name) {
	case "left":
		return ButtonLeft, nil
	case "middle":
		return ButtonMiddle, nil
	case "right":
		return ButtonRight, nil
	default:
		return 0, fmt.Errorf("unknown button %q", name)
	}
}

// ParseKey parses delete, backspace, return, or a single character.
func ParseKey(name string) (KeyCode, error) {
	switch strings.ToLower(name) {
	case "delete":
		return KeyDelete, nil
	case "backspace":
		return KeyBackspace, nil
	case "return", "enter":
		return KeyReturn, nil
	}
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		return KeyCode(r), nil
	}
	return 0, fmt.Errorf("unknown key %q", name)
}

// ScriptSource replays a Script, one event per poll.
type ScriptSource struct {
	script *Script
	next   int
}

// NewScriptSource creates a source replaying s from the start.
func NewScriptSource(s *Script) *ScriptSource {
	return &ScriptSource{script: s}
}

// PollEvents delivers the next event. It reports false once the script is exhausted.
func (src *ScriptSource) PollEvents(h Handler) bool {
	if src.next >= len(src.script.Events) {
		return false
	}
	e := src.script.Events[src.next]
	src.next++
	e.dispatch(h)
	return true
}

// Remaining returns the number of events not yet delivered.
func (src *ScriptSource) Remaining() int {
	return len(src.script.Events) - src.next
}

var _ Source = (*ScriptSource)(nil)
