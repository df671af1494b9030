// Package editor implements an interactive graph editor driven by host events.
//
// The editor runs as one tasklet receiving host.Event values from a channel.
// Modal interactions (dragging a vertex, drawing an edge) are nested receive
// loops rather than explicit state flags: the mode is where the code is waiting.
package editor

import (
	"errors"

	"github.com/Swind/go-tasklet/core"
	"github.com/Swind/go-tasklet/host"
)

// VertexID identifies a vertex for the lifetime of an editor.
type VertexID int

// Vertex is a graph vertex.
type Vertex struct {
	ID  VertexID
	Pos host.Vec2
}

// Edge connects two vertices.
type Edge struct {
	A, B VertexID
}

// Options configures a new editor.
type Options struct {
	Start, Goal host.Vec2
	Logger      core.Logger
	// Save is called with a snapshot when Return is pressed. Nil disables saving.
	Save func(*Network) error
}

// Editor holds the graph and interaction state. It is owned by the tasklet running Run;
// other code may read it only while that tasklet is not running.
type Editor struct {
	events *core.Channel[host.Event]
	logger core.Logger
	save   func(*Network) error

	vertices []*Vertex
	edges    []Edge
	start    *Vertex
	goal     *Vertex
	nextID   VertexID

	mousePos *host.Vec2
	closest  *Vertex
	origin   *Vertex
	target   *Vertex

	// dirty is set whenever the graph changes shape.
	dirty bool
}

// New creates an editor with only the start and goal vertices.
func New(events *core.Channel[host.Event], opts Options) *Editor {
	e := &Editor{
		events: events,
		logger: opts.Logger,
		save:   opts.Save,
	}
	if e.logger == nil {
		e.logger = &core.NoOpLogger{}
	}
	e.start = e.addVertex(opts.Start)
	e.goal = e.addVertex(opts.Goal)
	return e
}

// Run consumes events until the host closes. It is a core.Computation.
func (e *Editor) Run() error {
	for {
		evt, err := e.events.Receive()
		if err != nil {
			return closed(err)
		}
		switch evt := evt.(type) {
		case host.Motion:
			e.trackMouse(evt.Pos)
			e.closest = e.closestVertex(evt.Pos, nil)
		case host.Press:
			if err := e.handlePress(evt); err != nil {
				return closed(err)
			}
		case host.Key:
			e.handleKey(evt.Code)
		}
	}
}

func (e *Editor) handlePress(evt host.Press) error {
	switch evt.Button {
	case host.ButtonRight:
		v := e.addVertex(evt.Pos)
		e.logger.Debug("vertex added", core.F("vertex", v.ID))
		return nil
	case host.ButtonLeft:
		return e.drag(evt.Pos)
	case host.ButtonMiddle:
		return e.connect(evt.Pos)
	}
	return nil
}

// drag moves the vertex closest to from along with the pointer until a release.
func (e *Editor) drag(from host.Vec2) error {
	e.closest = e.closestVertex(from, nil)
	if e.closest == nil {
		return nil
	}
	initial := e.closest.Pos
	for {
		evt, err := e.events.Receive()
		if err != nil {
			return err
		}
		switch evt := evt.(type) {
		case host.Motion:
			e.trackMouse(evt.Pos)
			e.closest.Pos = initial.Add(evt.Pos.Sub(from))
		case host.Release:
			e.dirty = true
			return nil
		}
	}
}

// connect draws an edge from the vertex closest to from. A middle release adds
// the edge to the vertex closest to the release point; any press cancels.
func (e *Editor) connect(from host.Vec2) error {
	e.origin = e.closestVertex(from, nil)
	defer func() { e.origin, e.target = nil, nil }()

	for {
		evt, err := e.events.Receive()
		if err != nil {
			return err
		}
		switch evt := evt.(type) {
		case host.Press:
			return nil
		case host.Release:
			if evt.Button != host.ButtonMiddle {
				continue
			}
			if dest := e.closestVertex(evt.Pos, e.origin); dest != nil && e.origin != nil {
				e.addEdge(e.origin.ID, dest.ID)
			}
			return nil
		case host.Motion:
			e.trackMouse(evt.Pos)
			e.target = e.closestVertex(evt.Pos, e.origin)
		}
	}
}

func (e *Editor) handleKey(code host.KeyCode) {
	switch code {
	case host.KeyDelete:
		if e.closest == nil || e.closest == e.start || e.closest == e.goal {
			return
		}
		e.removeVertex(e.closest.ID)
		e.closest = nil
	case host.KeyBackspace:
		if e.mousePos == nil {
			return
		}
		if i := e.closestEdge(*e.mousePos); i >= 0 {
			e.removeEdge(i)
		}
	case host.KeyReturn:
		if e.save == nil {
			return
		}
		if err := e.save(e.Snapshot()); err != nil {
			e.logger.Error("save network failed", core.F("error", err))
		}
	}
}

func (e *Editor) trackMouse(p host.Vec2) {
	e.mousePos = &p
}

func (e *Editor) addVertex(p host.Vec2) *Vertex {
	e.nextID++
	v := &Vertex{ID: e.nextID, Pos: p}
	e.vertices = append(e.vertices, v)
	return v
}

func (e *Editor) removeVertex(id VertexID) {
	for i, v := range e.vertices {
		if v.ID == id {
			e.vertices = append(e.vertices[:i], e.vertices[i+1:]...)
			break
		}
	}
	kept := e.edges[:0]
	for _, edge := range e.edges {
		if edge.A != id && edge.B != id {
			kept = append(kept, edge)
		}
	}
	e.edges = kept
	e.dirty = true
	e.logger.Debug("vertex removed", core.F("vertex", id))
}

func (e *Editor) addEdge(a, b VertexID) {
	e.edges = append(e.edges, Edge{A: a, B: b})
	e.dirty = true
}

func (e *Editor) removeEdge(i int) {
	e.edges = append(e.edges[:i], e.edges[i+1:]...)
	e.dirty = true
}

// closestVertex returns the vertex nearest to p, skipping exclude. Ties keep the earliest vertex.
func (e *Editor) closestVertex(p host.Vec2, exclude *Vertex) *Vertex {
	var best *Vertex
	bestDist := 0.0
	for _, v := range e.vertices {
		if v == exclude {
			continue
		}
		if d := v.Pos.SquareDist(p); best == nil || d < bestDist {
			best, bestDist = v, d
		}
	}
	return best
}

// closestEdge returns the index of the edge whose midpoint is nearest to p, or -1.
func (e *Editor) closestEdge(p host.Vec2) int {
	best := -1
	bestDist := 0.0
	for i, edge := range e.edges {
		a, b := e.Vertex(edge.A), e.Vertex(edge.B)
		if a == nil || b == nil {
			continue
		}
		mid := a.Pos.Add(b.Pos).Scale(0.5)
		if d := mid.SquareDist(p); best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Vertex returns the vertex with id, or nil.
func (e *Editor) Vertex(id VertexID) *Vertex {
	for _, v := range e.vertices {
		if v.ID == id {
			return v
		}
	}
	return nil
}

// Vertices returns the vertices in creation order.
func (e *Editor) Vertices() []Vertex {
	out := make([]Vertex, len(e.vertices))
	for i, v := range e.vertices {
		out[i] = *v
	}
	return out
}

// Edges returns the edges in creation order.
func (e *Editor) Edges() []Edge {
	return append([]Edge(nil), e.edges...)
}

// Start returns the start vertex id.
func (e *Editor) Start() VertexID { return e.start.ID }

// Goal returns the goal vertex id.
func (e *Editor) Goal() VertexID { return e.goal.ID }

// Closest returns the highlighted vertex, if any.
func (e *Editor) Closest() (VertexID, bool) {
	if e.closest == nil {
		return 0, false
	}
	return e.closest.ID, true
}

// Pending returns the origin and current target of an edge being drawn.
func (e *Editor) Pending() (origin, target VertexID, ok bool) {
	if e.origin == nil {
		return 0, 0, false
	}
	if e.target != nil {
		target = e.target.ID
	}
	return e.origin.ID, target, true
}

// Dirty reports whether the graph changed since the last ClearDirty.
func (e *Editor) Dirty() bool { return e.dirty }

// ClearDirty resets the change flag.
func (e *Editor) ClearDirty() { e.dirty = false }

// closed maps the host close signal to a clean exit.
func closed(err error) error {
	if errors.Is(err, host.ErrHostClosed) {
		return nil
	}
	return err
}
