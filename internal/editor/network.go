package editor

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/Swind/go-tasklet/core"
	"github.com/Swind/go-tasklet/host"
)

// VertexRecord is a saved vertex.
type VertexRecord struct {
	ID VertexID `yaml:"id"`
	X  float64  `yaml:"x"`
	Y  float64  `yaml:"y"`
}

// EdgeRecord is a saved edge.
type EdgeRecord struct {
	A VertexID `yaml:"a"`
	B VertexID `yaml:"b"`
}

// Network is a saved graph.
type Network struct {
	Start    VertexID       `yaml:"start"`
	Goal     VertexID       `yaml:"goal"`
	Vertices []VertexRecord `yaml:"vertices"`
	Edges    []EdgeRecord   `yaml:"edges"`
}

// Snapshot captures the current graph.
func (e *Editor) Snapshot() *Network {
	n := &Network{Start: e.start.ID, Goal: e.goal.ID}
	for _, v := range e.vertices {
		n.Vertices = append(n.Vertices, VertexRecord{ID: v.ID, X: v.Pos.X, Y: v.Pos.Y})
	}
	for _, edge := range e.edges {
		n.Edges = append(n.Edges, EdgeRecord{A: edge.A, B: edge.B})
	}
	return n
}

// Encode writes n as YAML.
func (n *Network) Encode(w io.Writer) error {
	data, err := yaml.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode network: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// DecodeNetwork reads and validates a YAML network.
func DecodeNetwork(r io.Reader) (*Network, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read network: %w", err)
	}
	var n Network
	if err := yaml.UnmarshalStrict(data, &n); err != nil {
		return nil, fmt.Errorf("decode network: %w", err)
	}
	if err := n.validate(); err != nil {
		return nil, err
	}
	return &n, nil
}

func (n *Network) validate() error {
	ids := make(map[VertexID]bool, len(n.Vertices))
	for _, v := range n.Vertices {
		if ids[v.ID] {
			return fmt.Errorf("duplicate vertex %d", v.ID)
		}
		ids[v.ID] = true
	}
	if !ids[n.Start] || !ids[n.Goal] {
		return fmt.Errorf("start %d or goal %d is not a vertex", n.Start, n.Goal)
	}
	if n.Start == n.Goal {
		return fmt.Errorf("start and goal are the same vertex %d", n.Start)
	}
	for i, edge := range n.Edges {
		if !ids[edge.A] || !ids[edge.B] {
			return fmt.Errorf("edge %d references unknown vertex", i)
		}
	}
	return nil
}

// FileSaver returns a save function that writes the network to path.
func FileSaver(path string) func(*Network) error {
	return func(n *Network) error {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("save network: %w", err)
		}
		if err := n.Encode(f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
}

// NewFromNetwork creates an editor restored from n. Options.Start and Options.Goal are ignored.
// n must come from DecodeNetwork or Snapshot.
func NewFromNetwork(events *core.Channel[host.Event], n *Network, opts Options) *Editor {
	e := &Editor{
		events: events,
		logger: opts.Logger,
		save:   opts.Save,
	}
	if e.logger == nil {
		e.logger = &core.NoOpLogger{}
	}
	for _, rec := range n.Vertices {
		v := &Vertex{ID: rec.ID, Pos: host.Vec2{X: rec.X, Y: rec.Y}}
		e.vertices = append(e.vertices, v)
		if rec.ID > e.nextID {
			e.nextID = rec.ID
		}
		switch rec.ID {
		case n.Start:
			e.start = v
		case n.Goal:
			e.goal = v
		}
	}
	for _, rec := range n.Edges {
		e.edges = append(e.edges, Edge{A: rec.A, B: rec.B})
	}
	return e
}
