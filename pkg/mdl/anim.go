package mdl

import (
	"slices"
	"strings"

	"cogentcore.org/core/base/ordmap"
)

// Event is a named marker inside an animation.
type Event struct {
	Frame int
	Name  string
}

// Track is one keyed channel: an ordered map from frame to value tuple.
// Orientation values are held as [angle, x, y, z].
type Track struct {
	Channel string
	Keys    *ordmap.Map[int, []float64]
}

// NewTrack returns an empty track for channel.
func NewTrack(channel string) *Track {
	return &Track{
		Channel: strings.ToLower(channel),
		Keys:    ordmap.New[int, []float64](),
	}
}

// Set stores the value at frame, replacing any earlier value for that frame.
func (t *Track) Set(frame int, values ...float64) {
	t.Keys.Add(frame, slices.Clone(values))
}

// Value returns the value at frame.
func (t *Track) Value(frame int) ([]float64, bool) {
	return t.Keys.ValueByKeyTry(frame)
}

// Len returns the number of keys.
func (t *Track) Len() int {
	return t.Keys.Len()
}

// IsStatic reports whether the track is written as a single-value field.
func (t *Track) IsStatic() bool {
	return t.Keys.Len() == 1
}

// Frames returns the keyed frames in track order.
func (t *Track) Frames() []int {
	return t.Keys.Keys()
}

// Dims returns the widest value tuple in the track.
func (t *Track) Dims() int {
	dims := 0
	for _, kv := range t.Keys.Order {
		dims = max(dims, len(kv.Value))
	}
	return dims
}

// SortFrames reorders the keys by ascending frame.
func (t *Track) SortFrames() {
	order := slices.Clone(t.Keys.Order)
	slices.SortStableFunc(order, func(a, b ordmap.KeyValue[int, []float64]) int {
		return a.Key - b.Key
	})
	t.Keys = ordmap.Make(order)
}

// AnimNode holds the tracks of one node inside an animation.
type AnimNode struct {
	Type   NodeType
	Name   string
	Parent string
	Tracks *ordmap.Map[string, *Track]
}

// NewAnimNode returns an animation node with no tracks.
func NewAnimNode(t NodeType, name, parent string) *AnimNode {
	if isNull(parent) {
		parent = Null
	}
	return &AnimNode{
		Type:   t,
		Name:   name,
		Parent: parent,
		Tracks: ordmap.New[string, *Track](),
	}
}

// Track returns the track for channel, or nil.
func (n *AnimNode) Track(channel string) *Track {
	t, _ := n.Tracks.ValueByKeyTry(strings.ToLower(channel))
	return t
}

// SetTrack stores t under its channel, replacing an existing track.
func (n *AnimNode) SetTrack(t *Track) {
	n.Tracks.Add(t.Channel, t)
}

// Animation is one named animation of a model.
type Animation struct {
	Name      string
	Length    float64 // seconds
	TransTime float64 // seconds
	Root      string
	Events    []Event
	Nodes     []*AnimNode
}

// NewAnimation returns an empty animation.
func NewAnimation(name, root string) *Animation {
	return &Animation{Name: name, Root: root, TransTime: 0.25}
}

// Node returns the animation node for (name, parent). When no node matches
// both, the nearest declaration of name wins; see Model.FindNode.
func (a *Animation) Node(name, parent string) *AnimNode {
	if i := a.findNode(name, parent, len(a.Nodes)); i >= 0 {
		return a.Nodes[i]
	}
	return nil
}

// AddNode returns the node for (name, parent), creating it when missing.
func (a *Animation) AddNode(t NodeType, name, parent string) *AnimNode {
	for _, n := range a.Nodes {
		if strings.EqualFold(n.Name, name) && strings.EqualFold(n.Parent, parent) {
			return n
		}
	}
	n := NewAnimNode(t, name, parent)
	a.Nodes = append(a.Nodes, n)
	return n
}

// SetCurves consolidates host curves and stores the resulting tracks on the
// node (name, parent).
func (a *Animation) SetCurves(t NodeType, name, parent string, sources []CurveSource, fps int) *AnimNode {
	n := a.AddNode(t, name, parent)
	tracks := Consolidate(sources, fps)
	for _, kv := range tracks.Order {
		n.SetTrack(kv.Value)
	}
	return n
}

// AddEvent appends an event at time t seconds.
func (a *Animation) AddEvent(t float64, name string, fps int) {
	a.Events = append(a.Events, Event{Frame: FrameForTime(t, fps), Name: name})
}

func (a *Animation) findNode(name, parent string, before int) int {
	for i, n := range a.Nodes {
		if strings.EqualFold(n.Name, name) && strings.EqualFold(n.Parent, parent) {
			return i
		}
	}
	nearest := -1
	for i, n := range a.Nodes {
		if !strings.EqualFold(n.Name, name) {
			continue
		}
		if i < before {
			nearest = i
			continue
		}
		if nearest < 0 {
			return i
		}
		break
	}
	return nearest
}
