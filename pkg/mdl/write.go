package mdl

import (
	"fmt"
	"io"
	"os"
)

// Write serializes m as MDL text. The model is validated and the whole
// document is rendered in memory first, so a fatal error leaves w untouched.
func Write(w io.Writer, m *Model, opts *Options) error {
	data, err := Marshal(m, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteFile serializes m to path.
func WriteFile(path string, m *Model, opts *Options) error {
	data, err := Marshal(m, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing MDL file: %w", err)
	}
	return nil
}

// Marshal renders m as MDL text.
func Marshal(m *Model, opts *Options) ([]byte, error) {
	opts = opts.normalize()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("model %q: %w", m.Name, err)
	}
	w := newWriter(opts, m.Name)
	order := depthFirst(m.Nodes)

	w.line(0, "#MAXMODEL ASCII")
	w.line(0, "newmodel", m.Name)
	w.line(0, "setsupermodel", m.Name, orNull(m.SuperModel))
	w.line(0, "classification", m.Classification.String())
	w.line(0, "setanimationscale", ff(m.AnimationScale, precTransform))
	w.line(0, "beginmodelgeom", m.Name)
	for _, n := range order {
		w.node(n)
	}
	w.line(0, "endmodelgeom", m.Name)

	if opts.ExportAnimations {
		for _, a := range m.Animations {
			w.animation(m, a, order)
		}
	}
	w.line(0, "donemodel", m.Name)
	return []byte(w.b.String()), nil
}

// animation writes one animation block. Every geometry node is re-emitted in
// structural order, with or without tracks.
func (w *writer) animation(m *Model, a *Animation, order []*Node) {
	fps := w.opts.FPS
	w.line(0, "newanim", a.Name, m.Name)
	w.line(1, "length", ff(a.Length, precTransform))
	w.line(1, "transtime", ff(a.TransTime, precTransform))
	w.line(1, "animroot", orNull(a.Root))
	for _, e := range a.Events {
		w.line(1, "event", ftime(TimeForFrame(e.Frame, fps)), e.Name)
	}
	for _, n := range order {
		w.line(1, "node", n.Type.String(), n.Name)
		w.line(2, "parent", orNull(n.Parent))
		if an := a.findNodeFor(n, m.Nodes); an != nil {
			for _, kv := range an.Tracks.Order {
				w.track(kv.Value)
			}
		}
		w.line(1, "endnode")
	}
	w.line(0, "doneanim", a.Name, m.Name)
}

// findNodeFor matches a geometry node to its animation node.
func (a *Animation) findNodeFor(n *Node, nodes []*Node) *AnimNode {
	before := len(nodes)
	for i, g := range nodes {
		if g == n {
			before = i
			break
		}
	}
	if i := a.findNode(n.Name, n.Parent, before); i >= 0 {
		return a.Nodes[i]
	}
	return nil
}

// track writes a single-key track as a static field and anything longer as
// a counted key list closed by endlist.
func (w *writer) track(t *Track) {
	if t.Len() == 0 {
		return
	}
	prec := channelPrecision(t.Channel)
	if t.IsStatic() {
		w.line(2, t.Channel, fvec(prec, toDisk(t.Channel, t.Keys.Order[0].Value)...))
		return
	}
	w.line(2, t.Channel+"key", fmt.Sprint(t.Len()))
	for _, kv := range t.Keys.Order {
		w.line(3, ftime(TimeForFrame(kv.Key, w.opts.FPS)), fvec(prec, toDisk(t.Channel, kv.Value)...))
	}
	w.line(2, "endlist")
}
