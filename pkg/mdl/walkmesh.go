package mdl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// WalkmeshKind selects the walkmesh flavour.
type WalkmeshKind int

// Walkmesh kinds.
const (
	WalkmeshPlaceable WalkmeshKind = iota // pwk
	WalkmeshDoor                          // dwk
	WalkmeshTile                          // wok
)

// String returns the file extension without the dot.
func (k WalkmeshKind) String() string {
	switch k {
	case WalkmeshPlaceable:
		return "pwk"
	case WalkmeshDoor:
		return "dwk"
	case WalkmeshTile:
		return "wok"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// RootName returns the synthesized root dummy name for a model base name.
func (k WalkmeshKind) RootName(base string) string {
	return base + "_" + k.String()
}

// WalkmeshKindFor returns the kind a model of classification c exports.
func WalkmeshKindFor(c Classification) WalkmeshKind {
	switch c {
	case ClassTile:
		return WalkmeshTile
	case ClassDoor:
		return WalkmeshDoor
	default:
		return WalkmeshPlaceable
	}
}

// ParseWalkmeshKind maps a file extension (".pwk", "dwk", ...) to a kind.
func ParseWalkmeshKind(ext string) (WalkmeshKind, bool) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "pwk":
		return WalkmeshPlaceable, true
	case "dwk":
		return WalkmeshDoor, true
	case "wok":
		return WalkmeshTile, true
	}
	return 0, false
}

// Walkmesh is the collision geometry companion of a model. For pwk and dwk,
// Nodes hangs off an implicit root named Kind.RootName(Name), which is not
// part of Nodes. For wok, Nodes holds only the aabb node(s).
type Walkmesh struct {
	Kind  WalkmeshKind
	Name  string
	Nodes []*Node
}

// Root returns the synthesized root dummy for pwk and dwk walkmeshes.
func (wm *Walkmesh) Root() *Node {
	return NewNode(NodeDummy, wm.Kind.RootName(wm.Name), Null)
}

// ParseWalkmesh reads a walkmesh file. name is the model base name used for
// the synthesized root when the file does not carry a newmodel header.
func ParseWalkmesh(r io.Reader, kind WalkmeshKind, name string, opts *Options) (*Walkmesh, error) {
	opts = opts.normalize()
	sc, err := scan(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", kind, err)
	}
	p := newParser(sc, opts, true, name)
	if err := p.run(); err != nil {
		return nil, err
	}
	if name == "" {
		name = p.model.Name
	}
	wm := &Walkmesh{Kind: kind, Name: name}

	if kind == WalkmeshTile {
		for _, n := range p.model.Nodes {
			if n.Type == NodeAABB {
				wm.Nodes = append(wm.Nodes, n)
			}
		}
		if len(wm.Nodes) == 0 {
			return nil, fmt.Errorf("%w: %s %q has no aabb node", ErrMissingField, kind, name)
		}
		return wm, nil
	}

	root := kind.RootName(name)
	wm.Nodes = p.model.Nodes
	for i, n := range p.model.Nodes {
		if strings.EqualFold(n.Name, root) && n.Type == NodeDummy {
			if !n.IsRoot() {
				return nil, fmt.Errorf("%w: walkmesh root %q has parent %q", ErrBadRoot, n.Name, n.Parent)
			}
			// The file carries its own root; keep the hierarchy below it.
			wm.Nodes = append(append([]*Node{}, p.model.Nodes[:i]...), p.model.Nodes[i+1:]...)
			break
		}
	}
	for _, n := range wm.Nodes {
		if n.IsRoot() {
			n.Parent = root
		}
	}
	if err := validateNodes(wm.withRoot(), true); err != nil {
		return nil, fmt.Errorf("%s %q: %w", kind, name, err)
	}
	return wm, nil
}

// ParseWalkmeshFile reads a walkmesh, taking kind from the extension and
// the base name from the file name.
func ParseWalkmeshFile(path string, opts *Options) (*Walkmesh, error) {
	ext := filepath.Ext(path)
	kind, ok := ParseWalkmeshKind(ext)
	if !ok {
		return nil, fmt.Errorf("unknown walkmesh extension %q", ext)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading walkmesh file: %w", err)
	}
	defer f.Close()
	return ParseWalkmesh(f, kind, strings.TrimSuffix(filepath.Base(path), ext), opts)
}

// withRoot returns the nodes preceded by the synthesized root.
func (wm *Walkmesh) withRoot() []*Node {
	return append([]*Node{wm.Root()}, wm.Nodes...)
}

// ExtractWalkmesh builds the walkmesh a model exports. Tiles export their own
// aabb node(s), re-parented to the tile root. Other classifications export
// the secondary hierarchy: dummies and meshes (as trimesh) under a
// synthesized root, dropping lights, emitters and references.
func ExtractWalkmesh(m *Model, secondary []*Node, opts *Options) (*Walkmesh, error) {
	opts = opts.normalize()
	kind := WalkmeshKindFor(m.Classification)
	wm := &Walkmesh{Kind: kind, Name: m.Name}

	if kind == WalkmeshTile {
		for _, n := range m.Nodes {
			if n.Type != NodeAABB {
				continue
			}
			c := *n
			c.Parent = m.Name
			c.AABB = nil
			wm.Nodes = append(wm.Nodes, &c)
		}
		if len(wm.Nodes) == 0 {
			return nil, fmt.Errorf("%w: tile %q has no aabb node", ErrMissingField, m.Name)
		}
		return wm, nil
	}

	root := kind.RootName(m.Name)
	parents := resolveParents(secondary)
	kept := make(map[int]bool, len(secondary))
	for i, n := range secondary {
		var c *Node
		switch {
		case n.Type == NodeDummy || n.Type == NodePatch:
			c = NewNode(NodeDummy, n.Name, n.Parent)
		case n.Type.IsMesh():
			c = NewNode(NodeTrimesh, n.Name, n.Parent)
			c.Mesh = n.Mesh
		default:
			opts.Logger.Debug("dropping node from walkmesh",
				zap.String("node", n.Name), zap.String("type", n.Type.String()))
			continue
		}
		c.Position, c.Orientation, c.Scale, c.WireColor = n.Position, n.Orientation, n.Scale, n.WireColor

		// Climb to the nearest kept ancestor, or the walkmesh root.
		p := parents[i]
		for p >= 0 && !kept[p] {
			p = parents[p]
		}
		if p >= 0 {
			c.Parent = secondary[p].Name
		} else {
			c.Parent = root
		}
		kept[i] = true
		wm.Nodes = append(wm.Nodes, c)
	}
	return wm, nil
}

// WriteWalkmesh serializes a walkmesh: node blocks only, never animations.
// The pwk/dwk root is implicit and not written.
func WriteWalkmesh(w io.Writer, wm *Walkmesh, opts *Options) error {
	data, err := MarshalWalkmesh(wm, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// MarshalWalkmesh renders a walkmesh as text.
func MarshalWalkmesh(wm *Walkmesh, opts *Options) ([]byte, error) {
	opts = opts.normalize()
	w := newWriter(opts, wm.Name)
	w.line(0, "#MAXMODEL ASCII")

	if wm.Kind == WalkmeshTile {
		for _, n := range wm.Nodes {
			if n.Type != NodeAABB {
				return nil, fmt.Errorf("%w: tile walkmesh node %q is %v, not aabb", ErrMalformedModel, n.Name, n.Type)
			}
			if err := n.validatePayload(); err != nil {
				return nil, err
			}
			w.node(n)
		}
		return []byte(w.b.String()), nil
	}

	all := wm.withRoot()
	if err := validateNodes(all, true); err != nil {
		return nil, fmt.Errorf("%s %q: %w", wm.Kind, wm.Name, err)
	}
	for _, n := range depthFirst(all)[1:] {
		switch n.Type {
		case NodeDummy, NodeTrimesh, NodeAABB:
			w.node(n)
		default:
			return nil, fmt.Errorf("%w: walkmesh node %q is %v", ErrMalformedModel, n.Name, n.Type)
		}
	}
	return []byte(w.b.String()), nil
}
