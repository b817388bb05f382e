package mdl

import (
	"fmt"
	"strings"
)

// Validate checks the structural invariants the serializer relies on:
// the first node is a root, every parent names an earlier node, (name,
// parent) pairs are unique, each node carries its variant payload and face
// indices are in range.
func (m *Model) Validate() error {
	return validateNodes(m.Nodes, true)
}

func validateNodes(nodes []*Node, rootMustBeNull bool) error {
	if rootMustBeNull && len(nodes) > 0 && !nodes[0].IsRoot() {
		return fmt.Errorf("%w: %q has parent %q", ErrBadRoot, nodes[0].Name, nodes[0].Parent)
	}
	seen := make(map[[2]string]bool, len(nodes))
	parents := resolveParents(nodes)
	for i, n := range nodes {
		if n == nil {
			return fmt.Errorf("%w: nil node at index %d", ErrMalformedModel, i)
		}
		if parents[i] == -2 {
			return fmt.Errorf("%w: %q names parent %q", ErrUnresolvedParent, n.Name, n.Parent)
		}
		key := [2]string{strings.ToLower(n.Name), strings.ToLower(n.Parent)}
		if isNull(n.Parent) {
			key[1] = ""
		}
		if seen[key] {
			return fmt.Errorf("%w: %q under %q", ErrDuplicateNode, n.Name, n.Parent)
		}
		seen[key] = true
		if err := n.validatePayload(); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) validatePayload() error {
	missing := ""
	switch n.Type {
	case NodeDummy, NodePatch:
	case NodeReference:
		if n.Reference == nil {
			missing = "reference"
		}
	case NodeTrimesh, NodeAABB:
		if n.Mesh == nil {
			missing = "mesh"
		}
	case NodeDanglymesh:
		if n.Mesh == nil || n.Dangly == nil {
			missing = "danglymesh"
		}
	case NodeSkinmesh:
		if n.Mesh == nil || n.Skin == nil {
			missing = "skin"
		}
	case NodeEmitter:
		if n.Emitter == nil || n.Emitter.Fields == nil {
			missing = "emitter"
		}
	case NodeLight:
		if n.Light == nil {
			missing = "light"
		}
	default:
		return fmt.Errorf("%w: %q has type %v", ErrUnknownNodeType, n.Name, n.Type)
	}
	if missing != "" {
		return fmt.Errorf("%w: %q has no %s data", ErrMissingField, n.Name, missing)
	}
	if n.Mesh == nil {
		return nil
	}
	for i, f := range n.Mesh.Faces {
		for _, v := range f.Verts {
			if v < 0 || v >= len(n.Mesh.Verts) {
				return fmt.Errorf("%w: %q face %d references vertex %d of %d",
					ErrFaceIndex, n.Name, i, v, len(n.Mesh.Verts))
			}
		}
	}
	return nil
}

// depthFirst returns nodes in depth-first order: roots in declaration
// order, each followed by its children in declaration order.
func depthFirst(nodes []*Node) []*Node {
	parents := resolveParents(nodes)
	children := make(map[int][]int, len(nodes))
	for i, p := range parents {
		children[p] = append(children[p], i)
	}
	out := make([]*Node, 0, len(nodes))
	var visit func(i int)
	visit = func(i int) {
		out = append(out, nodes[i])
		for _, c := range children[i] {
			visit(c)
		}
	}
	for _, r := range children[-1] {
		visit(r)
	}
	return out
}
