// Package mdl reads and writes the text MDL scene-graph format and its
// walkmesh companions (pwk, dwk, wok).
package mdl

import (
	"fmt"
	"strings"
)

// Null is the sentinel written for "no parent" and "no supermodel".
const Null = "NULL"

// Classification is the model's usage category.
type Classification int

// Classification values.
const (
	ClassUnknown Classification = iota
	ClassTile
	ClassCharacter
	ClassDoor
	ClassEffect
	ClassGUI
	ClassItem
)

var classificationNames = [...]string{
	ClassUnknown:   "UNKNOWN",
	ClassTile:      "TILE",
	ClassCharacter: "CHARACTER",
	ClassDoor:      "DOOR",
	ClassEffect:    "EFFECT",
	ClassGUI:       "GUI",
	ClassItem:      "ITEM",
}

// String returns the on-disk (uppercase) name.
func (c Classification) String() string {
	if c < 0 || int(c) >= len(classificationNames) {
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
	return classificationNames[c]
}

// ParseClassification maps a case-insensitive name to a Classification.
// Unrecognized names yield ClassUnknown.
func ParseClassification(s string) Classification {
	s = strings.ToUpper(s)
	for i, name := range classificationNames {
		if name == s {
			return Classification(i)
		}
	}
	return ClassUnknown
}

// Model is a parsed or host-built MDL model.
type Model struct {
	Name           string
	SuperModel     string // Null when the model has no supermodel
	Classification Classification
	AnimationScale float64
	Nodes          []*Node // root first, in declaration order
	Animations     []*Animation
}

// NewModel returns an empty model with format defaults.
func NewModel(name string) *Model {
	return &Model{
		Name:           name,
		SuperModel:     Null,
		Classification: ClassUnknown,
		AnimationScale: 1,
	}
}

// Root returns the first node, or nil for an empty model.
func (m *Model) Root() *Node {
	if len(m.Nodes) == 0 {
		return nil
	}
	return m.Nodes[0]
}

// AddNode appends n and returns it.
func (m *Model) AddNode(n *Node) *Node {
	m.Nodes = append(m.Nodes, n)
	return n
}

// FindNode returns the index of the node called name under parent. When no
// node matches both, the declaration of name nearest before index `before`
// wins, then the first declaration after it. Returns -1 when name is unknown.
func (m *Model) FindNode(name, parent string, before int) int {
	return findNode(m.Nodes, name, parent, before)
}

// Node returns the node called name, preferring the one under parent.
func (m *Model) Node(name, parent string) *Node {
	if i := m.FindNode(name, parent, len(m.Nodes)); i >= 0 {
		return m.Nodes[i]
	}
	return nil
}

// Children returns the nodes whose parent resolves to the node at index i,
// in declaration order.
func (m *Model) Children(i int) []*Node {
	parents := resolveParents(m.Nodes)
	var out []*Node
	for j, p := range parents {
		if p == i {
			out = append(out, m.Nodes[j])
		}
	}
	return out
}

// Animation returns the animation with the given name (case-insensitive).
func (m *Model) Animation(name string) *Animation {
	for _, a := range m.Animations {
		if strings.EqualFold(a.Name, name) {
			return a
		}
	}
	return nil
}

// TotalVertexCount returns the number of vertices across all mesh nodes.
func (m *Model) TotalVertexCount() int {
	total := 0
	for _, n := range m.Nodes {
		if n.Mesh != nil {
			total += len(n.Mesh.Verts)
		}
	}
	return total
}

// TotalFaceCount returns the number of faces across all mesh nodes.
func (m *Model) TotalFaceCount() int {
	total := 0
	for _, n := range m.Nodes {
		if n.Mesh != nil {
			total += len(n.Mesh.Faces)
		}
	}
	return total
}

// findNode implements the name lookup shared by the model and walkmesh.
// Names compare case-insensitively, as labels do.
func findNode(nodes []*Node, name, parent string, before int) int {
	for i, n := range nodes {
		if strings.EqualFold(n.Name, name) && strings.EqualFold(n.Parent, parent) {
			return i
		}
	}
	nearest := -1
	for i, n := range nodes {
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

// resolveParents maps every node to the index of its parent, -1 for the
// sentinel and -2 for an unresolved name. A parent must be declared before
// its child; among several earlier nodes of that name the nearest wins.
func resolveParents(nodes []*Node) []int {
	out := make([]int, len(nodes))
	for i, n := range nodes {
		if isNull(n.Parent) {
			out[i] = -1
			continue
		}
		out[i] = -2
		for j := i - 1; j >= 0; j-- {
			if strings.EqualFold(nodes[j].Name, n.Parent) {
				out[i] = j
				break
			}
		}
	}
	return out
}

// isNull reports whether s is the no-parent sentinel. Exporters disagree on
// spelling, so "none" and an empty string count too.
func isNull(s string) bool {
	return s == "" || strings.EqualFold(s, Null) || strings.EqualFold(s, "none")
}
