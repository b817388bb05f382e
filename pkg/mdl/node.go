package mdl

import (
	"fmt"
	"strings"

	"cogentcore.org/core/base/ordmap"

	"github.com/Faultbox/midgard-mdl/pkg/math"
)

// NodeType is the closed set of node variants.
type NodeType int

// Node types.
const (
	NodeDummy NodeType = iota
	NodePatch
	NodeReference
	NodeTrimesh
	NodeDanglymesh
	NodeSkinmesh
	NodeEmitter
	NodeLight
	NodeAABB
)

var nodeTypeNames = [...]string{
	NodeDummy:      "dummy",
	NodePatch:      "patch",
	NodeReference:  "reference",
	NodeTrimesh:    "trimesh",
	NodeDanglymesh: "danglymesh",
	NodeSkinmesh:   "skin",
	NodeEmitter:    "emitter",
	NodeLight:      "light",
	NodeAABB:       "aabb",
}

// String returns the token written after "node".
func (t NodeType) String() string {
	if t < 0 || int(t) >= len(nodeTypeNames) {
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
	return nodeTypeNames[t]
}

// ParseNodeType maps a node type token to a NodeType. "skinmesh" is accepted
// as a spelling of "skin".
func ParseNodeType(s string) (NodeType, error) {
	s = strings.ToLower(s)
	if s == "skinmesh" {
		return NodeSkinmesh, nil
	}
	for i, name := range nodeTypeNames {
		if name == s {
			return NodeType(i), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownNodeType, s)
}

// IsMesh reports whether the type carries trimesh geometry.
func (t NodeType) IsMesh() bool {
	switch t {
	case NodeTrimesh, NodeDanglymesh, NodeSkinmesh, NodeAABB:
		return true
	}
	return false
}

// Face is a triangle with its smoothing group, texture vertices and material.
type Face struct {
	Verts       [3]int
	SmoothGroup int
	TVerts      [3]int
	Material    int
}

// Polygon is host geometry that may have more than three corners. It is
// only consulted on write, where it is triangulated into faces.
type Polygon struct {
	Verts       []int
	TVerts      []int
	SmoothGroup int
	Material    int
}

// Mesh holds the trimesh fields shared by every mesh variant.
type Mesh struct {
	Render           bool
	Shadow           bool
	Beaming          bool
	TileFade         int
	TransparencyHint int
	SelfIllumColor   math.Vec3
	Ambient          math.Vec3
	Diffuse          math.Vec3
	Specular         math.Vec3
	Shininess        float64
	Alpha            float64
	Bitmap           string
	Verts            []math.Vec3
	Faces            []Face
	TVerts           []math.Vec2
	Polygons         []Polygon
}

// NewMesh returns a mesh with the format defaults.
func NewMesh() *Mesh {
	return &Mesh{
		Render:    true,
		Shadow:    true,
		Ambient:   math.Vec3{X: 1, Y: 1, Z: 1},
		Diffuse:   math.Vec3{X: 1, Y: 1, Z: 1},
		Shininess: 1,
		Alpha:     1,
		Bitmap:    Null,
	}
}

// Dangly holds the danglymesh extension.
type Dangly struct {
	Period       float64
	Tightness    float64
	Displacement float64
	Constraints  []float64 // one per vertex, 0-255
}

// BoneWeight is one influence on a skinned vertex.
type BoneWeight struct {
	Bone   string
	Weight float64
}

// Skin holds the skinmesh extension. Weights need not sum to 1.
type Skin struct {
	Weights [][]BoneWeight // one list per vertex
}

// Flare is one lens flare of a light.
type Flare struct {
	Texture    string
	Size       float64
	Position   float64
	ColorShift math.Vec3
}

// Light holds the light fields.
type Light struct {
	Radius        float64
	Multiplier    float64
	Color         math.Vec3
	AmbientOnly   bool
	DynamicType   int
	AffectDynamic bool
	Shadow        bool
	Priority      int
	FadingLight   bool
	GenerateFlare bool
	FlareRadius   float64
	Flares        []Flare
}

// NewLight returns a light with the format defaults.
func NewLight() *Light {
	return &Light{
		Radius:        1,
		Multiplier:    1,
		Color:         math.Vec3{X: 1, Y: 1, Z: 1},
		AffectDynamic: true,
		Shadow:        true,
		Priority:      5,
		FadingLight:   true,
	}
}

// Emitter keeps the particle parameters as raw text in file order.
type Emitter struct {
	Fields *ordmap.Map[string, string]
}

// NewEmitter returns an emitter with an empty field bag.
func NewEmitter() *Emitter {
	return &Emitter{Fields: ordmap.New[string, string]()}
}

// Set stores a field, replacing an earlier value in place.
func (e *Emitter) Set(label, raw string) {
	e.Fields.Add(strings.ToLower(label), raw)
}

// Get returns the raw text of a field.
func (e *Emitter) Get(label string) (string, bool) {
	return e.Fields.ValueByKeyTry(strings.ToLower(label))
}

// Reference holds the reference-node fields.
type Reference struct {
	RefModel     string
	Reattachable bool
}

// Node is one scene-graph node. Exactly the payloads matching Type are set:
// Mesh for every mesh type, plus Dangly or Skin for those variants, Light,
// Emitter or Reference for theirs, and none for dummy and patch.
type Node struct {
	Type        NodeType
	Name        string
	Parent      string // Null for a root
	Position    math.Vec3
	Orientation math.AxisAngle
	Scale       float64
	WireColor   math.Vec3

	Mesh      *Mesh
	Dangly    *Dangly
	Skin      *Skin
	Light     *Light
	Emitter   *Emitter
	Reference *Reference

	// AABB is the tree read from an aabb node. It is informational only;
	// the serializer always rebuilds it from the faces.
	AABB []AABBNode
}

// NewNode creates a node of type t with its variant payload allocated.
func NewNode(t NodeType, name, parent string) *Node {
	n := &Node{
		Type:      t,
		Name:      name,
		Parent:    parent,
		Scale:     1,
		WireColor: math.Vec3{X: 1, Y: 1, Z: 1},
	}
	if isNull(parent) {
		n.Parent = Null
	}
	switch t {
	case NodeDummy, NodePatch:
	case NodeReference:
		n.Reference = &Reference{RefModel: Null}
	case NodeTrimesh, NodeAABB:
		n.Mesh = NewMesh()
	case NodeDanglymesh:
		n.Mesh = NewMesh()
		n.Dangly = &Dangly{}
	case NodeSkinmesh:
		n.Mesh = NewMesh()
		n.Skin = &Skin{}
	case NodeEmitter:
		n.Emitter = NewEmitter()
	case NodeLight:
		n.Light = NewLight()
	}
	return n
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool {
	return isNull(n.Parent)
}

// Rotation returns the orientation as a unit quaternion.
func (n *Node) Rotation() math.Quat {
	return math.QuatFromAxisAngle(n.Orientation)
}

// SetRotation stores a host quaternion in axis-angle form. The identity
// rotation is stored as a zero axis and angle.
func (n *Node) SetRotation(q math.Quat) {
	n.Orientation = q.AxisAngle()
}
