package mdl

import (
	"fmt"

	"github.com/Faultbox/midgard-mdl/pkg/math"
)

// AABB tree limits.
const (
	aabbMaxDepth    = 100
	aabbAxisRetries = 3
)

// AABBLeafNone marks an internal tree node.
const AABBLeafNone = -1

// AABBNode is one entry of a flattened, pre-order bounding volume tree.
// An internal node is followed by its left subtree, then its right subtree.
type AABBNode struct {
	Box  math.Box3
	Face int // original face index, or AABBLeafNone
}

// IsLeaf reports whether the entry references a face.
func (n AABBNode) IsLeaf() bool {
	return n.Face != AABBLeafNone
}

// AABBFace is the builder input for one triangle.
type AABBFace struct {
	Index    int
	Verts    [3]math.Vec3
	Centroid math.Vec3
}

// FacesFromMesh prepares builder input from a mesh's triangles.
func FacesFromMesh(m *Mesh) ([]AABBFace, error) {
	faces := make([]AABBFace, len(m.Faces))
	for i, f := range m.Faces {
		var verts [3]math.Vec3
		for j, vi := range f.Verts {
			if vi < 0 || vi >= len(m.Verts) {
				return nil, fmt.Errorf("%w: face %d vertex %d", ErrFaceIndex, i, vi)
			}
			verts[j] = m.Verts[vi]
		}
		faces[i] = AABBFace{
			Index:    i,
			Verts:    verts,
			Centroid: math.Centroid(verts[:]...),
		}
	}
	return faces, nil
}

// BuildAABBTree builds the walkmesh collision tree over faces. The first entry
// bounds the whole mesh. If some subset of faces cannot be split on any axis,
// or the tree grows deeper than the cap, the whole build fails with
// ErrDegenerateAABB and an empty tree.
func BuildAABBTree(faces []AABBFace) ([]AABBNode, error) {
	if len(faces) == 0 {
		return nil, nil
	}
	b := &aabbBuilder{tree: make([]AABBNode, 0, 2*len(faces)-1)}
	if err := b.build(faces, 0); err != nil {
		return nil, err
	}
	return b.tree, nil
}

type aabbBuilder struct {
	tree []AABBNode
}

func (b *aabbBuilder) build(faces []AABBFace, depth int) error {
	if depth > aabbMaxDepth {
		return fmt.Errorf("%w: depth exceeds %d", ErrDegenerateAABB, aabbMaxDepth)
	}

	box := math.EmptyBox()
	var mean math.Vec3
	for _, f := range faces {
		for _, v := range f.Verts {
			box = box.ExpandByPoint(v)
		}
		mean = mean.Add(f.Centroid)
	}
	mean = mean.Scale(1 / float64(len(faces)))

	if len(faces) == 1 {
		b.tree = append(b.tree, AABBNode{Box: box, Face: faces[0].Index})
		return nil
	}
	b.tree = append(b.tree, AABBNode{Box: box, Face: AABBLeafNone})

	axis := box.LongestAxis()
	if coplanar(faces, axis, mean.Axis(axis)) {
		axis = (axis + 1) % 3
	}

	var left, right []AABBFace
	for attempt := 0; ; attempt++ {
		if attempt == aabbAxisRetries {
			return fmt.Errorf("%w: %d faces share a split point", ErrDegenerateAABB, len(faces))
		}
		left, right = split(faces, axis, mean.Axis(axis))
		if len(left) > 0 && len(right) > 0 {
			break
		}
		axis = (axis + 1) % 3
	}

	if err := b.build(left, depth+1); err != nil {
		return err
	}
	return b.build(right, depth+1)
}

// coplanar reports whether every centroid lies on the split plane.
func coplanar(faces []AABBFace, axis int, at float64) bool {
	for _, f := range faces {
		if f.Centroid.Axis(axis) != at {
			return false
		}
	}
	return true
}

// split partitions faces by centroid against the plane at `at` on axis.
func split(faces []AABBFace, axis int, at float64) (left, right []AABBFace) {
	for _, f := range faces {
		if f.Centroid.Axis(axis) <= at {
			left = append(left, f)
		} else {
			right = append(right, f)
		}
	}
	return left, right
}
