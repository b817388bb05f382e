package mdl

import (
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/midgard-mdl/pkg/math"
)

func TestNewNodePayload(t *testing.T) {
	tests := []struct {
		typ                                     NodeType
		mesh, dangly, skin, light, emit, refmdl bool
	}{
		{typ: NodeDummy},
		{typ: NodePatch},
		{typ: NodeReference, refmdl: true},
		{typ: NodeTrimesh, mesh: true},
		{typ: NodeDanglymesh, mesh: true, dangly: true},
		{typ: NodeSkinmesh, mesh: true, skin: true},
		{typ: NodeEmitter, emit: true},
		{typ: NodeLight, light: true},
		{typ: NodeAABB, mesh: true},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			n := NewNode(tt.typ, "n", "")
			assert.Equal(t, Null, n.Parent)
			assert.True(t, n.IsRoot())
			assert.Equal(t, tt.mesh, n.Mesh != nil, "mesh")
			assert.Equal(t, tt.mesh, tt.typ.IsMesh())
			assert.Equal(t, tt.dangly, n.Dangly != nil, "dangly")
			assert.Equal(t, tt.skin, n.Skin != nil, "skin")
			assert.Equal(t, tt.light, n.Light != nil, "light")
			assert.Equal(t, tt.emit, n.Emitter != nil, "emitter")
			assert.Equal(t, tt.refmdl, n.Reference != nil, "reference")
			assert.NoError(t, n.validatePayload())

			back, err := ParseNodeType(tt.typ.String())
			assert.NoError(t, err)
			assert.Equal(t, tt.typ, back)
		})
	}
}

func TestClassification(t *testing.T) {
	tests := []struct {
		in   string
		want Classification
	}{
		{"Character", ClassCharacter},
		{"TILE", ClassTile},
		{"door", ClassDoor},
		{"effect", ClassEffect},
		{"gui", ClassGUI},
		{"item", ClassItem},
		{"weird", ClassUnknown},
	}
	for _, tt := range tests {
		got := ParseClassification(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.Equal(t, "CHARACTER", ClassCharacter.String())
	assert.Equal(t, "Unknown(42)", Classification(42).String())
}

func TestIsNull(t *testing.T) {
	for _, s := range []string{"", "NULL", "null", "None"} {
		assert.True(t, isNull(s), s)
	}
	assert.False(t, isNull("root"))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "0.00000", ff(-0.000001, precTransform))
	assert.Equal(t, "-0.50", ff(-0.5, precColor))
	assert.Equal(t, "0.333", ff(1.0/3, precWeight))
	assert.Equal(t, "0.0333333", ftime(1.0/30))
	assert.Equal(t, "2", ftime(2))
}

func TestNodeRotation(t *testing.T) {
	n := NewNode(NodeDummy, "n", Null)
	assert.Equal(t, math.QuatIdentity(), n.Rotation())

	n.SetRotation(math.QuatIdentity())
	assert.Equal(t, math.AxisAngle{}, n.Orientation)

	n.Orientation = math.AxisAngle{Z: 2, Angle: gomath.Pi / 2}
	q := n.Rotation()
	assert.InDelta(t, gomath.Sqrt2/2, q.Z, 1e-9)
	assert.InDelta(t, gomath.Sqrt2/2, q.W, 1e-9)

	n.SetRotation(q.Mul(q))
	assert.InDelta(t, gomath.Pi, n.Orientation.Angle, 1e-9)
	assert.InDelta(t, 1, n.Orientation.Z, 1e-9)
}
