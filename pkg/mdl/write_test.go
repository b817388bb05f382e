package mdl

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-mdl/pkg/math"
)

func simpleModel() *Model {
	m := NewModel("box")
	m.Classification = ClassItem
	m.AddNode(NewNode(NodeDummy, "box", Null))
	mesh := m.AddNode(NewNode(NodeTrimesh, "lid", "box"))
	mesh.Position = math.Vec3{X: 1.25, Y: -0.5, Z: 2}
	mesh.Orientation = math.AxisAngle{Z: 1, Angle: 0.75}
	mesh.Scale = 1.5
	mesh.Mesh.Diffuse = math.Vec3{X: 0.25, Y: 0.5, Z: 0.75}
	mesh.Mesh.Bitmap = "box_tex"
	mesh.Mesh.Verts = []math.Vec3{{}, {X: 1}, {Y: 1}}
	mesh.Mesh.Faces = []Face{{Verts: [3]int{0, 1, 2}, SmoothGroup: 1, TVerts: [3]int{0, 1, 2}, Material: 2}}
	mesh.Mesh.TVerts = []math.Vec2{{}, {X: 1}, {Y: 1}}
	return m
}

func TestMarshal_Precision(t *testing.T) {
	m := simpleModel()
	skin := m.AddNode(NewNode(NodeSkinmesh, "hide", "box"))
	skin.Mesh.Verts = []math.Vec3{{}}
	skin.Skin.Weights = [][]BoneWeight{{{Bone: "box", Weight: 0.5}}}
	dangly := m.AddNode(NewNode(NodeDanglymesh, "flap", "lid"))
	dangly.Mesh.Verts = []math.Vec3{{}}
	dangly.Dangly.Constraints = []float64{128}

	data, err := Marshal(m, nil)
	require.NoError(t, err)
	doc := string(data)

	assert.Contains(t, doc, "  position 1.25000 -0.50000 2.00000\n")
	assert.Contains(t, doc, "orientation 0.00000 0.00000 1.00000 0.75000\n")
	assert.Contains(t, doc, "diffuse 0.25 0.50 0.75\n")
	assert.Contains(t, doc, "box 0.500\n")
	assert.Contains(t, doc, "    128.000\n")

	fiveDigits := regexp.MustCompile(`^-?\d+\.\d{5}$`)
	for _, l := range strings.Split(doc, "\n") {
		f := strings.Fields(l)
		if len(f) == 0 || (f[0] != "position" && f[0] != "orientation") {
			continue
		}
		for _, v := range f[1:] {
			assert.Regexp(t, fiveDigits, v, "line %q", l)
		}
	}
}

func TestMarshal_Layout(t *testing.T) {
	data, err := Marshal(simpleModel(), nil)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	assert.Equal(t, []string{
		"#MAXMODEL ASCII",
		"newmodel box",
		"setsupermodel box NULL",
		"classification ITEM",
		"setanimationscale 1.00000",
		"beginmodelgeom box",
		"node dummy box",
		"  parent NULL",
	}, lines[:8])
	assert.Equal(t, "donemodel box", lines[len(lines)-1])
	assert.Contains(t, string(data), "  faces 1\n    0 1 2 1 0 1 2 2\n")
	assert.Contains(t, string(data), "  tverts 3\n    0.00000 0.00000 0.00000\n")
}

func TestMarshal_DepthFirst(t *testing.T) {
	m := NewModel("m")
	m.AddNode(NewNode(NodeDummy, "m", Null))
	m.AddNode(NewNode(NodeDummy, "a", "m"))
	m.AddNode(NewNode(NodeDummy, "b", "m"))
	m.AddNode(NewNode(NodeDummy, "a1", "a"))
	m.AddNode(NewNode(NodeDummy, "b1", "b"))
	m.AddNode(NewNode(NodeDummy, "a2", "a"))

	data, err := Marshal(m, nil)
	require.NoError(t, err)

	var order []string
	for _, l := range strings.Split(string(data), "\n") {
		if f := strings.Fields(l); len(f) == 3 && f[0] == "node" {
			order = append(order, f[2])
		}
	}
	assert.Equal(t, []string{"m", "a", "a1", "a2", "b", "b1"}, order)
}

func TestMarshal_RoundTrip(t *testing.T) {
	src, err := ParseFile("testdata/chair.mdl", nil)
	require.NoError(t, err)

	data, err := Marshal(src, nil)
	require.NoError(t, err)
	got, err := ParseBytes(data, nil)
	require.NoError(t, err, "re-parsing:\n%s", data)

	assert.Equal(t, src.Name, got.Name)
	assert.Equal(t, src.Classification, got.Classification)
	require.Len(t, got.Nodes, len(src.Nodes))
	for _, want := range src.Nodes {
		n := got.Node(want.Name, want.Parent)
		require.NotNil(t, n, want.Name)
		assert.Equal(t, want.Type, n.Type, want.Name)
		assert.Equal(t, want.Parent, n.Parent, want.Name)
		assert.Equal(t, want.Position, n.Position, want.Name)
		assert.Equal(t, want.Orientation, n.Orientation, want.Name)
		assert.Equal(t, want.Scale, n.Scale, want.Name)
		if want.Mesh != nil {
			assert.Equal(t, want.Mesh.Verts, n.Mesh.Verts, want.Name)
			assert.Equal(t, want.Mesh.Faces, n.Mesh.Faces, want.Name)
			assert.Equal(t, want.Mesh.TVerts, n.Mesh.TVerts, want.Name)
			assert.Equal(t, want.Mesh.Bitmap, n.Mesh.Bitmap, want.Name)
			assert.Equal(t, want.Mesh.Render, n.Mesh.Render, want.Name)
			assert.Equal(t, want.Mesh.Shadow, n.Mesh.Shadow, want.Name)
		}
	}
	assert.Equal(t, src.Node("cloth", "seat").Dangly, got.Node("cloth", "seat").Dangly)
	assert.Equal(t, src.Node("body", "plc_chair").Skin, got.Node("body", "plc_chair").Skin)
	assert.Equal(t, src.Node("glow", "plc_chair").Light, got.Node("glow", "plc_chair").Light)
	assert.Equal(t, src.Node("hook", "seat").Reference, got.Node("hook", "seat").Reference)
	assert.Equal(t,
		src.Node("smoke", "plc_chair").Emitter.Fields.Order,
		got.Node("smoke", "plc_chair").Emitter.Fields.Order)

	// Writing the parsed copy again is stable.
	again, err := Marshal(got, nil)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestMarshal_AnimationTracks(t *testing.T) {
	m := NewModel("m")
	m.AddNode(NewNode(NodeDummy, "m", Null))
	m.AddNode(NewNode(NodeTrimesh, "door", "m"))

	a := NewAnimation("open", "m")
	a.Length = 1
	a.AddEvent(0.5, "hit", DefaultFPS)
	n := a.AddNode(NodeTrimesh, "door", "m")
	pos := NewTrack(ChannelPosition)
	pos.Set(0, 1, 2, 3)
	n.SetTrack(pos)
	rot := NewTrack(ChannelOrientation)
	rot.Set(0, 0, 0, 0, 1)
	rot.Set(15, 0.5, 0, 0, 1)
	rot.Set(30, 1, 0, 0, 1)
	n.SetTrack(rot)
	m.Animations = append(m.Animations, a)

	data, err := Marshal(m, nil)
	require.NoError(t, err)
	doc := string(data)

	assert.Contains(t, doc, "newanim open m\n")
	assert.Contains(t, doc, "  event 0.5 hit\n")
	assert.Contains(t, doc, "    position 1.00000 2.00000 3.00000\n")
	assert.Contains(t, doc, "    orientationkey 3\n"+
		"      0 0.00000 0.00000 1.00000 0.00000\n"+
		"      0.5 0.00000 0.00000 1.00000 0.50000\n"+
		"      1 0.00000 0.00000 1.00000 1.00000\n"+
		"    endlist\n")
	assert.NotContains(t, doc, "positionkey")
	assert.Equal(t, 2, strings.Count(doc, "node dummy m\n"), "geometry and animation both list the root")

	got, err := ParseBytes(data, nil)
	require.NoError(t, err)
	gn := got.Animation("open").Node("door", "m")
	require.NotNil(t, gn)
	assert.True(t, gn.Track(ChannelPosition).IsStatic())
	assert.Equal(t, 3, gn.Track(ChannelOrientation).Len())
	assert.Equal(t, rot.Frames(), gn.Track(ChannelOrientation).Frames())
	v, _ := gn.Track(ChannelOrientation).Value(15)
	assert.Equal(t, []float64{0.5, 0, 0, 1}, v)
}

func TestMarshal_NoAnimations(t *testing.T) {
	src, err := ParseFile("testdata/chair.mdl", nil)
	require.NoError(t, err)
	opts := DefaultOptions()
	opts.ExportAnimations = false
	data, err := Marshal(src, opts)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "newanim")
}

func TestMarshal_AABBNode(t *testing.T) {
	src, err := ParseFile("testdata/tile.mdl", nil)
	require.NoError(t, err)
	data, err := Marshal(src, nil)
	require.NoError(t, err)
	assert.Contains(t, string(data),
		"  aabb 0.00000 0.00000 0.00000 5.00000 1.00000 0.00000 -1\n"+
			"    0.00000 0.00000 0.00000 1.00000 1.00000 0.00000 0\n"+
			"    4.00000 0.00000 0.00000 5.00000 1.00000 0.00000 1\n")

	got, err := ParseBytes(data, nil)
	require.NoError(t, err)
	assert.Equal(t, src.Nodes[1].AABB, got.Nodes[1].AABB)
}

func TestMarshal_DegenerateAABBWarns(t *testing.T) {
	m := NewModel("t")
	m.Classification = ClassTile
	m.AddNode(NewNode(NodeDummy, "t", Null))
	n := m.AddNode(NewNode(NodeAABB, "walk", "t"))
	n.Mesh.Verts = []math.Vec3{{X: -1}, {X: 1}, {}, {Y: -1}, {Y: 1}, {Z: -1}, {Z: 1}}
	n.Mesh.Faces = []Face{
		{Verts: [3]int{0, 1, 2}},
		{Verts: [3]int{3, 4, 2}},
		{Verts: [3]int{5, 6, 2}},
	}

	opts, logs := observed()
	data, err := Marshal(m, opts)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "aabb 0")
	assert.Equal(t, 1, logs.FilterMessage("aabb tree not generated").Len())
}

func TestMarshal_Triangulation(t *testing.T) {
	build := func() *Model {
		m := NewModel("q")
		m.AddNode(NewNode(NodeDummy, "q", Null))
		n := m.AddNode(NewNode(NodeTrimesh, "quad", "q"))
		n.Mesh.Verts = []math.Vec3{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}}
		n.Mesh.Polygons = []Polygon{{Verts: []int{0, 1, 2, 3}, SmoothGroup: 1, Material: 5}}
		return m
	}

	data, err := Marshal(build(), nil)
	require.NoError(t, err)
	assert.Contains(t, string(data), "  faces 2\n    0 1 2 1 0 0 0 5\n    0 2 3 1 0 0 0 5\n")

	opts, logs := observed()
	opts.Triangulate = false
	data, err = Marshal(build(), opts)
	require.NoError(t, err)
	assert.Contains(t, string(data), "  verts 0\n  faces 0\n")
	assert.Equal(t, 1, logs.FilterMessage("untriangulated polygon, writing empty geometry").Len())
}

func TestMarshal_MissingSkinWeights(t *testing.T) {
	m := NewModel("c")
	m.AddNode(NewNode(NodeDummy, "c", Null))
	n := m.AddNode(NewNode(NodeSkinmesh, "body", "c"))
	n.Mesh.Verts = []math.Vec3{{}, {Z: 1}, {Z: 2}}
	n.Skin.Weights = [][]BoneWeight{{{Bone: "c", Weight: 1}}}

	opts, logs := observed()
	data, err := Marshal(m, opts)
	require.NoError(t, err)
	assert.Contains(t, string(data), "  weights 3\n    c 1.000\n    c 0.000\n    c 0.000\n")
	entries := logs.FilterMessage("vertices without skin weights").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 2, entries[0].ContextMap()["count"])
}

func TestMarshal_EmitterOrder(t *testing.T) {
	m := NewModel("fx")
	m.AddNode(NewNode(NodeDummy, "fx", Null))
	e := m.AddNode(NewNode(NodeEmitter, "sparks", "fx"))
	e.Emitter.Set("update", "Explosion")
	e.Emitter.Set("texture", "fx_spark")
	e.Emitter.Set("birthrate", "5")
	e.Emitter.Set("Update", "Fountain")

	data, err := Marshal(m, nil)
	require.NoError(t, err)
	doc := string(data)
	u := strings.Index(doc, "  update Fountain\n")
	tx := strings.Index(doc, "  texture fx_spark\n")
	b := strings.Index(doc, "  birthrate 5\n")
	require.True(t, u > 0 && tx > 0 && b > 0, doc)
	assert.True(t, u < tx && tx < b, "emitter fields keep first-seen order")
}

func TestMarshal_InvalidModel(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Model
		want  error
	}{
		{
			name: "duplicate name under parent",
			build: func() *Model {
				m := NewModel("m")
				m.AddNode(NewNode(NodeDummy, "m", Null))
				m.AddNode(NewNode(NodeDummy, "a", "m"))
				m.AddNode(NewNode(NodeDummy, "a", "m"))
				return m
			},
			want: ErrDuplicateNode,
		},
		{
			name: "root with parent",
			build: func() *Model {
				m := NewModel("m")
				m.AddNode(NewNode(NodeDummy, "m", "x"))
				return m
			},
			want: ErrBadRoot,
		},
		{
			name: "dangling parent",
			build: func() *Model {
				m := NewModel("m")
				m.AddNode(NewNode(NodeDummy, "m", Null))
				m.AddNode(NewNode(NodeDummy, "a", "ghost"))
				return m
			},
			want: ErrUnresolvedParent,
		},
		{
			name: "face index out of range",
			build: func() *Model {
				m := NewModel("m")
				m.AddNode(NewNode(NodeDummy, "m", Null))
				n := m.AddNode(NewNode(NodeTrimesh, "a", "m"))
				n.Mesh.Verts = []math.Vec3{{}}
				n.Mesh.Faces = []Face{{Verts: [3]int{0, 0, 1}}}
				return m
			},
			want: ErrFaceIndex,
		},
		{
			name: "missing payload",
			build: func() *Model {
				m := NewModel("m")
				m.AddNode(&Node{Type: NodeLight, Name: "m", Parent: Null})
				return m
			},
			want: ErrMissingField,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Write(&buf, tt.build(), nil)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrMalformedModel)
			assert.Zero(t, buf.Len(), "nothing is written on failure")
		})
	}
}
