package mdl

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-mdl/pkg/math"
)

// writer renders a document into an in-memory buffer.
type writer struct {
	b    strings.Builder
	opts *Options
	log  *zap.Logger
	root string // placeholder bone for vertices with no skin weights
}

func newWriter(opts *Options, root string) *writer {
	return &writer{opts: opts, log: opts.Logger, root: root}
}

// line writes one line at the given indent depth (two spaces per level).
func (w *writer) line(depth int, parts ...string) {
	w.b.WriteString(strings.Repeat("  ", depth))
	w.b.WriteString(strings.Join(parts, " "))
	w.b.WriteByte('\n')
}

// node writes a full geometry block for n.
func (w *writer) node(n *Node) {
	w.line(0, "node", n.Type.String(), n.Name)
	w.line(1, "parent", orNull(n.Parent))
	w.line(1, "position", fvec3(n.Position, precTransform))
	o := n.Orientation
	w.line(1, "orientation", fvec(precTransform, o.X, o.Y, o.Z, o.Angle))
	w.line(1, "scale", ff(n.Scale, precTransform))
	w.line(1, "wirecolor", fvec3(n.WireColor, precColor))

	switch n.Type {
	case NodeDummy, NodePatch:
	case NodeReference:
		w.line(1, "refmodel", n.Reference.RefModel)
		w.line(1, "reattachable", fbool(n.Reference.Reattachable))
	case NodeTrimesh:
		w.mesh(n, nil)
	case NodeDanglymesh:
		w.mesh(n, func([]math.Vec3, []Face) { w.dangly(n.Dangly) })
	case NodeSkinmesh:
		w.mesh(n, func(verts []math.Vec3, _ []Face) { w.skin(n, len(verts)) })
	case NodeAABB:
		w.mesh(n, func(verts []math.Vec3, faces []Face) { w.aabb(n, verts, faces) })
	case NodeEmitter:
		for _, kv := range n.Emitter.Fields.Order {
			if kv.Value == "" {
				w.line(1, kv.Key)
				continue
			}
			w.line(1, kv.Key, kv.Value)
		}
	case NodeLight:
		w.light(n.Light)
	}
	w.line(0, "endnode")
}

// mesh writes the trimesh fields, then calls extra with the geometry that
// was written.
func (w *writer) mesh(n *Node, extra func([]math.Vec3, []Face)) {
	m := n.Mesh
	w.line(1, "ambient", fvec3(m.Ambient, precColor))
	w.line(1, "diffuse", fvec3(m.Diffuse, precColor))
	w.line(1, "specular", fvec3(m.Specular, precColor))
	w.line(1, "shininess", ff(m.Shininess, precTransform))
	w.line(1, "selfillumcolor", fvec3(m.SelfIllumColor, precColor))
	w.line(1, "alpha", ff(m.Alpha, precTransform))
	w.line(1, "bitmap", orNull(m.Bitmap))
	w.line(1, "render", fbool(m.Render))
	w.line(1, "shadow", fbool(m.Shadow))
	w.line(1, "beaming", fbool(m.Beaming))
	w.line(1, "tilefade", strconv.Itoa(m.TileFade))
	w.line(1, "transparencyhint", strconv.Itoa(m.TransparencyHint))
	if n.Dangly != nil {
		w.line(1, "period", ff(n.Dangly.Period, precTransform))
		w.line(1, "tightness", ff(n.Dangly.Tightness, precTransform))
		w.line(1, "displacement", ff(n.Dangly.Displacement, precTransform))
	}

	verts, faces, tverts := w.geometry(n)
	w.line(1, "verts", strconv.Itoa(len(verts)))
	for _, v := range verts {
		w.line(2, fvec3(v, precTransform))
	}
	w.line(1, "faces", strconv.Itoa(len(faces)))
	for _, f := range faces {
		w.line(2,
			strconv.Itoa(f.Verts[0]), strconv.Itoa(f.Verts[1]), strconv.Itoa(f.Verts[2]),
			strconv.Itoa(f.SmoothGroup),
			strconv.Itoa(f.TVerts[0]), strconv.Itoa(f.TVerts[1]), strconv.Itoa(f.TVerts[2]),
			strconv.Itoa(f.Material))
	}
	if len(tverts) > 0 {
		w.line(1, "tverts", strconv.Itoa(len(tverts)))
		for _, t := range tverts {
			w.line(2, fvec(precTransform, t.X, t.Y, 0))
		}
	}
	if extra != nil {
		extra(verts, faces)
	}
}

// geometry returns the triangles to write. Host polygons are fan
// triangulated; with triangulation off, any n-gon empties the node's
// geometry and logs a warning.
func (w *writer) geometry(n *Node) ([]math.Vec3, []Face, []math.Vec2) {
	m := n.Mesh
	if len(m.Polygons) == 0 {
		return m.Verts, m.Faces, m.TVerts
	}
	faces := append([]Face(nil), m.Faces...)
	for i, p := range m.Polygons {
		if len(p.Verts) < 3 {
			w.log.Warn("skipping degenerate polygon",
				zap.String("node", n.Name), zap.Int("polygon", i))
			continue
		}
		if len(p.Verts) > 3 && !w.opts.Triangulate {
			w.log.Warn("untriangulated polygon, writing empty geometry",
				zap.String("node", n.Name),
				zap.Int("polygon", i),
				zap.Int("corners", len(p.Verts)))
			return nil, nil, nil
		}
		faces = append(faces, triangulate(p)...)
	}
	return m.Verts, faces, m.TVerts
}

// triangulate fans a convex polygon from its first corner.
func triangulate(p Polygon) []Face {
	tv := func(i int) int {
		if i < len(p.TVerts) {
			return p.TVerts[i]
		}
		return 0
	}
	out := make([]Face, 0, len(p.Verts)-2)
	for i := 1; i+1 < len(p.Verts); i++ {
		out = append(out, Face{
			Verts:       [3]int{p.Verts[0], p.Verts[i], p.Verts[i+1]},
			SmoothGroup: p.SmoothGroup,
			TVerts:      [3]int{tv(0), tv(i), tv(i + 1)},
			Material:    p.Material,
		})
	}
	return out
}

func (w *writer) dangly(d *Dangly) {
	w.line(1, "constraints", strconv.Itoa(len(d.Constraints)))
	for _, c := range d.Constraints {
		w.line(2, ff(c, precWeight))
	}
}

// skin writes one weight line per vertex. Vertices without weights get a
// zero weight on the model root so the list stays aligned with the vertices.
func (w *writer) skin(n *Node, verts int) {
	w.line(1, "weights", strconv.Itoa(verts))
	missing := 0
	for i := 0; i < verts; i++ {
		var ws []BoneWeight
		if i < len(n.Skin.Weights) {
			ws = n.Skin.Weights[i]
		}
		if len(ws) == 0 {
			missing++
			w.line(2, w.root, ff(0, precWeight))
			continue
		}
		parts := make([]string, 0, 2*len(ws))
		for _, bw := range ws {
			parts = append(parts, bw.Bone, ff(bw.Weight, precWeight))
		}
		w.line(2, parts...)
	}
	if missing > 0 {
		w.log.Warn("vertices without skin weights",
			zap.String("node", n.Name), zap.Int("count", missing))
	}
}

// aabb rebuilds and writes the collision tree of an aabb node.
func (w *writer) aabb(n *Node, verts []math.Vec3, faces []Face) {
	in, err := FacesFromMesh(&Mesh{Verts: verts, Faces: faces})
	if err == nil {
		var tree []AABBNode
		if tree, err = BuildAABBTree(in); err == nil {
			for i, e := range tree {
				entry := fvec(precTransform,
					e.Box.Min.X, e.Box.Min.Y, e.Box.Min.Z,
					e.Box.Max.X, e.Box.Max.Y, e.Box.Max.Z) + " " + strconv.Itoa(e.Face)
				if i == 0 {
					w.line(1, "aabb", entry)
				} else {
					w.line(2, entry)
				}
			}
			return
		}
	}
	w.log.Warn("aabb tree not generated", zap.String("node", n.Name), zap.Error(err))
}

func (w *writer) light(l *Light) {
	w.line(1, "radius", ff(l.Radius, precTransform))
	w.line(1, "multiplier", ff(l.Multiplier, precTransform))
	w.line(1, "color", fvec3(l.Color, precColor))
	w.line(1, "ambientonly", fbool(l.AmbientOnly))
	w.line(1, "isdynamic", strconv.Itoa(l.DynamicType))
	w.line(1, "affectdynamic", fbool(l.AffectDynamic))
	w.line(1, "shadow", fbool(l.Shadow))
	w.line(1, "lightpriority", strconv.Itoa(l.Priority))
	w.line(1, "fadinglight", fbool(l.FadingLight))
	w.line(1, "generateflare", fbool(l.GenerateFlare))
	w.line(1, "flareradius", ff(l.FlareRadius, precTransform))
	if len(l.Flares) == 0 {
		return
	}
	count := strconv.Itoa(len(l.Flares))
	w.line(1, "texturenames", count)
	for _, f := range l.Flares {
		w.line(2, orNull(f.Texture))
	}
	w.line(1, "flaresizes", count)
	for _, f := range l.Flares {
		w.line(2, ff(f.Size, precTransform))
	}
	w.line(1, "flarepositions", count)
	for _, f := range l.Flares {
		w.line(2, ff(f.Position, precTransform))
	}
	w.line(1, "flarecolorshifts", count)
	for _, f := range l.Flares {
		w.line(2, fvec3(f.ColorShift, precColor))
	}
}

// orNull substitutes the sentinel for an empty name so the field keeps its value token.
func orNull(s string) string {
	if s == "" {
		return Null
	}
	return s
}
