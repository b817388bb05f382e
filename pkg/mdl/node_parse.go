package mdl

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-mdl/pkg/math"
)

// parseNodeBlock builds a geometry node from the lines between "node" and
// "endnode". Dispatch is by node type, then by lowercase label.
func parseNodeBlock(t NodeType, name string, body []line, log *zap.Logger) (*Node, error) {
	n := NewNode(t, name, Null)
	s := newBlockScanner(body)
	for {
		l, ok := s.next()
		if !ok {
			break
		}
		handled, err := n.parseCommonField(l)
		if err != nil {
			return nil, err
		}
		if handled {
			continue
		}

		switch t {
		case NodeDummy, NodePatch:
		case NodeReference:
			handled, err = n.Reference.parseField(l)
		case NodeTrimesh:
			handled, err = n.Mesh.parseField(l, s)
		case NodeAABB:
			if l.key() == "aabb" {
				n.AABB, err = parseAABBTree(l, s)
				handled = true
			} else {
				handled, err = n.Mesh.parseField(l, s)
			}
		case NodeDanglymesh:
			if handled, err = n.Dangly.parseField(l, s); !handled && err == nil {
				handled, err = n.Mesh.parseField(l, s)
			}
		case NodeSkinmesh:
			if handled, err = n.Skin.parseField(l, s); !handled && err == nil {
				handled, err = n.Mesh.parseField(l, s)
			}
		case NodeEmitter:
			// Particle parameters have no fixed arity; keep the raw text.
			n.Emitter.Set(l.key(), l.rest())
			handled = true
		case NodeLight:
			handled, err = n.Light.parseField(l, s)
		}
		if err != nil {
			return nil, err
		}
		if !handled {
			log.Debug("ignoring unknown node field",
				zap.String("node", name),
				zap.String("field", l.key()),
				zap.Int("line", l.num))
		}
	}
	return n, nil
}

// parseCommonField handles the fields every node type has.
func (n *Node) parseCommonField(l line) (bool, error) {
	var err error
	switch l.key() {
	case "parent":
		if err = l.require(1); err == nil {
			n.Parent = l.arg(1)
			if isNull(n.Parent) {
				n.Parent = Null
			}
		}
	case "position":
		n.Position, err = parseVec3(l, 1)
	case "orientation":
		var v []float64
		if v, err = l.floats(1, 4); err == nil {
			n.Orientation = math.AxisAngle{X: v[0], Y: v[1], Z: v[2], Angle: v[3]}
		}
	case "scale":
		n.Scale, err = l.floatAt(1)
	case "wirecolor":
		n.WireColor, err = parseVec3(l, 1)
	default:
		return false, nil
	}
	return true, err
}

// parseField handles trimesh fields, including the vertex, face and texture
// vertex lists.
func (m *Mesh) parseField(l line, s *scanner) (bool, error) {
	var err error
	switch l.key() {
	case "render":
		m.Render, err = l.boolAt(1)
	case "shadow":
		m.Shadow, err = l.boolAt(1)
	case "beaming":
		m.Beaming, err = l.boolAt(1)
	case "tilefade":
		m.TileFade, err = l.intAt(1)
	case "transparencyhint":
		m.TransparencyHint, err = l.intAt(1)
	case "selfillumcolor":
		m.SelfIllumColor, err = parseVec3(l, 1)
	case "ambient":
		m.Ambient, err = parseVec3(l, 1)
	case "diffuse":
		m.Diffuse, err = parseVec3(l, 1)
	case "specular":
		m.Specular, err = parseVec3(l, 1)
	case "shininess":
		m.Shininess, err = l.floatAt(1)
	case "alpha":
		m.Alpha, err = l.floatAt(1)
	case "bitmap":
		if err = l.require(1); err == nil {
			m.Bitmap = l.arg(1)
		}
	case "verts":
		err = readList(l, s, func(b line) error {
			v, err := parseVec3(b, 0)
			m.Verts = append(m.Verts, v)
			return err
		})
	case "faces":
		err = readList(l, s, func(b line) error {
			f, err := parseFace(b)
			m.Faces = append(m.Faces, f)
			return err
		})
	case "tverts":
		err = readList(l, s, func(b line) error {
			v, err := b.floats(0, 2)
			if err != nil {
				return err
			}
			m.TVerts = append(m.TVerts, math.Vec2{X: v[0], Y: v[1]})
			return nil
		})
	default:
		return false, nil
	}
	return true, err
}

func (d *Dangly) parseField(l line, s *scanner) (bool, error) {
	var err error
	switch l.key() {
	case "period":
		d.Period, err = l.floatAt(1)
	case "tightness":
		d.Tightness, err = l.floatAt(1)
	case "displacement":
		d.Displacement, err = l.floatAt(1)
	case "constraints":
		err = readList(l, s, func(b line) error {
			v, err := b.floatAt(0)
			d.Constraints = append(d.Constraints, v)
			return err
		})
	default:
		return false, nil
	}
	return true, err
}

func (sk *Skin) parseField(l line, s *scanner) (bool, error) {
	if l.key() != "weights" {
		return false, nil
	}
	err := readList(l, s, func(b line) error {
		if len(b.tokens)%2 != 0 {
			return syntaxErr(b.num, ErrMissingField, "bone without weight")
		}
		var ws []BoneWeight
		for i := 0; i < len(b.tokens); i += 2 {
			w, err := b.floatAt(i + 1)
			if err != nil {
				return err
			}
			ws = append(ws, BoneWeight{Bone: b.tokens[i], Weight: w})
		}
		sk.Weights = append(sk.Weights, ws)
		return nil
	})
	return true, err
}

func (lt *Light) parseField(l line, s *scanner) (bool, error) {
	var err error
	switch l.key() {
	case "radius":
		lt.Radius, err = l.floatAt(1)
	case "multiplier":
		lt.Multiplier, err = l.floatAt(1)
	case "color":
		lt.Color, err = parseVec3(l, 1)
	case "ambientonly":
		lt.AmbientOnly, err = l.boolAt(1)
	case "isdynamic", "ndynamictype":
		lt.DynamicType, err = l.intAt(1)
	case "affectdynamic":
		lt.AffectDynamic, err = l.boolAt(1)
	case "shadow":
		lt.Shadow, err = l.boolAt(1)
	case "lightpriority":
		lt.Priority, err = l.intAt(1)
	case "fadinglight":
		lt.FadingLight, err = l.boolAt(1)
	case "generateflare":
		lt.GenerateFlare, err = l.boolAt(1)
	case "flareradius":
		lt.FlareRadius, err = l.floatAt(1)
	case "texturenames":
		err = readFlareList(l, s, 1, func(i int, v []string) error {
			lt.flare(i).Texture = v[0]
			return nil
		})
	case "flaresizes":
		err = readFlareList(l, s, 1, func(i int, v []string) error {
			f, err := strconv.ParseFloat(v[0], 64)
			lt.flare(i).Size = f
			return numErr(l, err)
		})
	case "flarepositions":
		err = readFlareList(l, s, 1, func(i int, v []string) error {
			f, err := strconv.ParseFloat(v[0], 64)
			lt.flare(i).Position = f
			return numErr(l, err)
		})
	case "flarecolorshifts":
		err = readFlareList(l, s, 3, func(i int, v []string) error {
			c, err := parseVec3(line{num: l.num, tokens: v}, 0)
			lt.flare(i).ColorShift = c
			return err
		})
	default:
		return false, nil
	}
	return true, err
}

// flare returns flare i, growing the list as the parallel lists arrive.
func (lt *Light) flare(i int) *Flare {
	for len(lt.Flares) <= i {
		lt.Flares = append(lt.Flares, Flare{})
	}
	return &lt.Flares[i]
}

func (r *Reference) parseField(l line) (bool, error) {
	var err error
	switch l.key() {
	case "refmodel":
		if err = l.require(1); err == nil {
			r.RefModel = l.arg(1)
		}
	case "reattachable":
		r.Reattachable, err = l.boolAt(1)
	default:
		return false, nil
	}
	return true, err
}

// readList reads the "label N" header and hands exactly N body lines to fn.
func readList(head line, s *scanner, fn func(line) error) error {
	n, err := head.intAt(1)
	if err != nil {
		return err
	}
	body, err := s.take(n, head)
	if err != nil {
		return err
	}
	for _, b := range body {
		if err := fn(b); err != nil {
			return err
		}
	}
	return nil
}

// readFlareList reads a flare list of N entries, each `width` tokens wide.
// Entries may follow on the header line itself ("flaresizes 2 0.5 1.0"),
// which some exporters write; otherwise they are the next N lines.
func readFlareList(head line, s *scanner, width int, fn func(int, []string) error) error {
	n, err := head.intAt(1)
	if err != nil {
		return err
	}
	if trailing := head.tokens[2:]; len(trailing) > 0 && len(trailing) >= n*width {
		for i := 0; i < n; i++ {
			if err := fn(i, trailing[i*width:(i+1)*width]); err != nil {
				return err
			}
		}
		return nil
	}
	body, err := s.take(n, head)
	if err != nil {
		return err
	}
	for i, b := range body {
		if len(b.tokens) < width {
			return syntaxErr(b.num, ErrMissingField, "%q entry needs %d value(s)", head.key(), width)
		}
		if err := fn(i, b.tokens[:width]); err != nil {
			return err
		}
	}
	return nil
}

// parseAABBTree reads an aabb tree: the first entry may share the label
// line, the rest follow as numeric lines with no declared count.
func parseAABBTree(head line, s *scanner) ([]AABBNode, error) {
	var tree []AABBNode
	if len(head.tokens) > 1 {
		e, err := parseAABBEntry(line{num: head.num, tokens: head.tokens[1:]})
		if err != nil {
			return nil, err
		}
		tree = append(tree, e)
	}
	for {
		l, ok := s.peek()
		if !ok || !l.numeric() {
			return tree, nil
		}
		s.next()
		e, err := parseAABBEntry(l)
		if err != nil {
			return nil, err
		}
		tree = append(tree, e)
	}
}

func parseAABBEntry(l line) (AABBNode, error) {
	v, err := l.floats(0, 6)
	if err != nil {
		return AABBNode{}, err
	}
	face, err := l.intAt(6)
	if err != nil {
		return AABBNode{}, err
	}
	return AABBNode{
		Box: math.Box3{
			Min: math.Vec3{X: v[0], Y: v[1], Z: v[2]},
			Max: math.Vec3{X: v[3], Y: v[4], Z: v[5]},
		},
		Face: face,
	}, nil
}

func parseFace(l line) (Face, error) {
	var f Face
	v := make([]int, 8)
	for i := range v {
		x, err := l.intAt(i)
		if err != nil {
			return f, err
		}
		v[i] = x
	}
	f.Verts = [3]int{v[0], v[1], v[2]}
	f.SmoothGroup = v[3]
	f.TVerts = [3]int{v[4], v[5], v[6]}
	f.Material = v[7]
	return f, nil
}

func parseVec3(l line, at int) (math.Vec3, error) {
	v, err := l.floats(at, 3)
	if err != nil {
		return math.Vec3{}, err
	}
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
}

func numErr(l line, err error) error {
	if err != nil {
		return syntaxErr(l.num, ErrInvalidNumber, "%q", l.key())
	}
	return nil
}
