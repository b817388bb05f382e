package mdl

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// parseState is the position of the parser in the block grammar.
type parseState int

const (
	stateStart parseState = iota
	stateHeader
	stateGeometry
	stateGeometryNode
	stateAnimation
	stateAnimationNode
	stateDone
)

func (s parseState) String() string {
	switch s {
	case stateStart:
		return "start"
	case stateHeader:
		return "header"
	case stateGeometry:
		return "geometry"
	case stateGeometryNode:
		return "geometry node"
	case stateAnimation:
		return "animation"
	case stateAnimationNode:
		return "animation node"
	case stateDone:
		return "done"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Parse reads an MDL model.
func Parse(r io.Reader, opts *Options) (*Model, error) {
	sc, err := scan(r)
	if err != nil {
		return nil, fmt.Errorf("reading MDL: %w", err)
	}
	p := newParser(sc, opts.normalize(), false, "")
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.model, nil
}

// ParseBytes reads an MDL model from memory.
func ParseBytes(data []byte, opts *Options) (*Model, error) {
	return Parse(bytes.NewReader(data), opts)
}

// ParseFile reads an MDL model from disk.
func ParseFile(path string, opts *Options) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading MDL file: %w", err)
	}
	return ParseBytes(data, opts)
}

type parser struct {
	sc       *scanner
	opts     *Options
	log      *zap.Logger
	walkmesh bool
	name     string // model name to use when the file has no header

	state parseState
	model *Model
	anim  *Animation

	blockHead line
	blockType NodeType
	block     []line
}

func newParser(sc *scanner, opts *Options, walkmesh bool, name string) *parser {
	return &parser{
		sc:       sc,
		opts:     opts,
		log:      opts.Logger,
		walkmesh: walkmesh,
		name:     name,
	}
}

// run drives the state machine to the end of input or donemodel.
func (p *parser) run() error {
	for p.state != stateDone {
		l, ok := p.sc.next()
		if !ok {
			break
		}
		if err := p.step(l); err != nil {
			return err
		}
	}

	switch p.state {
	case stateStart:
		if !p.walkmesh {
			return syntaxErr(p.sc.lastLine(), ErrMissingField, "no newmodel")
		}
		p.model = NewModel(p.name)
	case stateGeometryNode, stateAnimationNode:
		return syntaxErr(p.blockHead.num, ErrUnexpectedEOF, "node %q has no endnode", p.blockHead.arg(2))
	case stateHeader, stateGeometry:
		// A file cut off after the geometry (or walkmesh files that never
		// close it) still yields its nodes.
		if err := p.finishGeometry(); err != nil {
			return err
		}
	case stateAnimation:
		if p.anim != nil {
			return syntaxErr(p.sc.lastLine(), ErrUnexpectedEOF, "animation %q has no doneanim", p.anim.Name)
		}
	}
	return nil
}

func (p *parser) step(l line) error {
	switch p.state {
	case stateStart:
		return p.stepStart(l)
	case stateHeader:
		return p.stepHeader(l)
	case stateGeometry:
		return p.stepGeometry(l)
	case stateGeometryNode, stateAnimationNode:
		return p.stepNode(l)
	case stateAnimation:
		return p.stepAnimation(l)
	}
	return nil
}

func (p *parser) stepStart(l line) error {
	switch l.key() {
	case "newmodel":
		if err := l.require(1); err != nil {
			return err
		}
		p.model = NewModel(l.arg(1))
		p.state = stateHeader
	case "node":
		if !p.walkmesh {
			return syntaxErr(l.num, ErrUnexpectedDelimiter, "node before newmodel")
		}
		p.model = NewModel(p.name)
		p.state = stateGeometry
		return p.stepGeometry(l)
	case "endnode", "endmodelgeom", "newanim", "doneanim", "donemodel", "beginmodelgeom":
		return syntaxErr(l.num, ErrUnexpectedDelimiter, "%q before newmodel", l.key())
	default:
		p.log.Debug("ignoring line before newmodel", zap.String("label", l.key()), zap.Int("line", l.num))
	}
	return nil
}

func (p *parser) stepHeader(l line) error {
	switch l.key() {
	case "setsupermodel":
		if err := l.require(2); err != nil {
			return err
		}
		p.model.SuperModel = l.arg(2)
		if isNull(p.model.SuperModel) {
			p.model.SuperModel = Null
		}
	case "classification":
		if err := l.require(1); err != nil {
			return err
		}
		p.model.Classification = ParseClassification(l.arg(1))
	case "setanimationscale":
		v, err := l.floatAt(1)
		if err != nil {
			return err
		}
		p.model.AnimationScale = v
	case "beginmodelgeom":
		p.state = stateGeometry
	case "node":
		if !p.walkmesh {
			return syntaxErr(l.num, ErrUnexpectedDelimiter, "node before beginmodelgeom")
		}
		p.state = stateGeometry
		return p.stepGeometry(l)
	case "donemodel":
		return p.closeModel()
	case "endnode", "endmodelgeom", "newanim", "doneanim":
		return syntaxErr(l.num, ErrUnexpectedDelimiter, "%q in model header", l.key())
	default:
		p.log.Debug("ignoring header field", zap.String("label", l.key()), zap.Int("line", l.num))
	}
	return nil
}

func (p *parser) stepGeometry(l line) error {
	switch l.key() {
	case "node":
		return p.openNode(l, stateGeometryNode)
	case "endmodelgeom":
		if err := p.finishGeometry(); err != nil {
			return err
		}
		if p.walkmesh {
			p.state = stateDone
		} else {
			p.state = stateAnimation
		}
	case "donemodel":
		if err := p.finishGeometry(); err != nil {
			return err
		}
		p.state = stateDone
	case "endnode", "newanim", "doneanim", "beginmodelgeom", "newmodel":
		return syntaxErr(l.num, ErrUnexpectedDelimiter, "%q in geometry", l.key())
	default:
		p.log.Debug("ignoring geometry line", zap.String("label", l.key()), zap.Int("line", l.num))
	}
	return nil
}

func (p *parser) stepAnimation(l line) error {
	key := l.key()
	if p.anim == nil {
		switch key {
		case "newanim":
			if err := l.require(1); err != nil {
				return err
			}
			p.anim = NewAnimation(l.arg(1), p.model.Name)
		case "donemodel":
			p.state = stateDone
		case "node", "endnode", "doneanim", "endmodelgeom", "beginmodelgeom":
			return syntaxErr(l.num, ErrUnexpectedDelimiter, "%q outside an animation", key)
		default:
			p.log.Debug("ignoring line between animations", zap.String("label", key), zap.Int("line", l.num))
		}
		return nil
	}

	switch key {
	case "length":
		v, err := l.floatAt(1)
		if err != nil {
			return err
		}
		p.anim.Length = v
	case "transtime":
		v, err := l.floatAt(1)
		if err != nil {
			return err
		}
		p.anim.TransTime = v
	case "animroot":
		if err := l.require(1); err != nil {
			return err
		}
		p.anim.Root = l.arg(1)
	case "event":
		if err := l.require(2); err != nil {
			return err
		}
		t, err := l.floatAt(1)
		if err != nil {
			return err
		}
		p.anim.AddEvent(t, l.arg(2), p.opts.FPS)
	case "node":
		return p.openNode(l, stateAnimationNode)
	case "doneanim":
		p.model.Animations = append(p.model.Animations, p.anim)
		p.anim = nil
	case "newanim", "endnode", "donemodel", "endmodelgeom", "beginmodelgeom":
		return syntaxErr(l.num, ErrUnexpectedDelimiter, "%q inside animation %q", key, p.anim.Name)
	default:
		p.log.Debug("ignoring animation field", zap.String("label", key), zap.Int("line", l.num))
	}
	return nil
}

// openNode records the start of a node block.
func (p *parser) openNode(l line, next parseState) error {
	if err := l.require(2); err != nil {
		return err
	}
	t, err := ParseNodeType(l.arg(1))
	if err != nil {
		return &SyntaxError{Line: l.num, Err: err}
	}
	p.blockHead = l
	p.blockType = t
	p.block = p.block[:0]
	p.state = next
	return nil
}

// stepNode collects block lines until endnode, then builds the node.
func (p *parser) stepNode(l line) error {
	switch l.key() {
	case "node":
		return syntaxErr(l.num, ErrNestedNode, "%q opened inside %q (line %d)", l.arg(2), p.blockHead.arg(2), p.blockHead.num)
	case "endnode":
		return p.closeNode()
	case "newmodel", "donemodel", "beginmodelgeom", "endmodelgeom", "newanim", "doneanim":
		return syntaxErr(l.num, ErrUnexpectedDelimiter, "%q inside node %q", l.key(), p.blockHead.arg(2))
	}
	p.block = append(p.block, l)
	return nil
}

func (p *parser) closeNode() error {
	name := p.blockHead.arg(2)
	body := append([]line(nil), p.block...)
	if p.state == stateAnimationNode {
		n, err := parseAnimNodeBlock(p.blockType, name, body, p.opts)
		if err != nil {
			return fmt.Errorf("parsing animation %q node %q: %w", p.anim.Name, name, err)
		}
		p.anim.Nodes = append(p.anim.Nodes, n)
		p.state = stateAnimation
		return nil
	}
	n, err := parseNodeBlock(p.blockType, name, body, p.log)
	if err != nil {
		return fmt.Errorf("parsing node %q: %w", name, err)
	}
	p.model.Nodes = append(p.model.Nodes, n)
	p.state = stateGeometry
	return nil
}

// finishGeometry resolves parents once every node is known.
func (p *parser) finishGeometry() error {
	if p.walkmesh {
		return nil
	}
	if err := validateNodes(p.model.Nodes, true); err != nil {
		return fmt.Errorf("model %q: %w", p.model.Name, err)
	}
	return nil
}

func (p *parser) closeModel() error {
	if err := p.finishGeometry(); err != nil {
		return err
	}
	p.state = stateDone
	return nil
}

// parseAnimNodeBlock reads a node block inside an animation. Only the parent
// and keyed channels are meaningful there.
func parseAnimNodeBlock(t NodeType, name string, body []line, opts *Options) (*AnimNode, error) {
	n := NewAnimNode(t, name, Null)
	s := newBlockScanner(body)
	for {
		l, ok := s.next()
		if !ok {
			return n, nil
		}
		key := l.key()
		switch {
		case key == "parent":
			if err := l.require(1); err != nil {
				return nil, err
			}
			n.Parent = l.arg(1)
			if isNull(n.Parent) {
				n.Parent = Null
			}
		case strings.HasSuffix(key, "key") && len(key) > len("key"):
			tr, err := parseKeyList(l, s, opts.FPS)
			if err != nil {
				return nil, err
			}
			n.SetTrack(tr)
		case key == "endlist":
			return nil, syntaxErr(l.num, ErrUnexpectedDelimiter, "endlist without key list")
		default:
			if _, known := channels[key]; !known && !allNumeric(l.tokens[1:]) {
				opts.Logger.Debug("ignoring animation node field",
					zap.String("node", name), zap.String("field", key), zap.Int("line", l.num))
				continue
			}
			if len(l.tokens) < 2 {
				return nil, syntaxErr(l.num, ErrMissingField, "%q has no value", key)
			}
			v, err := l.floats(1, len(l.tokens)-1)
			if err != nil {
				return nil, err
			}
			tr := NewTrack(key)
			tr.Set(0, fromDisk(tr.Channel, v)...)
			n.SetTrack(tr)
		}
	}
}

// parseKeyList reads "<channel>key [N]" followed by "time v..." lines. With
// a count, exactly N lines are read and a trailing endlist is optional;
// without one, lines run until endlist.
func parseKeyList(head line, s *scanner, fps int) (*Track, error) {
	t := NewTrack(strings.TrimSuffix(head.key(), "key"))
	add := func(b line) error {
		if len(b.tokens) < 2 {
			return syntaxErr(b.num, ErrMissingField, "key without value")
		}
		v, err := b.floats(0, len(b.tokens))
		if err != nil {
			return err
		}
		t.Set(FrameForTime(v[0], fps), fromDisk(t.Channel, v[1:])...)
		return nil
	}

	if len(head.tokens) > 1 {
		n, err := head.intAt(1)
		if err != nil {
			return nil, err
		}
		body, err := s.take(n, head)
		if err != nil {
			return nil, err
		}
		for _, b := range body {
			if err := add(b); err != nil {
				return nil, err
			}
		}
		if l, ok := s.peek(); ok && l.key() == "endlist" {
			s.next()
		}
		return t, nil
	}

	for {
		b, ok := s.next()
		if !ok {
			return nil, syntaxErr(head.num, ErrUnexpectedEOF, "%q has no endlist", head.key())
		}
		if b.key() == "endlist" {
			return t, nil
		}
		if err := add(b); err != nil {
			return nil, err
		}
	}
}

func allNumeric(tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, tok := range tokens {
		if !(line{tokens: []string{tok}}).numeric() {
			return false
		}
	}
	return true
}
