package mdl

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// line is one non-blank, non-comment source line split into tokens.
type line struct {
	num    int
	tokens []string
}

// key returns the lowercase first token, which every dispatch switches on.
func (l line) key() string {
	if len(l.tokens) == 0 {
		return ""
	}
	return strings.ToLower(l.tokens[0])
}

// arg returns token i, or "" when the line is shorter.
func (l line) arg(i int) string {
	if i < len(l.tokens) {
		return l.tokens[i]
	}
	return ""
}

// rest returns the tokens after the label joined by single spaces.
func (l line) rest() string {
	if len(l.tokens) < 2 {
		return ""
	}
	return strings.Join(l.tokens[1:], " ")
}

// require fails with ErrMissingField unless the line has n tokens after the label.
func (l line) require(n int) error {
	if len(l.tokens) < n+1 {
		return syntaxErr(l.num, ErrMissingField, "%q needs %d value(s)", l.key(), n)
	}
	return nil
}

// floatAt parses token i as a float.
func (l line) floatAt(i int) (float64, error) {
	if i >= len(l.tokens) {
		return 0, syntaxErr(l.num, ErrMissingField, "%q needs value %d", l.key(), i)
	}
	v, err := strconv.ParseFloat(l.tokens[i], 64)
	if err != nil {
		return 0, syntaxErr(l.num, ErrInvalidNumber, "%q", l.tokens[i])
	}
	return v, nil
}

// floats parses n floats starting at token i.
func (l line) floats(i, n int) ([]float64, error) {
	out := make([]float64, n)
	for j := range out {
		v, err := l.floatAt(i + j)
		if err != nil {
			return nil, err
		}
		out[j] = v
	}
	return out, nil
}

// intAt parses token i as an integer. Values written as floats ("1.0") are
// accepted and truncated, which some exporters produce for flags.
func (l line) intAt(i int) (int, error) {
	if i >= len(l.tokens) {
		return 0, syntaxErr(l.num, ErrMissingField, "%q needs value %d", l.key(), i)
	}
	if v, err := strconv.Atoi(l.tokens[i]); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(l.tokens[i], 64)
	if err != nil {
		return 0, syntaxErr(l.num, ErrInvalidNumber, "%q", l.tokens[i])
	}
	return int(f), nil
}

// boolAt parses token i as a 0/1 flag.
func (l line) boolAt(i int) (bool, error) {
	v, err := l.intAt(i)
	return v != 0, err
}

// numeric reports whether the first token is a number (a list body line).
func (l line) numeric() bool {
	_, err := strconv.ParseFloat(l.arg(0), 64)
	return err == nil
}

// scanner is a cursor over tokenized lines.
type scanner struct {
	lines []line
	pos   int
}

// scan tokenizes the whole input. Blank lines and lines starting with '#'
// are dropped.
func scan(r io.Reader) (*scanner, error) {
	s := &scanner{}
	br := bufio.NewScanner(r)
	br.Buffer(make([]byte, 64*1024), 4*1024*1024)
	num := 0
	for br.Scan() {
		num++
		tokens := strings.Fields(br.Text())
		if len(tokens) == 0 || strings.HasPrefix(tokens[0], "#") {
			continue
		}
		s.lines = append(s.lines, line{num: num, tokens: tokens})
	}
	if err := br.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// newBlockScanner returns a scanner over an already captured block.
func newBlockScanner(lines []line) *scanner {
	return &scanner{lines: lines}
}

// next returns the next line and advances.
func (s *scanner) next() (line, bool) {
	if s.pos >= len(s.lines) {
		return line{}, false
	}
	l := s.lines[s.pos]
	s.pos++
	return l, true
}

// peek returns the next line without consuming it.
func (s *scanner) peek() (line, bool) {
	if s.pos >= len(s.lines) {
		return line{}, false
	}
	return s.lines[s.pos], true
}

// take consumes exactly n lines as a list body. at is the header line, used
// for the error position when the input runs short.
func (s *scanner) take(n int, at line) ([]line, error) {
	if n < 0 {
		return nil, syntaxErr(at.num, ErrInvalidNumber, "negative count for %q", at.key())
	}
	if s.pos+n > len(s.lines) {
		return nil, syntaxErr(at.num, ErrListCount, "%q declares %d, %d available", at.key(), n, len(s.lines)-s.pos)
	}
	body := s.lines[s.pos : s.pos+n]
	s.pos += n
	return body, nil
}

// lastLine returns the number of the last line, for end-of-input errors.
func (s *scanner) lastLine() int {
	if len(s.lines) == 0 {
		return 0
	}
	return s.lines[len(s.lines)-1].num
}
