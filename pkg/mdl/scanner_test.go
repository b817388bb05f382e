package mdl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan(t *testing.T) {
	src := "#MAXMODEL ASCII\n\n  newmodel  Foo \n# comment\n\tverts 2\n1 2 3\n  #indented comment\n4 5 6\n"
	s, err := scan(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, s.lines, 4)

	l, ok := s.next()
	require.True(t, ok)
	assert.Equal(t, 3, l.num)
	assert.Equal(t, "newmodel", l.key())
	assert.Equal(t, "Foo", l.arg(1))
	assert.Equal(t, "", l.arg(5))

	head, _ := s.next()
	assert.Equal(t, 5, head.num)
	peeked, ok := s.peek()
	require.True(t, ok)
	assert.Equal(t, 6, peeked.num)

	body, err := s.take(2, head)
	require.NoError(t, err)
	assert.Equal(t, []int{6, 8}, []int{body[0].num, body[1].num})
	_, ok = s.next()
	assert.False(t, ok)
	assert.Equal(t, 8, s.lastLine())
}

func TestScannerTake(t *testing.T) {
	head := line{num: 1, tokens: []string{"verts", "3"}}
	s := newBlockScanner([]line{{num: 2, tokens: []string{"0", "0", "0"}}})

	_, err := s.take(3, head)
	assert.ErrorIs(t, err, ErrListCount)
	_, err = s.take(-1, head)
	assert.ErrorIs(t, err, ErrInvalidNumber)

	body, err := s.take(0, head)
	require.NoError(t, err)
	assert.Empty(t, body)
}

func TestLineValues(t *testing.T) {
	l := line{num: 4, tokens: []string{"Render", "1.0", "abc", "-2"}}
	assert.Equal(t, "render", l.key())

	b, err := l.boolAt(1)
	require.NoError(t, err)
	assert.True(t, b)

	n, err := l.intAt(3)
	require.NoError(t, err)
	assert.Equal(t, -2, n)

	_, err = l.floatAt(2)
	assert.ErrorIs(t, err, ErrInvalidNumber)
	_, err = l.floatAt(9)
	assert.ErrorIs(t, err, ErrMissingField)
	assert.ErrorIs(t, l.require(4), ErrMissingField)
	assert.NoError(t, l.require(3))
	assert.Equal(t, "1.0 abc -2", l.rest())

	assert.True(t, line{tokens: []string{"-0.5", "x"}}.numeric())
	assert.False(t, line{tokens: []string{"endnode"}}.numeric())
}
