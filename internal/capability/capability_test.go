package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type greeter interface{ Greet() string }

type english struct{}

func (*english) Greet() string { return "hello" }

func TestOf(t *testing.T) {
	c := Of[greeter](&english{})
	g, ok := c.Get()
	assert.True(t, ok)
	assert.True(t, c.Present())
	assert.Equal(t, "hello", g.Greet())
}

func TestOf_NilIsAbsent(t *testing.T) {
	var typed *english
	assert.False(t, Of[greeter](typed).Present())
	assert.False(t, Of[greeter](nil).Present())

	g, ok := None[greeter]().Get()
	assert.False(t, ok)
	assert.Nil(t, g)
}

func TestZeroValueIsAbsent(t *testing.T) {
	var c Capability[greeter]
	assert.False(t, c.Present())
}
