package generic

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolResetsOnPut(t *testing.T) {
	created := 0
	p := NewPool(func() *bytes.Buffer {
		created++
		return new(bytes.Buffer)
	}, func(b *bytes.Buffer) { b.Reset() })

	buf := p.Get()
	buf.WriteString("stale")
	p.Put(buf)

	assert.Zero(t, buf.Len())
	assert.GreaterOrEqual(t, created, 1)

	again := p.Get()
	assert.Zero(t, again.Len())
}

func TestPoolWithoutReset(t *testing.T) {
	p := NewPool(func() []int { return make([]int, 0, 4) }, nil)
	s := p.Get()
	assert.Equal(t, 4, cap(s))
	assert.NotPanics(t, func() { p.Put(s) })
}
