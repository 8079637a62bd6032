package geniesdk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampBufferSizeAsync(t *testing.T) {
	assert.Equal(t, asyncBufferMin, clampBufferSize(100, true))
	assert.Equal(t, asyncBufferMax, clampBufferSize(10*1024*1024, true))
	assert.Equal(t, 64*1024, clampBufferSize(64*1024, true))
}

func TestClampBufferSizeSync(t *testing.T) {
	assert.Equal(t, syncBufferMin, clampBufferSize(100, false))
	assert.Equal(t, syncBufferMax, clampBufferSize(1024*1024, false))
	assert.Equal(t, 4096, clampBufferSize(4096, false))
}

func TestSourceRegistryLookup(t *testing.T) {
	reg := NewSourceRegistry()
	reg.Register(FileSource{})
	reg.Register(NewStaticSource())

	a, ok := reg.Lookup("file")
	assert.True(t, ok)
	assert.Equal(t, "file", a.Scheme())

	_, ok = reg.Lookup("bogus")
	assert.False(t, ok)
}
