package utility

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestPtr(t *testing.T) {
	t.Parallel()

	p := Ptr(42)
	assert.Assert(t, p != nil)
	assert.Equal(t, *p, 42)

	s := Ptr("foo")
	assert.Equal(t, *s, "foo")
}

func TestValueOr(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ValueOr(nil, 10), 10)
	assert.Equal(t, ValueOr(Ptr(3), 10), 3)
	assert.Equal(t, ValueOr[string](nil, "x"), "x")
}
