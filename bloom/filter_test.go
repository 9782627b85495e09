package bloom_test

import (
	"fmt"
	"testing"

	"github.com/fwojciec/sift/bloom"
	"github.com/stretchr/testify/assert"
)

func TestFilter_AddAndTest(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)

	assert.False(t, f.Test("topic-a|https://example.com/one"))

	f.Add("topic-a|https://example.com/one")

	assert.True(t, f.Test("topic-a|https://example.com/one"))
	assert.False(t, f.Test("topic-a|https://example.com/two"))
}

func TestFilter_TestAndAdd(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)

	assert.False(t, f.TestAndAdd("https://example.com/one"), "first sighting is new")
	assert.True(t, f.TestAndAdd("https://example.com/one"), "second sighting is seen")
	assert.True(t, f.Test("https://example.com/one"))
}

func TestFilter_EstimatedCount(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)
	assert.Equal(t, uint(0), f.EstimatedCount())

	for i := range 50 {
		f.Add(fmt.Sprintf("https://example.com/article/%d", i))
	}

	count := f.EstimatedCount()
	assert.True(t, count >= 45 && count <= 55, "expected count near 50, got %d", count)
}

func TestFilter_AddIsIdempotent(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)

	f.Add("https://example.com/one")
	before := f.EstimatedCount()
	f.Add("https://example.com/one")
	f.Add("https://example.com/one")

	assert.Equal(t, before, f.EstimatedCount())
}
