package transcript

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_InterleavedAppendsInCompletionOrder(t *testing.T) {
	b := NewBuffer(false)

	assert.Equal(t, []Fragment{{Seq: 2, Text: "second"}}, b.Commit(2, "second", true))
	assert.Equal(t, []Fragment{{Seq: 1, Text: "first"}}, b.Commit(1, "first", true))

	assert.Equal(t, "second first", b.Text())
	assert.Equal(t, 2, b.Len())
	assert.Zero(t, b.Pending())
}

func TestBuffer_UnusableCommitLeavesTextUnchanged(t *testing.T) {
	b := NewBuffer(false)
	b.Commit(1, "hello", true)

	assert.Nil(t, b.Commit(2, "Transcription failed", false))
	assert.Equal(t, "hello", b.Text())
	assert.Equal(t, 1, b.Len())
}

func TestBuffer_OnlyGrows(t *testing.T) {
	b := NewBuffer(false)
	prev := ""
	inputs := []struct {
		text   string
		usable bool
	}{
		{"my", true}, {"", false}, {"head", true}, {"Transcription failed", false}, {"hurts", true},
	}
	for i, in := range inputs {
		b.Commit(i+1, in.text, in.usable)
		cur := b.Text()
		require.GreaterOrEqual(t, len(cur), len(prev))
		assert.Contains(t, cur, prev)
		prev = cur
	}
	assert.Equal(t, "my head hurts", b.Text())
}

func TestBuffer_OrderedHoldsUntilPredecessorResolves(t *testing.T) {
	b := NewBuffer(true)

	assert.Empty(t, b.Commit(3, "three", true))
	assert.Empty(t, b.Commit(2, "two", true))
	assert.Equal(t, 2, b.Pending())
	assert.Equal(t, "", b.Text())

	assert.Equal(t, []Fragment{
		{Seq: 1, Text: "one"},
		{Seq: 2, Text: "two"},
		{Seq: 3, Text: "three"},
	}, b.Commit(1, "one", true))
	assert.Equal(t, "one two three", b.Text())
	assert.Zero(t, b.Pending())
}

func TestBuffer_OrderedFailureReleasesQueue(t *testing.T) {
	b := NewBuffer(true)

	b.Commit(2, "two", true)
	assert.Equal(t, []Fragment{{Seq: 2, Text: "two"}}, b.Commit(1, "", false))
	assert.Equal(t, "two", b.Text())
}

func TestBuffer_OrderedIgnoresStaleSeq(t *testing.T) {
	b := NewBuffer(true)
	b.Commit(1, "one", true)

	assert.Nil(t, b.Commit(1, "again", true))
	assert.Equal(t, "one", b.Text())
}

func TestBuffer_CloseStopsAppends(t *testing.T) {
	b := NewBuffer(false)
	b.Commit(1, "before", true)

	final := b.Close()
	assert.Equal(t, "before", final)
	assert.True(t, b.Closed())

	assert.Nil(t, b.Commit(2, "after", true))
	assert.Equal(t, "before", b.Text())
}

func TestBuffer_ConcurrentCommits(t *testing.T) {
	b := NewBuffer(false)

	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(seq int) {
			defer wg.Done()
			b.Commit(seq, "x", true)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 100, b.Len())
}
