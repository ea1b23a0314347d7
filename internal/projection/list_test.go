package projection

import (
	"slices"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
)

func equalTo(v int8) func(int8) bool {
	return func(x int8) bool { return x == v }
}

func TestIndexOf(t *testing.T) {
	assert.Equal(t, 1, IndexOf([]int8{3, 4, 4}, equalTo(4)))
	assert.Equal(t, -1, IndexOf([]int8{3, 4}, equalTo(5)))
	assert.Equal(t, -1, IndexOf(nil, equalTo(5)))
}

func TestRemoveFirst_Properties(t *testing.T) {
	property := func(items []int8, v int8) bool {
		before := slices.Clone(items)
		out := RemoveFirst(items, equalTo(v))
		if !slices.Equal(items, before) {
			return false
		}
		i := slices.Index(items, v)
		if i < 0 {
			return slices.Equal(out, items)
		}
		want := append(slices.Clone(items[:i]), items[i+1:]...)
		return slices.Equal(out, want)
	}
	if err := quick.Check(property, nil); err != nil {
		t.Fatal(err)
	}
}

func TestRemoveAll_Properties(t *testing.T) {
	property := func(items []int8, v int8) bool {
		before := slices.Clone(items)
		out := RemoveAll(items, equalTo(v))
		if !slices.Equal(items, before) || slices.Contains(out, v) {
			return false
		}
		kept := 0
		for _, x := range items {
			if x != v {
				if kept >= len(out) || out[kept] != x {
					return false
				}
				kept++
			}
		}
		return kept == len(out)
	}
	if err := quick.Check(property, nil); err != nil {
		t.Fatal(err)
	}
}

func TestUpsert_Properties(t *testing.T) {
	property := func(items []int8, v int8) bool {
		before := slices.Clone(items)
		out := Upsert(items, v, equalTo(v))
		if !slices.Equal(items, before) {
			return false
		}
		if slices.Contains(items, v) {
			return len(out) == len(items)
		}
		return len(out) == len(items)+1 && out[len(out)-1] == v
	}
	if err := quick.Check(property, nil); err != nil {
		t.Fatal(err)
	}

	idempotent := func(items []int8, v int8) bool {
		once := Upsert(items, v, equalTo(v))
		return slices.Equal(once, Upsert(once, v, equalTo(v)))
	}
	if err := quick.Check(idempotent, nil); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateAll_CopiesOnWrite(t *testing.T) {
	items := []Item{{ID: "a"}, {ID: "b"}, {ID: "a"}}
	out := UpdateAll(items, ByTaskID("a"), func(it *Item) { it.Completed = true })

	assert.False(t, items[0].Completed)
	assert.True(t, out[0].Completed)
	assert.False(t, out[1].Completed)
	assert.True(t, out[2].Completed)
}
