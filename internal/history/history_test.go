package history

import (
	"reflect"
	"testing"
)

func chain(c *Cache, tag int) []Span {
	var out []Span
	for cur := c.Lookup(tag); cur.Valid(); cur = c.Next(cur) {
		out = append(out, c.At(cur))
	}
	return out
}

func queue(c *Cache) []Span {
	var out []Span
	for idx := c.qhead; idx != 0; idx = c.slots[idx].qnext {
		out = append(out, c.slots[idx].span)
	}
	return out
}

func TestCache_InsertLookup(t *testing.T) {
	c := New(4)
	c.Insert(1, 0, 2)
	c.Insert(2, 1, 3)
	c.Insert(1, 4, 5)

	if got, want := chain(c, 1), []Span{{0, 2}, {4, 5}}; !reflect.DeepEqual(got, want) {
		t.Errorf("chain(1) = %v, want %v", got, want)
	}
	if got, want := chain(c, 2), []Span{{1, 3}}; !reflect.DeepEqual(got, want) {
		t.Errorf("chain(2) = %v, want %v", got, want)
	}
	if cur := c.Lookup(3); cur.Valid() {
		t.Error("Lookup(3) on an empty chain returned a span")
	}
	if cur := c.Lookup(99); cur.Valid() {
		t.Error("Lookup(99) outside the tag range returned a span")
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestCache_EvictPrefix(t *testing.T) {
	// N spans with strictly increasing ends, spread over tags.
	const n = 10
	for k := 0; k < n; k++ {
		c := New(3)
		var all []Span
		for i := 0; i < n; i++ {
			c.Insert(i%3, i, 10*(i+1))
			all = append(all, Span{i, 10 * (i + 1)})
		}

		removed := c.EvictThrough(10 * (k + 1))
		if removed != k+1 {
			t.Errorf("EvictThrough(e_%d) removed %d, want %d", k+1, removed, k+1)
		}
		if got := queue(c); !reflect.DeepEqual(got, nilIfEmpty(all[k+1:])) {
			t.Errorf("after EvictThrough(e_%d) queue = %v, want %v", k+1, got, all[k+1:])
		}
		for tag := 0; tag < 3; tag++ {
			var want []Span
			for i := k + 1; i < n; i++ {
				if i%3 == tag {
					want = append(want, all[i])
				}
			}
			if got := chain(c, tag); !reflect.DeepEqual(got, want) {
				t.Errorf("after EvictThrough(e_%d) chain(%d) = %v, want %v", k+1, tag, got, want)
			}
		}
	}
}

func nilIfEmpty(s []Span) []Span {
	if len(s) == 0 {
		return nil
	}
	return s
}

func TestCache_EvictStopsAtFirstSurvivor(t *testing.T) {
	c := New(2)
	c.Insert(0, 0, 5)
	c.Insert(1, 0, 9)
	c.Insert(0, 0, 9)

	if removed := c.EvictThrough(4); removed != 0 {
		t.Errorf("EvictThrough(4) removed %d, want 0", removed)
	}
	if removed := c.EvictThrough(5); removed != 1 {
		t.Errorf("EvictThrough(5) removed %d, want 1", removed)
	}
	if c.qhead == 0 || c.slots[c.qhead].span != (Span{0, 9}) {
		t.Errorf("queue front = %+v, want {0 9}", c.slots[c.qhead].span)
	}
	if removed := c.EvictThrough(100); removed != 2 {
		t.Errorf("EvictThrough(100) removed %d, want 2", removed)
	}
	if c.Len() != 0 || c.Lookup(0).Valid() || c.Lookup(1).Valid() {
		t.Error("cache not empty after evicting everything")
	}
	if c.qhead != 0 || c.qtail != 0 {
		t.Error("arrival queue not empty after evicting everything")
	}
}

func TestCache_SlotReuse(t *testing.T) {
	c := New(1)
	for round := 0; round < 100; round++ {
		c.Insert(0, round, round+1)
		c.Insert(0, round, round+2)
		c.EvictThrough(round + 2)
	}
	// Two spans live at a time: the pool never grows past a few slots.
	if len(c.slots) > 4 {
		t.Errorf("slot pool grew to %d, want at most 4", len(c.slots))
	}
}

func TestCache_Reset(t *testing.T) {
	c := New(3)
	c.Insert(0, 0, 1)
	c.Insert(2, 1, 2)
	c.Reset()

	if c.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", c.Len())
	}
	for tag := 0; tag < 3; tag++ {
		if c.Lookup(tag).Valid() {
			t.Errorf("Lookup(%d) after Reset returned a span", tag)
		}
	}

	c.Insert(2, 7, 8)
	if got, want := chain(c, 2), []Span{{7, 8}}; !reflect.DeepEqual(got, want) {
		t.Errorf("chain(2) after Reset = %v, want %v", got, want)
	}
}
