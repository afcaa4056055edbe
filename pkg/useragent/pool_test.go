package useragent

import (
	"sync"
	"testing"
)

func TestPool_Default(t *testing.T) {
	p := NewPool(nil)
	if p.Len() != len(DefaultPool) {
		t.Errorf("expected pool length %d, got %d", len(DefaultPool), p.Len())
	}
	if len(DefaultPool) != 20 {
		t.Errorf("expected 20 built-in user agents, got %d", len(DefaultPool))
	}
}

func TestPool_DropsBlankEntries(t *testing.T) {
	p := NewPool([]string{"A", "", "  ", "B"})
	if p.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", p.Len())
	}
	if p.Contains("") {
		t.Errorf("blank entry should not be kept")
	}
}

func TestPool_AllBlankFallsBackToDefault(t *testing.T) {
	p := NewPool([]string{"", " ", "\t"})
	if p.Len() != len(DefaultPool) {
		t.Fatalf("expected fallback to %d built-in entries, got %d", len(DefaultPool), p.Len())
	}
	if ua := p.Random(); ua == "" {
		t.Error("expected a non-empty User-Agent")
	}
}

func TestPool_RandomCoversPool(t *testing.T) {
	uas := []string{"A", "B", "C"}
	p := NewPool(uas)

	seen := map[string]int{}
	// 300 draws over 3 entries; missing one has probability ~ 3*(2/3)^300
	for i := 0; i < 300; i++ {
		got := p.Random()
		if !p.Contains(got) {
			t.Fatalf("unexpected UA: %s", got)
		}
		seen[got]++
	}

	for _, ua := range uas {
		if seen[ua] == 0 {
			t.Errorf("expected %s to be drawn at least once, counts: %v", ua, seen)
		}
	}
}

func TestPool_AllIsACopy(t *testing.T) {
	p := NewPool([]string{"A", "B"})
	all := p.All()
	all[0] = "mutated"
	if p.Contains("mutated") {
		t.Errorf("All should return a copy")
	}
}

func TestPool_ExternalSliceMutation(t *testing.T) {
	src := []string{"A", "B"}
	p := NewPool(src)
	src[0] = "mutated"
	if !p.Contains("A") {
		t.Errorf("pool should not share the caller's slice")
	}
}

func TestPool_Concurrent(t *testing.T) {
	p := NewPool([]string{"X", "Y", "Z"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if ua := p.Random(); !p.Contains(ua) {
					t.Errorf("unexpected UA: %s", ua)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestPool_Empty(t *testing.T) {
	p := &Pool{uas: []string{}}

	if got := p.Random(); got != "" {
		t.Errorf("expected empty string on empty random, got %s", got)
	}
}
