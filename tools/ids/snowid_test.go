package ids

import (
	"sync"
	"testing"
)

func TestGenerateStrictlyIncreasing(t *testing.T) {
	prev := Generate()
	for i := 0; i < 10000; i++ {
		id := Generate()
		if id <= prev {
			t.Fatalf("id %d not greater than previous %d", id, prev)
		}
		prev = id
	}
}

func TestGenerateUniqueAcrossGoroutines(t *testing.T) {
	const perWorker = 2000
	var mu sync.Mutex
	seen := make(map[int64]bool, 4*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				local = append(local, Generate())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range local {
				if seen[id] {
					t.Errorf("duplicate id %d", id)
					return
				}
				seen[id] = true
			}
		}()
	}
	wg.Wait()
}

func TestSetNodeIDClampsOutOfRange(t *testing.T) {
	defer SetNodeID(1)

	SetNodeID(2048)
	if defaultGen.nodeID != 1 {
		t.Fatalf("node id = %d", defaultGen.nodeID)
	}
	SetNodeID(512)
	if defaultGen.nodeID != 512 {
		t.Fatalf("node id = %d", defaultGen.nodeID)
	}
}
