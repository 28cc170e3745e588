package orderbook

import (
	"math/rand"
	"sort"
	"testing"
)

func insertPrices(side *BookSide, prices []int64) {
	for i, p := range prices {
		side.InsertOrAppend(&Order{Seq: uint64(i + 1), Side: side.side, Kind: Limit, Price: p, Qty: 1})
	}
}

func walkPrices(side *BookSide) []int64 {
	var out []int64
	side.EachBestFirst(func(lvl *PriceLevel) bool {
		out = append(out, lvl.Price)
		return true
	})
	return out
}

func TestAskSideOrdersAscending(t *testing.T) {
	asks := NewBookSide(Sell)
	prices := []int64{50, 10, 40, 20, 30, 25, 45, 15, 35, 5}
	insertPrices(asks, prices)

	got := walkPrices(asks)
	want := append([]int64(nil), prices...)
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

	if len(got) != len(want) {
		t.Fatalf("got %d levels, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ascending walk = %v, want %v", got, want)
		}
	}
	if asks.Best().Price != 5 {
		t.Fatalf("best ask = %d, want 5", asks.Best().Price)
	}
}

func TestBidSideOrdersDescending(t *testing.T) {
	bids := NewBookSide(Buy)
	insertPrices(bids, []int64{10, 30, 20})

	got := walkPrices(bids)
	want := []int64{30, 20, 10}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("descending walk = %v, want %v", got, want)
		}
	}
	if bids.Best().Price != 30 {
		t.Fatalf("best bid = %d, want 30", bids.Best().Price)
	}
}

func TestOnePricedLevelPerPrice(t *testing.T) {
	bids := NewBookSide(Buy)
	insertPrices(bids, []int64{20, 20, 20})

	if bids.Len() != 1 {
		t.Fatalf("len = %d, want a single level", bids.Len())
	}
	lvl := bids.Level(20)
	if lvl == nil || lvl.Count != 3 || lvl.TotalQty != 3 {
		t.Fatalf("level = %+v, want 3 orders totalling 3", lvl)
	}
}

func TestLevelQueuePreservesArrivalOrder(t *testing.T) {
	asks := NewBookSide(Sell)
	insertPrices(asks, []int64{7, 7, 7})

	lvl := asks.Level(7)
	var seqs []uint64
	for o := lvl.front(); o != nil; {
		seqs = append(seqs, o.Seq)
		o.Qty = 0
		lvl.unlinkFront()
		o = lvl.front()
	}
	for i := 1; i < len(seqs); i++ {
		if seqs[i] <= seqs[i-1] {
			t.Fatalf("FIFO broken: %v", seqs)
		}
	}
}

func TestRemoveLevelRebalances(t *testing.T) {
	asks := NewBookSide(Sell)
	prices := []int64{8, 4, 12, 2, 6, 10, 14, 1, 3, 5, 7, 9, 11, 13, 15}
	insertPrices(asks, prices)

	// Delete in an order that walks through several fixup shapes.
	for _, p := range []int64{8, 1, 15, 4, 12, 2, 14} {
		if !asks.RemoveLevel(p) {
			t.Fatalf("remove %d failed", p)
		}
	}
	if asks.RemoveLevel(999) {
		t.Fatal("removing an absent level must report false")
	}

	got := walkPrices(asks)
	want := []int64{3, 5, 6, 7, 9, 10, 11, 13}
	if len(got) != len(want) {
		t.Fatalf("levels = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("levels = %v, want %v", got, want)
		}
	}
	if asks.Best().Price != 3 {
		t.Fatalf("best = %d, want 3", asks.Best().Price)
	}
	if asks.Len() != len(want) {
		t.Fatalf("len = %d, want %d", asks.Len(), len(want))
	}
}

func TestRemoveLevelWithInwardRedNephew(t *testing.T) {
	// Removing 30 leaves the deficit on the high flank with the sibling on
	// the low side carrying its red child inward (15). The fixup must
	// restructure around the sibling itself before rotating the parent.
	asks := NewBookSide(Sell)
	insertPrices(asks, []int64{20, 10, 30, 15})

	if !asks.RemoveLevel(30) {
		t.Fatal("remove 30 failed")
	}
	got := walkPrices(asks)
	want := []int64{10, 15, 20}
	if len(got) != len(want) {
		t.Fatalf("levels = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("levels = %v, want %v", got, want)
		}
	}
	if asks.Best().Price != 10 {
		t.Fatalf("best = %d, want 10", asks.Best().Price)
	}

	// Mirror image: deficit on the low flank, sibling on the high side
	// with its red child pointing inward (25).
	bids := NewBookSide(Buy)
	insertPrices(bids, []int64{20, 10, 30, 25})

	if !bids.RemoveLevel(10) {
		t.Fatal("remove 10 failed")
	}
	got = walkPrices(bids)
	want = []int64{30, 25, 20}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("levels = %v, want %v", got, want)
		}
	}
}

func TestRandomizedInsertDeleteAgainstOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	asks := NewBookSide(Sell)
	present := make(map[int64]bool)

	verify := func(step int) {
		t.Helper()
		want := make([]int64, 0, len(present))
		for p := range present {
			want = append(want, p)
		}
		sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

		got := walkPrices(asks)
		if len(got) != len(want) {
			t.Fatalf("step %d: %d levels, want %d", step, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("step %d: walk = %v, want %v", step, got, want)
			}
		}
		if asks.Len() != len(want) {
			t.Fatalf("step %d: len = %d, want %d", step, asks.Len(), len(want))
		}
		if len(want) > 0 && asks.Best().Price != want[0] {
			t.Fatalf("step %d: best = %d, want %d", step, asks.Best().Price, want[0])
		}
	}

	for i := 0; i < 5000; i++ {
		p := int64(1 + rng.Intn(200))
		if present[p] {
			if !asks.RemoveLevel(p) {
				t.Fatalf("step %d: remove %d failed", i, p)
			}
			delete(present, p)
		} else {
			asks.InsertOrAppend(&Order{Side: Sell, Kind: Limit, Price: p, Qty: 1})
			present[p] = true
		}
		if i%100 == 0 {
			verify(i)
		}
	}
	verify(5000)
}

func TestEmptySide(t *testing.T) {
	bids := NewBookSide(Buy)
	if bids.Best() != nil {
		t.Fatal("best of empty side must be nil")
	}
	if bids.Level(10) != nil {
		t.Fatal("level lookup on empty side must be nil")
	}
	if bids.Len() != 0 {
		t.Fatal("empty side must have zero levels")
	}
}
