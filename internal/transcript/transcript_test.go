package transcript

import (
	"encoding/json"
	"testing"

	"github.com/dorkfun/matchserver/internal/gamemodule"
)

func TestAddEntryChainsPrevHashToPriorCurrentHash(t *testing.T) {
	initial := gamemodule.State(`{"board":[]}`)
	b, err := NewBuilder("match-1", "tictactoe", initial)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	initialHash := b.CurrentHash

	action1, _ := json.Marshal(map[string]int{"cell": 0})
	e1, err := b.AddEntry("0xalice", action1, gamemodule.State(`{"board":[1]}`), 1000)
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if e1.PrevHash != initialHash {
		t.Errorf("first entry's prevHash should be the initial-state hash")
	}
	if e1.Sequence != 0 {
		t.Errorf("expected sequence 0, got %d", e1.Sequence)
	}
	afterFirst := b.CurrentHash

	action2, _ := json.Marshal(map[string]int{"cell": 1})
	e2, err := b.AddEntry("0xbob", action2, gamemodule.State(`{"board":[1,2]}`), 2000)
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if e2.PrevHash != afterFirst {
		t.Errorf("second entry's prevHash should be the chain head after the first entry")
	}
	if e2.Sequence != 1 {
		t.Errorf("expected sequence 1, got %d", e2.Sequence)
	}
}

func TestRootIsDeterministicForIdenticalReplay(t *testing.T) {
	build := func() *Builder {
		b, _ := NewBuilder("match-1", "tictactoe", gamemodule.State(`{"board":[]}`))
		a, _ := json.Marshal(map[string]int{"cell": 4})
		b.AddEntry("0xalice", a, gamemodule.State(`{"board":[0,0,0,0,1]}`), 42)
		return b
	}
	b1 := build()
	b2 := build()
	if b1.Root() != b2.Root() {
		t.Error("two builders fed identical input should reach the same root hash")
	}
}

func TestVerifyDetectsTamperedEntry(t *testing.T) {
	b, _ := NewBuilder("match-1", "tictactoe", gamemodule.State(`{"board":[]}`))
	a, _ := json.Marshal(map[string]int{"cell": 0})
	b.AddEntry("0xalice", a, gamemodule.State(`{"board":[1]}`), 1)
	b.AddEntry("0xbob", a, gamemodule.State(`{"board":[1,2]}`), 2)

	initialHash := func() [32]byte {
		fresh, _ := NewBuilder("match-1", "tictactoe", gamemodule.State(`{"board":[]}`))
		return fresh.CurrentHash
	}()
	_ = initialHash

	if err := Verify(b.Entries[0].PrevHash, b.Entries); err != nil {
		t.Fatalf("untampered transcript should verify: %v", err)
	}

	tampered := make([]Entry, len(b.Entries))
	copy(tampered, b.Entries)
	tampered[0].PlayerAddress = "0xmallory"
	if err := Verify(b.Entries[0].PrevHash, tampered); err == nil {
		t.Error("tampering with an entry should break the hash chain")
	}
}

func TestSequenceNumbersAreDenseAndZeroBased(t *testing.T) {
	b, _ := NewBuilder("match-1", "tictactoe", gamemodule.State(`{"board":[]}`))
	for i := 0; i < 5; i++ {
		a, _ := json.Marshal(map[string]int{"cell": i})
		e, err := b.AddEntry("0xalice", a, gamemodule.State(`{"board":[]}`), int64(i))
		if err != nil {
			t.Fatalf("AddEntry: %v", err)
		}
		if e.Sequence != i {
			t.Errorf("entry %d has sequence %d", i, e.Sequence)
		}
	}
}
