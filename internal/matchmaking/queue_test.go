package matchmaking

import (
	"sync"
	"testing"
	"time"
)

func TestJoinPairsTwoDistinctPlayers(t *testing.T) {
	q := New(time.Minute)
	r1 := q.Join("tictactoe", "alice", "0")
	if r1.Matched {
		t.Fatal("first joiner should be queued, not matched")
	}
	r2 := q.Join("tictactoe", "bob", "0")
	if !r2.Matched || r2.Opponent != "alice" {
		t.Fatalf("expected bob to match alice, got matched=%v opponent=%q", r2.Matched, r2.Opponent)
	}
}

func TestJoinDoesNotMatchAcrossDifferentStakes(t *testing.T) {
	q := New(time.Minute)
	q.Join("tictactoe", "alice", "0")
	r := q.Join("tictactoe", "bob", "100")
	if r.Matched {
		t.Fatal("tickets in different stake pools must never be paired")
	}
}

func TestJoinPurgesStaleTicketForSamePlayer(t *testing.T) {
	q := New(time.Minute)
	first := q.Join("tictactoe", "alice", "0")
	second := q.Join("tictactoe", "alice", "0")
	if second.Matched {
		t.Fatal("alice cannot match herself")
	}
	if second.Ticket.Token == first.Ticket.Token {
		t.Error("expected a fresh ticket to replace the stale one")
	}
	// only one live ticket should remain for alice
	r := q.Join("tictactoe", "bob", "0")
	if !r.Matched {
		t.Fatal("bob should pair against alice's single remaining ticket")
	}
}

func TestLeaveRemovesTicket(t *testing.T) {
	q := New(time.Minute)
	r := q.Join("tictactoe", "alice", "0")
	if !q.Leave("tictactoe", "0", r.Ticket.Token) {
		t.Fatal("expected Leave to find and remove the ticket")
	}
	if q.Leave("tictactoe", "0", r.Ticket.Token) {
		t.Error("leaving an already-removed ticket should report false")
	}
}

func TestExpiredTicketIsNotMatched(t *testing.T) {
	q := New(time.Millisecond)
	q.Join("tictactoe", "alice", "0")
	time.Sleep(5 * time.Millisecond)
	r := q.Join("tictactoe", "bob", "0")
	if r.Matched {
		t.Fatal("an expired ticket must not be paired")
	}
}

// TestConcurrentJoinPairsExactlyOnce races many goroutines joining the
// same pool and asserts the total number of matched pairs never
// exceeds floor(n/2) — no ticket is ever consumed by two pairings.
func TestConcurrentJoinPairsExactlyOnce(t *testing.T) {
	q := New(time.Minute)
	const n = 200

	var wg sync.WaitGroup
	results := make([]JoinResult, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = q.Join("tictactoe", playerName(i), "0")
		}(i)
	}
	wg.Wait()

	matchedAsJoiner := 0
	matchedAsOpponent := map[string]int{}
	for _, r := range results {
		if r.Matched {
			matchedAsJoiner++
			matchedAsOpponent[r.Opponent]++
		}
	}
	for opponent, count := range matchedAsOpponent {
		if count > 1 {
			t.Errorf("ticket for %q was consumed as an opponent %d times", opponent, count)
		}
	}
	if matchedAsJoiner > n/2 {
		t.Errorf("more matches than possible pairs: %d matches for %d joiners", matchedAsJoiner, n)
	}
}

func playerName(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	return string(letters[i%len(letters)]) + string(rune('0'+i/len(letters)))
}
