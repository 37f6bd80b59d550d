package matchmaking

import "testing"

func TestInviteCodeConsumedOnceSucceedsTwiceFails(t *testing.T) {
	iv := NewInvites()
	code := iv.Create("chess", "0", "alice")

	gameID, stake, host, ok := iv.Consume(code)
	if !ok || gameID != "chess" || stake != "0" || host != "alice" {
		t.Fatalf("first consume should succeed, got ok=%v game=%q stake=%q host=%q", ok, gameID, stake, host)
	}

	if _, _, _, ok := iv.Consume(code); ok {
		t.Error("consuming the same invite code twice must fail the second time")
	}
}

func TestInviteCodeUnknownFails(t *testing.T) {
	iv := NewInvites()
	if _, _, _, ok := iv.Consume("NOSUCHCODE"); ok {
		t.Error("an unknown invite code must not be consumable")
	}
}

func TestPendingMatchConsumedOnce(t *testing.T) {
	pm := NewPendingMatches(0)
	pm.Put("bob", "match-1", "alice")

	got, ok := pm.Consume("bob")
	if !ok || got.MatchID != "match-1" || got.Opponent != "alice" {
		t.Fatalf("expected pending match for bob, got ok=%v %+v", ok, got)
	}
	if _, ok := pm.Consume("bob"); ok {
		t.Error("a pending match must be consumed at most once")
	}
}
