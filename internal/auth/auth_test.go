package auth

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

func signAs(t *testing.T, key []byte, playerID string, timestampMs int64) string {
	t.Helper()
	privKey, err := crypto.ToECDSA(key)
	if err != nil {
		t.Fatalf("ToECDSA: %v", err)
	}
	digest := personalSignHash(Message(playerID, timestampMs))
	sig, err := crypto.Sign(digest, privKey)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	sig[64] += 27
	return hexutil.Encode(sig)
}

func newTestKey(t *testing.T) (rawKey []byte, address string) {
	t.Helper()
	privKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	addr := crypto.PubkeyToAddress(privKey.PublicKey).Hex()
	return crypto.FromECDSA(privKey), addr
}

func TestVerifyAcceptsValidSignatureWithinWindow(t *testing.T) {
	key, addr := newTestKey(t)
	now := time.Now()
	ts := now.UnixMilli()
	sig := signAs(t, key, addr, ts)

	if err := Verify(addr, sig, ts, now); err != nil {
		t.Fatalf("expected valid signature to verify, got: %v", err)
	}
}

func TestVerifyRejectsSignatureFromWrongKey(t *testing.T) {
	_, addr := newTestKey(t)
	otherKey, _ := newTestKey(t)
	now := time.Now()
	ts := now.UnixMilli()
	sig := signAs(t, otherKey, addr, ts)

	if err := Verify(addr, sig, ts, now); err == nil {
		t.Fatal("expected signature from a different key to be rejected")
	}
}

func TestVerifyRejectsExpiredTimestamp(t *testing.T) {
	key, addr := newTestKey(t)
	stale := time.Now().Add(-10 * time.Minute)
	ts := stale.UnixMilli()
	sig := signAs(t, key, addr, ts)

	if err := Verify(addr, sig, ts, time.Now()); err == nil {
		t.Fatal("expected a timestamp outside the validity window to be rejected")
	}
}

func TestVerifyRejectsMalformedAddress(t *testing.T) {
	now := time.Now()
	if err := Verify("not-an-address", "0x00", now.UnixMilli(), now); err == nil {
		t.Fatal("expected a malformed player address to be rejected")
	}
}
