// Package auth verifies EIP-191 personal-sign player authentication
// (spec §4.10/§6), adapted from the teacher's OTP+JWT flow in
// internal/api/handlers/auth.go (RequestOTP/VerifyOTP: parse request,
// check a time-bounded credential, reject on mismatch) but replacing
// the phone+OTP credential with an address+signature one, recovered
// with go-ethereum's crypto package the way
// other_examples/8fbb5791_josephblackelite-nhbchain's voucher verifier
// recovers a minter address from a raw secp256k1 signature.
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Window is the maximum allowed drift between the signed timestamp and
// now, per spec §6 ("Signature validity window: 5 min").
const Window = 5 * time.Minute

// Message builds the canonical string a client must EIP-191-sign to
// authenticate as playerID at timestampMs.
func Message(playerID string, timestampMs int64) string {
	return fmt.Sprintf("dork.fun authentication for %s at %d", playerID, timestampMs)
}

// Verify checks that signatureHex (0x-prefixed, 65 bytes, hex-encoded)
// is a valid EIP-191 personal-sign signature over Message(playerID,
// timestampMs) that recovers to playerID, and that timestampMs falls
// within Window of now. now is passed in so callers (and tests) control
// the clock rather than reading time.Now() deep inside verification.
func Verify(playerID, signatureHex string, timestampMs int64, now time.Time) error {
	if !common.IsHexAddress(playerID) {
		return fmt.Errorf("auth: %q is not a valid address", playerID)
	}

	drift := now.Sub(time.UnixMilli(timestampMs))
	if drift < 0 {
		drift = -drift
	}
	if drift > Window {
		return fmt.Errorf("auth: timestamp outside validity window")
	}

	sig, err := hexutil.Decode(signatureHex)
	if err != nil {
		return fmt.Errorf("auth: decode signature: %w", err)
	}
	if len(sig) != 65 {
		return fmt.Errorf("auth: signature must be 65 bytes, got %d", len(sig))
	}
	// The recovery id in an Ethereum personal-sign signature is
	// 27/28-offset; go-ethereum's SigToPub expects it 0/1-offset.
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	digest := personalSignHash(Message(playerID, timestampMs))
	pubKey, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return fmt.Errorf("auth: recover signer: %w", err)
	}

	recovered := crypto.PubkeyToAddress(*pubKey)
	if !strings.EqualFold(recovered.Hex(), playerID) {
		return fmt.Errorf("auth: signature does not recover to %s", playerID)
	}
	return nil
}

// personalSignHash reproduces the EIP-191 "\x19Ethereum Signed
// Message:\n<len>" prefix wallets apply before signing.
func personalSignHash(message string) []byte {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	return crypto.Keccak256([]byte(prefixed))
}
