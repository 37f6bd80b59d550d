package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const settlementABIJSON = `[
	{"constant":false,"inputs":[{"name":"matchId","type":"bytes32"},{"name":"winner","type":"address"},{"name":"isDraw","type":"bool"},{"name":"rootHash","type":"bytes32"}],"name":"submitOutcome","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

// SettlementClient submits the server-signed outcome attestation to the
// Settlement contract, grounded on the MinerPoolManagement binding's
// bind.BoundContract call pattern (accounts/abi/bind), simplified to a
// single hand-packed call instead of an abigen-generated wrapper.
type SettlementClient struct {
	client     *ethclient.Client
	address    common.Address
	abiDef     abi.ABI
	privateKey *ecdsa.PrivateKey
	chainID    *big.Int
}

// NewSettlementClient dials rpcURL and loads the server's settlement
// signing key from its hex-encoded form (spec env var SERVER_PRIVATE_KEY).
func NewSettlementClient(ctx context.Context, rpcURL, settlementAddress, privateKeyHex string) (*SettlementClient, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial settlement RPC: %w", err)
	}
	parsed, err := abi.JSON(strings.NewReader(settlementABIJSON))
	if err != nil {
		return nil, fmt.Errorf("chain: parse settlement ABI: %w", err)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("chain: parse server private key: %w", err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain: fetch chain id: %w", err)
	}
	return &SettlementClient{
		client:     client,
		address:    common.HexToAddress(settlementAddress),
		abiDef:     parsed,
		privateKey: key,
		chainID:    chainID,
	}, nil
}

// SubmitOutcome sends one server-signed submitOutcome(matchId, winner,
// isDraw, rootHash) transaction and returns its hash. winner is the
// zero address for a draw, per spec §4.8's outcome tuple.
func (s *SettlementClient) SubmitOutcome(ctx context.Context, matchID [32]byte, winner common.Address, isDraw bool, rootHash [32]byte) (string, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(s.privateKey, s.chainID)
	if err != nil {
		return "", fmt.Errorf("chain: build transactor: %w", err)
	}
	auth.Context = ctx

	boundContract := bind.NewBoundContract(s.address, s.abiDef, s.client, s.client, s.client)
	tx, err := boundContract.Transact(auth, "submitOutcome", matchID, winner, isDraw, rootHash)
	if err != nil {
		return "", fmt.Errorf("chain: submit outcome: %w", err)
	}
	return tx.Hash().Hex(), nil
}
