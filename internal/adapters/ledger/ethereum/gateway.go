// Package ethereum implements the ledger port against a ballot contract
// reachable through an Ethereum JSON-RPC endpoint.
package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

// Client is the part of ethclient.Client the gateway uses.
type Client interface {
	ChainID(ctx context.Context) (*big.Int, error)
	NetworkID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	CallContract(ctx context.Context, call goethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, call goethereum.CallMsg) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Observer receives one call per submitted operation.
type Observer interface {
	ObserveTransaction(method, outcome string, elapsed time.Duration)
}

type Config struct {
	Contract            common.Address
	Key                 *ecdsa.PrivateKey
	ConfirmationTimeout time.Duration
	PollInterval        time.Duration
	RegisterGasBuffer   uint64
	VoteGasPercent      uint64
}

type Gateway struct {
	client   Client
	abi      abi.ABI
	cfg      Config
	from     common.Address
	chainID  *big.Int
	observer Observer
	log      logrus.FieldLogger

	// sendMu keeps nonce assignment and broadcast atomic for the shared account.
	sendMu sync.Mutex
}

var _ ports.Ledger = (*Gateway)(nil)

func NewGateway(ctx context.Context, client Client, cfg Config, observer Observer, log logrus.FieldLogger) (*Gateway, error) {
	if cfg.Key == nil {
		return nil, errors.New("signing key is required")
	}
	if cfg.ConfirmationTimeout <= 0 {
		cfg.ConfirmationTimeout = 2 * time.Minute
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.VoteGasPercent < 100 {
		cfg.VoteGasPercent = 100
	}

	parsed, err := abi.JSON(strings.NewReader(votingABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract abi: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query chain id: %w", domain.ErrLedgerUnavailable, err)
	}

	if observer == nil {
		observer = noopObserver{}
	}

	return &Gateway{
		client:   client,
		abi:      parsed,
		cfg:      cfg,
		from:     crypto.PubkeyToAddress(cfg.Key.PublicKey),
		chainID:  chainID,
		observer: observer,
		log:      log,
	}, nil
}

func (g *Gateway) From() common.Address {
	return g.from
}

func (g *Gateway) RegisterVoter(ctx context.Context, constituency, accountHash string, signature []byte) (*domain.Receipt, error) {
	if !isHash(accountHash) {
		return nil, fmt.Errorf("%w: invalid account hash %q", domain.ErrEstimationFailed, accountHash)
	}
	return g.submit(ctx, methodRegisterVoter, g.additive, constituency, common.HexToHash(accountHash), signature)
}

func (g *Gateway) CastVote(ctx context.Context, candidateName string) (*domain.Receipt, error) {
	return g.submit(ctx, methodCastVote, g.proportional, candidateName)
}

func (g *Gateway) AddCandidate(ctx context.Context, candidateName string) (*domain.Receipt, error) {
	return g.submit(ctx, methodAddCandidate, g.additive, candidateName)
}

func (g *Gateway) CandidateList(ctx context.Context) ([]string, error) {
	data, err := g.abi.Pack(methodGetCandidateList)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", methodGetCandidateList, err)
	}

	out, err := g.client.CallContract(ctx, g.callMsg(data), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrLedgerUnavailable, methodGetCandidateList, err)
	}

	values, err := g.abi.Unpack(methodGetCandidateList, out)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode candidate list: %w", domain.ErrLedgerUnavailable, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%w: unexpected candidate list output", domain.ErrLedgerUnavailable)
	}
	candidates, ok := values[0].([]string)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected candidate list type %T", domain.ErrLedgerUnavailable, values[0])
	}
	return candidates, nil
}

// Contract probes for code at the configured contract address.
func (g *Gateway) Contract(ctx context.Context) (*domain.ContractInfo, error) {
	code, err := g.client.CodeAt(ctx, g.cfg.Contract, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: code probe: %w", domain.ErrLedgerUnavailable, err)
	}
	return &domain.ContractInfo{
		Address:      g.cfg.Contract.Hex(),
		Deployed:     len(code) > 0,
		BytecodeSize: len(code),
	}, nil
}

func (g *Gateway) Status(ctx context.Context) (*domain.LedgerStatus, error) {
	chainID, err := g.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: chain id: %w", domain.ErrLedgerUnavailable, err)
	}
	networkID, err := g.client.NetworkID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: network id: %w", domain.ErrLedgerUnavailable, err)
	}
	balance, err := g.client.BalanceAt(ctx, g.from, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: balance: %w", domain.ErrLedgerUnavailable, err)
	}
	return &domain.LedgerStatus{
		ChainID:       chainID.String(),
		NetworkID:     networkID.String(),
		WalletAddress: g.from.Hex(),
		Balance:       FormatEther(balance),
	}, nil
}

// submit estimates, signs, broadcasts and waits for method. Failures are
// classified as EstimationFailed, SubmissionFailed, Reverted or Indeterminate.
func (g *Gateway) submit(ctx context.Context, method string, margin func(uint64) uint64, args ...interface{}) (receipt *domain.Receipt, err error) {
	start := time.Now()
	defer func() { g.observer.ObserveTransaction(method, domain.Kind(err), time.Since(start)) }()

	data, err := g.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: pack %s: %w", domain.ErrEstimationFailed, method, err)
	}

	estimated, err := g.client.EstimateGas(ctx, g.callMsg(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrEstimationFailed, method, err)
	}
	gasLimit := margin(estimated)

	tx, err := g.send(ctx, data, gasLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSubmissionFailed, method, err)
	}
	log := g.log.WithFields(logrus.Fields{"method": method, "tx": tx.Hash().Hex(), "gas_limit": gasLimit})
	log.Debug("transaction submitted")

	mined, err := g.waitMined(ctx, tx.Hash())
	if err != nil {
		return nil, err
	}
	if mined.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: %s in tx %s (block %d)", domain.ErrReverted, method, tx.Hash().Hex(), mined.BlockNumber.Uint64())
	}

	log.WithField("gas_used", mined.GasUsed).Debug("transaction mined")
	return &domain.Receipt{
		TxHash:      tx.Hash().Hex(),
		BlockNumber: mined.BlockNumber.Uint64(),
		GasUsed:     mined.GasUsed,
		GasLimit:    gasLimit,
	}, nil
}

func (g *Gateway) send(ctx context.Context, data []byte, gasLimit uint64) (*types.Transaction, error) {
	g.sendMu.Lock()
	defer g.sendMu.Unlock()

	nonce, err := g.client.PendingNonceAt(ctx, g.from)
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	gasPrice, err := g.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("gas price: %w", err)
	}

	to := g.cfg.Contract
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &to,
		Value:    big.NewInt(0),
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(g.chainID), g.cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	if err := g.client.SendTransaction(ctx, signed); err != nil {
		return nil, err
	}
	return signed, nil
}

// waitMined polls for the receipt until the confirmation timeout. A timeout
// leaves the transaction possibly pending, so it is reported as Indeterminate.
func (g *Gateway) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.ConfirmationTimeout)
	defer cancel()

	ticker := time.NewTicker(g.cfg.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := g.client.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, goethereum.NotFound) {
			g.log.WithError(err).WithField("tx", hash.Hex()).Debug("receipt lookup failed")
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: tx %s not confirmed: %w", domain.ErrIndeterminate, hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

func (g *Gateway) callMsg(data []byte) goethereum.CallMsg {
	to := g.cfg.Contract
	return goethereum.CallMsg{From: g.from, To: &to, Data: data}
}

func (g *Gateway) additive(estimated uint64) uint64 {
	return estimated + g.cfg.RegisterGasBuffer
}

func (g *Gateway) proportional(estimated uint64) uint64 {
	return estimated * g.cfg.VoteGasPercent / 100
}

func isHash(s string) bool {
	return len(s) == 2+2*common.HashLength && strings.HasPrefix(s, "0x")
}

type noopObserver struct{}

func (noopObserver) ObserveTransaction(string, string, time.Duration) {}
