package services

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/ballot/internal/adapters/identity/ethsig"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
)

type memoryRepo struct {
	mu        sync.Mutex
	voters    map[string]*domain.Voter
	createErr error
	markErr   error
	readErr   error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{voters: make(map[string]*domain.Voter)}
}

func (r *memoryRepo) GetByAccountHash(_ context.Context, accountHash string) (*domain.Voter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return nil, r.readErr
	}
	for _, v := range r.voters {
		if v.AccountIdentifierHash == accountHash {
			c := *v
			return &c, nil
		}
	}
	return nil, domain.ErrVoterNotFound
}

func (r *memoryRepo) GetByAddress(_ context.Context, address string) (*domain.Voter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return nil, r.readErr
	}
	v, ok := r.voters[address]
	if !ok {
		return nil, domain.ErrVoterNotFound
	}
	c := *v
	return &c, nil
}

func (r *memoryRepo) Create(_ context.Context, voter *domain.Voter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, v := range r.voters {
		if v.AccountIdentifierHash == voter.AccountIdentifierHash || v.Address == voter.Address {
			return domain.ErrAlreadyRegistered
		}
	}
	c := *voter
	r.voters[voter.Address] = &c
	return nil
}

func (r *memoryRepo) MarkVoted(_ context.Context, voter *domain.Voter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markErr != nil {
		return r.markErr
	}
	v, ok := r.voters[voter.Address]
	if !ok {
		return domain.ErrVoterNotFound
	}
	if v.HasVoted {
		return domain.ErrAlreadyVoted
	}
	v.HasVoted = true
	v.VoteTx = voter.VoteTx
	v.VotedAt = voter.VotedAt
	return nil
}

func (r *memoryRepo) Ping(context.Context) error { return r.readErr }

func (r *memoryRepo) get(address string) *domain.Voter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.voters[address]; ok {
		c := *v
		return &c
	}
	return nil
}

type fakeLedger struct {
	mu         sync.Mutex
	candidates []string
	delay      time.Duration

	registerErrs []error
	voteErrs     []error
	addErr       error
	listErr      error

	registerCalls atomic.Int32
	voteCalls     atomic.Int32
	txCounter     atomic.Int32
}

func newFakeLedger(candidates ...string) *fakeLedger {
	return &fakeLedger{candidates: candidates}
}

func (l *fakeLedger) receipt() *domain.Receipt {
	n := l.txCounter.Add(1)
	return &domain.Receipt{TxHash: fmt.Sprintf("0x%064x", n), BlockNumber: uint64(n), GasUsed: 21000, GasLimit: 24000}
}

func (l *fakeLedger) popErr(errs *[]error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func (l *fakeLedger) RegisterVoter(context.Context, string, string, []byte) (*domain.Receipt, error) {
	l.registerCalls.Add(1)
	time.Sleep(l.delay)
	if err := l.popErr(&l.registerErrs); err != nil {
		return nil, err
	}
	return l.receipt(), nil
}

func (l *fakeLedger) CastVote(context.Context, string) (*domain.Receipt, error) {
	l.voteCalls.Add(1)
	time.Sleep(l.delay)
	if err := l.popErr(&l.voteErrs); err != nil {
		return nil, err
	}
	return l.receipt(), nil
}

func (l *fakeLedger) AddCandidate(_ context.Context, name string) (*domain.Receipt, error) {
	if l.addErr != nil {
		return nil, l.addErr
	}
	l.mu.Lock()
	l.candidates = append(l.candidates, name)
	l.mu.Unlock()
	return l.receipt(), nil
}

func (l *fakeLedger) CandidateList(context.Context) ([]string, error) {
	if l.listErr != nil {
		return nil, l.listErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.candidates...), nil
}

func (l *fakeLedger) Contract(context.Context) (*domain.ContractInfo, error) {
	return &domain.ContractInfo{Address: "0x0000000000000000000000000000000000000001", Deployed: true, BytecodeSize: 10}, nil
}

func (l *fakeLedger) Status(context.Context) (*domain.LedgerStatus, error) {
	return &domain.LedgerStatus{ChainID: "1337", NetworkID: "1337", WalletAddress: "0x0000000000000000000000000000000000000002", Balance: "1.0"}, nil
}

type countingMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (m *countingMetrics) ObserveOutcome(operation, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = make(map[string]int)
	}
	m.outcomes[operation+"/"+kind]++
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type voterKey struct {
	key     *ecdsa.PrivateKey
	address string
}

func newVoterKey(t testing.TB) voterKey {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return voterKey{key: key, address: crypto.PubkeyToAddress(key.PublicKey).Hex()}
}

// sign produces the wallet signature over (address, constituency).
func (k voterKey) sign(t testing.TB, constituency string) string {
	t.Helper()
	hash := ethsig.ClaimHash(crypto.PubkeyToAddress(k.key.PublicKey), constituency)
	sig, err := crypto.Sign(accounts.TextHash(hash.Bytes()), k.key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig)
}

func (k voterKey) claim(t testing.TB, username, accountIdentifier, constituency string) domain.RegistrationClaim {
	return domain.RegistrationClaim{
		Username:          username,
		AccountIdentifier: accountIdentifier,
		Constituency:      constituency,
		Address:           k.address,
		Signature:         k.sign(t, constituency),
	}
}
