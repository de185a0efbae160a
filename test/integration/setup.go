package integration

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	handler "github.com/vncsmyrnk/ballot/internal/adapters/handler/http"
	"github.com/vncsmyrnk/ballot/internal/adapters/identity/ethsig"
	"github.com/vncsmyrnk/ballot/internal/adapters/metrics"
	repo "github.com/vncsmyrnk/ballot/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/services"
)

type TestApp struct {
	DB          *sql.DB
	Server      *httptest.Server
	Client      *http.Client
	Ledger      *memoryLedger
	Metrics     *metrics.Recorder
	DBContainer testcontainers.Container
}

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("ballot"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return pgContainer, connStr, nil
}

// setupTestApp runs the HTTP surface against a real Postgres and an
// in-memory ledger that behaves like the ballot contract.
func setupTestApp(t *testing.T, candidates ...string) *TestApp {
	ctx := context.Background()
	dbContainer, dbURL, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(ctx, db))

	log := logrus.New()
	log.SetOutput(io.Discard)

	ledger := newMemoryLedger(candidates...)
	recorder := metrics.NewRecorder()
	voterRepo := repo.NewVoterRepository(db)

	registration := services.NewRegistrationService(voterRepo, ledger, ethsig.NewVerifier(), services.NewDedupIndex(), recorder, log)
	voting := services.NewVotingService(voterRepo, ledger, recorder, log)

	router := handler.NewHandler(handler.Handlers{
		Voter:     handler.NewVoterHandler(registration, voting),
		Vote:      handler.NewVoteHandler(voting),
		Candidate: handler.NewCandidateHandler(services.NewCandidateService(ledger, recorder, log)),
		Health:    handler.NewHealthHandler(services.NewHealthService(voterRepo, ledger)),
		Metrics:   recorder.Handler(),
	}, log, 10*time.Second)

	server := httptest.NewServer(router)

	return &TestApp{
		DB:          db,
		Server:      server,
		Client:      server.Client(),
		Ledger:      ledger,
		Metrics:     recorder,
		DBContainer: dbContainer,
	}
}

func (app *TestApp) Teardown(t *testing.T) {
	app.Server.Close()
	app.DB.Close()
	if err := app.DBContainer.Terminate(context.Background()); err != nil {
		t.Logf("failed to terminate container: %v", err)
	}
}

// memoryLedger enforces the contract rules the relay account can hit: one
// registration per account hash and known candidates only.
type memoryLedger struct {
	mu         sync.Mutex
	from       string
	candidates []string
	accounts   map[string]bool
	txs        int
}

func newMemoryLedger(candidates ...string) *memoryLedger {
	return &memoryLedger{
		from:       "0x00000000000000000000000000000000000000a1",
		candidates: candidates,
		accounts:   make(map[string]bool),
	}
}

func (l *memoryLedger) RegisterVoter(_ context.Context, _ string, accountHash string, signature []byte) (*domain.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(signature) != crypto.SignatureLength {
		return nil, fmt.Errorf("%w: execution reverted: bad signature", domain.ErrEstimationFailed)
	}
	if l.accounts[accountHash] {
		return nil, fmt.Errorf("%w: execution reverted: account already registered", domain.ErrEstimationFailed)
	}
	l.accounts[accountHash] = true
	return l.receipt(), nil
}

func (l *memoryLedger) CastVote(_ context.Context, candidateName string) (*domain.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !slices.Contains(l.candidates, candidateName) {
		return nil, fmt.Errorf("%w: execution reverted: invalid candidate", domain.ErrEstimationFailed)
	}
	return l.receipt(), nil
}

func (l *memoryLedger) AddCandidate(_ context.Context, candidateName string) (*domain.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.candidates = append(l.candidates, candidateName)
	return l.receipt(), nil
}

func (l *memoryLedger) CandidateList(context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.candidates), nil
}

func (l *memoryLedger) Contract(context.Context) (*domain.ContractInfo, error) {
	return &domain.ContractInfo{Address: "0x00000000000000000000000000000000000000b0", Deployed: true, BytecodeSize: 4096}, nil
}

func (l *memoryLedger) Status(context.Context) (*domain.LedgerStatus, error) {
	return &domain.LedgerStatus{ChainID: "1337", NetworkID: "5777", WalletAddress: l.from, Balance: "100.0"}, nil
}

func (l *memoryLedger) receipt() *domain.Receipt {
	l.txs++
	return &domain.Receipt{TxHash: fmt.Sprintf("0x%064x", l.txs), BlockNumber: uint64(l.txs), GasUsed: 50_000, GasLimit: 53_000}
}
