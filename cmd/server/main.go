package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/vncsmyrnk/ballot/internal/adapters/handler/http"
	"github.com/vncsmyrnk/ballot/internal/adapters/identity/ethsig"
	"github.com/vncsmyrnk/ballot/internal/adapters/ledger/ethereum"
	"github.com/vncsmyrnk/ballot/internal/adapters/metrics"
	"github.com/vncsmyrnk/ballot/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/ballot/internal/config"
	"github.com/vncsmyrnk/ballot/internal/core/services"
)

func main() {
	envLoaded := config.LoadEnv()

	cfg, err := config.FromEnv(flag.CommandLine, os.Args[1:])
	if err != nil {
		logrus.Fatal(err)
	}
	log := cfg.NewLogger()
	if !envLoaded {
		log.Info("no .env file found, using process environment")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.WithError(err).Fatal("database unreachable")
	}

	key, err := ethereum.ParsePrivateKey(cfg.SignerKey)
	if err != nil {
		log.Fatal(err)
	}

	log.WithField("rpc", cfg.RPCURL).Info("connecting to ledger")
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		log.WithError(err).Fatal("ledger endpoint unreachable")
	}
	defer client.Close()

	recorder := metrics.NewRecorder()
	ledger, err := ethereum.NewGateway(ctx, client, ethereum.Config{
		Contract:            common.HexToAddress(cfg.ContractAddress),
		Key:                 key,
		ConfirmationTimeout: cfg.ConfirmationTimeout,
		PollInterval:        cfg.ReceiptPollInterval,
		RegisterGasBuffer:   cfg.RegisterGasBuffer,
		VoteGasPercent:      cfg.VoteGasPercent,
	}, recorder, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize ledger gateway")
	}

	status, err := ledger.Status(ctx)
	if err != nil {
		log.WithError(err).Fatal("connection check failed")
	}
	log.WithFields(logrus.Fields{
		"chain_id": status.ChainID,
		"wallet":   status.WalletAddress,
		"balance":  status.Balance,
		"contract": cfg.ContractAddress,
	}).Info("connected to ledger")

	voterRepo := postgres.NewVoterRepository(db)

	registrationSvc := services.NewRegistrationService(voterRepo, ledger, ethsig.NewVerifier(), services.NewDedupIndex(), recorder, log)
	votingSvc := services.NewVotingService(voterRepo, ledger, recorder, log)
	candidateSvc := services.NewCandidateService(ledger, recorder, log)
	healthSvc := services.NewHealthService(voterRepo, ledger)

	handler := http.NewHandler(http.Handlers{
		Voter:     http.NewVoterHandler(registrationSvc, votingSvc),
		Vote:      http.NewVoteHandler(votingSvc),
		Candidate: http.NewCandidateHandler(candidateSvc),
		Health:    http.NewHealthHandler(healthSvc),
		Metrics:   recorder.Handler(),
	}, log, cfg.RequestTimeout)

	server := &stdhttp.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Info("gracefully shutting down")

	// In-flight ledger waits may take up to the confirmation timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ConfirmationTimeout+5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err)
	}
}
