package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/vncsmyrnk/ballot/internal/adapters/ledger/ethereum"
	"github.com/vncsmyrnk/ballot/internal/config"
	"github.com/vncsmyrnk/ballot/internal/core/services"
)

type candidateFlags []string

func (c *candidateFlags) String() string { return strings.Join(*c, ",") }

func (c *candidateFlags) Set(v string) error {
	*c = append(*c, v)
	return nil
}

func main() {
	config.LoadEnv()

	var candidates candidateFlags
	flag.Var(&candidates, "candidate", "candidate name to add (repeatable)")

	cfg, err := config.FromEnv(flag.CommandLine, os.Args[1:])
	if err != nil {
		logrus.Fatal(err)
	}
	log := cfg.NewLogger()
	if err := cfg.ValidateLedger(); err != nil {
		log.Fatal(err)
	}

	if len(candidates) == 0 {
		log.Fatal("at least one -candidate is required")
	}

	key, err := ethereum.ParsePrivateKey(cfg.SignerKey)
	if err != nil {
		log.Fatal(err)
	}

	// Each addition waits for confirmation; bound the whole job.
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(len(candidates)+1)*cfg.ConfirmationTimeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	ledger, err := ethereum.NewGateway(ctx, client, ethereum.Config{
		Contract:            common.HexToAddress(cfg.ContractAddress),
		Key:                 key,
		ConfirmationTimeout: cfg.ConfirmationTimeout,
		PollInterval:        cfg.ReceiptPollInterval,
		RegisterGasBuffer:   cfg.RegisterGasBuffer,
		VoteGasPercent:      cfg.VoteGasPercent,
	}, nil, log)
	if err != nil {
		log.Fatal(err)
	}

	svc := services.NewCandidateService(ledger, nil, log)

	existing, err := svc.List(ctx)
	if err != nil {
		log.Fatal(err)
	}
	known := make(map[string]bool, len(existing))
	for _, name := range existing {
		known[name] = true
	}

	log.Info("Starting candidate seeding job...")
	for _, name := range candidates {
		if known[name] {
			log.WithField("candidate", name).Info("candidate already present, skipping")
			continue
		}
		if _, err := svc.Add(ctx, name); err != nil {
			log.WithError(err).WithField("candidate", name).Fatal("failed to add candidate")
		}
		known[name] = true
	}
	log.Info("Candidate seeding completed successfully.")
}
