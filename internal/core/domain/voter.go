package domain

import (
	"time"

	"github.com/google/uuid"
)

// Voter is the off-chain projection of an on-chain registration.
type Voter struct {
	ID                    uuid.UUID  `json:"id"`
	Username              string     `json:"username"`
	AccountIdentifierHash string     `json:"accountIdentifierHash"`
	Constituency          string     `json:"constituency"`
	Address               string     `json:"address"`
	IsRegistered          bool       `json:"isRegistered"`
	HasVoted              bool       `json:"hasVoted"`
	RegistrationTx        string     `json:"registrationTx"`
	VoteTx                string     `json:"voteTx,omitempty"`
	RegisteredAt          time.Time  `json:"registeredAt"`
	VotedAt               *time.Time `json:"votedAt,omitempty"`
}

// RegistrationClaim binds an address to a constituency through a signature
// produced by the address's key.
type RegistrationClaim struct {
	Username          string
	AccountIdentifier string
	Constituency      string
	Address           string
	Signature         string
}

// VerifiedIdentity is a claim whose signature has been checked.
type VerifiedIdentity struct {
	Address      string
	Constituency string
	Signature    []byte
}

type VoteRequest struct {
	Address       string
	CandidateName string
}

type RegistrationResult struct {
	Voter   *Voter
	Receipt *Receipt
}

type VoteResult struct {
	Voter   *Voter
	Receipt *Receipt
}
