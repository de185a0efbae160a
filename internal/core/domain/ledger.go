package domain

import "time"

// Receipt describes a transaction that was mined successfully.
type Receipt struct {
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber"`
	GasUsed     uint64 `json:"gasUsed"`
	GasLimit    uint64 `json:"gasLimit"`
}

type LedgerStatus struct {
	ChainID       string `json:"chainId"`
	NetworkID     string `json:"networkId"`
	WalletAddress string `json:"walletAddress"`
	Balance       string `json:"balance"`
}

type ContractInfo struct {
	Address      string `json:"address"`
	Deployed     bool   `json:"deployed"`
	BytecodeSize int    `json:"bytecodeSize"`
}

type HealthReport struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Ethereum  struct {
		Connected bool `json:"connected"`
		LedgerStatus
	} `json:"ethereum"`
	Database struct {
		Connected bool `json:"connected"`
	} `json:"database"`
	Contract ContractInfo `json:"contract"`
}
