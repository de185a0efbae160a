package integration

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/ballot/internal/adapters/identity/ethsig"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
)

type wallet struct {
	key     *ecdsa.PrivateKey
	address string
}

func newWallet(t *testing.T) wallet {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return wallet{key: key, address: crypto.PubkeyToAddress(key.PublicKey).Hex()}
}

func (w wallet) sign(t *testing.T, constituency string) string {
	hash := ethsig.ClaimHash(crypto.PubkeyToAddress(w.key.PublicKey), constituency)
	sig, err := crypto.Sign(accounts.TextHash(hash.Bytes()), w.key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig)
}

func (app *TestApp) post(t *testing.T, path string, payload interface{}) (int, map[string]interface{}) {
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := app.Client.Post(app.Server.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (app *TestApp) get(t *testing.T, path string) (int, []byte) {
	resp, err := app.Client.Get(app.Server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func registration(t *testing.T, w wallet, username, account, constituency string) map[string]interface{} {
	return map[string]interface{}{
		"username":          username,
		"accountIdentifier": account,
		"constituency":      constituency,
		"address":           w.address,
		"signature":         w.sign(t, constituency),
	}
}

func TestRegisterAndVote(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t, "Alice", "Bob")
	defer app.Teardown(t)

	w := newWallet(t)

	// 1. Register
	status, body := app.post(t, "/register", registration(t, w, "voter5", "AC123", "District1"))
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Voter registered successfully", body["message"])
	assert.NotEmpty(t, body["txHash"])

	voter := body["voter"].(map[string]interface{})
	assert.Equal(t, crypto.Keccak256Hash([]byte("AC123")).Hex(), voter["accountIdentifierHash"])
	assert.Equal(t, true, voter["isRegistered"])
	assert.Equal(t, false, voter["hasVoted"])

	// 2. Register again -> AlreadyRegistered
	status, body = app.post(t, "/register", registration(t, w, "voter5", "AC123", "District1"))
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "AlreadyRegistered", body["kind"])

	// 3. Vote
	status, body = app.post(t, "/vote", map[string]string{"address": w.address, "candidateName": "Alice"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Vote cast successfully", body["message"])

	// 4. Vote again -> AlreadyVoted
	status, body = app.post(t, "/vote", map[string]string{"address": w.address, "candidateName": "Bob"})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "AlreadyVoted", body["kind"])

	// 5. The stored record reflects the vote
	code, raw := app.get(t, "/voters/"+strings.ToLower(w.address))
	require.Equal(t, http.StatusOK, code)
	var stored domain.Voter
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.True(t, stored.HasVoted)
	assert.NotEmpty(t, stored.VoteTx)
	assert.Equal(t, "District1", stored.Constituency)
}

func TestRegisterRejections(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t, "Alice")
	defer app.Teardown(t)

	w := newWallet(t)

	// Signed for District1, claimed for District2.
	claim := registration(t, w, "voter", "AC1", "District1")
	claim["constituency"] = "District2"
	status, body := app.post(t, "/register", claim)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "InvalidSignature", body["kind"])

	status, body = app.post(t, "/vote", map[string]string{"address": w.address, "candidateName": "Alice"})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "NotRegistered", body["kind"])

	status, _ = app.post(t, "/register", registration(t, w, "voter", "AC1", "District1"))
	require.Equal(t, http.StatusOK, status)

	status, body = app.post(t, "/vote", map[string]string{"address": w.address, "candidateName": "Mallory"})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "UnknownCandidate", body["kind"])

	var count int
	require.NoError(t, app.DB.QueryRow(`SELECT COUNT(*) FROM voters WHERE has_voted`).Scan(&count))
	assert.Zero(t, count)
}

func TestConcurrentRegistration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	w := newWallet(t)
	claim := registration(t, w, "voter", "AC-dup", "District1")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		statuses = map[int]int{}
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, _ := json.Marshal(claim)
			resp, err := app.Client.Post(app.Server.URL+"/register", "application/json", bytes.NewReader(body))
			if !assert.NoError(t, err) {
				return
			}
			resp.Body.Close()
			mu.Lock()
			statuses[resp.StatusCode]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, statuses[http.StatusOK])
	assert.Equal(t, 7, statuses[http.StatusBadRequest])

	var count int
	require.NoError(t, app.DB.QueryRow(`SELECT COUNT(*) FROM voters`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestCandidatesHealthAndMetrics(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	code, raw := app.get(t, "/candidates")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(raw))

	status, body := app.post(t, "/add-candidate", map[string]string{"candidateName": "Alice"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Candidate Alice registered successfully", body["message"])

	code, raw = app.get(t, "/candidates")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `["Alice"]`, string(raw))

	code, raw = app.get(t, "/health")
	require.Equal(t, http.StatusOK, code, string(raw))
	var report domain.HealthReport
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.Equal(t, "ok", report.Status)
	assert.True(t, report.Database.Connected)

	code, raw = app.get(t, "/metrics")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(raw), `ballot_operations_total{operation="add_candidate",outcome="ok"} 1`)
}
