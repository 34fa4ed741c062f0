package balance

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	solTestOwner = solana.MustPublicKeyFromBase58("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin")
	solTestMint  = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
)

func derivedATA(t *testing.T, program solana.PublicKey) string {
	ata, _, err := solana.FindProgramAddress(
		[][]byte{solTestOwner.Bytes(), program.Bytes(), solTestMint.Bytes()},
		solana.SPLAssociatedTokenAccountProgramID,
	)
	require.NoError(t, err)
	return ata.String()
}

// solanaRPCStub answers the JSON-RPC methods the reader issues. Token
// accounts absent from balances answer with the node's not-found error.
type solanaRPCStub struct {
	lamports uint64
	balances map[string]string
}

func (s *solanaRPCStub) handler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     any               `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeResult := func(result any) {
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
	}
	writeError := func(message string) {
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID,
			"error": map[string]any{"code": -32602, "message": message}})
	}

	var account string
	if len(req.Params) > 0 {
		_ = json.Unmarshal(req.Params[0], &account)
	}

	switch req.Method {
	case "getBalance":
		writeResult(map[string]any{"context": map[string]any{"slot": 1}, "value": s.lamports})
	case "getAccountInfo":
		// the reader only fetches the mint account; decimals sits at offset 44
		data := make([]byte, 82)
		data[44] = 6
		writeResult(map[string]any{"context": map[string]any{"slot": 1}, "value": map[string]any{
			"data":       []any{base64.StdEncoding.EncodeToString(data), "base64"},
			"executable": false,
			"lamports":   1461600,
			"owner":      solana.TokenProgramID.String(),
			"rentEpoch":  0,
		}})
	case "getTokenAccountBalance":
		amount, ok := s.balances[account]
		if !ok {
			writeError("Invalid param: could not find account")
			return
		}
		writeResult(map[string]any{"context": map[string]any{"slot": 1}, "value": map[string]any{
			"amount":         amount,
			"decimals":       6,
			"uiAmountString": "",
		}})
	default:
		writeError("method not found")
	}
}

func newStubbedSolanaReader(t *testing.T, stub *solanaRPCStub) *SolanaReader {
	server := httptest.NewServer(http.HandlerFunc(stub.handler))
	t.Cleanup(server.Close)

	reader, err := NewSolanaReader(server.URL)
	require.NoError(t, err)
	return reader
}

func TestSolanaReaderNativeBalance(t *testing.T) {
	reader := newStubbedSolanaReader(t, &solanaRPCStub{lamports: 50000000})

	got, err := reader.Balance(context.Background(), solTestOwner.String(), "")
	require.NoError(t, err)
	assert.Equal(t, "0.05", got.String())
}

func TestSolanaReaderTokenUnderLegacyProgram(t *testing.T) {
	stub := &solanaRPCStub{balances: map[string]string{
		derivedATA(t, solana.TokenProgramID): "2500000",
	}}
	reader := newStubbedSolanaReader(t, stub)

	got, err := reader.Balance(context.Background(), solTestOwner.String(), solTestMint.String())
	require.NoError(t, err)
	assert.Equal(t, "2.5", got.String())
}

func TestSolanaReaderTokenUnderToken2022(t *testing.T) {
	stub := &solanaRPCStub{balances: map[string]string{
		derivedATA(t, token2022ProgramID): "1000000",
	}}
	reader := newStubbedSolanaReader(t, stub)

	got, err := reader.Balance(context.Background(), solTestOwner.String(), solTestMint.String())
	require.NoError(t, err)
	assert.Equal(t, "1", got.String())
}

func TestSolanaReaderTokenMissingUnderBothPrograms(t *testing.T) {
	reader := newStubbedSolanaReader(t, &solanaRPCStub{})

	got, err := reader.Balance(context.Background(), solTestOwner.String(), solTestMint.String())
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}
