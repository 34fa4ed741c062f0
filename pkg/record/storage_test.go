package record_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bit10-swap/pkg/record"
	"bit10-swap/pkg/types"
)

func testRecord(swapID string, ts time.Time) *types.SwapRecord {
	return &types.SwapRecord{
		SwapID:         swapID,
		TokenInAmount:  "0.05",
		TokenOutAmount: "1.2",
		TxHashIn:       "0xhash",
		Type:           types.TransactionBuy,
		Network:        types.ChainBase,
		TimestampNs:    ts.UnixNano(),
	}
}

func TestStorageSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")

	s, err := record.NewStorage(path)
	require.NoError(t, err)

	require.NoError(t, s.Save(testRecord("swap-1", time.Now())))
	assert.Equal(t, 1, s.Count())

	// a fresh instance sees the persisted record
	s2, err := record.NewStorage(path)
	require.NoError(t, err)
	got, err := s2.Get("swap-1")
	require.NoError(t, err)
	assert.Equal(t, "0xhash", got.TxHashIn)
}

func TestStorageSaveIdempotentPerSwapID(t *testing.T) {
	s, err := record.NewStorage(filepath.Join(t.TempDir(), "records.json"))
	require.NoError(t, err)

	first := testRecord("swap-1", time.Now())
	require.NoError(t, s.Save(first))
	require.NoError(t, s.Save(testRecord("swap-1", time.Now())))

	assert.Equal(t, 1, s.Count())
	got, err := s.Get("swap-1")
	require.NoError(t, err)
	assert.Equal(t, first.TimestampNs, got.TimestampNs)
}

func TestStorageAssignsMissingSwapID(t *testing.T) {
	s, err := record.NewStorage(filepath.Join(t.TempDir(), "records.json"))
	require.NoError(t, err)

	r := testRecord("", time.Now())
	require.NoError(t, s.Save(r))
	assert.NotEmpty(t, r.SwapID)
}

func TestStorageListOrderedByTime(t *testing.T) {
	s, err := record.NewStorage(filepath.Join(t.TempDir(), "records.json"))
	require.NoError(t, err)

	base := time.Now()
	require.NoError(t, s.Save(testRecord("old", base.Add(-time.Hour))))
	require.NoError(t, s.Save(testRecord("new", base)))

	records := s.List()
	require.Len(t, records, 2)
	assert.Equal(t, "new", records[0].SwapID)
	assert.Equal(t, "old", records[1].SwapID)
}

func TestStorageListByChain(t *testing.T) {
	s, err := record.NewStorage(filepath.Join(t.TempDir(), "records.json"))
	require.NoError(t, err)

	r := testRecord("sol-swap", time.Now())
	r.Network = types.ChainSolana
	require.NoError(t, s.Save(r))
	require.NoError(t, s.Save(testRecord("base-swap", time.Now())))

	records := s.ListByChain(types.ChainSolana)
	require.Len(t, records, 1)
	assert.Equal(t, "sol-swap", records[0].SwapID)
}

func TestNotifierPostsFlattenedRecord(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	settled := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	record.NewNotifier(server.URL).Notify(testRecord("swap-1", settled))

	assert.Equal(t, "swap-1", payload["swap_id"])
	assert.Equal(t, "base", payload["network"])
	assert.Equal(t, settled.Format(time.RFC3339Nano), payload["settled_at"])
}

func TestNotifierDisabledWithoutURL(t *testing.T) {
	// must not panic or attempt a request
	record.NewNotifier("").Notify(testRecord("swap-1", time.Now()))
}
