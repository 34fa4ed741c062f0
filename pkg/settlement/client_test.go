package settlement_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"bit10-swap/pkg/settlement"
	"bit10-swap/pkg/types"
)

type SettlementClientTestSuite struct {
	suite.Suite
	client     *settlement.Client
	testServer *httptest.Server
}

func TestRunSettlementClientTestSuite(t *testing.T) {
	suite.Run(t, new(SettlementClientTestSuite))
}

func (s *SettlementClientTestSuite) SetupTest() {
	s.testServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/base/buy/transactions":
			s.Equal("Bearer test-key", r.Header.Get("Authorization"))
			var intent types.SwapIntent
			s.NoError(json.NewDecoder(r.Body).Decode(&intent))
			s.Equal("0.05", intent.TokenInAmount)
			_ = json.NewEncoder(w).Encode(types.TransferParameters{
				Chain: types.ChainBase,
				To:    "0x00000000000000000000000000000000000000aa",
				From:  intent.UserWalletAddress,
				Value: "50000000000000000",
				Data:  "0xdeadbeef",
			})
		case "/v1/base/transactions/report":
			var body map[string]string
			s.NoError(json.NewDecoder(r.Body).Decode(&body))
			switch body["ref"] {
			case "0xgoodhash":
				_ = json.NewEncoder(w).Encode(types.SettlementResult{
					Ok: &types.SwapRecord{
						SwapID:        "swap-1",
						TokenInAmount: "0.05",
						TxHashIn:      body["ref"],
						Network:       types.ChainBase,
						Type:          types.TransactionBuy,
						TimestampNs:   1724976000000000000,
					},
				})
			case "0xbrokehash":
				_ = json.NewEncoder(w).Encode(types.SettlementResult{
					Err: &types.SettlementError{Message: "Insufficient balance for swap"},
				})
			default:
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(`{"message": "verification backend unreachable"}`))
			}
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	s.client = settlement.NewClient(s.testServer.URL, "test-key")
}

func (s *SettlementClientTestSuite) TearDownTest() {
	s.testServer.Close()
}

func (s *SettlementClientTestSuite) TestCreateTransaction() {
	params, err := s.client.CreateTransaction(context.Background(), &types.SwapIntent{
		Type:              types.TransactionBuy,
		SourceChain:       types.ChainBase,
		TokenInAddress:    "0x0000000000000000000000000000000000000000",
		TokenOutAddress:   "0xbit10",
		TokenInAmount:     "0.05",
		UserWalletAddress: "0x00000000000000000000000000000000000000bb",
	})

	s.NoError(err)
	s.Equal("0x00000000000000000000000000000000000000aa", params.To)
	s.Equal("50000000000000000", params.Value)
	s.Equal(types.ChainBase, params.Chain)
}

func (s *SettlementClientTestSuite) TestReportTransaction_Ok() {
	result, err := s.client.ReportTransaction(context.Background(), types.SubmittedTxRef{
		Chain: types.ChainBase,
		Ref:   "0xgoodhash",
	})

	s.NoError(err)
	s.Nil(result.Err)
	s.Require().NotNil(result.Ok)
	s.Equal("swap-1", result.Ok.SwapID)
	s.Equal("0xgoodhash", result.Ok.TxHashIn)
}

func (s *SettlementClientTestSuite) TestReportTransaction_Err() {
	result, err := s.client.ReportTransaction(context.Background(), types.SubmittedTxRef{
		Chain: types.ChainBase,
		Ref:   "0xbrokehash",
	})

	s.NoError(err)
	s.Nil(result.Ok)
	s.Require().NotNil(result.Err)
	s.Contains(result.Err.Message, "Insufficient balance")
}

func (s *SettlementClientTestSuite) TestReportTransaction_TransportError() {
	_, err := s.client.ReportTransaction(context.Background(), types.SubmittedTxRef{
		Chain: types.ChainBase,
		Ref:   "0xunknown",
	})

	s.Error(err)
	s.Contains(err.Error(), "verification backend unreachable")
}
