package liquidator

import (
	"context"
	"fmt"
	"testing"

	"google.golang.org/grpc"

	"cosmossdk.io/math"
	sdktypes "github.com/cosmos/cosmos-sdk/types"
	txtypes "github.com/cosmos/cosmos-sdk/types/tx"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	cpsdk "github.com/openalpha/creditpool/sdk"
)

type stubTxService struct {
	requests []*txtypes.BroadcastTxRequest
	code     uint32
	err      error
}

func (s *stubTxService) BroadcastTx(ctx context.Context, req *txtypes.BroadcastTxRequest, opts ...grpc.CallOption) (*txtypes.BroadcastTxResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.requests = append(s.requests, req)
	return &txtypes.BroadcastTxResponse{
		TxResponse: &sdktypes.TxResponse{Code: s.code, TxHash: "ABC123"},
	}, nil
}

type stubAuthService struct{}

func (s *stubAuthService) Account(ctx context.Context, req *authtypes.QueryAccountRequest, opts ...grpc.CallOption) (*authtypes.QueryAccountResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

type stubSigner struct {
	signed int
	err    error
}

func (s *stubSigner) Sign(ctx context.Context, msgs []sdktypes.Msg) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.signed += len(msgs)
	return []byte("signed-tx"), nil
}

func testCandidate(borrower string) *Candidate {
	return &Candidate{
		MarketID:     "uusdc/tbond",
		Borrower:     borrower,
		CurrentDebt:  math.NewInt(50000000),
		Collateral:   math.NewInt(1000000),
		HealthFactor: math.LegacyNewDecWithPrec(9, 1),
		RepayAmount:  math.NewInt(25000000),
	}
}

func TestChainSubmitterBroadcasts(t *testing.T) {
	txService := &stubTxService{}
	client := cpsdk.NewChainClientWithServices("creditpool-1", nil, txService, &stubAuthService{})
	signer := &stubSigner{}
	submitter := NewChainSubmitter(client, signer, "liquidator-addr")

	err := submitter.SubmitLiquidations(context.Background(), []*Candidate{
		testCandidate("alice"),
		testCandidate("bob"),
	})
	if err != nil {
		t.Fatalf("SubmitLiquidations() error: %v", err)
	}

	if signer.signed != 2 {
		t.Errorf("signed messages = %d, want 2", signer.signed)
	}
	if len(txService.requests) != 1 {
		t.Fatalf("broadcast requests = %d, want 1 batched tx", len(txService.requests))
	}
	if string(txService.requests[0].TxBytes) != "signed-tx" {
		t.Errorf("unexpected tx bytes: %q", txService.requests[0].TxBytes)
	}

	status := submitter.GetStatus()
	if status.TotalSubmissions != 1 {
		t.Errorf("total submissions = %d, want 1", status.TotalSubmissions)
	}
}

func TestChainSubmitterRejectedTx(t *testing.T) {
	txService := &stubTxService{code: 5}
	client := cpsdk.NewChainClientWithServices("creditpool-1", nil, txService, &stubAuthService{})
	submitter := NewChainSubmitter(client, &stubSigner{}, "liquidator-addr")

	err := submitter.SubmitLiquidations(context.Background(), []*Candidate{testCandidate("alice")})
	if err == nil {
		t.Fatal("expected error for rejected tx")
	}

	status := submitter.GetStatus()
	if status.FailedSubmissions != 1 {
		t.Errorf("failed submissions = %d, want 1", status.FailedSubmissions)
	}
}

func TestChainSubmitterSignError(t *testing.T) {
	txService := &stubTxService{}
	client := cpsdk.NewChainClientWithServices("creditpool-1", nil, txService, &stubAuthService{})
	submitter := NewChainSubmitter(client, &stubSigner{err: fmt.Errorf("no key")}, "liquidator-addr")

	err := submitter.SubmitLiquidations(context.Background(), []*Candidate{testCandidate("alice")})
	if err == nil {
		t.Fatal("expected error when signing fails")
	}
	if len(txService.requests) != 0 {
		t.Errorf("broadcast requests = %d, want 0", len(txService.requests))
	}
}
