package liquidator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	sdktypes "github.com/cosmos/cosmos-sdk/types"

	cpsdk "github.com/openalpha/creditpool/sdk"
	clearingtypes "github.com/openalpha/creditpool/x/clearing/types"
)

// TxSigner builds and signs a transaction carrying the given messages.
// Implementations own the keyring, fee and sequence handling.
type TxSigner interface {
	Sign(ctx context.Context, msgs []sdktypes.Msg) ([]byte, error)
}

// ChainSubmitter signs liquidation messages and broadcasts them over gRPC
type ChainSubmitter struct {
	client     *cpsdk.ChainClient
	signer     TxSigner
	liquidator string

	mu     sync.Mutex
	status SubmitterStatus
}

// NewChainSubmitter creates a new gRPC-backed submitter
func NewChainSubmitter(client *cpsdk.ChainClient, signer TxSigner, liquidatorAddr string) *ChainSubmitter {
	return &ChainSubmitter{
		client:     client,
		signer:     signer,
		liquidator: liquidatorAddr,
		status: SubmitterStatus{
			Connected: true,
		},
	}
}

// SubmitLiquidations signs one transaction per batch and broadcasts it
func (s *ChainSubmitter) SubmitLiquidations(ctx context.Context, candidates []*Candidate) error {
	if len(candidates) == 0 {
		return nil
	}

	s.mu.Lock()
	s.status.PendingTxCount = len(candidates)
	s.mu.Unlock()

	msgs := make([]sdktypes.Msg, len(candidates))
	for i, c := range candidates {
		msgs[i] = &clearingtypes.MsgLiquidate{
			Liquidator: s.liquidator,
			MarketID:   c.MarketID,
			Borrower:   c.Borrower,
			Amount:     c.RepayAmount.String(),
		}
	}

	txBytes, err := s.signer.Sign(ctx, msgs)
	if err != nil {
		return s.fail(fmt.Errorf("failed to sign liquidation tx: %w", err))
	}

	resp, err := s.client.BroadcastTxSync(ctx, txBytes)
	if err != nil {
		return s.fail(err)
	}
	if resp != nil && resp.Code != 0 {
		return s.fail(fmt.Errorf("liquidation tx rejected: code=%d, log=%s", resp.Code, resp.RawLog))
	}

	s.client.IncrementSequence(s.liquidator)

	s.mu.Lock()
	s.status.TotalSubmissions++
	s.status.LastSubmitTime = time.Now()
	s.status.PendingTxCount = 0
	s.mu.Unlock()

	if resp != nil {
		log.Printf("[ChainSubmitter] Broadcast %d liquidations, tx=%s", len(candidates), resp.TxHash)
	}
	return nil
}

func (s *ChainSubmitter) fail(err error) error {
	s.mu.Lock()
	s.status.FailedSubmissions++
	s.status.LastError = err.Error()
	s.status.PendingTxCount = 0
	s.mu.Unlock()
	return err
}

// GetStatus returns the submitter status
func (s *ChainSubmitter) GetStatus() SubmitterStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}
