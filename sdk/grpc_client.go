// Package sdk provides a lightweight client for submitting transactions
// to a creditpool chain node over gRPC.
package sdk

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"
	txtypes "github.com/cosmos/cosmos-sdk/types/tx"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
)

// TxService is the subset of the tx service used by the client.
// It matches txtypes.ServiceClient so a stub can replace the wire in tests.
type TxService interface {
	BroadcastTx(ctx context.Context, req *txtypes.BroadcastTxRequest, opts ...grpc.CallOption) (*txtypes.BroadcastTxResponse, error)
}

// AccountQuerier is the subset of the auth query service used by the client
type AccountQuerier interface {
	Account(ctx context.Context, req *authtypes.QueryAccountRequest, opts ...grpc.CallOption) (*authtypes.QueryAccountResponse, error)
}

// ChainClient broadcasts signed transactions directly over gRPC,
// bypassing CLI overhead
type ChainClient struct {
	conn         *grpc.ClientConn
	txClient     TxService
	authClient   AccountQuerier
	cdc          codec.Codec
	chainID      string
	accountCache sync.Map
	mu           sync.RWMutex
}

// NewChainClient dials the node and creates a new chain client
func NewChainClient(grpcAddr, chainID string, cdc codec.Codec) (*ChainClient, error) {
	conn, err := grpc.Dial(
		grpcAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(1024*1024*10)), // 10MB
	)
	if err != nil {
		return nil, fmt.Errorf("failed to dial gRPC: %w", err)
	}

	return &ChainClient{
		conn:       conn,
		txClient:   txtypes.NewServiceClient(conn),
		authClient: authtypes.NewQueryClient(conn),
		cdc:        cdc,
		chainID:    chainID,
	}, nil
}

// NewChainClientWithServices creates a client over pre-built service stubs
func NewChainClientWithServices(chainID string, cdc codec.Codec, txClient TxService, authClient AccountQuerier) *ChainClient {
	return &ChainClient{
		txClient:   txClient,
		authClient: authClient,
		cdc:        cdc,
		chainID:    chainID,
	}
}

// ChainID returns the configured chain ID
func (c *ChainClient) ChainID() string {
	return c.chainID
}

// AccountInfo caches account sequence for faster tx building
type AccountInfo struct {
	Address       string
	AccountNumber uint64
	Sequence      uint64
	LastUpdated   time.Time
}

// BroadcastTx broadcasts a signed transaction
func (c *ChainClient) BroadcastTx(ctx context.Context, txBytes []byte, mode txtypes.BroadcastMode) (*sdk.TxResponse, error) {
	res, err := c.txClient.BroadcastTx(ctx, &txtypes.BroadcastTxRequest{
		TxBytes: txBytes,
		Mode:    mode,
	})
	if err != nil {
		return nil, fmt.Errorf("broadcast failed: %w", err)
	}
	return res.TxResponse, nil
}

// BroadcastTxSync broadcasts and waits for CheckTx result
func (c *ChainClient) BroadcastTxSync(ctx context.Context, txBytes []byte) (*sdk.TxResponse, error) {
	return c.BroadcastTx(ctx, txBytes, txtypes.BroadcastMode_BROADCAST_MODE_SYNC)
}

// BroadcastTxAsync broadcasts without waiting for CheckTx
func (c *ChainClient) BroadcastTxAsync(ctx context.Context, txBytes []byte) (*sdk.TxResponse, error) {
	return c.BroadcastTx(ctx, txBytes, txtypes.BroadcastMode_BROADCAST_MODE_ASYNC)
}

// GetAccountInfo fetches or returns cached account info.
// The cache is assumed valid for one short block interval.
func (c *ChainClient) GetAccountInfo(ctx context.Context, address string) (*AccountInfo, error) {
	if cached, ok := c.accountCache.Load(address); ok {
		info := cached.(*AccountInfo)
		if time.Since(info.LastUpdated) < 100*time.Millisecond {
			return info, nil
		}
	}

	res, err := c.authClient.Account(ctx, &authtypes.QueryAccountRequest{
		Address: address,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	var acc sdk.AccountI
	if err := c.cdc.UnpackAny(res.Account, &acc); err != nil {
		return nil, fmt.Errorf("failed to unpack account: %w", err)
	}

	info := &AccountInfo{
		Address:       address,
		AccountNumber: acc.GetAccountNumber(),
		Sequence:      acc.GetSequence(),
		LastUpdated:   time.Now(),
	}

	c.accountCache.Store(address, info)
	return info, nil
}

// IncrementSequence atomically increments the cached sequence
func (c *ChainClient) IncrementSequence(address string) {
	if cached, ok := c.accountCache.Load(address); ok {
		info := cached.(*AccountInfo)
		c.mu.Lock()
		info.Sequence++
		c.mu.Unlock()
	}
}

// BatchBroadcast sends multiple transactions in parallel
func (c *ChainClient) BatchBroadcast(ctx context.Context, txBytesSlice [][]byte) ([]*sdk.TxResponse, error) {
	results := make([]*sdk.TxResponse, len(txBytesSlice))
	errors := make([]error, len(txBytesSlice))
	var wg sync.WaitGroup

	for i, txBytes := range txBytesSlice {
		wg.Add(1)
		go func(idx int, tb []byte) {
			defer wg.Done()
			res, err := c.BroadcastTxAsync(ctx, tb)
			results[idx] = res
			errors[idx] = err
		}(i, txBytes)
	}

	wg.Wait()

	for _, err := range errors {
		if err != nil {
			return results, fmt.Errorf("batch broadcast had errors: %w", err)
		}
	}

	return results, nil
}

// Close closes the gRPC connection
func (c *ChainClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
