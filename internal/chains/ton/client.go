// internal/chains/ton/client.go
package ton

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"wallet-sync-service/internal/domain"
)

const DefaultRequestTimeout = 20 * time.Second

// Client talks JSON-RPC to the ledger bridge process, which owns the lite
// client, key storage and transaction signing. Calls go out one at a time in
// submission order.
type Client struct {
	bridgeURL string
	apiKey    string
	timeout   time.Duration
	logger    *zap.Logger

	// slot admits one call at a time; waiting for it honours ctx
	slot chan struct{}

	initOnce   sync.Once
	httpClient *http.Client
	seq        uint64
}

func NewClient(bridgeURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Client{
		bridgeURL: bridgeURL,
		apiKey:    apiKey,
		timeout:   timeout,
		logger:    logger,
		slot:      make(chan struct{}, 1),
	}
}

// handle builds the HTTP handle on first use and reuses it afterwards
func (c *Client) handle() *http.Client {
	c.initOnce.Do(func() {
		c.httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		}
		c.logger.Info("Ledger bridge client initialized",
			zap.String("url", c.bridgeURL),
			zap.Duration("timeout", c.timeout),
		)
	})
	return c.httpClient
}

// call performs one JSON-RPC request. Transport failures and the request
// timeout surface as LITE_SERVER_NETWORK; cancellation of ctx is returned as
// ctx.Err().
func (c *Client) call(ctx context.Context, method string, params, out interface{}) error {
	// 1. Wait for our turn
	select {
	case c.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-c.slot }()

	c.seq++
	id := c.seq

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// 2. Encode
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.bridgeURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	// 3. Send
	start := time.Now()
	resp, err := c.handle().Do(req)
	if err != nil {
		return c.transportError(ctx, method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.transportError(ctx, method, err)
	}

	c.logger.Debug("Ledger bridge call",
		zap.String("method", method),
		zap.Uint64("id", id),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	// 4. Decode
	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		if resp.StatusCode >= http.StatusInternalServerError {
			return &domain.LedgerError{
				Code:    domain.LedgerCodeNetwork,
				Message: fmt.Sprintf("bridge returned %d", resp.StatusCode),
			}
		}
		return fmt.Errorf("failed to unmarshal %s response: %w", method, err)
	}

	if rpcResp.Error != nil {
		return rpcResp.Error.toLedgerError()
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

func (c *Client) transportError(ctx context.Context, method string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	message := err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		message = fmt.Sprintf("%s timed out after %s", method, c.timeout)
	}

	c.logger.Warn("Ledger bridge unreachable", zap.String("method", method), zap.Error(err))

	return &domain.LedgerError{Code: domain.LedgerCodeNetwork, Message: message}
}
