package electrum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tdex-network/descwallet/internal/core/ports"
	"github.com/tdex-network/descwallet/pkg/circuitbreaker"
	"github.com/tdex-network/descwallet/pkg/script"
)

const DefaultTimeout = 30 * time.Second

var (
	// ErrInvalidURL ...
	ErrInvalidURL = errors.New("electrum url must be in the form tcp://host:port or ssl://host:port")
	// ErrBroadcastRejected is returned when the server refuses a tx.
	ErrBroadcastRejected = errors.New("transaction rejected")
)

// ServiceArgs holds the options to connect to an Electrum server.
type ServiceArgs struct {
	// tcp://host:port or ssl://host:port
	URL string
	// Optional host:port of a SOCKS5 proxy.
	Socks5         string
	Retry          uint8
	Timeout        time.Duration
	ValidateDomain bool
}

type electrum struct {
	client *client
	cb     *gobreaker.CircuitBreaker
	policy circuitbreaker.RetryPolicy
}

// NewService returns a new electrum service as a ports.BlockchainService
// interface. The connection is established and checked at construction.
func NewService(args ServiceArgs) (ports.BlockchainService, error) {
	address, useTLS, err := parseURL(args.URL)
	if err != nil {
		return nil, err
	}
	if len(args.Socks5) > 0 {
		if _, _, err := net.SplitHostPort(args.Socks5); err != nil {
			return nil, fmt.Errorf("invalid socks5 proxy address: %w", err)
		}
	}

	timeout := args.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	service := &electrum{
		client: newClient(
			address, useTLS, args.Socks5, args.ValidateDomain, timeout,
		),
		cb:     circuitbreaker.NewCircuitBreaker("electrum"),
		policy: circuitbreaker.NewRetryPolicy(args.Retry),
	}

	if _, err := service.GetBlockHeight(context.Background()); err != nil {
		service.Close()
		return nil, fmt.Errorf("health check: %w", err)
	}

	return service, nil
}

func (e *electrum) Close() {
	e.client.close()
}

func (e *electrum) GetHistory(
	ctx context.Context, outputScript []byte,
) ([]ports.TxHistory, error) {
	scriptHash := script.OutputScript(outputScript).ScriptHash()

	resp, err := e.request(ctx, "blockchain.scripthash.get_history", scriptHash)
	if err != nil {
		return nil, err
	}

	txs := make([]historyEntry, 0)
	if err := json.Unmarshal(resp, &txs); err != nil {
		return nil, fmt.Errorf("invalid history: %w", err)
	}

	history := make([]ports.TxHistory, 0, len(txs))
	for _, tx := range txs {
		history = append(history, tx)
	}
	return history, nil
}

func (e *electrum) GetBalance(
	ctx context.Context, outputScript []byte,
) (ports.Balance, error) {
	scriptHash := script.OutputScript(outputScript).ScriptHash()

	resp, err := e.request(ctx, "blockchain.scripthash.get_balance", scriptHash)
	if err != nil {
		return nil, err
	}

	b := balance{}
	if err := json.Unmarshal(resp, &b); err != nil {
		return nil, fmt.Errorf("invalid balance: %w", err)
	}
	return b, nil
}

func (e *electrum) BroadcastTransaction(
	ctx context.Context, txHex string,
) (string, error) {
	resp, err := e.request(ctx, "blockchain.transaction.broadcast", txHex)
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			return "", fmt.Errorf("%w: %s", ErrBroadcastRejected, rpcErr.Message)
		}
		return "", err
	}

	var txid string
	if err := json.Unmarshal(resp, &txid); err != nil {
		return "", fmt.Errorf("invalid broadcast response: %w", err)
	}
	return txid, nil
}

func (e *electrum) GetBlockHeight(ctx context.Context) (uint32, error) {
	resp, err := e.request(ctx, "blockchain.headers.subscribe")
	if err != nil {
		return 0, err
	}

	header := blockHeader{}
	if err := json.Unmarshal(resp, &header); err != nil {
		return 0, fmt.Errorf("invalid block header: %w", err)
	}
	return header.Height, nil
}

// request sends the request through the circuit breaker. Errors returned by
// the server are never retried.
func (e *electrum) request(
	ctx context.Context, method string, params ...interface{},
) (json.RawMessage, error) {
	iResp, err := circuitbreaker.Execute(
		ctx, e.cb, e.policy, func() (interface{}, error) {
			resp, err := e.client.call(ctx, method, params...)
			if err != nil {
				var rpcErr *RPCError
				if errors.As(err, &rpcErr) || ctx.Err() != nil {
					return nil, circuitbreaker.Permanent(err)
				}
				return nil, err
			}
			return resp, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return iResp.(json.RawMessage), nil
}

func parseURL(rawURL string) (string, bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil || len(u.Host) <= 0 {
		return "", false, ErrInvalidURL
	}
	if _, _, err := net.SplitHostPort(u.Host); err != nil {
		return "", false, ErrInvalidURL
	}

	switch u.Scheme {
	case "tcp":
		return u.Host, false, nil
	case "ssl":
		return u.Host, true, nil
	default:
		return "", false, ErrInvalidURL
	}
}
