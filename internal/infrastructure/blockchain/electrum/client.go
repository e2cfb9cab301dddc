package electrum

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/proxy"
)

const (
	jsonrpcVersion  = "2.0"
	clientName      = "descwallet"
	protocolVersion = "1.4"
)

// ErrConnectionClosed is returned to pending requests when the connection
// with the server drops.
var ErrConnectionClosed = errors.New("electrum connection closed")

type request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type response struct {
	ID     *uint64         `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

type result struct {
	data json.RawMessage
	err  error
}

// RPCError is an error returned by the server for a specific request.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("electrum error %d: %s", e.Code, e.Message)
}

func parseRPCError(raw json.RawMessage) error {
	if len(raw) <= 0 || string(raw) == "null" {
		return nil
	}
	rpcErr := &RPCError{}
	if err := json.Unmarshal(raw, rpcErr); err == nil && rpcErr.Message != "" {
		return rpcErr
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil {
		return &RPCError{Message: msg}
	}
	return &RPCError{Message: string(raw)}
}

// client multiplexes requests over a single connection to the server. The
// connection is established lazily and re-established on the next request
// after a failure.
type client struct {
	address        string
	useTLS         bool
	socks5         string
	validateDomain bool
	timeout        time.Duration

	connLock sync.Mutex

	lock    sync.Mutex
	conn    net.Conn
	nextID  uint64
	pending map[uint64]chan result

	writeLock sync.Mutex
}

func newClient(
	address string, useTLS bool, socks5 string, validateDomain bool,
	timeout time.Duration,
) *client {
	return &client{
		address:        address,
		useTLS:         useTLS,
		socks5:         socks5,
		validateDomain: validateDomain,
		timeout:        timeout,
		pending:        make(map[uint64]chan result),
	}
}

func (c *client) call(
	ctx context.Context, method string, params ...interface{},
) (json.RawMessage, error) {
	conn, err := c.getConn(ctx)
	if err != nil {
		return nil, err
	}
	return c.roundTrip(ctx, conn, method, params...)
}

func (c *client) roundTrip(
	ctx context.Context, conn net.Conn, method string, params ...interface{},
) (json.RawMessage, error) {
	if params == nil {
		params = make([]interface{}, 0)
	}

	c.lock.Lock()
	c.nextID++
	id := c.nextID
	ch := make(chan result, 1)
	c.pending[id] = ch
	c.lock.Unlock()

	defer func() {
		c.lock.Lock()
		delete(c.pending, id)
		c.lock.Unlock()
	}()

	msg, err := json.Marshal(request{jsonrpcVersion, id, method, params})
	if err != nil {
		return nil, err
	}
	msg = append(msg, '\n')

	c.writeLock.Lock()
	//nolint
	conn.SetWriteDeadline(time.Now().Add(c.timeout))
	_, err = conn.Write(msg)
	c.writeLock.Unlock()
	if err != nil {
		c.closeConn(conn, err)
		return nil, err
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.data, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("%s: request timed out after %s", method, c.timeout)
	}
}

// getConn returns the current connection, dialing a new one if needed.
// connLock is held until the server.version handshake completes, so no
// other request is sent over a connection before the handshake.
func (c *client) getConn(ctx context.Context) (net.Conn, error) {
	c.connLock.Lock()
	defer c.connLock.Unlock()

	c.lock.Lock()
	conn := c.conn
	c.lock.Unlock()
	if conn != nil {
		return conn, nil
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}

	c.lock.Lock()
	c.conn = conn
	c.lock.Unlock()

	go c.listen(conn)

	if _, err := c.roundTrip(
		ctx, conn, "server.version", clientName, protocolVersion,
	); err != nil {
		c.closeConn(conn, err)
		return nil, fmt.Errorf("handshake: %w", err)
	}

	log.Debugf("electrum: connected to %s", c.address)
	return conn, nil
}

func (c *client) dial(ctx context.Context) (net.Conn, error) {
	var (
		conn net.Conn
		err  error
	)
	if len(c.socks5) > 0 {
		dialer, derr := proxy.SOCKS5("tcp", c.socks5, nil, &net.Dialer{
			Timeout: c.timeout,
		})
		if derr != nil {
			return nil, derr
		}
		if ctxDialer, ok := dialer.(proxy.ContextDialer); ok {
			conn, err = ctxDialer.DialContext(ctx, "tcp", c.address)
		} else {
			conn, err = dialer.Dial("tcp", c.address)
		}
	} else {
		dialer := &net.Dialer{Timeout: c.timeout}
		conn, err = dialer.DialContext(ctx, "tcp", c.address)
	}
	if err != nil {
		return nil, err
	}

	if !c.useTLS {
		return conn, nil
	}

	host, _, _ := net.SplitHostPort(c.address)
	tlsConn := tls.Client(conn, &tls.Config{
		ServerName: host,
		//nolint
		InsecureSkipVerify: !c.validateDomain,
	})
	//nolint
	tlsConn.SetDeadline(time.Now().Add(c.timeout))
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	//nolint
	tlsConn.SetDeadline(time.Time{})
	return tlsConn, nil
}

func (c *client) listen(conn net.Conn) {
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			c.closeConn(conn, err)
			return
		}

		resp := response{}
		if err := json.Unmarshal(line, &resp); err != nil {
			log.WithError(err).Warn("electrum: skipping malformed message")
			continue
		}
		// Notifications carry no id.
		if resp.ID == nil {
			continue
		}

		c.lock.Lock()
		ch, ok := c.pending[*resp.ID]
		delete(c.pending, *resp.ID)
		c.lock.Unlock()
		if !ok {
			continue
		}
		ch <- result{resp.Result, parseRPCError(resp.Error)}
	}
}

// closeConn drops the given connection and fails all pending requests.
func (c *client) closeConn(conn net.Conn, reason error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.conn != conn {
		return
	}
	c.conn = nil
	conn.Close()

	if reason != nil {
		log.WithError(reason).Debugf("electrum: connection to %s closed", c.address)
	}
	for id, ch := range c.pending {
		ch <- result{err: ErrConnectionClosed}
		delete(c.pending, id)
	}
}

func (c *client) close() {
	c.lock.Lock()
	conn := c.conn
	c.lock.Unlock()
	if conn != nil {
		c.closeConn(conn, nil)
	}
}
