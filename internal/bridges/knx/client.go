package knx

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"sync"
	"sync/atomic"
	"time"
)

// Default timeouts for knxd communication.
const (
	// defaultConnectTimeout is the maximum time to wait for the initial
	// connection and handshake.
	defaultConnectTimeout = 10 * time.Second

	// defaultReadTimeout is the timeout for individual socket reads.
	defaultReadTimeout = 30 * time.Second

	// defaultWriteTimeout is the timeout for socket writes.
	defaultWriteTimeout = 5 * time.Second

	// readBufferSize bounds a single knxd message. Group telegrams are
	// at most a few dozen bytes; anything larger indicates desync.
	readBufferSize = 256

	// telegramQueueSize is the buffer between the receive loop and the
	// telegram dispatch goroutine. A full queue drops telegrams rather
	// than blocking the receive loop.
	telegramQueueSize = 100
)

// ClientConfig holds knxd connection configuration.
type ClientConfig struct {
	// Connection is the knxd connection URL.
	// Supported formats:
	//   - "unix:///run/knxd" (Unix socket)
	//   - "tcp://localhost:6720" (TCP)
	Connection string

	// ConnectTimeout is the maximum time to wait for connection.
	// Default: 10 seconds.
	ConnectTimeout time.Duration

	// ReadTimeout is the timeout for read operations.
	// Default: 30 seconds.
	ReadTimeout time.Duration
}

// ClientStats holds operational statistics.
type ClientStats struct {
	TelegramsTx      uint64
	TelegramsRx      uint64
	TelegramsDropped uint64
	ErrorsTotal      uint64
	LastActivity     time.Time
	Connected        bool
}

// Logger is the optional logging interface accepted by this package.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Client provides a connection to the knxd daemon's group socket.
//
// Telegram callbacks are invoked on a single dispatch goroutine, so a
// callback always observes telegrams in bus arrival order.
//
// Thread Safety: all methods are safe for concurrent use.
type Client struct {
	cfg  ClientConfig
	conn net.Conn

	connMu    sync.RWMutex
	connected bool

	onTelegram func(Telegram)
	callbackMu sync.RWMutex

	telegramQueue chan Telegram

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	logger   Logger
	loggerMu sync.RWMutex

	telegramsTx      atomic.Uint64
	telegramsRx      atomic.Uint64
	telegramsDropped atomic.Uint64
	errorsTotal      atomic.Uint64
	lastActivity     atomic.Int64 // Unix timestamp
}

// Connect establishes a connection to the knxd daemon, opens group
// communication mode, and starts receiving telegrams.
func Connect(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}

	network, address, err := parseConnectionURL(cfg.Connection)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(connectCtx, network, address)
	if err != nil {
		return nil, fmt.Errorf("%w: dial failed: %w", ErrConnectionFailed, err)
	}

	c := &Client{
		cfg:           cfg,
		conn:          conn,
		done:          make(chan struct{}),
		telegramQueue: make(chan Telegram, telegramQueueSize),
	}
	c.lastActivity.Store(time.Now().Unix())

	if err := c.openGroupCon(connectCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: handshake failed: %w", ErrConnectionFailed, err)
	}

	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	c.wg.Add(2)
	go c.dispatchLoop()
	go c.receiveLoop()

	return c, nil
}

// parseConnectionURL parses a knxd connection URL into network and address.
func parseConnectionURL(connURL string) (network, address string, err error) {
	u, err := url.Parse(connURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "unix":
		return "unix", u.Path, nil
	case "tcp":
		host := u.Host
		if host == "" {
			host = "localhost:6720"
		}
		return "tcp", host, nil
	default:
		return "", "", fmt.Errorf("unsupported scheme %q (use unix or tcp)", u.Scheme)
	}
}

// openGroupCon performs the EIB_OPEN_GROUPCON handshake.
//
// Payload: reserved(1) + write_only(1) + reserved(1). write_only=0x00
// enables bidirectional communication.
func (c *Client) openGroupCon(ctx context.Context) error {
	msg := EncodeKNXDMessage(EIBOpenGroupCon, []byte{0x00, 0x00, 0x00})

	writeDeadline := time.Now().Add(defaultWriteTimeout)
	if deadline, ok := ctx.Deadline(); ok && deadline.Before(writeDeadline) {
		writeDeadline = deadline
	}
	if err := c.conn.SetWriteDeadline(writeDeadline); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if _, err := c.conn.Write(msg); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	readDeadline := time.Now().Add(c.cfg.ReadTimeout)
	if deadline, ok := ctx.Deadline(); ok && deadline.Before(readDeadline) {
		readDeadline = deadline
	}
	if err := c.conn.SetReadDeadline(readDeadline); err != nil {
		return fmt.Errorf("set read deadline: %w", err)
	}

	// Read the response with proper framing: 2-byte size field first.
	sizeBytes := make([]byte, 2)
	if _, err := io.ReadFull(c.conn, sizeBytes); err != nil {
		return fmt.Errorf("read response size: %w", err)
	}

	msgSize := binary.BigEndian.Uint16(sizeBytes)
	if msgSize < 2 {
		return fmt.Errorf("invalid response size: %d", msgSize)
	}

	resp := make([]byte, 2+int(msgSize))
	copy(resp[:2], sizeBytes)
	if _, err := io.ReadFull(c.conn, resp[2:]); err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	msgType, _, err := ParseKNXDMessage(resp)
	if err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	if msgType != EIBOpenGroupCon {
		return fmt.Errorf("unexpected response type: 0x%04X", msgType)
	}

	return nil
}

// receiveLoop continuously reads telegrams from knxd until the
// connection fails or the client is closed.
func (c *Client) receiveLoop() {
	defer c.wg.Done()

	buf := make([]byte, readBufferSize)

	for {
		select {
		case <-c.done:
			return
		default:
		}

		msgType, payload, err := c.readMessage(buf)
		if err != nil {
			if c.isClosed() {
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue // idle bus, keep waiting
			}
			c.logError("read failed, receive loop stopping", err)
			c.errorsTotal.Add(1)
			c.markDisconnected()
			return
		}
		if msgType == 0 && payload == nil {
			continue // recoverable parse error, already counted
		}

		// GROUPCON receive format: src(2) + GA(2) + APDU(2+) = min 6 bytes.
		if msgType == EIBGroupPacket && len(payload) >= 6 {
			c.handleGroupPacket(payload)
		}
	}
}

// readMessage reads a single knxd message from the connection.
func (c *Client) readMessage(buf []byte) (uint16, []byte, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout)); err != nil {
		return 0, nil, fmt.Errorf("set deadline: %w", err)
	}

	if _, err := io.ReadFull(c.conn, buf[:2]); err != nil {
		return 0, nil, fmt.Errorf("read size: %w", err)
	}

	msgSize := binary.BigEndian.Uint16(buf[:2])
	if msgSize < 2 {
		c.errorsTotal.Add(1)
		return 0, nil, fmt.Errorf("invalid message size: %d", msgSize)
	}

	totalLen := 2 + int(msgSize)

	// An oversized message means the stream is desynced. There is no safe
	// way to skip it, so treat it as a fatal read error.
	if totalLen > len(buf) {
		c.errorsTotal.Add(1)
		return 0, nil, fmt.Errorf("oversized message: %d bytes exceeds buffer %d", totalLen, len(buf))
	}

	if _, err := io.ReadFull(c.conn, buf[2:totalLen]); err != nil {
		return 0, nil, fmt.Errorf("read message: %w", err)
	}

	msgType, payload, err := ParseKNXDMessage(buf[:totalLen])
	if err != nil {
		c.logError("parse message failed", err)
		c.errorsTotal.Add(1)
		return 0, nil, nil // recoverable, skip this message
	}

	return msgType, payload, nil
}

// handleGroupPacket parses and queues a received group telegram.
func (c *Client) handleGroupPacket(payload []byte) {
	telegram, err := ParseTelegram(payload)
	if err != nil {
		c.logError("parse telegram failed", err)
		c.errorsTotal.Add(1)
		return
	}

	c.telegramsRx.Add(1)
	c.lastActivity.Store(time.Now().Unix())

	select {
	case c.telegramQueue <- telegram:
	default:
		// Queue full; drop rather than stall the receive loop.
		c.telegramsDropped.Add(1)
		c.errorsTotal.Add(1)
		c.logError("telegram queue full, dropping telegram", nil)
	}
}

// dispatchLoop delivers queued telegrams to the registered callback,
// preserving bus arrival order.
func (c *Client) dispatchLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		case telegram := <-c.telegramQueue:
			c.callbackMu.RLock()
			callback := c.onTelegram
			c.callbackMu.RUnlock()

			if callback == nil {
				continue
			}
			func() {
				defer func() {
					if r := recover(); r != nil {
						c.logError("telegram callback panic", fmt.Errorf("%v", r))
					}
				}()
				callback(telegram)
			}()
		}
	}
}

// markDisconnected records connection loss.
func (c *Client) markDisconnected() {
	c.connMu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.connMu.Unlock()

	if wasConnected {
		c.logInfo("connection to knxd lost")
	}
}

// isClosed returns true if Close has been called.
func (c *Client) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Close gracefully closes the connection. Safe to call multiple times.
func (c *Client) Close() error {
	c.stopOnce.Do(func() {
		close(c.done)

		c.connMu.Lock()
		c.connected = false
		c.connMu.Unlock()

		if c.conn != nil {
			c.conn.Close() // unblocks pending reads
		}

		c.wg.Wait()
		c.logInfo("knxd connection closed")
	})
	return nil
}

// Send sends a group write telegram to the KNX bus.
func (c *Client) Send(ctx context.Context, ga GroupAddress, data []byte) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return c.sendTelegram(ctx, NewWriteTelegram(ga, data))
}

// SendRead sends a group read request to the KNX bus.
func (c *Client) SendRead(ctx context.Context, ga GroupAddress) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return c.sendTelegram(ctx, NewReadTelegram(ga))
}

// sendTelegram encodes and writes a telegram to knxd.
func (c *Client) sendTelegram(ctx context.Context, t Telegram) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrTelegramFailed, ctx.Err())
	default:
	}

	msg := EncodeKNXDMessage(EIBGroupPacket, t.Encode())

	deadline := time.Now().Add(defaultWriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()

	if conn == nil {
		return ErrNotConnected
	}

	if err := conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("%w: set deadline: %w", ErrTelegramFailed, err)
	}

	if _, err := conn.Write(msg); err != nil {
		c.errorsTotal.Add(1)
		return fmt.Errorf("%w: write: %w", ErrTelegramFailed, err)
	}

	c.telegramsTx.Add(1)
	c.lastActivity.Store(time.Now().Unix())

	return nil
}

// SetOnTelegram sets the callback for received telegrams.
//
// The callback runs on the client's dispatch goroutine; panics are
// recovered and logged.
func (c *Client) SetOnTelegram(callback func(Telegram)) {
	c.callbackMu.Lock()
	c.onTelegram = callback
	c.callbackMu.Unlock()
}

// SetLogger sets the logger for this client.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// IsConnected returns true if connected to knxd.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected
}

// Stats returns current operational statistics.
func (c *Client) Stats() ClientStats {
	return ClientStats{
		TelegramsTx:      c.telegramsTx.Load(),
		TelegramsRx:      c.telegramsRx.Load(),
		TelegramsDropped: c.telegramsDropped.Load(),
		ErrorsTotal:      c.errorsTotal.Load(),
		LastActivity:     time.Unix(c.lastActivity.Load(), 0),
		Connected:        c.IsConnected(),
	}
}

// logInfo logs an info message if a logger is set.
func (c *Client) logInfo(msg string, keysAndValues ...any) {
	c.loggerMu.RLock()
	logger := c.logger
	c.loggerMu.RUnlock()

	if logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is set.
func (c *Client) logError(msg string, err error) {
	c.loggerMu.RLock()
	logger := c.logger
	c.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}
