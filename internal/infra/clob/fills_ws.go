package clob

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/domain"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/infra"
)

const (
	wsHandshakeTimeout = 10 * time.Second
	wsPingInterval     = 20 * time.Second
	wsReadTimeout      = 60 * time.Second
)

type wsSubscribeRequest struct {
	Op      string `json:"op"`
	Channel string `json:"channel"`
}

type wsFillMessage struct {
	Channel string     `json:"channel"`
	Data    []fillWire `json:"data"`
}

// FillStreamWorker maintains the user fill-event WebSocket connection and
// delivers fills to the inbox in exchange order. It reconnects with
// exponential backoff; missed fills during a gap are recovered by the
// executor's status queries, so the stream only needs at-least-once delivery.
type FillStreamWorker struct {
	wsURL  string
	signer *Signer
	inbox  chan<- domain.Fill

	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewFillStreamWorker creates a fill stream gateway worker.
func NewFillStreamWorker(cfg *infra.Config, inbox chan<- domain.Fill) *FillStreamWorker {
	return &FillStreamWorker{
		wsURL:  cfg.API.Clob.WSURL,
		signer: NewSigner(cfg.API.Clob.APIKey, cfg.API.Clob.APISecret, cfg.API.Clob.Passphrase),
		inbox:  inbox,
	}
}

// Connect starts the WebSocket connection with automatic reconnection.
func (w *FillStreamWorker) Connect(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.connectionLoop(ctx)

	return nil
}

func (w *FillStreamWorker) connectionLoop(ctx context.Context) {
	defer w.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Fill stream panic recovered", slog.Any("panic", r))
		}
	}()

	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			slog.Info("Fill stream connection loop stopped")
			return
		default:
		}

		err := w.connect(ctx)
		if err != nil {
			slog.Warn("Fill stream connection failed",
				slog.Any("error", err),
				slog.Int("retry", retryCount),
			)

			delay := infra.CalculateBackoff(retryCount)
			retryCount++

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		}

		retryCount = 0
		w.readLoop(ctx)
	}
}

func (w *FillStreamWorker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}

	header := make(http.Header)
	for k, v := range w.signer.GenerateHeaders(http.MethodGet, "/ws/user", "") {
		header.Set(k, v)
	}

	conn, _, err := dialer.DialContext(ctx, w.wsURL, header)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	w.mu.Lock()
	w.conn = conn
	w.connected = true
	w.mu.Unlock()

	if err := w.subscribe(); err != nil {
		w.closeConnection()
		return fmt.Errorf("subscribe failed: %w", err)
	}

	go w.pingLoop(ctx)

	slog.Info("Fill stream WebSocket connected")
	return nil
}

func (w *FillStreamWorker) subscribe() error {
	req := wsSubscribeRequest{Op: "subscribe", Channel: "fills"}
	msgBytes, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return w.threadSafeWrite(websocket.TextMessage, msgBytes)
}

func (w *FillStreamWorker) threadSafeWrite(messageType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.mu.RLock()
	conn := w.conn
	w.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("connection is nil")
	}

	return conn.WriteMessage(messageType, data)
}

func (w *FillStreamWorker) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Fill stream pingLoop panic recovered", slog.Any("panic", r))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.threadSafeWrite(websocket.TextMessage, []byte("ping")); err != nil {
				slog.Warn("Fill stream ping failed", slog.Any("error", err))
			}
		}
	}
}

func (w *FillStreamWorker) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()

		if conn == nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("Fill stream read error", slog.Any("error", err))
			}
			w.closeConnection()
			return
		}

		if string(message) == "pong" {
			continue
		}

		w.handleMessage(message)
	}
}

func (w *FillStreamWorker) handleMessage(message []byte) {
	var msg wsFillMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}

	if msg.Channel != "fills" || len(msg.Data) == 0 {
		return
	}

	for _, wire := range msg.Data {
		fill, err := toFill(wire)
		if err != nil {
			slog.Warn("Dropping unparsable fill", slog.String("fill_id", wire.FillID), slog.Any("error", err))
			continue
		}

		if w.inbox != nil {
			// Block rather than drop: fill ordering feeds the ledger, and a
			// dropped fill would force a reconcile halt.
			w.inbox <- fill
		}
	}
}

func (w *FillStreamWorker) closeConnection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	w.connected = false
}

// Disconnect closes the connection and wipes credentials.
func (w *FillStreamWorker) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConnection()
	w.wg.Wait()
	w.signer.Wipe()
	slog.Info("Fill stream WebSocket disconnected")
}

// IsConnected returns connection status.
func (w *FillStreamWorker) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}
