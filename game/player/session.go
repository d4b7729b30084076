package player

import (
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendChanBuf   = 256
	writeDeadline = 10 * time.Second
	readDeadline  = 60 * time.Second
	pingInterval  = 30 * time.Second // server-side WS ping
)

// Packet is the unified WS message envelope.
type Packet struct {
	Seq     uint64          `json:"seq"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Vector3 is a world position.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Dist returns the euclidean distance between two positions.
func (v Vector3) Dist(o Vector3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Session represents a connected player's WebSocket session and the
// identity attributes the game systems read from it.
type Session struct {
	AccountID int64
	CharID    int64
	CharName  string
	Sex       int

	Conn      *websocket.Conn
	Pos       Vector3
	Heading   float64 // radians, 0 = north
	Dimension int
	InVehicle bool
	Wielded   int // toolbar slot currently drawn, -1 = none

	SendChan chan []byte
	Done     chan struct{}
	TraceID  string
	LastSeq  uint64

	mu     sync.Mutex
	logger *zap.Logger
}

// NewSession creates a new Session with write goroutine started.
func NewSession(accountID, charID int64, conn *websocket.Conn, logger *zap.Logger) *Session {
	s := &Session{
		AccountID: accountID,
		CharID:    charID,
		Conn:      conn,
		Wielded:   -1,
		SendChan:  make(chan []byte, sendChanBuf),
		Done:      make(chan struct{}),
		logger:    logger,
	}
	go s.writePump()
	return s
}

// writePump drains SendChan and writes to the WebSocket connection.
// Also sends periodic WebSocket pings to detect dead connections quickly.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer s.Conn.Close()
	for {
		select {
		case data, ok := <-s.SendChan:
			if !ok {
				return
			}
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Warn("ws write error",
					zap.Int64("account_id", s.AccountID),
					zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.Done:
			_ = s.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Send encodes pkt and sends it non-blocking. Drops if channel full or closed.
func (s *Session) Send(pkt *Packet) {
	if s.IsClosed() {
		return
	}
	data, err := json.Marshal(pkt)
	if err != nil {
		return
	}
	select {
	case s.SendChan <- data:
	case <-s.Done:
		// Session closed while sending
	default:
		if !s.IsClosed() {
			s.logger.Warn("send channel full, dropping packet",
				zap.Int64("account_id", s.AccountID),
				zap.String("type", pkt.Type))
		}
	}
}

// SendRaw sends raw bytes non-blocking. Drops if channel full or closed.
func (s *Session) SendRaw(data []byte) {
	if s.IsClosed() {
		return
	}
	select {
	case s.SendChan <- data:
	case <-s.Done:
	default:
		if !s.IsClosed() {
			s.logger.Warn("send channel full, dropping raw packet",
				zap.Int64("account_id", s.AccountID))
		}
	}
}

// SetReadDeadline refreshes the connection read deadline.
func (s *Session) SetReadDeadline() {
	_ = s.Conn.SetReadDeadline(time.Now().Add(readDeadline))
}

// Close signals the writePump to shut down.
func (s *Session) Close() {
	select {
	case <-s.Done:
	default:
		close(s.Done)
	}
}

// IsClosed returns true if the session has been closed.
func (s *Session) IsClosed() bool {
	select {
	case <-s.Done:
		return true
	default:
		return false
	}
}

// SetPosition updates the session position fields thread-safely.
func (s *Session) SetPosition(pos Vector3, heading float64, dimension int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Pos = pos
	s.Heading = heading
	s.Dimension = dimension
}

// Position returns the current position thread-safely.
func (s *Session) Position() (Vector3, float64, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Pos, s.Heading, s.Dimension
}

// SetInVehicle updates the vehicle flag thread-safely.
func (s *Session) SetInVehicle(in bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InVehicle = in
}

// Seated reports whether the player currently occupies a vehicle seat.
func (s *Session) Seated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.InVehicle
}

// ClearWielded drops the drawn toolbar item, if any. Returns the slot
// that was wielded, -1 if none.
func (s *Session) ClearWielded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot := s.Wielded
	s.Wielded = -1
	return slot
}

// ForwardOffset returns a position dist units in front of the player
// along the current heading, dropped below by the given amount.
func (s *Session) ForwardOffset(dist, drop float64) Vector3 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Vector3{
		X: s.Pos.X - math.Sin(s.Heading)*dist,
		Y: s.Pos.Y + math.Cos(s.Heading)*dist,
		Z: s.Pos.Z - drop,
	}
}
