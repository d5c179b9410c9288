package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/Tafakari-Ltd/kazibuddy-sync/stream"
)

// TokenVerifier authenticates a hello frame's session token and returns
// the subject it belongs to.
type TokenVerifier func(ctx context.Context, token string) (subject string, err error)

// DefaultHelloTimeout bounds how long a fresh connection may sit silent
// before its hello arrives.
const DefaultHelloTimeout = 10 * time.Second

// Server upgrades HTTP requests to WebSocket feed connections and
// bridges them to the stream broker. It implements http.Handler.
type Server struct {
	broker       *stream.Broker
	verify       TokenVerifier
	defaultCodec Codec
	conns        *Registry
	logger       *slog.Logger
	helloTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithVerifier sets the session token verifier. Without one every
// connection is accepted as anonymous.
func WithVerifier(v TokenVerifier) Option {
	return func(s *Server) { s.verify = v }
}

// WithLogger sets the server's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithHelloTimeout bounds the wait for the hello frame.
func WithHelloTimeout(d time.Duration) Option {
	return func(s *Server) { s.helloTimeout = d }
}

// NewServer creates a feed server over the given broker.
func NewServer(broker *stream.Broker, opts ...Option) *Server {
	s := &Server{
		broker:       broker,
		defaultCodec: &JSONCodec{},
		conns:        NewRegistry(),
		logger:       slog.Default(),
		helloTimeout: DefaultHelloTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.verify == nil {
		s.verify = func(context.Context, string) (string, error) { return "anonymous", nil }
	}
	return s
}

// Connections returns the connection registry.
func (s *Server) Connections() *Registry { return s.conns }

// ServeHTTP upgrades the request and runs the feed session until the
// client disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		s.logger.Warn("feed upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close() //nolint:errcheck

	s.serve(r.Context(), conn)
}

// wire serializes concurrent writers (the event forwarder and the
// control loop) onto one connection.
type wire struct {
	mu    sync.Mutex
	conn  net.Conn
	codec Codec
}

func (w *wire) write(frame *Frame) error {
	data, err := w.codec.Encode(frame)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.codec.Name() == CodecNameJSON {
		return wsutil.WriteServerText(w.conn, data)
	}
	return wsutil.WriteServerBinary(w.conn, data)
}

func (s *Server) serve(ctx context.Context, conn net.Conn) {
	// The hello is always JSON; negotiation happens inside it.
	_ = conn.SetReadDeadline(time.Now().Add(s.helloTimeout))
	data, _, err := wsutil.ReadClientData(conn)
	if err != nil {
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	jsonWire := &wire{conn: conn, codec: &JSONCodec{}}
	var hello Frame
	if err := json.Unmarshal(data, &hello); err != nil || hello.Type != TypeHello {
		_ = jsonWire.write(NewErrorFrame(hello.ID, ErrCodeBadRequest, "first frame must be hello"))
		return
	}

	subject, err := s.verify(ctx, hello.Token)
	if err != nil {
		_ = jsonWire.write(NewErrorFrame(hello.ID, ErrCodeUnauthorized, "authentication failed"))
		return
	}

	codec := s.defaultCodec
	if hello.Format != "" {
		codec = GetCodec(hello.Format)
	}

	connID := "feed-" + GenerateFrameID()
	client := NewConn(connID, subject, codec)
	s.conns.Add(client)
	defer func() {
		s.broker.RemoveSubscriber(connID)
		s.conns.Remove(connID)
		s.logger.Info("feed disconnected", slog.String("conn_id", connID))
	}()

	// The welcome confirms the negotiated format, so it is still JSON.
	welcome := &Frame{
		ID:        GenerateFrameID(),
		Type:      TypeWelcome,
		CorrelID:  hello.ID,
		Format:    codec.Name(),
		Timestamp: time.Now().UTC(),
	}
	if err := jsonWire.write(welcome); err != nil {
		return
	}

	s.logger.Info("feed connected",
		slog.String("conn_id", connID),
		slog.String("subject", subject),
		slog.String("codec", codec.Name()),
	)

	out := &wire{conn: conn, codec: codec}
	sub := s.broker.Subscribe(connID)
	if hello.Credits > 0 {
		sub.AddCredits(int64(hello.Credits))
	}
	go s.forward(out, sub)

	for {
		data, _, err := wsutil.ReadClientData(conn)
		if err != nil {
			return
		}
		client.Touch()

		frame, decErr := codec.Decode(data)
		if decErr != nil {
			if writeErr := out.write(NewErrorFrame("", ErrCodeBadRequest, "invalid frame: "+decErr.Error())); writeErr != nil {
				return
			}
			continue
		}
		if err := s.handleControl(out, sub, client, frame); err != nil {
			return
		}
	}
}

// handleControl dispatches one client frame. The client side of the
// protocol is control-only; data flows the other way.
func (s *Server) handleControl(out *wire, sub *stream.Subscriber, client *Conn, frame *Frame) error {
	switch frame.Type {
	case TypePing:
		return out.write(&Frame{
			ID:        GenerateFrameID(),
			Type:      TypePong,
			CorrelID:  frame.ID,
			Timestamp: time.Now().UTC(),
		})

	case TypeSubscribe:
		if err := stream.ValidateTopic(frame.Topic); err != nil {
			return out.write(NewErrorFrame(frame.ID, ErrCodeBadRequest, err.Error()))
		}
		s.broker.SubscribeTo(client.ID, frame.Topic)
		client.AddTopic(frame.Topic)
		return out.write(NewAckFrame(frame.ID))

	case TypeUnsubscribe:
		s.broker.Unsubscribe(client.ID, frame.Topic)
		client.RemoveTopic(frame.Topic)
		return out.write(NewAckFrame(frame.ID))

	default:
		if frame.Credits > 0 {
			sub.AddCredits(int64(frame.Credits))
			return nil
		}
		return out.write(NewErrorFrame(frame.ID, ErrCodeBadRequest, "unsupported frame type"))
	}
}

// forward drains the subscriber channel into the connection. Returns
// when either side goes away.
func (s *Server) forward(out *wire, sub *stream.Subscriber) {
	for evt := range sub.C() {
		frame, err := NewEventFrame(evt.Topic, evt)
		if err != nil {
			continue
		}
		if writeErr := out.write(frame); writeErr != nil {
			return
		}
	}
}
