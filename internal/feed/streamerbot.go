package feed

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// ErrAuthFailed is returned when the Streamer.bot server refuses the
// password.
var ErrAuthFailed = errors.New("streamerbot: authentication failed")

// StreamerbotConfig configures the WebSocket client.
type StreamerbotConfig struct {
	Host     string
	Port     int
	Endpoint string
	Password string
	// Events are "Source.Type" pairs to subscribe to, e.g. "General.Custom".
	Events []string

	// MaxBackoff caps the reconnect delay.
	MaxBackoff time.Duration
	// HandshakeTimeout bounds dialing plus the hello/auth exchange.
	HandshakeTimeout time.Duration

	Dialer *websocket.Dialer
	Logger *zerolog.Logger
}

// StreamerbotSource reads point snapshots from a Streamer.bot WebSocket
// server. It reconnects with exponential backoff until ctx is cancelled.
type StreamerbotSource struct {
	cfg StreamerbotConfig
	log zerolog.Logger
	now func() time.Time
}

// NewStreamerbotSource constructs a source with defaults applied.
func NewStreamerbotSource(cfg StreamerbotConfig) *StreamerbotSource {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "/"
	}
	if len(cfg.Events) == 0 {
		cfg.Events = []string{"General.Custom"}
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = time.Minute
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.Dialer == nil {
		cfg.Dialer = &websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout}
	}
	l := zerolog.Nop()
	if cfg.Logger != nil {
		l = *cfg.Logger
	}
	return &StreamerbotSource{
		cfg: cfg,
		log: l.With().Str("component", "streamerbot").Logger(),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// URL returns the WebSocket address of the server.
func (s *StreamerbotSource) URL() string {
	u := url.URL{
		Scheme: "ws",
		Host:   net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)),
		Path:   s.cfg.Endpoint,
	}
	return u.String()
}

// Run keeps a session open and forwards events to out. It returns
// ctx.Err() on cancellation and ErrAuthFailed when the password is refused.
func (s *StreamerbotSource) Run(ctx context.Context, out chan<- Event) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = min(time.Second, s.cfg.MaxBackoff)
	b.MaxInterval = s.cfg.MaxBackoff

	for {
		subscribed, err := s.session(ctx, out)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrAuthFailed) {
			return err
		}
		if subscribed {
			b.Reset()
		}
		wait := b.NextBackOff()
		s.log.Warn().Err(err).Dur("retry_in", wait).Str("url", s.URL()).Msg("streamerbot disconnected")

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// session runs one connection. subscribed reports whether the handshake
// completed, which resets the backoff.
func (s *StreamerbotSource) session(ctx context.Context, out chan<- Event) (subscribed bool, err error) {
	dialCtx, cancel := context.WithTimeout(ctx, s.cfg.HandshakeTimeout)
	conn, _, err := s.cfg.Dialer.DialContext(dialCtx, s.URL(), nil)
	cancel()
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.HandshakeTimeout))
	hello, err := readJSON(conn)
	if err != nil {
		return false, fmt.Errorf("hello: %w", err)
	}
	if hello.Get("request").String() != "Hello" {
		return false, fmt.Errorf("hello: unexpected message %q", hello.Raw)
	}

	if auth := hello.Get("authentication"); auth.Exists() {
		if err := s.authenticate(conn, auth.Get("salt").String(), auth.Get("challenge").String()); err != nil {
			return false, err
		}
	}
	if err := conn.WriteJSON(map[string]any{
		"request": "Subscribe",
		"id":      uuid.NewString(),
		"events":  subscriptions(s.cfg.Events),
	}); err != nil {
		return false, fmt.Errorf("subscribe: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})
	s.log.Info().Str("url", s.URL()).Strs("events", s.cfg.Events).Msg("streamerbot connected")

	for {
		msg, err := readJSON(conn)
		if err != nil {
			return true, err
		}
		if status := msg.Get("status"); status.Exists() && status.String() != "ok" {
			s.log.Warn().Str("response", msg.Raw).Msg("streamerbot request failed")
			continue
		}
		ev, ok := ParseEvent(msg, s.now())
		if !ok {
			continue
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return true, ctx.Err()
		}
	}
}

func (s *StreamerbotSource) authenticate(conn *websocket.Conn, salt, challenge string) error {
	if s.cfg.Password == "" {
		return fmt.Errorf("%w: server requires a password", ErrAuthFailed)
	}
	id := uuid.NewString()
	if err := conn.WriteJSON(map[string]any{
		"request":        "Authenticate",
		"id":             id,
		"authentication": AuthResponse(s.cfg.Password, salt, challenge),
	}); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	for {
		msg, err := readJSON(conn)
		if err != nil {
			return fmt.Errorf("authenticate: %w", err)
		}
		if msg.Get("id").String() != id {
			continue
		}
		if msg.Get("status").String() != "ok" {
			return ErrAuthFailed
		}
		return nil
	}
}

// AuthResponse computes the Streamer.bot authentication string:
// base64(sha256(base64(sha256(password+salt)) + challenge)).
func AuthResponse(password, salt, challenge string) string {
	secret := sha256.Sum256([]byte(password + salt))
	secretB64 := base64.StdEncoding.EncodeToString(secret[:])
	resp := sha256.Sum256([]byte(secretB64 + challenge))
	return base64.StdEncoding.EncodeToString(resp[:])
}

// subscriptions groups "Source.Type" pairs by source.
func subscriptions(events []string) map[string][]string {
	out := make(map[string][]string)
	for _, e := range events {
		src, typ, ok := strings.Cut(strings.TrimSpace(e), ".")
		if !ok || src == "" || typ == "" {
			continue
		}
		out[src] = append(out[src], typ)
	}
	return out
}

func readJSON(conn *websocket.Conn) (gjson.Result, error) {
	_, b, err := conn.ReadMessage()
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(b) {
		return gjson.Result{}, fmt.Errorf("invalid json frame")
	}
	return gjson.ParseBytes(b), nil
}

// ParseEvent extracts a point snapshot from a Streamer.bot event frame.
// The frame must carry data.user (a name, or an object with login, name or
// id) and data.points (number or numeric string). data.total_earned is
// optional. Frames without both fields, or with negative values, are not
// point events.
func ParseEvent(msg gjson.Result, now time.Time) (Event, bool) {
	data := msg.Get("data")
	if !data.Exists() {
		return Event{}, false
	}

	user := data.Get("user")
	var userID string
	if user.IsObject() {
		for _, k := range []string{"login", "name", "id"} {
			if v := user.Get(k); v.Exists() && strings.TrimSpace(v.String()) != "" {
				userID = v.String()
				break
			}
		}
	} else {
		userID = user.String()
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Event{}, false
	}

	points, ok := intField(data.Get("points"))
	if !ok || points < 0 {
		return Event{}, false
	}
	total, _ := intField(data.Get("total_earned"))
	if total < 0 {
		total = 0
	}

	source := "streamerbot"
	if ev := msg.Get("event"); ev.Exists() {
		source = "streamerbot." + ev.Get("source").String() + "." + ev.Get("type").String()
	}
	return Event{
		UserID:      userID,
		Balance:     points,
		TotalEarned: total,
		Source:      source,
		ReceivedAt:  now,
	}, true
}

func intField(v gjson.Result) (int64, bool) {
	switch v.Type {
	case gjson.Number:
		return v.Int(), true
	case gjson.String:
		n, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64)
		return n, err == nil
	}
	return 0, false
}
