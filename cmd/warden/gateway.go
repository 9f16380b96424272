package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/haven-chat/warden/automod/engine"

	"github.com/carlmjohnson/versioninfo"
	"github.com/gorilla/websocket"
)

// One frame from the gateway's moderation event stream. Only
// "message-create" frames carry a message payload.
type gatewayFrame struct {
	Seq     int64           `json:"seq"`
	Type    string          `json:"type"`
	Message *gatewayMessage `json:"message,omitempty"`
}

type gatewayMessage struct {
	GuildID     string    `json:"guild_id"`
	ChannelID   string    `json:"channel_id"`
	MessageID   string    `json:"message_id"`
	AuthorID    string    `json:"author_id"`
	AuthorRoles []string  `json:"author_roles,omitempty"`
	Bot         bool      `json:"bot,omitempty"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// Consumes the gateway message stream until ctx is done, re-dialing from the
// last persisted cursor after connection failures.
func (s *Server) RunConsumer(ctx context.Context) error {
	for {
		err := s.consumeOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		gatewayReconnects.Inc()
		s.logger.Error("gateway connection lost, reconnecting", "err", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func (s *Server) consumeOnce(ctx context.Context) error {
	cur, err := s.ReadLastCursor(ctx)
	if err != nil {
		return err
	}

	dialer := websocket.DefaultDialer
	u, err := url.Parse(s.gatewayHost)
	if err != nil {
		return fmt.Errorf("invalid gateway URI: %w", err)
	}
	u.Path = "/gateway/moderation"
	if cur != 0 {
		u.RawQuery = fmt.Sprintf("cursor=%d", cur)
	}
	s.logger.Info("subscribing to gateway message stream", "upstream", s.gatewayHost, "cursor", cur)
	con, _, err := dialer.Dial(u.String(), http.Header{
		"User-Agent": []string{fmt.Sprintf("warden/%s", versioninfo.Short())},
	})
	if err != nil {
		return fmt.Errorf("subscribing to gateway failed (dialing): %w", err)
	}
	defer con.Close()

	go func() {
		<-ctx.Done()
		con.Close()
	}()

	// a small worker pool: the engine serializes per (guild, user)
	// internally, so frames for different users process in parallel
	frames := make(chan gatewayFrame, s.workers*4)
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for frame := range frames {
				s.handleFrame(ctx, frame)
			}
		}()
	}
	defer func() {
		close(frames)
		wg.Wait()
	}()

	for {
		var frame gatewayFrame
		if err := con.ReadJSON(&frame); err != nil {
			return fmt.Errorf("reading gateway frame: %w", err)
		}
		atomic.StoreInt64(&s.lastSeq, frame.Seq)
		currentSeq.Set(float64(frame.Seq))
		messagesReceived.Inc()
		frames <- frame
	}
}

func (s *Server) handleFrame(ctx context.Context, frame gatewayFrame) {
	ctx, span := tracer.Start(ctx, "handleFrame")
	defer span.End()

	if frame.Type != "message-create" || frame.Message == nil {
		messagesSkipped.Inc()
		return
	}
	m := frame.Message
	evt := engine.MessageEvent{
		GuildID:     m.GuildID,
		ChannelID:   m.ChannelID,
		MessageID:   m.MessageID,
		AuthorID:    m.AuthorID,
		AuthorRoles: m.AuthorRoles,
		Bot:         m.Bot,
		Content:     m.Content,
		CreatedAt:   m.CreatedAt,
	}
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now()
	}

	if _, err := s.engine.ProcessMessage(ctx, evt); err != nil {
		messagesFailed.Inc()
		s.logger.Error("engine failed to process message", "guild", m.GuildID, "message", m.MessageID, "seq", frame.Seq, "err", err)
		return
	}
	messagesProcessed.Inc()
}
