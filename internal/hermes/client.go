package hermes

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// NATS subjects owned by traceback.
const (
	// SubjectRecordsStored is published by ingestion collaborators after a
	// batch of raw records lands in storage.
	SubjectRecordsStored = "traceback.ingest.records.stored"
	// SubjectTimelineUpdated announces that the timeline for a day changed
	// and renderers should re-query.
	SubjectTimelineUpdated = "traceback.timeline.updated"

	SubjectSyncStarted   = "traceback.sync.started"
	SubjectSyncProgress  = "traceback.sync.progress"
	SubjectSyncCompleted = "traceback.sync.completed"
	SubjectSyncFailed    = "traceback.sync.failed"
)

// RecordsStored is the payload of SubjectRecordsStored.
type RecordsStored struct {
	Source      string    `json:"source"`
	Count       int       `json:"count"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
}

// TimelineUpdated is the payload of SubjectTimelineUpdated. Day is the local
// calendar day in YYYY-MM-DD form.
type TimelineUpdated struct {
	Day string `json:"day"`
}

// SyncProgress is the payload of the sync lifecycle subjects.
type SyncProgress struct {
	Source        string `json:"source,omitempty"`
	Status        string `json:"status,omitempty"`
	Message       string `json:"message,omitempty"`
	NewRecords    int    `json:"new_records,omitempty"`
	TotalNew      int    `json:"total_new,omitempty"`
	DurationMilli int64  `json:"duration_ms,omitempty"`
	Error         string `json:"error,omitempty"`
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}
