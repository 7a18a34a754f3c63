package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

var errJetStreamNotConnected = errors.New("not connected to NATS JetStream")

// NATSOptions tunes the connection, the durable consumers and the stream
type NATSOptions struct {
	Name                 string
	ReconnectWait        time.Duration
	MaxReconnectAttempts int

	// Durable consumer names are DurablePrefix + sanitized subject
	DurablePrefix string
	MaxDeliver    int
	AckWait       time.Duration

	StreamMaxAge      time.Duration
	DuplicateWindow   time.Duration
	StreamDescription string
}

// DefaultNATSOptions returns the settings used by the bookmaker service
func DefaultNATSOptions() NATSOptions {
	return NATSOptions{
		Name:                 "bookmaker",
		ReconnectWait:        2 * time.Second,
		MaxReconnectAttempts: 10,
		DurablePrefix:        "bookmaker-",
		MaxDeliver:           3,
		AckWait:              30 * time.Second,
		StreamMaxAge:         24 * time.Hour,
		DuplicateWindow:      2 * time.Minute,
		StreamDescription:    "Bookmaker domain events",
	}
}

// NATSClient wraps a NATS connection with deduplicated JetStream publishes
// and durable, manually acknowledged subscriptions
type NATSClient struct {
	servers       string
	opts          NATSOptions
	nc            *nats.Conn
	js            nats.JetStreamContext
	subscriptions map[string]*nats.Subscription
	mu            sync.RWMutex
}

// NewNATSClient creates a new NATS client with DefaultNATSOptions
func NewNATSClient(servers string) *NATSClient {
	return NewNATSClientWithOptions(servers, DefaultNATSOptions())
}

// NewNATSClientWithOptions creates a new NATS client
func NewNATSClientWithOptions(servers string, opts NATSOptions) *NATSClient {
	return &NATSClient{
		servers:       servers,
		opts:          opts,
		subscriptions: make(map[string]*nats.Subscription),
	}
}

// Connect establishes a connection to the NATS server with JetStream
func (c *NATSClient) Connect(ctx context.Context) error {
	nc, err := nats.Connect(c.servers,
		nats.Name(c.opts.Name),
		nats.MaxReconnects(c.opts.MaxReconnectAttempts),
		nats.ReconnectWait(c.opts.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Error("NATS disconnected with error")
			} else {
				log.Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			fields := log.Fields{"error": err}
			if sub != nil {
				fields["subject"] = sub.Subject
			}
			log.WithFields(fields).Error("NATS async error")
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	c.mu.Lock()
	c.nc = nc
	c.js = js
	c.mu.Unlock()

	log.WithField("servers", c.servers).Info("Connected to NATS with JetStream")
	return nil
}

func (c *NATSClient) jetStream() (nats.JetStreamContext, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.js == nil {
		return nil, errJetStreamNotConnected
	}
	return c.js, nil
}

// consumerName derives a durable name that is valid for JetStream
func (c *NATSClient) consumerName(subject string) string {
	r := strings.NewReplacer(".", "_", "*", "wildcard", ">", "all")
	return c.opts.DurablePrefix + r.Replace(subject)
}

// Subscribe registers a durable consumer on subject. A handler error naks the
// message for redelivery. On the last allowed delivery the message is
// terminated instead so the consumer does not keep it pending.
func (c *NATSClient) Subscribe(subject string, handler func([]byte) error) error {
	js, err := c.jetStream()
	if err != nil {
		return err
	}

	consumer := c.consumerName(subject)
	sub, err := js.Subscribe(subject, func(msg *nats.Msg) {
		c.handleMsg(subject, msg, handler)
	},
		nats.Durable(consumer),
		nats.ManualAck(),
		nats.AckExplicit(),
		nats.MaxDeliver(c.opts.MaxDeliver),
		nats.AckWait(c.opts.AckWait),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	c.mu.Lock()
	c.subscriptions[subject] = sub
	c.mu.Unlock()

	log.WithFields(log.Fields{
		"subject":    subject,
		"consumer":   consumer,
		"maxDeliver": c.opts.MaxDeliver,
	}).Info("Subscribed to NATS subject")
	return nil
}

func (c *NATSClient) handleMsg(subject string, msg *nats.Msg, handler func([]byte) error) {
	err := handler(msg.Data)
	if err == nil {
		if ackErr := msg.Ack(); ackErr != nil {
			log.WithError(ackErr).WithField("subject", subject).Error("Failed to ACK message")
		}
		return
	}

	var delivered uint64 = 1
	if meta, metaErr := msg.Metadata(); metaErr == nil {
		delivered = meta.NumDelivered
	}
	fields := log.Fields{
		"subject":   subject,
		"delivered": delivered,
		"error":     err,
	}

	if c.opts.MaxDeliver > 0 && delivered >= uint64(c.opts.MaxDeliver) {
		log.WithFields(fields).Error("Message failed on its last delivery, terminating")
		if termErr := msg.Term(); termErr != nil {
			log.WithError(termErr).Error("Failed to TERM message")
		}
		return
	}

	log.WithFields(fields).Warn("Failed to process message, requesting redelivery")
	if nakErr := msg.Nak(); nakErr != nil {
		log.WithError(nakErr).Error("Failed to NAK message")
	}
}

// Close unsubscribes every consumer and closes the connection. Durable
// consumers keep their position on the server.
func (c *NATSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for subject, sub := range c.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			log.WithFields(log.Fields{
				"subject": subject,
				"error":   err,
			}).Error("Failed to unsubscribe")
		}
	}
	c.subscriptions = make(map[string]*nats.Subscription)

	if c.nc != nil {
		c.nc.Close()
		c.nc = nil
		c.js = nil
		log.Info("NATS connection closed")
	}
	return nil
}

// Ping round-trips to the server
func (c *NATSClient) Ping(ctx context.Context) error {
	c.mu.RLock()
	nc := c.nc
	c.mu.RUnlock()
	if nc == nil || !nc.IsConnected() {
		return errors.New("not connected to NATS")
	}

	timeout := time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	return nc.FlushTimeout(timeout)
}

// EnsureStream creates the stream, or widens its subject list when new event
// types were added since it was created
func (c *NATSClient) EnsureStream(streamName string, subjects []string) error {
	js, err := c.jetStream()
	if err != nil {
		return err
	}

	info, err := js.StreamInfo(streamName)
	if err == nil {
		missing := missingSubjects(info.Config.Subjects, subjects)
		if len(missing) == 0 {
			log.WithField("stream", streamName).Debug("JetStream stream up to date")
			return nil
		}
		cfg := info.Config
		cfg.Subjects = append(cfg.Subjects, missing...)
		if _, err := js.UpdateStream(&cfg); err != nil {
			return fmt.Errorf("failed to update stream %s: %w", streamName, err)
		}
		log.WithFields(log.Fields{
			"stream": streamName,
			"added":  missing,
		}).Info("Added subjects to JetStream stream")
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream %s: %w", streamName, err)
	}

	cfg := &nats.StreamConfig{
		Name:        streamName,
		Subjects:    subjects,
		Retention:   nats.LimitsPolicy,
		MaxAge:      c.opts.StreamMaxAge,
		Duplicates:  c.opts.DuplicateWindow,
		Storage:     nats.FileStorage,
		Replicas:    1,
		Description: c.opts.StreamDescription,
	}
	if _, err := js.AddStream(cfg); err != nil {
		return fmt.Errorf("failed to create stream %s: %w", streamName, err)
	}

	log.WithFields(log.Fields{
		"stream":   streamName,
		"subjects": subjects,
	}).Info("Created JetStream stream")
	return nil
}

func missingSubjects(existing, wanted []string) []string {
	var missing []string
	for _, s := range wanted {
		if !slices.Contains(existing, s) {
			missing = append(missing, s)
		}
	}
	return missing
}

// Publish publishes data on subject. msgID is used by JetStream to drop
// duplicates published within the stream's duplicate window.
func (c *NATSClient) Publish(ctx context.Context, subject, msgID string, data []byte) error {
	js, err := c.jetStream()
	if err != nil {
		return err
	}

	var opts []nats.PubOpt
	if _, ok := ctx.Deadline(); ok {
		opts = append(opts, nats.Context(ctx))
	}
	if msgID != "" {
		opts = append(opts, nats.MsgId(msgID))
	}

	ack, err := js.Publish(subject, data, opts...)
	if err != nil {
		return fmt.Errorf("failed to publish message to subject %s: %w", subject, err)
	}

	log.WithFields(log.Fields{
		"subject":   subject,
		"size":      len(data),
		"sequence":  ack.Sequence,
		"duplicate": ack.Duplicate,
	}).Debug("Published message to NATS")
	return nil
}
