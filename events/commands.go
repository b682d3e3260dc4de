package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/IBM/sarama"

	"contentorbit/config"
	"contentorbit/types"
)

// Command actions accepted on the commands topic
const (
	ActionRunNow        = "run_now"
	ActionRetryPlatform = "retry_platform"
	ActionPause         = "pause"
	ActionResume        = "resume"
)

// Command is a remote instruction for the bot
type Command struct {
	Action   string         `json:"action"`
	PostID   string         `json:"post_id,omitempty"`
	Platform types.Platform `json:"platform,omitempty"`
}

// Valid reports whether the command carries everything its action needs
func (c *Command) Valid() bool {
	switch c.Action {
	case ActionRunNow, ActionPause, ActionResume:
		return true
	case ActionRetryPlatform:
		return c.PostID != "" && c.Platform != ""
	default:
		return false
	}
}

// CommandExecutor is implemented by the bot core
type CommandExecutor interface {
	RunNow(ctx context.Context) error
	RetryPlatform(ctx context.Context, postID string, platform types.Platform) error
	Pause() error
	Resume(ctx context.Context) error
}

// CommandConsumer listens on the commands topic and drives the executor
type CommandConsumer struct {
	group    sarama.ConsumerGroup
	executor CommandExecutor
	topic    string
	groupID  string
	ready    chan struct{}
}

// NewCommandConsumer joins the consumer group. Returns nil without
// error when brokers or the topic are not configured.
func NewCommandConsumer(cfg config.KafkaConfig, executor CommandExecutor) (*CommandConsumer, error) {
	if len(cfg.Brokers) == 0 || cfg.CommandsTopic == "" {
		return nil, nil
	}
	groupID := cfg.GroupID
	if groupID == "" {
		groupID = "contentorbit"
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(cfg.Brokers, groupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to join consumer group: %w", err)
	}

	return &CommandConsumer{
		group:    group,
		executor: executor,
		topic:    cfg.CommandsTopic,
		groupID:  groupID,
		ready:    make(chan struct{}),
	}, nil
}

// Start begins consuming until the context is canceled
func (c *CommandConsumer) Start(ctx context.Context) error {
	handler := &commandGroupHandler{executor: c.executor, ready: c.ready}

	go func() {
		for {
			if err := c.group.Consume(ctx, []string{c.topic}, handler); err != nil {
				if err == context.Canceled {
					return
				}
				log.Printf("❌ Command consumer error: %v", err)
			}
			if ctx.Err() != nil {
				return
			}
			handler.ready = make(chan struct{})
		}
	}()

	<-c.ready
	log.Printf("✅ Command consumer started (group: %s, topic: %s)", c.groupID, c.topic)

	go func() {
		for err := range c.group.Errors() {
			log.Printf("❌ Command consumer group error: %v", err)
		}
	}()
	return nil
}

// Close leaves the consumer group
func (c *CommandConsumer) Close() error {
	return c.group.Close()
}

type commandGroupHandler struct {
	executor CommandExecutor
	ready    chan struct{}
}

func (h *commandGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	close(h.ready)
	return nil
}

func (h *commandGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *commandGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}
			// malformed and unknown commands are marked and dropped;
			// only execution failures stay unmarked for redelivery
			if dispatch(session.Context(), h.executor, message.Value) {
				session.MarkMessage(message, "")
			}
		case <-session.Context().Done():
			return nil
		}
	}
}

// dispatch parses and executes one command, reporting whether to mark
func dispatch(ctx context.Context, executor CommandExecutor, payload []byte) bool {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		log.Printf("⚠️ Dropping malformed command: %v", err)
		return true
	}
	if !cmd.Valid() {
		log.Printf("⚠️ Dropping invalid command: %+v", cmd)
		return true
	}

	log.Printf("📥 Remote command: %s", cmd.Action)
	var err error
	switch cmd.Action {
	case ActionRunNow:
		err = executor.RunNow(ctx)
	case ActionRetryPlatform:
		err = executor.RetryPlatform(ctx, cmd.PostID, cmd.Platform)
	case ActionPause:
		err = executor.Pause()
	case ActionResume:
		err = executor.Resume(ctx)
	}
	if err != nil {
		log.Printf("❌ Command %s failed: %v", cmd.Action, err)
		return false
	}
	return true
}
