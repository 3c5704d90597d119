package service

import (
	"context"
	"encoding/json"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/internal/repository/contract"
	"rag-chat-be/pkg/events"
	"rag-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IConsumerService drains the durable-log topic and persists turn rows,
// keeping database writes off the query hot path.
type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	chatLog   contract.ChatLogRepository
	natsPub   *nats.Publisher
	logger    logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	chatLog contract.ChatLogRepository,
	natsPub *nats.Publisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		chatLog:   chatLog,
		natsPub:   natsPub,
		logger:    log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ChatTurnPairMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal turn pair", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	// One row per turn, user first so commit order matches read order.
	if err := cs.chatLog.AppendTurn(ctx, payload.SessionId, payload.User, nil); err != nil {
		cs.logger.Error("ConsumerService", "Failed to persist user turn", map[string]interface{}{
			"session_id": payload.SessionId,
			"error":      err.Error(),
		})
		msg.Nack() // Nack for retriable errors
		return
	}

	if err := cs.chatLog.AppendTurn(ctx, payload.SessionId, payload.Assistant, payload.Sources); err != nil {
		cs.logger.Error("ConsumerService", "Failed to persist assistant turn", map[string]interface{}{
			"session_id": payload.SessionId,
			"error":      err.Error(),
		})
		msg.Nack()
		return
	}

	// Announce the committed pair on the external bus. Best-effort.
	if cs.natsPub != nil {
		event := events.NewTurnCommittedEvent(payload.SessionId, payload.User.Content, payload.Assistant.Content)
		if err := cs.natsPub.Publish(ctx, event); err != nil {
			cs.logger.Warn("ConsumerService", "NATS publish failed", map[string]interface{}{
				"session_id": payload.SessionId,
				"error":      err.Error(),
			})
		}
	}

	msg.Ack()
}
