package service

import (
	"context"
	"encoding/json"

	"rag-chat-be/internal/dto"
	"rag-chat-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IPublisherService feeds committed turn pairs into the durable-log pipeline.
// Publishing is fire-and-forget from the orchestrator's viewpoint; the
// consumer on the other end of the topic does the actual database writes.
type IPublisherService interface {
	PublishTurnPair(ctx context.Context, sessionID string, user, assistant store.Turn, sources []store.Source) error
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

func (ps *publisherService) PublishTurnPair(ctx context.Context, sessionID string, user, assistant store.Turn, sources []store.Source) error {
	payload := dto.ChatTurnPairMessage{
		SessionId: sessionID,
		User:      user,
		Assistant: assistant,
		Sources:   sources,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	return ps.pubSub.Publish(ps.topicName, msg)
}
