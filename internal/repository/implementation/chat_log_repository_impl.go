package implementation

import (
	"context"
	"encoding/json"

	"rag-chat-be/internal/model"
	"rag-chat-be/internal/repository/contract"
	"rag-chat-be/pkg/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatLogRepositoryImpl struct {
	db *gorm.DB
}

func NewChatLogRepository(db *gorm.DB) contract.ChatLogRepository {
	return &ChatLogRepositoryImpl{db: db}
}

func (r *ChatLogRepositoryImpl) AppendTurn(ctx context.Context, sessionID string, turn store.Turn, sources []store.Source) error {
	// Upsert the session anchor row first (ON CONFLICT DO NOTHING)
	session := model.ChatSession{SessionId: sessionID}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoNothing: true,
		}).
		Create(&session).Error; err != nil {
		return err
	}

	m := model.ChatMessage{
		SessionId: sessionID,
		Role:      turn.Role,
		Content:   turn.Content,
		CreatedAt: turn.CreatedAt,
	}
	if len(sources) > 0 {
		data, err := json.Marshal(sources)
		if err != nil {
			return err
		}
		m.Sources = data
	}

	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *ChatLogRepositoryImpl) History(ctx context.Context, sessionID string) ([]store.Turn, error) {
	var models []model.ChatMessage
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	turns := make([]store.Turn, len(models))
	for i, m := range models {
		turns[i] = store.Turn{
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
	}
	return turns, nil
}

func (r *ChatLogRepositoryImpl) DeleteSession(ctx context.Context, sessionID string) error {
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&model.ChatMessage{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&model.ChatSession{}).Error
}
