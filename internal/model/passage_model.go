package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type Passage struct {
	Id         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Text       string          `gorm:"type:text;not null"`
	Title      string          `gorm:"type:varchar(512)"`
	Url        string          `gorm:"type:varchar(2048)"`
	SourceName string          `gorm:"type:varchar(255)"`
	Embedding  pgvector.Vector `gorm:"type:vector(768)"` // Jina v2-base-en uses 768 dimensions
	ChunkIndex int             `gorm:"default:0"` // 0-based index for ordering
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
}

func (Passage) TableName() string {
	return "passages"
}
