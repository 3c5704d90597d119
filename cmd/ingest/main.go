package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"rag-chat-be/internal/config"
	"rag-chat-be/internal/model"
	"rag-chat-be/internal/repository/implementation"
	"rag-chat-be/pkg/database"
	"rag-chat-be/pkg/embedding"
	"rag-chat-be/pkg/embedding/jina"
	"rag-chat-be/pkg/utils"

	"github.com/pgvector/pgvector-go"
)

// Article is the input shape of the corpus file: a JSON array of articles
// with full bodies, as produced by the news fetch script.
type Article struct {
	Title      string `json:"title"`
	Url        string `json:"url"`
	SourceName string `json:"source_name"`
	Content    string `json:"content"`
}

const (
	chunkWords   = 500
	overlapWords = 50
	embedBatch   = 16
)

func main() {
	inputPath := flag.String("input", "data/articles.json", "Path to the articles JSON file")
	flag.Parse()

	cfg := config.Load()

	raw, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("Error: failed to read %s: %v", *inputPath, err)
	}

	var articles []Article
	if err := json.Unmarshal(raw, &articles); err != nil {
		log.Fatalf("Error: failed to parse articles: %v", err)
	}
	log.Printf("Loaded %d articles from %s", len(articles), *inputPath)

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Error: failed to connect to database: %v", err)
	}
	passageRepo := implementation.NewPassageRepository(db)

	var embedder embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embedder = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
	} else if cfg.Ai.EmbeddingProvider == "gemini" {
		embedder = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	} else {
		embedder = jina.NewJinaProvider(cfg.Keys.Jina, cfg.Ai.EmbeddingModel)
	}

	ctx := context.Background()

	// Chunk every article body, then embed and store batch by batch.
	var pending []*model.Passage
	var texts []string
	total := 0

	flush := func() {
		if len(pending) == 0 {
			return
		}
		vectors, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			log.Fatalf("Error: embedding batch failed: %v", err)
		}
		for i, vec := range vectors {
			pending[i].Embedding = pgvector.NewVector(vec)
		}
		if err := passageRepo.CreateBulk(ctx, pending); err != nil {
			log.Fatalf("Error: failed to store passages: %v", err)
		}
		total += len(pending)
		pending = pending[:0]
		texts = texts[:0]
	}

	for _, article := range articles {
		chunks := utils.SplitWords(article.Content, chunkWords, overlapWords)
		for i, chunk := range chunks {
			pending = append(pending, &model.Passage{
				Text:       chunk,
				Title:      article.Title,
				Url:        article.Url,
				SourceName: article.SourceName,
				ChunkIndex: i,
			})
			texts = append(texts, chunk)
			if len(pending) >= embedBatch {
				flush()
			}
		}
	}
	flush()

	count, err := passageRepo.Count(ctx)
	if err != nil {
		log.Fatalf("Error: failed to count passages: %v", err)
	}
	log.Printf("Ingestion complete: stored %d new passages, %d total in index", total, count)
}
