// Package docsearch 基于向量库的企业文档检索，支撑 file_search 工具。
package docsearch

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"emmie-backend/config"

	"github.com/milvus-io/milvus/client/v2/milvusclient"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/textsplitter"
	"github.com/tmc/langchaingo/vectorstores"
	v2 "github.com/tmc/langchaingo/vectorstores/milvus/v2"
)

const (
	chunkSize          = 4000
	chunkOverlap       = 200
	embeddingBatchSize = 10

	searchTopK = 4
)

var (
	storeOnce sync.Once
	store     vectorstores.VectorStore
	storeErr  error
)

func vectorStore(ctx context.Context) (vectorstores.VectorStore, error) {
	storeOnce.Do(func() {
		embedder, err := newEmbedder()
		if err != nil {
			storeErr = err
			return
		}

		clientCfg := milvusclient.ClientConfig{
			Address: config.Cfg.Milvus.Endpoint,
			APIKey:  config.Cfg.Milvus.APIKey,
		}

		store, storeErr = v2.New(ctx, clientCfg,
			v2.WithEmbedder(embedder),
			v2.WithCollectionName(config.Cfg.Milvus.Collection),
		)
		if storeErr != nil {
			storeErr = fmt.Errorf("failed to create milvus vector store: %v", storeErr)
		}
	})

	return store, storeErr
}

func newEmbedder() (embeddings.Embedder, error) {
	client, err := openai.New(
		openai.WithEmbeddingModel(config.Cfg.Model.Embedding),
		openai.WithToken(config.Cfg.Model.APIKey),
		openai.WithBaseURL(config.Cfg.Model.BaseURL),
		openai.WithHTTPClient(&http.Client{
			Timeout: 60 * time.Second,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder client: %v", err)
	}

	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithBatchSize(embeddingBatchSize),
		embeddings.WithStripNewLines(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %v", err)
	}

	return embedder, nil
}

func newTextSplitter() textsplitter.TextSplitter {
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithSeparators([]string{"\n\n", "\n", ". ", " ", ""}),
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)
}
