package docsearch

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/tools"
	"github.com/tmc/langchaingo/vectorstores"
)

// RetrievalTool 把向量检索暴露为对话 Agent 可调用的工具
type RetrievalTool struct {
	orgID string
	topK  int
}

var _ tools.Tool = &RetrievalTool{}

func NewRetrievalTool(orgID string) (*RetrievalTool, error) {
	// 预先建立向量库连接，配置问题在装配阶段暴露
	if _, err := vectorStore(context.Background()); err != nil {
		return nil, err
	}

	return &RetrievalTool{
		orgID: orgID,
		topK:  searchTopK,
	}, nil
}

// orgFilter 生成按 org_id 元数据过滤的检索表达式
func orgFilter(orgID string) string {
	return fmt.Sprintf("org_id == %q", orgID)
}

func (t *RetrievalTool) Name() string {
	return "document_search"
}

func (t *RetrievalTool) Description() string {
	return "Searches the organization's uploaded documents. " +
		"Input should be a plain-language search query. " +
		"Returns the most relevant document excerpts, each prefixed with its document id."
}

func (t *RetrievalTool) Call(ctx context.Context, input string) (string, error) {
	s, err := vectorStore(ctx)
	if err != nil {
		return "", err
	}

	// 检索限定在本组织的文档分片内
	docs, err := s.SimilaritySearch(ctx, input, t.topK,
		vectorstores.WithFilters(orgFilter(t.orgID)),
	)
	if err != nil {
		return "", fmt.Errorf("document search failed: %v", err)
	}

	if len(docs) == 0 {
		return "No matching documents found.", nil
	}

	var sb strings.Builder
	for i, doc := range docs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		if id, ok := doc.Metadata["document_id"].(string); ok && id != "" {
			sb.WriteString(fmt.Sprintf("[document: %s]\n", id))
		}
		sb.WriteString(doc.PageContent)
	}

	return sb.String(), nil
}
