package docsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"emmie-backend/config"
	"emmie-backend/dao"
	"emmie-backend/model"
	"emmie-backend/service/storage"

	"github.com/apache/rocketmq-client-go/v2/primitive"
	"github.com/tmc/langchaingo/documentloaders"
)

// IndexTask 文档向量化任务，上传元数据登记后经MQ投递
type IndexTask struct {
	DocumentID string `json:"document_id"`
	FileType   string `json:"file_type"`
	ObjectName string `json:"object_name"`
}

// HandleIndexMessage 消费文档向量化任务：从OSS取回原文、切分、嵌入、
// 写入向量库，并更新文档处理状态。
func HandleIndexMessage(ctx context.Context, msg *primitive.MessageExt) error {
	var task IndexTask
	if err := json.Unmarshal(msg.Body, &task); err != nil {
		return fmt.Errorf("failed to unmarshal index task: %v", err)
	}

	orgID := config.Cfg.Org.ID

	if err := indexDocument(ctx, orgID, task); err != nil {
		if statusErr := dao.UpdateDocumentStatus(orgID, task.DocumentID, model.DocumentIndexFailed); statusErr != nil {
			slog.Error("Failed to mark document as index-failed",
				"document_id", task.DocumentID,
				"err", statusErr,
			)
		}
		return err
	}

	if err := dao.UpdateDocumentStatus(orgID, task.DocumentID, model.DocumentIndexed); err != nil {
		return fmt.Errorf("failed to mark document as indexed: %v", err)
	}

	return nil
}

func indexDocument(ctx context.Context, orgID string, task IndexTask) error {
	data, err := storage.GetObject(ctx, task.ObjectName)
	if err != nil {
		return fmt.Errorf("failed to get document from oss: %v", err)
	}

	reader := bytes.NewReader(data)

	var loader documentloaders.Loader
	switch model.FileType(task.FileType) {
	case model.FileTypePDF:
		loader = documentloaders.NewPDF(reader, int64(len(data)))
	case model.FileTypeMarkdown, model.FileTypeText:
		loader = documentloaders.NewText(reader)
	default:
		return fmt.Errorf("unsupported file type for indexing: %s", task.FileType)
	}

	docs, err := loader.LoadAndSplit(ctx, newTextSplitter())
	if err != nil {
		return fmt.Errorf("failed to load and split document: %v", err)
	}

	for i := range docs {
		if docs[i].Metadata == nil {
			docs[i].Metadata = make(map[string]any)
		}
		docs[i].Metadata["document_id"] = task.DocumentID
		docs[i].Metadata["org_id"] = orgID
	}

	slog.Debug("split document successfully",
		"document_id", task.DocumentID,
		"chunks", len(docs),
	)

	s, err := vectorStore(ctx)
	if err != nil {
		return err
	}

	if _, err := s.AddDocuments(ctx, docs); err != nil {
		return fmt.Errorf("failed to add documents to vector store: %v", err)
	}

	return nil
}
