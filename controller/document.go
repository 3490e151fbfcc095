package controller

import (
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"emmie-backend/config"
	"emmie-backend/dao"
	"emmie-backend/model"
	"emmie-backend/request"
	"emmie-backend/response"
	"emmie-backend/service/docsearch"
	"emmie-backend/service/mq"
	"emmie-backend/service/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func GetPolicyToken(c *gin.Context) {
	email := c.GetString("email")
	policyToken, err := storage.GeneratePolicyToken(email)
	if err != nil {
		slog.Error(ErrGeneratePolicyToken.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGeneratePolicyToken.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{
		Data: policyToken,
	})
}

func GetDocuments(c *gin.Context) {
	documents, err := dao.GetDocumentsByOrg(config.Cfg.Org.ID)
	if err != nil {
		slog.Error(ErrGetDocuments.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetDocuments.Error(),
		})
		return
	}

	var resp response.GetDocumentsResponse
	for _, doc := range documents {
		resp.Documents = append(resp.Documents, response.DocumentResponse{
			DocumentID: doc.DocumentID,
			FileName:   doc.FileName,
			FileType:   string(doc.FileType),
			FileSize:   doc.FileSize,
			Status:     doc.Status,
		})
	}

	c.JSON(http.StatusOK, response.Response{
		Data: resp,
	})
}

// UploadDocument 在前端将文件成功直传到OSS后调用。
// 存储文档元数据，向MQ发送向量化任务。
func UploadDocument(c *gin.Context) {
	var req request.UploadDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	email := c.GetString("email")
	doc := model.Document{
		OrgID:      config.Cfg.Org.ID,
		DocumentID: uuid.New().String(),
		UploadedBy: email,
		FileName:   req.FileName,
		FileType:   model.FileType(req.FileType),
		FileSize:   req.FileSize,
		ObjectName: req.ObjectName,
		Status:     model.DocumentUploaded,
	}
	if err := dao.CreateDocument(&doc); err != nil {
		slog.Error(ErrUploadDocument.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrUploadDocument.Error(),
		})
		return
	}

	mq.SendMessage(c.Request.Context(), &mq.Message{
		Topic: mq.TopicDocs,
		Tag:   mq.TagIndex,
		Payload: docsearch.IndexTask{
			DocumentID: doc.DocumentID,
			FileType:   string(doc.FileType),
			ObjectName: doc.ObjectName,
		},
	})

	c.JSON(http.StatusCreated, response.Response{
		Data: response.DocumentResponse{
			DocumentID: doc.DocumentID,
			FileName:   doc.FileName,
			FileType:   string(doc.FileType),
			FileSize:   doc.FileSize,
			Status:     doc.Status,
		},
	})
}

// UploadImage 接收多模态对话携带的图片，转存OSS后返回可引用的URL
func UploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		slog.Error(ErrUploadImage.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrUploadImage.Error(),
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error(ErrUploadImage.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrUploadImage.Error(),
		})
		return
	}

	format := strings.TrimPrefix(filepath.Ext(fileHeader.Filename), ".")
	if format == "" {
		format = "png"
	}

	image, err := storage.StoreImage(c.Request.Context(), data, format)
	if err != nil {
		slog.Error(ErrUploadImage.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrUploadImage.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, response.Response{
		Data: image,
	})
}

func GetPresignedURL(c *gin.Context) {
	documentID := c.Query("document-id")
	doc, err := dao.GetDocumentByDocumentID(config.Cfg.Org.ID, documentID)
	if err != nil {
		slog.Error(ErrGetPresignedURL.Error(), "document_id", documentID, "err", err)
		c.AbortWithStatusJSON(http.StatusNotFound, response.Response{
			Msg: ErrGetPresignedURL.Error(),
		})
		return
	}

	url, err := storage.PresignURL(c.Request.Context(), doc.ObjectName)
	if err != nil {
		slog.Error(ErrGetPresignedURL.Error(), "document_id", documentID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetPresignedURL.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{
		Data: response.GetPresignedURLResponse{
			URL: url,
		},
	})
}
