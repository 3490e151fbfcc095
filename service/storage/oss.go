// Package storage 封装对象存储：存入字节、取回可访问的URL。
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"emmie-backend/config"
	"emmie-backend/model"

	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss"
	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss/credentials"
	"github.com/google/uuid"
)

// 签名URL的有效期
const presignExpiry = 24 * time.Hour

var (
	clientOnce sync.Once
	ossClient  *oss.Client
)

func client() *oss.Client {
	clientOnce.Do(func() {
		cfg := &oss.Config{
			Region: oss.Ptr(config.Cfg.OSS.Region),
			CredentialsProvider: credentials.NewStaticCredentialsProvider(
				config.Cfg.OSS.AccessKeyID,
				config.Cfg.OSS.AccessKeySecret,
			),
		}
		ossClient = oss.NewClient(cfg)
	})
	return ossClient
}

// GetObject 拉取对象完整内容
func GetObject(ctx context.Context, objectName string) ([]byte, error) {
	result, err := client().GetObject(ctx, &oss.GetObjectRequest{
		Bucket: oss.Ptr(config.Cfg.OSS.BucketName),
		Key:    oss.Ptr(objectName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from oss: %v", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %v", err)
	}

	return data, nil
}

// StoreImage 存入图片字节，返回对象路径和限时签名URL
func StoreImage(ctx context.Context, data []byte, format string) (*model.GeneratedImage, error) {
	objectName := fmt.Sprintf("%s/images/%s.%s", config.Cfg.OSS.UploadDir, uuid.New().String(), format)

	contentType := "image/" + format
	_, err := client().PutObject(ctx, &oss.PutObjectRequest{
		Bucket:      oss.Ptr(config.Cfg.OSS.BucketName),
		Key:         oss.Ptr(objectName),
		Body:        bytes.NewReader(data),
		ContentType: oss.Ptr(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to put object to oss: %v", err)
	}

	url, err := PresignURL(ctx, objectName)
	if err != nil {
		return nil, err
	}

	return &model.GeneratedImage{
		URL:         url,
		StoragePath: objectName,
		Format:      format,
	}, nil
}

// PresignURL 为已存对象生成限时可访问的签名URL
func PresignURL(ctx context.Context, objectName string) (string, error) {
	result, err := client().Presign(ctx, &oss.GetObjectRequest{
		Bucket: oss.Ptr(config.Cfg.OSS.BucketName),
		Key:    oss.Ptr(objectName),
	}, oss.PresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign object url: %v", err)
	}

	return result.URL, nil
}
