package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"emmie-backend/config"

	"github.com/aliyun/credentials-go/credentials"
)

const (
	signatureVersion = "OSS4-HMAC-SHA256"

	// 直传凭证有效期
	policyExpiry = 10 * time.Minute
)

// PolicyToken 前端直传文件至OSS的凭证
type PolicyToken struct {
	Policy           string `json:"policy"`
	SecurityToken    string `json:"security_token"`
	SignatureVersion string `json:"x_oss_signature_version"`
	Credential       string `json:"x_oss_credential"`
	Date             string `json:"x_oss_date"`
	Signature        string `json:"signature"`
	Host             string `json:"host"`
	Dir              string `json:"dir"`
}

// GeneratePolicyToken 生成 V4 post-policy 直传凭证，上传目录按用户隔离
func GeneratePolicyToken(email string) (*PolicyToken, error) {
	ossCfg := config.Cfg.OSS

	cred, err := credentials.NewCredential(&credentials.Config{
		Type:            strPtr("access_key"),
		AccessKeyId:     strPtr(ossCfg.AccessKeyID),
		AccessKeySecret: strPtr(ossCfg.AccessKeySecret),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create credential: %v", err)
	}

	credModel, err := cred.GetCredential()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %v", err)
	}

	now := time.Now().UTC()
	date := now.Format("20060102T150405Z")
	dateShort := now.Format("20060102")
	expiration := now.Add(policyExpiry).Format("2006-01-02T15:04:05.000Z")

	uploadDir := fmt.Sprintf("%s/%s/", ossCfg.UploadDir, email)
	credential := fmt.Sprintf("%s/%s/%s/oss/aliyun_v4_request",
		*credModel.AccessKeyId, dateShort, ossCfg.Region)

	policyDoc := map[string]any{
		"expiration": expiration,
		"conditions": []any{
			map[string]string{"bucket": ossCfg.BucketName},
			[]any{"starts-with", "$key", uploadDir},
			map[string]string{"x-oss-signature-version": signatureVersion},
			map[string]string{"x-oss-credential": credential},
			map[string]string{"x-oss-date": date},
		},
	}

	policyJSON, err := json.Marshal(policyDoc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal policy: %v", err)
	}
	policy := base64.StdEncoding.EncodeToString(policyJSON)

	signature := signV4(*credModel.AccessKeySecret, dateShort, ossCfg.Region, policy)

	token := &PolicyToken{
		Policy:           policy,
		SignatureVersion: signatureVersion,
		Credential:       credential,
		Date:             date,
		Signature:        signature,
		Host:             fmt.Sprintf("https://%s.oss-%s.aliyuncs.com", ossCfg.BucketName, ossCfg.Region),
		Dir:              uploadDir,
	}
	if credModel.SecurityToken != nil {
		token.SecurityToken = *credModel.SecurityToken
	}

	return token, nil
}

// signV4 OSS V4 签名：逐级派生签名密钥后对 policy 做 HMAC
func signV4(secret, dateShort, region, policy string) string {
	signingKey := hmacSHA256([]byte("aliyun_v4"+secret), dateShort)
	signingKey = hmacSHA256(signingKey, region)
	signingKey = hmacSHA256(signingKey, "oss")
	signingKey = hmacSHA256(signingKey, "aliyun_v4_request")

	return hex.EncodeToString(hmacSHA256(signingKey, policy))
}

func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}

func strPtr(s string) *string {
	return &s
}
