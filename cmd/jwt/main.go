// 生成签发JWT用的随机密钥，写入配置的 jwt.secret_key
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
)

const secretLen = 32

func main() {
	key := make([]byte, secretLen)
	if _, err := rand.Read(key); err != nil {
		slog.Error("Failed to generate secret", "err", err)
		os.Exit(1)
	}

	fmt.Println(base64.URLEncoding.EncodeToString(key))
}
