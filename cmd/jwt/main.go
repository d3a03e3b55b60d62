package main

import (
	"consultant-agent-backend/config"
	"consultant-agent-backend/middleware"
	"crypto/rand"
	"encoding/base64"
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"
)

func generateJWTSecret() (string, error) {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(key), nil
}

func main() {
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	email := flag.String("email", "", "为指定用户签发token，为空时只生成密钥")
	tenantID := flag.String("tenant", "", "用户所属租户ID")
	accessLevel := flag.Int("level", 0, "用户访问等级")
	tags := flag.String("tags", "", "用户标签，逗号分隔")
	ttl := flag.Duration("ttl", 24*time.Hour, "token有效期")
	flag.Parse()

	if *email == "" {
		secret, err := generateJWTSecret()
		if err != nil {
			slog.Error("Error generating secret", "err", err)
			return
		}
		slog.Info("Generated JWT Secret:", "secret", secret)
		return
	}

	if _, err := config.Load(*configPath); err != nil {
		slog.Error("Failed to load config", "err", err)
		os.Exit(1)
	}

	grant := middleware.Grant{
		Email:       *email,
		TenantID:    *tenantID,
		AccessLevel: *accessLevel,
	}
	if *tags != "" {
		grant.Tags = strings.Split(*tags, ",")
	}

	token, err := middleware.GenerateToken(grant, *ttl)
	if err != nil {
		slog.Error("Failed to generate token", "err", err)
		os.Exit(1)
	}

	slog.Info("Generated token", "email", *email, "token", token)
}
