package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sazinconstruction/adminkeeper/internal/timex"
)

// JsonConfig is the DTO read from the -c file. Pointer fields distinguish
// "absent" from a zero value, so only keys present in the file override.
type JsonConfig struct {
	HTTPAddr        *string         `json:"http_addr"`
	GRPCHealthAddr  *string         `json:"grpc_health_addr"`
	MongoURI        *string         `json:"mongodb_uri"`
	MongoDatabase   *string         `json:"mongodb_database"`
	TransportSecret *string         `json:"transport_key"`
	StorageSecret   *string         `json:"storage_key"`
	JWTSecret       *string         `json:"jwt_secret"`
	SessionTTL      *timex.Duration `json:"session_ttl"`
	SessionRotation *string         `json:"session_rotation"`
	CookieSecure    *bool           `json:"cookie_secure"`
	CookieSameSite  *string         `json:"cookie_samesite"`
	IdentityHeader  *string         `json:"identity_header"`
	BotToken        *string         `json:"static_hidden_token"`
	CORSOrigins     *string         `json:"cors_origins"`
	MaxStringLength *int            `json:"max_string_length"`
	InitialStatus   *string         `json:"initial_status"`
	DefaultImageURL *string         `json:"default_image_url"`
	S3AccessKey     *string         `json:"s3_access_key"`
	S3SecretKey     *string         `json:"s3_secret_key"`
	S3Bucket        *string         `json:"s3_bucket"`
	S3Region        *string         `json:"s3_region"`
	S3BaseEndpoint  *string         `json:"s3_base_endpoint"`
	S3PublicURL     *string         `json:"s3_public_url"`
	SMTPHost        *string         `json:"smtp_host"`
	SMTPPort        *int            `json:"smtp_port"`
	SMTPUsername    *string         `json:"smtp_username"`
	SMTPPassword    *string         `json:"smtp_password"`
	SMTPFrom        *string         `json:"smtp_from"`
	OTPTTL          *timex.Duration `json:"otp_ttl"`
	OTPMaxAttempts  *int            `json:"otp_max_attempts"`
	LogFormat       *string         `json:"log_format"`
	LogLevel        *string         `json:"log_level"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *timex.Duration) {
	if src != nil {
		*dst = src.Duration
	}
}

// parseJSON overlays the JSON file at path onto config. An empty path is a no-op.
func parseJSON(config *Config, path string) error {
	if path == "" {
		return nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var c JsonConfig
	if err := json.Unmarshal(b, &c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	set(&config.HTTPAddr, c.HTTPAddr)
	set(&config.GRPCHealthAddr, c.GRPCHealthAddr)
	set(&config.MongoURI, c.MongoURI)
	set(&config.MongoDatabase, c.MongoDatabase)
	set(&config.TransportSecret, c.TransportSecret)
	set(&config.StorageSecret, c.StorageSecret)
	set(&config.JWTSecret, c.JWTSecret)
	setDuration(&config.SessionTTL, c.SessionTTL)
	set(&config.SessionRotation, c.SessionRotation)
	set(&config.CookieSecure, c.CookieSecure)
	set(&config.CookieSameSite, c.CookieSameSite)
	set(&config.IdentityHeader, c.IdentityHeader)
	set(&config.BotToken, c.BotToken)
	set(&config.CORSOrigins, c.CORSOrigins)
	set(&config.MaxStringLength, c.MaxStringLength)
	set(&config.InitialStatus, c.InitialStatus)
	set(&config.DefaultImageURL, c.DefaultImageURL)
	set(&config.S3AccessKey, c.S3AccessKey)
	set(&config.S3SecretKey, c.S3SecretKey)
	set(&config.S3Bucket, c.S3Bucket)
	set(&config.S3Region, c.S3Region)
	set(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	set(&config.S3PublicURL, c.S3PublicURL)
	set(&config.SMTPHost, c.SMTPHost)
	set(&config.SMTPPort, c.SMTPPort)
	set(&config.SMTPUsername, c.SMTPUsername)
	set(&config.SMTPPassword, c.SMTPPassword)
	set(&config.SMTPFrom, c.SMTPFrom)
	setDuration(&config.OTPTTL, c.OTPTTL)
	set(&config.OTPMaxAttempts, c.OTPMaxAttempts)
	set(&config.LogFormat, c.LogFormat)
	set(&config.LogLevel, c.LogLevel)

	return nil
}
