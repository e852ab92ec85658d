package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sazinconstruction/adminkeeper/internal/timex"
)

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// envLookup layers the process environment over the dotenv file. An explicit
// file must exist; the implicit ./.env is optional.
func envLookup(file string, process LookupFunc) (LookupFunc, error) {
	path := file
	if path == "" {
		path = ".env"
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if file != "" || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read env file %s: %w", path, err)
		}
		values = map[string]string{}
	}

	return func(key string) (string, bool) {
		if v, ok := process(key); ok {
			return v, true
		}
		v, ok := values[key]
		return v, ok
	}, nil
}

// parseEnv overlays the environment variables onto config.
func parseEnv(config *Config, lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	var errs []error
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := timex.Parse(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("HTTP_ADDR", &config.HTTPAddr)
	str("GRPC_HEALTH_ADDR", &config.GRPCHealthAddr)
	str("MONGODB_URI", &config.MongoURI)
	str("MONGODB_DATABASE", &config.MongoDatabase)
	str("TRANSPORT_KEY", &config.TransportSecret)
	str("STORAGE_KEY", &config.StorageSecret)
	str("JWT_SECRET", &config.JWTSecret)
	duration("SESSION_TTL", &config.SessionTTL)
	str("SESSION_ROTATION", &config.SessionRotation)
	boolean("COOKIE_SECURE", &config.CookieSecure)
	str("COOKIE_SAMESITE", &config.CookieSameSite)
	str("IDENTITY_HEADER", &config.IdentityHeader)
	str("STATIC_HIDDEN_TOKEN", &config.BotToken)
	str("CORS_ORIGINS", &config.CORSOrigins)
	num("MAX_STRING_LENGTH", &config.MaxStringLength)
	str("INITIAL_STATUS", &config.InitialStatus)
	str("DEFAULT_IMAGE_URL", &config.DefaultImageURL)
	str("S3_ACCESS_KEY", &config.S3AccessKey)
	str("S3_SECRET_KEY", &config.S3SecretKey)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	str("S3_PUBLIC_URL", &config.S3PublicURL)
	str("SMTP_HOST", &config.SMTPHost)
	num("SMTP_PORT", &config.SMTPPort)
	str("SMTP_USERNAME", &config.SMTPUsername)
	str("SMTP_PASSWORD", &config.SMTPPassword)
	str("SMTP_FROM", &config.SMTPFrom)
	duration("OTP_TTL", &config.OTPTTL)
	num("OTP_MAX_ATTEMPTS", &config.OTPMaxAttempts)
	str("LOG_FORMAT", &config.LogFormat)
	str("LOG_LEVEL", &config.LogLevel)

	return errors.Join(errs...)
}
