// Package config handles configuration for the admin server: defaults, a
// dotenv file, process environment, a JSON overlay and command-line flags,
// applied in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sazinconstruction/adminkeeper/internal/common"
	"github.com/sazinconstruction/adminkeeper/internal/cryptox"
	"github.com/sazinconstruction/adminkeeper/internal/flagx"
	"github.com/sazinconstruction/adminkeeper/internal/sanitize"
)

// MinMaxStringLength is the smallest string bound that still passes the
// transport ciphertext of a full length text field in any script.
var MinMaxStringLength = cryptox.CiphertextLen(common.MaxTextLength * utf8.UTFMax)

// Rotation policies for expired session tokens.
const (
	RotationRotate = "rotate"
	RotationReject = "reject"
)

// MemoryStoreURI as the Mongo URI selects the in-memory store.
const MemoryStoreURI = "memory"

// Config holds runtime settings. Secret strings are only read through
// Secrets, which turns them into typed keys once at start-up.
type Config struct {
	HTTPAddr       string
	GRPCHealthAddr string

	MongoURI      string
	MongoDatabase string

	TransportSecret string
	StorageSecret   string
	JWTSecret       string

	SessionTTL      time.Duration
	SessionRotation string
	CookieSecure    bool
	CookieSameSite  string
	IdentityHeader  string
	BotToken        string
	CORSOrigins     string

	MaxStringLength int
	InitialStatus   string
	DefaultImageURL string

	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3PublicURL    string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	OTPTTL         time.Duration
	OTPMaxAttempts int

	LogFormat string
	LogLevel  string
}

// LoadDefaults populates Config with development defaults. The secrets are
// left empty on purpose: the server refuses to start without them.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":5000"
	c.GRPCHealthAddr = ":50051"
	c.MongoURI = "mongodb://127.0.0.1:27017"
	c.MongoDatabase = "sazin"
	c.SessionTTL = 7 * 24 * time.Hour
	c.SessionRotation = RotationRotate
	c.CookieSecure = false
	c.CookieSameSite = "Lax"
	c.IdentityHeader = common.IdentityHeaderName
	c.MaxStringLength = sanitize.DefaultMaxStringLength
	c.InitialStatus = "pending"
	c.DefaultImageURL = "https://yourdomain.com/default-profile.png"
	c.S3Region = "us-east-1"
	c.S3Bucket = "admin-images"
	c.SMTPPort = 465
	c.OTPTTL = 10 * time.Minute
	c.OTPMaxAttempts = 5
	c.LogFormat = "json"
	c.LogLevel = "info"
}

// Validate checks values that have a closed set of options.
func (c *Config) Validate() error {
	var errs []error

	switch c.SessionRotation {
	case RotationRotate, RotationReject:
	default:
		errs = append(errs, fmt.Errorf("session rotation must be %q or %q, got %q", RotationRotate, RotationReject, c.SessionRotation))
	}
	switch strings.ToLower(c.CookieSameSite) {
	case "strict", "lax":
	case "none":
		if !c.CookieSecure {
			errs = append(errs, errors.New("SameSite=None requires secure cookies"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid cookie SameSite %q", c.CookieSameSite))
	}
	switch c.InitialStatus {
	case "pending", "active":
	default:
		errs = append(errs, fmt.Errorf("initial status must be pending or active, got %q", c.InitialStatus))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("session ttl must be positive"))
	}
	if c.OTPTTL <= 0 {
		errs = append(errs, errors.New("otp ttl must be positive"))
	}
	if c.OTPMaxAttempts <= 0 {
		errs = append(errs, errors.New("otp max attempts must be positive"))
	}
	if c.MaxStringLength < MinMaxStringLength {
		errs = append(errs, fmt.Errorf("max string length must be at least %d to hold encrypted fields, got %d", MinMaxStringLength, c.MaxStringLength))
	}
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if strings.TrimSpace(o) == "*" {
			errs = append(errs, errors.New("cors origins cannot be a wildcard, cookies are sent with credentials"))
		}
	}
	if strings.TrimSpace(c.IdentityHeader) == "" {
		errs = append(errs, errors.New("identity header must be set"))
	}

	return errors.Join(errs...)
}

// LoadConfig builds a Config from defaults, then the dotenv file (-e, or
// ./.env when present), the process environment, the JSON file (-c) and
// finally the short flags in args.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	src := flagx.ConfigSources(args)

	lookup, err := envLookup(src.EnvFile, os.LookupEnv)
	if err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := parseJSON(cfg, src.JSON); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
