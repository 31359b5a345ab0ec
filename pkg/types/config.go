package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`

	// External base URL, used when building share links for QR codes.
	BaseURL string `envconfig:"BASE_URL" default:"http://localhost:8080"`

	// Session configuration
	CookieName       string `envconfig:"SESSION_COOKIE_NAME" default:"docshare_session"`
	SessionMaxAgeSec int    `envconfig:"SESSION_MAX_AGE_SEC" default:"604800"` // 7 days

	// How long a successful PIN check keeps a session elevated.
	ElevationTTLSec uint `envconfig:"ELEVATION_TTL_SEC" default:"900"`

	// Cookie encryption keys (base64 encoded)
	// Use the keygen command to generate values.
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes

	// Document payload storage
	StorageBucket  string `envconfig:"STORAGE_BUCKET" default:"docshare-documents"`
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"` // 10 MiB
}
