package common

// Shared constants to enforce DRY and avoid magic strings/numbers.

// HTTP headers, content types and auth
const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	ContentTypeJSON     = "application/json"
	AuthSchemeBearer    = "Bearer"
)

// Image encoding
const (
	DataURLPrefix = "data:image/png;base64,"
	// BytesPerPixel is the RGBA8 layout the clipboard hands us: 4 bytes per pixel.
	BytesPerPixel = 4
)

// Application naming
const (
	AppName        = "clipscribe"
	ConfigFileName = "config.yaml"
	HistoryDBName  = "history.db"
)

// Defaults and limits
const (
	DefaultModel       = "gpt-4-vision-preview"
	DefaultMaxTokens   = 1024
	SQLiteBusyTimeout  = 5000
	DefaultHistoryRows = 10
)

// Chat completion roles and part types
const (
	RoleUser     = "user"
	PartText     = "text"
	PartImageURL = "image_url"
	DetailHigh   = "high"
)
