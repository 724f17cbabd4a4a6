package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// FMC API paths.
const (
	// PlatformPath prefixes platform endpoints (auth, info, audit).
	PlatformPath = "/api/fmc_platform/v1"

	// ConfigPath prefixes configuration endpoints (objects, policies, devices).
	ConfigPath = "/api/fmc_config/v1"

	// AuthTokenPath issues a session token for basic credentials.
	AuthTokenPath = PlatformPath + "/auth/generatetoken"

	// AuthRefreshPath refreshes a session token.
	AuthRefreshPath = PlatformPath + "/auth/refreshtoken"

	// AuthRevokePath revokes a session token.
	AuthRevokePath = PlatformPath + "/auth/revokeaccess"

	// ServerVersionPath reports the appliance version.
	ServerVersionPath = PlatformPath + "/info/serverversion"

	// AccessRulesPath is appended to an access policy to list its rules.
	AccessRulesPath = "/accessrules"

	// DefaultDomain is used when the login response carries no domain.
	DefaultDomain = "default"
)

// FMC headers.
const (
	// HeaderAccessToken carries the session token on every request.
	HeaderAccessToken = "X-auth-access-token"

	// HeaderRefreshToken carries the refresh token.
	HeaderRefreshToken = "X-auth-refresh-token"

	// HeaderDomainUUID names the user's domain after login.
	HeaderDomainUUID = "DOMAIN_UUID"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 3

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Rate limiting.
const (
	// DefaultRequestsPerWindow is the FMC request ceiling.
	DefaultRequestsPerWindow = 120

	// DefaultRateWindow is the length of the rate-limit window.
	DefaultRateWindow = 60 * time.Second

	// RateLimitMargin is added to the remaining window before resuming.
	RateLimitMargin = 1 * time.Second
)

// Session tokens.
const (
	// TokenLifetime is how long FMC keeps an access token valid.
	TokenLifetime = 30 * time.Minute

	// TokenExpirationBuffer is the buffer time before token expiration.
	TokenExpirationBuffer = 30 * time.Second

	// MaxTokenRefreshes is the number of refreshes FMC allows per token.
	MaxTokenRefreshes = 3
)

// Listing.
const (
	// ExpandedParam asks FMC to return full records in listings.
	ExpandedParam = "expanded"
)

// Output formats.
const (
	// FormatTable prints a table.
	FormatTable = "table"

	// FormatJSON prints JSON.
	FormatJSON = "json"

	// FormatYAML prints YAML.
	FormatYAML = "yaml"

	// JSONIndentSize is the indent used for JSON output.
	JSONIndentSize = 2
)

// UI and display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// DescriptionDisplayLength truncates descriptions in tables.
	DescriptionDisplayLength = 60
)

// Snapshot store defaults.
const (
	// DefaultSnapshotBucket is the NATS KV bucket for table snapshots.
	DefaultSnapshotBucket = "fmc-tables"
)
