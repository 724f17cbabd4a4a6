package fmc

import (
	"context"
	"time"
)

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, map[string]interface{}) {}
func (NopLogger) Info(string, map[string]interface{})  {}
func (NopLogger) Warn(string, map[string]interface{})  {}
func (NopLogger) Error(string, map[string]interface{}) {}

// Config represents client configuration for building a Client.
//
// # Authentication
//
// FMC uses basic credentials exchanged for a session token
// (X-auth-access-token). The token is refreshed on 401 and revoked by Logout.
//
// # Rate limiting
//
// FMC rejects more than 120 requests per minute. The client counts requests
// in a rolling window and sleeps once the ceiling is reached. RequestsPerWindow
// and RateWindow override the defaults; tests use them to avoid real sleeps.
type Config struct {
	// URL is the base URL of the FMC server, e.g. "https://fmc.example.com".
	URL string
	// Username and Password are the API user credentials.
	Username string
	Password string
	// Domain overrides the domain path element. Empty uses the DOMAIN_UUID
	// returned by login, or "default".
	Domain string

	// InsecureSkipVerify disables TLS verification (self-signed appliances).
	InsecureSkipVerify bool
	// HTTPTimeout bounds a single HTTP attempt. Zero uses the default.
	HTTPTimeout time.Duration
	// RetryMax is the number of retries for 5xx/429 and connection errors.
	RetryMax int
	// RetryWaitMin and RetryWaitMax bound the retry backoff.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// RequestsPerWindow is the request ceiling per RateWindow. Zero uses 120.
	RequestsPerWindow int
	// RateWindow is the rolling window length. Zero uses one minute.
	RateWindow time.Duration

	// Debug enables HTTP request/response logging when a Logger is provided.
	Debug bool
	// Logger is an optional structured logger. Nil discards logs.
	Logger Logger
	// UserAgent overrides the default User-Agent header.
	UserAgent string
}

// ObjectState is the lifecycle state of an Object.
type ObjectState int

// Object states.
const (
	StateUnbound ObjectState = iota
	StateBound
	StateDeleted
)

func (s ObjectState) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateBound:
		return "bound"
	case StateDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// ObjectSpec selects how an Object is obtained. Exactly one field must be set.
type ObjectSpec struct {
	// ID fetches the object by identifier.
	ID string
	// URL fetches the object by its self URL.
	URL string
	// Name resolves the identifier through the object table, then fetches.
	Name string
	// Data creates the object (create-or-adopt on name collision).
	Data *Record
	// Record binds an already fetched record without a request.
	Record *Record
	// Source duplicates an object, typically from another server.
	Source Object
}

// Paginator is a lazy, non-restartable sequence of listing items.
type Paginator interface {
	// Next returns the next item or ErrNoMoreItems once exhausted.
	Next(ctx context.Context) (*Record, error)
	ForEach(ctx context.Context, fn func(*Record) error) error
	All(ctx context.Context) ([]*Record, error)
}

// ResourceTable is an ordered name→identifier cache of one (resource, type).
type ResourceTable interface {
	Resource() Resource
	Type() ObjectType
	Build(ctx context.Context) error
	Iterate(ctx context.Context) Paginator
	Lookup(name string) (string, bool)
	Entries() []CacheEntry
	Len() int
	Reset()
}

// ObjectTable is a ResourceTable of policy objects built in child-first order.
type ObjectTable interface {
	ResourceTable
	// Objects walks the expanded listing and yields bound objects.
	Objects(ctx context.Context, fn func(Object) error) error
	// Restore replaces the table content with entries, keeping their order.
	Restore(entries []CacheEntry)
}

// Object is one remote policy object.
type Object interface {
	Type() ObjectType
	Name() string
	ID() string
	URL() string
	State() ObjectState
	// Record returns a copy of the backing record.
	Record() *Record

	Refresh(ctx context.Context) error
	Update(ctx context.Context, data *Record) (*Record, error)
	Rename(ctx context.Context, newName string) error
	Delete(ctx context.Context) error
	AddChildren(ctx context.Context, names ...string) error
	RemoveChild(ctx context.Context, name string) error
	AddToParent(ctx context.Context, parentName string) error
	RemoveFromParent(ctx context.Context, parentName string) error
}

// ObjectsClient groups object lookups and creation on one server.
type ObjectsClient interface {
	ObjectTable(objType ObjectType) (ObjectTable, error)
	NewObject(ctx context.Context, objType ObjectType, spec ObjectSpec) (Object, error)
	GetObject(ctx context.Context, objType ObjectType, id string) (Object, error)
	GetObjectByName(ctx context.Context, objType ObjectType, name string) (Object, error)
	CreateObject(ctx context.Context, data *Record) (Object, error)
	DuplicateObject(ctx context.Context, source Object) (Object, error)
}

// DevicesClient lists managed devices.
type DevicesClient interface {
	List(ctx context.Context) ([]*Record, error)
	Get(ctx context.Context, id string) (*Record, error)
}

// AccessPoliciesClient manages access control policies.
type AccessPoliciesClient interface {
	Create(ctx context.Context, data *Record) (*Record, error)
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context) ([]*Record, error)
	// Rules pages through the access rules of one policy.
	Rules(ctx context.Context, policyID string) (Paginator, error)
}

// TaskStatusesClient reads asynchronous task state.
type TaskStatusesClient interface {
	Get(ctx context.Context, id string) (*Record, error)
}

// AuditRecordsClient reads the audit log.
type AuditRecordsClient interface {
	List(ctx context.Context) Paginator
}

// Client is the registry for one FMC server session.
type Client interface {
	ObjectsClient

	URL() string
	ServerVersion() string
	NewResourceTable(resource Resource, objType ObjectType) (ResourceTable, error)
	ListResources(ctx context.Context, resource Resource, objType ObjectType) (Paginator, error)
	ListPolicies(ctx context.Context, objType ObjectType) (Paginator, error)

	Devices() DevicesClient
	AccessPolicies() AccessPoliciesClient
	TaskStatuses() TaskStatusesClient
	AuditRecords() AuditRecordsClient

	// Migrate copies every object of types from src into this server,
	// members before groups. Existing names are adopted.
	Migrate(ctx context.Context, src ObjectsClient, types ...ObjectType) (*MigrationReport, error)
	// Purge deletes every object of objType, groups before their members.
	Purge(ctx context.Context, objType ObjectType) (*PurgeReport, error)

	SnapshotTables(ctx context.Context, store TableStore) error
	RestoreTables(ctx context.Context, store TableStore) error

	Logout(ctx context.Context) error
}

// MigrationReport summarises Migrate.
type MigrationReport struct {
	Created []string `json:"created" yaml:"created"`
	Adopted []string `json:"adopted" yaml:"adopted"`
	Failed  []string `json:"failed"  yaml:"failed"`
}

// PurgeReport summarises Purge.
type PurgeReport struct {
	Deleted []string `json:"deleted" yaml:"deleted"`
	Kept    []string `json:"kept"    yaml:"kept"`
}
