// pkg/db/resolver.go
package db

// ConnectionSource supplies connection strings by identifier.
// It is queried on every resolution so that reloaded configuration takes effect immediately.
type ConnectionSource interface {
	// DefaultConnection returns the identifier designated as default, or "" when none is.
	DefaultConnection() string
	// ConnectionString returns the connection string configured for id.
	ConnectionString(id string) (string, bool)
}

// StaticSource is a fixed, in-memory ConnectionSource.
type StaticSource struct {
	Default     string
	Connections map[string]string
}

func (s StaticSource) DefaultConnection() string { return s.Default }

func (s StaticSource) ConnectionString(id string) (string, bool) {
	cs, ok := s.Connections[id]
	return cs, ok
}

// Resolver maps a tenant identifier to its connection string.
type Resolver struct {
	source ConnectionSource
}

// NewResolver creates a Resolver reading from source.
func NewResolver(source ConnectionSource) *Resolver {
	return &Resolver{source: source}
}

// Resolve returns the connection string for id. An empty id resolves the default connection.
// Identifiers are case-sensitive.
func (r *Resolver) Resolve(id string) (string, error) {
	if r == nil || r.source == nil {
		return "", newError(ErrConfiguration, "resolve", id, false, errNoSource)
	}
	name := id
	if name == "" {
		name = r.source.DefaultConnection()
		if name == "" {
			return "", newError(ErrConfiguration, "resolve", "default", false, errNoDefault)
		}
	}
	cs, ok := r.source.ConnectionString(name)
	if !ok || cs == "" {
		return "", newError(ErrConfiguration, "resolve", name, false, errUnknownConnection)
	}
	return cs, nil
}
