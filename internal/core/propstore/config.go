package propstore

// Config holds the sizing hints a host can use when standing up a
// table, grounded on the teacher's WorldConfig/DefaultWorldConfig
// pattern. propstore itself never reads Config — EntityTable grows its
// columns and indexes on demand regardless — but exposing it keeps the
// demo binary (and any real host) able to size its allocations up
// front instead of guessing.
type Config struct {
	// InitialEntityCapacity is a hint for how many entities a caller
	// expects to create; propstore's columns grow as needed but a host
	// may use this to size its own bookkeeping.
	InitialEntityCapacity int `yaml:"initial_entity_capacity"`

	// EnableDebugMode toggles whatever verbose diagnostics a host built
	// on top of propstore wants to print; propstore itself is silent.
	EnableDebugMode bool `yaml:"enable_debug_mode"`
}

// DefaultConfig returns reasonable defaults for a small simulation.
func DefaultConfig() Config {
	return Config{
		InitialEntityCapacity: 1000,
		EnableDebugMode:       false,
	}
}
