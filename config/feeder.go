package config

// Feeder loads a RunConfig from some external representation. One Feeder
// exists per source format: a small, independently testable adapter
// rather than one monolithic loader with format-sniffing logic inside it.
type Feeder interface {
	Feed() (RunConfig, error)
}
