// Package constants holds shared enumeration values used across layers.
package constants

// Runtime environments.
const (
	EnvDevelop    = "develop"
	EnvProduction = "production"
)

// Pub/Sub provider types for the dispatch event publisher.
const (
	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"
)
