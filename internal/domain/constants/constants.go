// Package constants holds domain-wide constant values shared across layers.
package constants

// Pub/Sub provider identifiers from configuration.
const (
	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"
)

// Deployment environment names from configuration.
const (
	EnvDevelop = "develop"
	EnvProd    = "prod"
)
