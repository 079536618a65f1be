// Package constants contains values shared across layers.
package constants

const (
	// EnvDevelop is the local development environment name.
	EnvDevelop = "develop"
	// EnvProduction is the production environment name.
	EnvProduction = "production"
)

const (
	// PubSubProviderLocal pushes events to a local HTTP endpoint.
	PubSubProviderLocal = "local"
	// PubSubProviderGoogle publishes events to Google Cloud Pub/Sub.
	PubSubProviderGoogle = "google"
)

const (
	// CapabilityManage allows mutating attribute definitions and groups.
	CapabilityManage = "attributes.manage"
	// CapabilityExportValues allows exporting per-principal values.
	CapabilityExportValues = "attributes.export_values"
	// CapabilityWriteValues allows writing values on behalf of a principal.
	CapabilityWriteValues = "attributes.write_values"
)
