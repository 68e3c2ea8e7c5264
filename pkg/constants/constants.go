package constants

const (
	ConfigName   = "config"
	ConfigFormat = "yaml"

	// EnvPrefix prefixes environment overrides, e.g. SIMORQ_AVAILABILITY_DATABASE_HOST.
	EnvPrefix = "SIMORQ_AVAILABILITY"

	ServiceName = "simorq_availability"
)

// NATS subjects. Publishers append the entity id as the last token.
const (
	SubjectScheduleUpdated = "simorq.schedule.updated"
	SubjectServiceUpdated  = "simorq.service.updated"
)

// Storage drivers.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)
