package constants

// viper keys shared across commands
const (
	ConfigFolder = "CONFIG_FOLDER"
	StatePath    = "STATE_PATH"
)

// Synthetic fields attached to every emitted record.
const (
	UpdatedField            = "updated"
	UpdatedByEventTypeField = "updated_by_event_type"
)
