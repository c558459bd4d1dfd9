package config

// Application constants
const (
	// Application Info
	AppName    = "Level Check"
	AppVersion = "1.0.0"

	// ServiceName identifies this service in traces, metrics and logs.
	ServiceName = "levelcheck"

	// Default config file locations, relative to the working directory
	DefaultConfigFile    = "config.yaml"
	DefaultConfigDirFile = "configs/config.yaml"
)
