// Package config loads the service configuration.
//
// Values come from three sources. Later sources win:
//
//	1. Defaults (struct tags, see Default)
//	2. A YAML file: $LEVELCHECK_CONFIG_FILE, config.yaml or configs/config.yaml
//	3. Environment variables, optionally seeded from a .env file
//
// Every variable is namespaced with LEVELCHECK_, for example:
//
//	LEVELCHECK_SERVER_PORT=8080
//	LEVELCHECK_UPLOAD_MAX_BYTES=10485760
//	LEVELCHECK_ROSTER_ENROLLMENT_START_COLUMN=K
//	LEVELCHECK_REPORT_LEVEL_UPS=6:2,12:3,16:4,24:5
//	LEVELCHECK_REPORT_BANDS=0:1,6:2,12:3,18:4,24:5
//	LEVELCHECK_REPORT_ROUNDING=half-month
//
// Load validates the result, including the level policy, so a bad threshold
// list fails at startup rather than on the first upload.
package config
