// Package env keeps names of environment variables with special significance
// to Kelp.
package env

// Environment variables with special significance to Kelp.
//
// Note that some of these env vars may be significant only in special
// circumstances, such as when running unit tests.
const (
	HOME                 = "HOME"
	KELP_DB              = "KELP_DB"
	KELP_RC              = "KELP_RC"
	KELP_TEST_TIME_SCALE = "KELP_TEST_TIME_SCALE"
	PATH                 = "PATH"
	PATHEXT              = "PATHEXT"
	PWD                  = "PWD"
	SHLVL                = "SHLVL"
	USERNAME             = "USERNAME"
	XDG_CONFIG_HOME      = "XDG_CONFIG_HOME"
	XDG_DATA_HOME        = "XDG_DATA_HOME"
	XDG_RUNTIME_DIR      = "XDG_RUNTIME_DIR"
	XDG_STATE_HOME       = "XDG_STATE_HOME"
)
