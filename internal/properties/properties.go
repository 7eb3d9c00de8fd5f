// Package properties exposes process-level settings sourced from the
// environment, loaded from a .env file at startup when present.
package properties

import "os"

// RootPath is the default dataset location offered by the interactive menu.
func RootPath() string {
	return os.Getenv("ROOT_PATH")
}

// OutputPath is where exports and rendered plots land. Defaults to
// "output" under the current directory.
func OutputPath() string {
	if p := os.Getenv("OUTPUT_PATH"); p != "" {
		return p
	}
	return "output"
}

// DefaultDriver picks the driver offered first by the menu.
func DefaultDriver() string {
	if d := os.Getenv("DEFAULT_DRIVER"); d != "" {
		return d
	}
	return "stacked"
}

// LogLevel controls verbosity: "debug", "info", "warn" or "error".
func LogLevel() string {
	if l := os.Getenv("LOG_LEVEL"); l != "" {
		return l
	}
	return "info"
}
