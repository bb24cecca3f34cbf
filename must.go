package shovel

import "fmt"

// Must panics if err is not nil. Intended for registration-time setup code
// (module loading, task registration) where an error means the project's
// configuration file is broken, not something a caller can recover from.
func Must(err error) {
	if err != nil {
		panic(fmt.Sprintf("shovel: %v", err))
	}
}
