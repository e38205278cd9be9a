package cobraext

import "fmt"

// FlagParsingError wraps the original error with the flag it came from.
func FlagParsingError(err error, flagName string) error {
	return fmt.Errorf("error parsing --%s flag: %w", flagName, err)
}
