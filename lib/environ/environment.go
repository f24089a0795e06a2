package environ

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var referencePattern = regexp.MustCompile(`\$\{(\w+)\}`)

func MustGetEnv(envVars ...string) error {
	var invalidParts []string
	for _, envVar := range envVars {
		if os.Getenv(envVar) == "" {
			invalidParts = append(invalidParts, envVar)
		}
	}

	if len(invalidParts) > 0 {
		return fmt.Errorf("required environment variables %q are not set", strings.Join(invalidParts, ", "))
	}

	return nil
}

// References returns the variable names referenced as `${VAR}` in [value], in order of appearance.
func References(value string) []string {
	var names []string
	for _, match := range referencePattern.FindAllStringSubmatch(value, -1) {
		names = append(names, match[1])
	}
	return names
}

// Expand replaces every `${VAR}` in [value]. Unlike [os.ExpandEnv], a variable that is not set is an error
// and `$VAR` without braces is left untouched.
func Expand(value string) (string, error) {
	var missing []string
	for _, name := range References(value) {
		if _, ok := os.LookupEnv(name); !ok {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return "", fmt.Errorf("required environment variables %q are not set", strings.Join(missing, ", "))
	}

	return referencePattern.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(referencePattern.FindStringSubmatch(match)[1])
	}), nil
}
