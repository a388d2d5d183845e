// ABOUTME: Static API key parsing for the aggregate query service
// ABOUTME: Parses user:key pairs from the environment into a lookup map

package aggregate

import (
	"fmt"
	"strings"
)

// ParseAPIKeys parses a comma-separated list of user:key pairs into a
// key-to-user lookup map. Empty input yields an empty map, which locks
// the service (every request is rejected).
func ParseAPIKeys(raw string) (map[string]string, error) {
	keys := make(map[string]string)

	if strings.TrimSpace(raw) == "" {
		return keys, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		user, key, ok := strings.Cut(pair, ":")
		if !ok || user == "" || key == "" {
			return nil, fmt.Errorf("malformed api key pair %q (want user:key)", pair)
		}

		if existing, dup := keys[key]; dup {
			return nil, fmt.Errorf("api key for %q duplicates key of %q", user, existing)
		}
		keys[key] = user
	}

	return keys, nil
}
