package deps

import (
	"encoding/json"
	"fmt"
)

// Build environment variables on the serving function that record its
// dependency state.
const (
	ServerDependenciesVar = "SERVER_DEPENDENCIES"
	UnitedDependenciesVar = "DEPENDENCIES"
)

// FromMetadata reads the server and united dependency maps from the
// function's build environment. Unset variables yield empty maps.
func FromMetadata(env map[string]string) (server, united map[string]string, err error) {
	server, err = parseMetadata(env, ServerDependenciesVar)
	if err != nil {
		return nil, nil, err
	}
	united, err = parseMetadata(env, UnitedDependenciesVar)
	if err != nil {
		return nil, nil, err
	}
	return server, united, nil
}

func parseMetadata(env map[string]string, key string) (map[string]string, error) {
	out := map[string]string{}
	value := env[key]
	if value == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(value), &out); err != nil {
		return nil, fmt.Errorf("could not parse %s metadata: %w", key, err)
	}
	if out == nil {
		out = map[string]string{}
	}
	return out, nil
}
