package registry

import (
	"strings"

	"xproc/internal/argv"
)

// LookupEnvironmentValue returns the value of the first entry of pid's
// environment whose name equals name, ignoring case. The second result is
// false when no entry matches.
func (r *Registry) LookupEnvironmentValue(pid PID, name string) (string, bool, error) {
	env, err := r.LookupEnvironment(pid)
	if err != nil {
		return "", false, err
	}
	value, ok := FindEnv(env, name)
	return value, ok, nil
}

// EnvironmentValueOf is LookupEnvironmentValue without the error.
func (r *Registry) EnvironmentValueOf(pid PID, name string) (string, bool) {
	value, ok, _ := r.LookupEnvironmentValue(pid, name)
	return value, ok
}

// FindEnv returns the value of the first NAME=VALUE entry whose name
// equals name case-insensitively. Entries without '=' are ignored.
func FindEnv(env []string, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	for _, entry := range env {
		key, value, ok := argv.SplitKeyValue(entry)
		if ok && strings.EqualFold(key, name) {
			return value, true
		}
	}
	return "", false
}
