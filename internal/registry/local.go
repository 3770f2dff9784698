package registry

import "os"

// DirectoryGetCurrentWorking returns the current directory of the caller.
func DirectoryGetCurrentWorking() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	return dir
}

// DirectorySetCurrentWorking changes the current directory of the caller
// and reports success.
func DirectorySetCurrentWorking(dir string) bool {
	return os.Chdir(dir) == nil
}

// EnvironmentGetVariable returns the caller's value of name, or "".
func EnvironmentGetVariable(name string) string {
	return os.Getenv(name)
}

// EnvironmentSetVariable sets name in the caller's environment. An empty
// value removes the variable.
func EnvironmentSetVariable(name, value string) bool {
	if value == "" {
		return os.Unsetenv(name) == nil
	}
	return os.Setenv(name, value) == nil
}
