//go:build windows

package peb

import (
	"sync"

	"golang.org/x/sys/windows"
)

var debugPrivilege sync.Once

// EnableDebugPrivilege tries once per process to enable SeDebugPrivilege on
// the current token so other users' processes can be opened. Failure is
// silent; later OpenProcess calls simply fail with access denied.
func EnableDebugPrivilege() {
	debugPrivilege.Do(func() {
		_ = grantDebugPrivilege()
	})
}

func grantDebugPrivilege() error {
	var token windows.Token
	err := windows.OpenProcessToken(windows.CurrentProcess(), windows.TOKEN_ADJUST_PRIVILEGES|windows.TOKEN_QUERY, &token)
	if err != nil {
		return err
	}
	defer token.Close()

	var luid windows.LUID
	if err := windows.LookupPrivilegeValue(nil, windows.StringToUTF16Ptr("SeDebugPrivilege"), &luid); err != nil {
		return err
	}
	privileges := windows.Tokenprivileges{PrivilegeCount: 1}
	privileges.Privileges[0].Luid = luid
	privileges.Privileges[0].Attributes = windows.SE_PRIVILEGE_ENABLED
	return windows.AdjustTokenPrivileges(token, false, &privileges, 0, nil, nil)
}
