//go:build windows

package peb

import (
	"runtime"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

var (
	modntdll = windows.NewLazySystemDLL("ntdll.dll")

	procNtWow64QueryInformationProcess64 = modntdll.NewProc("NtWow64QueryInformationProcess64")
	procNtWow64ReadVirtualMemory64       = modntdll.NewProc("NtWow64ReadVirtualMemory64")
)

// processBasicInformation64 is PROCESS_BASIC_INFORMATION as a 64-bit
// process sees it, needed when a WOW64 reader inspects a native target.
type processBasicInformation64 struct {
	ExitStatus                   uint32
	_                            uint32
	PebBaseAddress               uint64
	AffinityMask                 uint64
	BasePriority                 int32
	_                            uint32
	UniqueProcessID              uint64
	InheritedFromUniqueProcessID uint64
}

// Process is an open handle on a target together with the walker matching
// its bitness.
type Process struct {
	handle windows.Handle
	*Walker
}

// Open opens pid for memory reads and locates its PEB.
func Open(pid uint32) (*Process, error) {
	EnableDebugPrivilege()
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_INFORMATION|windows.PROCESS_VM_READ, false, pid)
	if err != nil {
		return nil, errors.Wrapf(err, "open process %d", pid)
	}
	w, err := walkerFor(h)
	if err != nil {
		windows.CloseHandle(h)
		return nil, errors.Wrapf(err, "locate peb of %d", pid)
	}
	return &Process{handle: h, Walker: w}, nil
}

// Close releases the process handle.
func (p *Process) Close() error {
	return windows.CloseHandle(p.handle)
}

// walkerFor picks structure layout and read primitive from the bitness of
// the reader and of the target.
func walkerFor(h windows.Handle) (*Walker, error) {
	readerIs32 := runtime.GOARCH == "386" || runtime.GOARCH == "arm"
	readerIsWow64, err := isWow64(windows.CurrentProcess())
	if err != nil {
		return nil, err
	}
	targetIsWow64, err := isWow64(h)
	if err != nil {
		return nil, err
	}

	switch {
	case !readerIs32 && targetIsWow64:
		var peb32 uintptr
		err := windows.NtQueryInformationProcess(h, windows.ProcessWow64Information,
			unsafe.Pointer(&peb32), uint32(unsafe.Sizeof(peb32)), nil)
		if err != nil {
			return nil, err
		}
		return NewWalker(nativeMemory{h}, Layout32, uint64(peb32)), nil

	case !readerIs32:
		peb, err := nativePEB(h)
		if err != nil {
			return nil, err
		}
		return NewWalker(nativeMemory{h}, Layout64, peb), nil

	case readerIsWow64 && !targetIsWow64:
		var pbi processBasicInformation64
		r, _, _ := procNtWow64QueryInformationProcess64.Call(
			uintptr(h),
			uintptr(windows.ProcessBasicInformation),
			uintptr(unsafe.Pointer(&pbi)),
			unsafe.Sizeof(pbi),
			0,
		)
		if status := windows.NTStatus(r); status != windows.STATUS_SUCCESS {
			return nil, status
		}
		return NewWalker(wow64Memory{h}, Layout64, pbi.PebBaseAddress), nil

	default:
		peb, err := nativePEB(h)
		if err != nil {
			return nil, err
		}
		return NewWalker(nativeMemory{h}, Layout32, peb), nil
	}
}

func nativePEB(h windows.Handle) (uint64, error) {
	var pbi windows.PROCESS_BASIC_INFORMATION
	err := windows.NtQueryInformationProcess(h, windows.ProcessBasicInformation,
		unsafe.Pointer(&pbi), uint32(unsafe.Sizeof(pbi)), nil)
	if err != nil {
		return 0, err
	}
	return uint64(uintptr(unsafe.Pointer(pbi.PebBaseAddress))), nil
}

func isWow64(h windows.Handle) (bool, error) {
	var wow64 bool
	if err := windows.IsWow64Process(h, &wow64); err != nil {
		return false, err
	}
	return wow64, nil
}

type nativeMemory struct {
	h windows.Handle
}

func (m nativeMemory) Read(addr uint64, n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	var read uintptr
	err := windows.ReadProcessMemory(m.h, uintptr(addr), &buf[0], uintptr(n), &read)
	if err != nil && read == 0 {
		return nil, err
	}
	return buf[:read], nil
}

// wow64Memory reads a 64-bit address space from a 32-bit reader. The
// 64-bit address and size are passed as two stack words each.
type wow64Memory struct {
	h windows.Handle
}

func (m wow64Memory) Read(addr uint64, n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	var read uint64
	size := uint64(n)
	r, _, _ := procNtWow64ReadVirtualMemory64.Call(
		uintptr(m.h),
		uintptr(addr),
		uintptr(addr>>32),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(size),
		uintptr(size>>32),
		uintptr(unsafe.Pointer(&read)),
	)
	if status := windows.NTStatus(r); status != windows.STATUS_SUCCESS && read == 0 {
		return nil, status
	}
	return buf[:read], nil
}
