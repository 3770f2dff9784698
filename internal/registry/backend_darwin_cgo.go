//go:build darwin && cgo

package registry

/*
#include <libproc.h>
#include <sys/proc_info.h>
#include <stdlib.h>
*/
import "C"

import (
	"unsafe"

	"github.com/pkg/errors"
)

// PIDs walks proc_listpids from the end, which yields newest first the way
// ps does, skipping the zero slots libproc pads with. Pid 0 leads the list
// when signalable.
func (b *darwinBackend) PIDs() ([]PID, error) {
	n := C.proc_listpids(C.PROC_ALL_PIDS, 0, nil, 0)
	if n <= 0 {
		return nil, errors.Errorf("proc_listpids size: %d", int(n))
	}
	count := int(n)/C.sizeof_int + 64
	buf := make([]C.int, count)
	n = C.proc_listpids(C.PROC_ALL_PIDS, 0, unsafe.Pointer(&buf[0]), C.int(count*C.sizeof_int))
	if n <= 0 {
		return nil, errors.Errorf("proc_listpids: %d", int(n))
	}
	got := int(n) / C.sizeof_int

	out := make([]PID, 0, got+1)
	if b.Probe(0) == nil {
		out = append(out, 0)
	}
	for i := got - 1; i >= 0; i-- {
		if buf[i] == 0 {
			continue
		}
		out = append(out, PID(buf[i]))
	}
	return out, nil
}

func (b *darwinBackend) Parent(pid PID) (PID, error) {
	var info C.struct_proc_bsdinfo
	ret := C.proc_pidinfo(C.int(pid), C.PROC_PIDTBSDINFO, 0,
		unsafe.Pointer(&info), C.int(C.sizeof_struct_proc_bsdinfo))
	if ret <= 0 {
		return 0, errors.Wrapf(ErrPermissionDenied, "proc_pidinfo PROC_PIDTBSDINFO %d", pid)
	}
	return PID(info.pbi_ppid), nil
}

func (b *darwinBackend) ExecutablePath(pid PID) (string, error) {
	buf := make([]byte, C.PROC_PIDPATHINFO_MAXSIZE)
	ret := C.proc_pidpath(C.int(pid), unsafe.Pointer(&buf[0]), C.uint32_t(len(buf)))
	if ret <= 0 {
		return "", errors.Wrapf(ErrPermissionDenied, "proc_pidpath %d", pid)
	}
	return realpath(string(buf[:ret])), nil
}

func (b *darwinBackend) WorkingDirectory(pid PID) (string, error) {
	var info C.struct_proc_vnodepathinfo
	ret := C.proc_pidinfo(C.int(pid), C.PROC_PIDVNODEPATHINFO, 0,
		unsafe.Pointer(&info), C.int(C.sizeof_struct_proc_vnodepathinfo))
	if ret <= 0 {
		return "", errors.Wrapf(ErrPermissionDenied, "proc_pidinfo PROC_PIDVNODEPATHINFO %d", pid)
	}
	return C.GoString(&info.pvi_cdir.vip_path[0]), nil
}
