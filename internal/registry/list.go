package registry

import (
	"sort"
	"strings"
)

// List returns a record per live process matching f, sorted by pid. Only
// the cheap attributes are filled; use Describe for directory and
// environment.
func (r *Registry) List(f ListFilter) ([]Record, error) {
	pids, err := r.LookupEnumerate()
	if err != nil {
		return nil, err
	}

	if len(f.PIDs) > 0 {
		set := toSet(f.PIDs)
		pids = filterPIDs(pids, func(pid PID) bool {
			_, ok := set[pid]
			return ok
		})
	}

	parents, err := r.parents()
	if err != nil {
		return nil, err
	}
	if len(f.Parents) > 0 {
		set := toSet(f.Parents)
		pids = filterPIDs(pids, func(pid PID) bool {
			ppid, known := parents[pid]
			_, ok := set[ppid]
			return known && ok && ppid != pid
		})
	}

	out := make([]Record, 0, len(pids))
	search := strings.TrimSpace(f.TextSearch)
	for _, pid := range pids {
		rec := Record{
			PID:     pid,
			PPID:    parents[pid],
			Exe:     r.ExecutablePathOf(pid),
			Cmdline: r.CommandLineOf(pid),
		}
		if search != "" && !strings.Contains(rec.Exe, search) && !strings.Contains(strings.Join(rec.Cmdline, " "), search) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out, nil
}

func toSet(pids []PID) map[PID]struct{} {
	m := make(map[PID]struct{}, len(pids))
	for _, pid := range pids {
		m[pid] = struct{}{}
	}
	return m
}

func filterPIDs(pids []PID, keep func(PID) bool) []PID {
	out := pids[:0:0]
	for _, pid := range pids {
		if keep(pid) {
			out = append(out, pid)
		}
	}
	return out
}
