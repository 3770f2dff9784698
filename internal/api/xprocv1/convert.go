package xprocv1

import (
	"fmt"

	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xproc/internal/registry"
)

// PID wraps pid for a request.
func PID(pid registry.PID) *wrapperspb.Int64Value {
	return wrapperspb.Int64(int64(pid))
}

// PIDList encodes pids as a list of numbers.
func PIDList(pids []registry.PID) *structpb.ListValue {
	values := make([]*structpb.Value, 0, len(pids))
	for _, pid := range pids {
		values = append(values, structpb.NewNumberValue(float64(pid)))
	}
	return &structpb.ListValue{Values: values}
}

// PIDsFromList decodes a PIDList. Non-numeric entries are skipped.
func PIDsFromList(list *structpb.ListValue) []registry.PID {
	out := make([]registry.PID, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		if _, ok := v.GetKind().(*structpb.Value_NumberValue); ok {
			out = append(out, registry.PID(v.GetNumberValue()))
		}
	}
	return out
}

func stringList(xs []string) *structpb.Value {
	values := make([]*structpb.Value, 0, len(xs))
	for _, x := range xs {
		values = append(values, structpb.NewStringValue(x))
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

func stringsFrom(v *structpb.Value) []string {
	out := []string{}
	for _, item := range v.GetListValue().GetValues() {
		out = append(out, item.GetStringValue())
	}
	return out
}

// RecordStruct encodes rec.
func RecordStruct(rec registry.Record) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"pid":     structpb.NewNumberValue(float64(rec.PID)),
		"ppid":    structpb.NewNumberValue(float64(rec.PPID)),
		"exe":     structpb.NewStringValue(rec.Exe),
		"cwd":     structpb.NewStringValue(rec.Cwd),
		"cmdline": stringList(rec.Cmdline),
		"environ": stringList(rec.Environ),
	}}
}

// RecordFromStruct decodes a RecordStruct. Missing fields stay empty.
func RecordFromStruct(s *structpb.Struct) registry.Record {
	f := s.GetFields()
	return registry.Record{
		PID:     registry.PID(f["pid"].GetNumberValue()),
		PPID:    registry.PID(f["ppid"].GetNumberValue()),
		Exe:     f["exe"].GetStringValue(),
		Cwd:     f["cwd"].GetStringValue(),
		Cmdline: stringsFrom(f["cmdline"]),
		Environ: stringsFrom(f["environ"]),
	}
}

// RecordList encodes records as a list of structs.
func RecordList(recs []registry.Record) *structpb.ListValue {
	values := make([]*structpb.Value, 0, len(recs))
	for _, rec := range recs {
		values = append(values, structpb.NewStructValue(RecordStruct(rec)))
	}
	return &structpb.ListValue{Values: values}
}

// RecordsFromList decodes a RecordList.
func RecordsFromList(list *structpb.ListValue) []registry.Record {
	out := make([]registry.Record, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		if s := v.GetStructValue(); s != nil {
			out = append(out, RecordFromStruct(s))
		}
	}
	return out
}

// GetenvRequest builds the Getenv request for name in pid.
func GetenvRequest(pid registry.PID, name string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"pid":  structpb.NewNumberValue(float64(pid)),
		"name": structpb.NewStringValue(name),
	}}
}

// ParseGetenvRequest is the inverse of GetenvRequest.
func ParseGetenvRequest(s *structpb.Struct) (registry.PID, string, error) {
	f := s.GetFields()
	pid, ok := f["pid"]
	if !ok {
		return 0, "", status.Error(codes.InvalidArgument, "pid is required")
	}
	name := f["name"].GetStringValue()
	if name == "" {
		return 0, "", status.Error(codes.InvalidArgument, "name is required")
	}
	return registry.PID(pid.GetNumberValue()), name, nil
}

// ListRequest encodes a registry.ListFilter.
func ListRequest(f registry.ListFilter) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"pids":    structpb.NewListValue(PIDList(f.PIDs)),
		"parents": structpb.NewListValue(PIDList(f.Parents)),
		"text":    structpb.NewStringValue(f.TextSearch),
	}}
}

// ParseListRequest is the inverse of ListRequest.
func ParseListRequest(s *structpb.Struct) registry.ListFilter {
	f := s.GetFields()
	filter := registry.ListFilter{TextSearch: f["text"].GetStringValue()}
	if pids := PIDsFromList(f["pids"].GetListValue()); len(pids) > 0 {
		filter.PIDs = pids
	}
	if parents := PIDsFromList(f["parents"].GetListValue()); len(parents) > 0 {
		filter.Parents = parents
	}
	return filter
}

// StatusError maps registry failure kinds onto gRPC status codes.
func StatusError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, registry.ErrPermissionDenied):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, registry.ErrUnsupported):
		return status.Error(codes.Unimplemented, err.Error())
	case errors.Is(err, registry.ErrPartialRead):
		return status.Error(codes.DataLoss, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// KindError maps a gRPC status back onto the registry failure kinds so
// callers can use errors.Is on both sides of the socket.
func KindError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	var kind error
	switch st.Code() {
	case codes.NotFound:
		kind = registry.ErrNotFound
	case codes.PermissionDenied:
		kind = registry.ErrPermissionDenied
	case codes.Unimplemented:
		kind = registry.ErrUnsupported
	case codes.DataLoss:
		kind = registry.ErrPartialRead
	default:
		return err
	}
	return fmt.Errorf("%w: %s", kind, st.Message())
}
