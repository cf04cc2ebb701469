package logger

import (
	"time"
)

// Standard field key constants for structured logging.
const (
	FieldComponent = "component"
	FieldQueryID   = "query_id"
	FieldWorker    = "worker"
	FieldWorkers   = "workers"
	FieldPartition = "partition"
	FieldIndex     = "index"
	FieldStage     = "stage"
	FieldMode      = "mode"
	FieldOrdering  = "ordering"
	FieldState     = "state"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Info("done", logger.Fields("workers", 4, "state", "completed"))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an element whose stage failed.
func ErrorFields(index int, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldIndex: index,
		FieldError: err.Error(),
	}
}

// MergeWithDuration adds a duration field to an existing map.
func MergeWithDuration(fields map[string]interface{}, d time.Duration) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields[FieldDuration] = d.Milliseconds()
	return fields
}
