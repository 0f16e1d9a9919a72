package loggers

const (
	FieldApp        = "app"
	FieldComponent  = "component"
	FieldHttpMethod = "http_method"
	FieldHttpPath   = "http_path"
	FieldHttpStatus = "http_status"

	FieldDuration   = "duration"
	FieldRequestID  = "request_id"
	FieldErrorStack = "error_stack"
	FieldErrorCode  = "error_code"

	FieldJob         = "job"
	FieldRunID       = "run_id"
	FieldWindow      = "window"
	FieldWindowStart = "window_start"
	FieldUsername    = "username"
	FieldRecordIndex = "record_index"
	FieldSource      = "source"
	FieldBatchID     = "batch_id"
)
