package printing

import "errors"

var (
	ErrRenderEngineUnavailable = errors.New("printing: render engine unavailable")
	ErrRenderEngineFailed      = errors.New("printing: render engine failed")
	ErrLocalQueue              = errors.New("printing: local queue error")
	ErrSocketTimeout           = errors.New("printing: socket timeout")
	ErrSocketRefused           = errors.New("printing: connection refused")
	ErrConnection              = errors.New("printing: connection error")
	ErrInvalidRequest          = errors.New("printing: invalid request")
	ErrCancelled               = errors.New("printing: job cancelled")
)

// Kind maps err to the stable identifier reported in Result.ErrorKind.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrRenderEngineUnavailable):
		return "render_engine_unavailable"
	case errors.Is(err, ErrRenderEngineFailed):
		return "render_engine_error"
	case errors.Is(err, ErrLocalQueue):
		return "local_queue_error"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.Is(err, ErrSocketTimeout):
		return "socket_timeout"
	case errors.Is(err, ErrSocketRefused):
		return "socket_refused"
	case errors.Is(err, ErrConnection):
		return "connection_error"
	default:
		return "internal"
	}
}
