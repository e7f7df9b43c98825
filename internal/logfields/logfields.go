package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRequestID  = "request_id"
	KeyJobName    = "job_name"
	KeyServer     = "server"
	KeyOperation  = "operation"
	KeyAttempt    = "attempt"
	KeyStatus     = "status"
	KeyCategory   = "category"
	KeyOutcome    = "outcome"
	KeyProvider   = "provider"
	KeyDurationMS = "duration_ms"
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RequestID(id string) slog.Attr    { return slog.String(KeyRequestID, id) }
func JobName(name string) slog.Attr    { return slog.String(KeyJobName, name) }
func Server(addr string) slog.Attr     { return slog.String(KeyServer, addr) }
func Operation(op string) slog.Attr    { return slog.String(KeyOperation, op) }
func Attempt(n int) slog.Attr          { return slog.Int(KeyAttempt, n) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func Category(c string) slog.Attr      { return slog.String(KeyCategory, c) }
func Outcome(o string) slog.Attr       { return slog.String(KeyOutcome, o) }
func Provider(p string) slog.Attr      { return slog.String(KeyProvider, p) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func UserAgent(ua string) slog.Attr    { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(addr string) slog.Attr { return slog.String(KeyRemoteAddr, addr) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
