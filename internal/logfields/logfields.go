package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRepoID     = "repo_id"
	KeyRepo       = "repository"
	KeyURL        = "url"
	KeyBranch     = "branch"
	KeyCommit     = "commit_sha"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyPattern    = "pattern"
	KeyEvent      = "event"
	KeyRecipient  = "recipient"
	KeyTemplate   = "template"
	KeyCommand    = "command"
	KeyMethod     = "method"
	KeyRemoteAddr = "remote_addr"
	KeyStatus     = "status"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RepoID(id string) slog.Attr      { return slog.String(KeyRepoID, id) }
func Repository(r string) slog.Attr   { return slog.String(KeyRepo, r) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Branch(b string) slog.Attr       { return slog.String(KeyBranch, b) }
func Commit(sha string) slog.Attr     { return slog.String(KeyCommit, sha) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Pattern(p string) slog.Attr      { return slog.String(KeyPattern, p) }
func Event(kind string) slog.Attr     { return slog.String(KeyEvent, kind) }
func Recipient(to string) slog.Attr   { return slog.String(KeyRecipient, to) }
func Template(name string) slog.Attr  { return slog.String(KeyTemplate, name) }
func Command(name string) slog.Attr   { return slog.String(KeyCommand, name) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
