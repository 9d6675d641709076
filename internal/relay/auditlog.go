package relay

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// auditLogger logs relayed requests to a file with size-based rotation.
type auditLogger struct {
	path    string
	maxSize int64 // max file size in bytes before rotation (0 = no limit)
	file    *os.File
	size    int64
	mu      sync.Mutex
	logger  *slog.Logger
}

const (
	defaultAuditMaxSize = 50 * 1024 * 1024 // 50 MiB
	auditKeepFiles      = 3                 // keep current + 3 rotated files
)

type auditEntry struct {
	Timestamp      time.Time     `json:"timestamp"`
	Duration       time.Duration `json:"duration_ns"`
	RequestID      string        `json:"request_id"`
	Method         string        `json:"method"`
	Path           string        `json:"path"`
	Upstream       string        `json:"upstream,omitempty"`
	StatusCode     int           `json:"status_code"`
	UpstreamStatus int           `json:"upstream_status,omitempty"`
	RequestSize    int64         `json:"request_size"`
	RemoteAddr     string        `json:"remote_addr"`
	Error          string        `json:"error,omitempty"`
}

func newAuditLogger(path string, logger *slog.Logger) (*auditLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}
	info, _ := f.Stat()
	var size int64
	if info != nil {
		size = info.Size()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &auditLogger{
		path:    path,
		maxSize: defaultAuditMaxSize,
		file:    f,
		size:    size,
		logger:  logger,
	}, nil
}

func (al *auditLogger) log(entry auditEntry) {
	al.mu.Lock()
	defer al.mu.Unlock()

	line, err := json.Marshal(entry)
	if err != nil {
		al.logger.Warn("audit log encode failed", "error", err)
		return
	}
	line = append(line, '\n')

	n, err := al.file.Write(line)
	al.size += int64(n)
	if err != nil {
		al.logger.Warn("audit log write failed", "error", err)
		return
	}

	if al.maxSize > 0 && al.size >= al.maxSize {
		al.rotate()
	}
}

// rotate shifts path.2 to path.3, path.1 to path.2 and the current file to
// path.1, dropping the oldest.
func (al *auditLogger) rotate() {
	al.file.Close()

	for i := auditKeepFiles; i > 0; i-- {
		old := fmt.Sprintf("%s.%d", al.path, i)
		if i == auditKeepFiles {
			os.Remove(old)
		}
		if i > 1 {
			prev := fmt.Sprintf("%s.%d", al.path, i-1)
			os.Rename(prev, old)
		} else {
			os.Rename(al.path, old)
		}
	}

	f, err := os.OpenFile(al.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		al.logger.Warn("audit log rotation failed", "error", err)
		return
	}
	al.file = f
	al.size = 0
}

func (al *auditLogger) close() error {
	al.mu.Lock()
	defer al.mu.Unlock()
	return al.file.Close()
}
