package logging

import (
	"fmt"
	"os"
	"sync"

	"genshin-bingo/internal/config"
)

const defaultMaxMB = 10

// rotatingFile appends to cfg.File and, once the next write would push it
// past LOG_MAX_MB, shifts it to File.1 (File.1 to File.2, and so on up to
// LOG_KEEP backups) before starting an empty file. LOG_KEEP=0 truncates in
// place.
type rotatingFile struct {
	mu       sync.Mutex
	path     string
	maxBytes int64
	keep     int
	f        *os.File
	size     int64
}

func openRotatingFile(cfg config.LogConfig) (*rotatingFile, error) {
	maxMB := cfg.MaxMB
	if maxMB <= 0 {
		maxMB = defaultMaxMB
	}
	keep := cfg.Keep
	if keep < 0 {
		keep = 0
	}
	r := &rotatingFile{path: cfg.File, maxBytes: int64(maxMB) << 20, keep: keep}
	if err := r.open(os.O_APPEND); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *rotatingFile) open(mode int) error {
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|mode, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}
	r.f = f
	r.size = info.Size()
	return nil
}

func (r *rotatingFile) backup(n int) string {
	return fmt.Sprintf("%s.%d", r.path, n)
}

func (r *rotatingFile) rotate() error {
	if r.f != nil {
		_ = r.f.Close()
		r.f = nil
	}
	if r.keep == 0 {
		return r.open(os.O_TRUNC)
	}
	_ = os.Remove(r.backup(r.keep))
	for n := r.keep - 1; n >= 1; n-- {
		if err := os.Rename(r.backup(n), r.backup(n+1)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	if err := os.Rename(r.path, r.backup(1)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return r.open(os.O_TRUNC)
}

func (r *rotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		if err := r.open(os.O_APPEND); err != nil {
			return 0, err
		}
	}
	// a single oversized line still lands whole in a fresh file
	if r.size > 0 && r.size+int64(len(p)) > r.maxBytes {
		if err := r.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := r.f.Write(p)
	r.size += int64(n)
	return n, err
}

func (r *rotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}
