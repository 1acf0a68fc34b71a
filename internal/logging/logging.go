package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"genshin-bingo/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	writerMu sync.RWMutex
	writer   io.Writer = os.Stdout
	file     *rotatingFile
)

// Init configures the global zerolog logger from cfg. A LOG_FILE is written
// next to stdout and rotated once it grows past LOG_MAX_MB.
func Init(cfg config.LogConfig) error {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	var out io.Writer = os.Stdout
	if cfg.File != "" {
		fw, err := openRotatingFile(cfg)
		if err != nil {
			return err
		}
		writerMu.Lock()
		if file != nil {
			_ = file.Close()
		}
		file = fw
		writerMu.Unlock()
		out = io.MultiWriter(os.Stdout, fw)
	}
	writerMu.Lock()
	writer = out
	writerMu.Unlock()

	var output io.Writer = out
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: out}
	}

	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
	return nil
}

// Writer is the sink request logs share with the application logger.
func Writer() io.Writer {
	writerMu.RLock()
	defer writerMu.RUnlock()
	return writer
}

func Close() error {
	writerMu.Lock()
	defer writerMu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	writer = os.Stdout
	return err
}
