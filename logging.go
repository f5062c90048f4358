package main

import (
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

func setupLogging(level string, logs logConfig) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if logs.File == "" {
		log.SetOutput(os.Stderr)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(logs.File), 0o755); err != nil {
		return err
	}
	rotator := &lumberjack.Logger{
		Filename:   logs.File,
		MaxSize:    logs.MaxSizeMB,
		MaxAge:     logs.MaxAgeDays,
		MaxBackups: logs.MaxBackups,
		Compress:   logs.Compress,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	return nil
}
