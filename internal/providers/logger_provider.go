package providers

import (
	"fmt"
	"io"
	"leetfresh/internal/structures"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

type TypeEnum int

const (
	TypeApp TypeEnum = iota
	TypeGet
	TypePost
	TypeSync
	TypeRemote
	TypeRender
)

func (t TypeEnum) String() string {
	switch t {
	case TypeGet:
		return "get"
	case TypePost:
		return "post"
	case TypeSync:
		return "sync"
	case TypeRemote:
		return "remote"
	case TypeRender:
		return "render"
	default:
		return "app"
	}
}

// logFiles maps every log type to the file it is written to.
var logFiles = map[TypeEnum]string{
	TypeApp:    "app.log",
	TypeGet:    "access.log",
	TypePost:   "access.log",
	TypeSync:   "sync.log",
	TypeRemote: "remote.log",
	TypeRender: "render.log",
}

type Logger interface {
	Errorf(t TypeEnum, format string, args ...interface{})
	Warnf(t TypeEnum, format string, args ...interface{})
	Debugf(t TypeEnum, format string, args ...interface{})
	Infof(t TypeEnum, format string, args ...interface{})
	Fatalf(t TypeEnum, format string, args ...interface{})
	Close()
}

// LevelSetter is implemented by loggers whose level can change at runtime.
type LevelSetter interface {
	SetLevel(level string) error
}

type LogProvider struct {
	mu      sync.RWMutex
	loggers map[TypeEnum]zerolog.Logger
	files   []*os.File
	level   zerolog.Level
}

func GetLogTypeByRequestType(method string) TypeEnum {
	if method == http.MethodPost {
		return TypePost
	}
	return TypeGet
}

func NewLogProvider(conf *structures.Config) (Logger, error) {
	level, err := zerolog.ParseLevel(conf.Logger.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", conf.Logger.Level, err)
	}

	lp := &LogProvider{
		loggers: make(map[TypeEnum]zerolog.Logger, len(logFiles)),
		level:   level,
	}

	opened := make(map[string]*os.File)
	for t, name := range logFiles {
		f, ok := opened[name]
		if !ok {
			f, err = os.OpenFile(filepath.Join(conf.Logger.Dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, os.FileMode(conf.Logger.Mode))
			if err != nil {
				lp.Close()
				return nil, err
			}
			opened[name] = f
			lp.files = append(lp.files, f)
		}

		var w io.Writer = f
		if conf.Debug {
			w = zerolog.MultiLevelWriter(f, zerolog.ConsoleWriter{Out: os.Stderr})
		}
		lp.loggers[t] = zerolog.New(w).Level(level).With().Timestamp().Str("type", t.String()).Logger()
	}

	return lp, nil
}

func (lp *LogProvider) logger(t TypeEnum) zerolog.Logger {
	lp.mu.RLock()
	defer lp.mu.RUnlock()
	if l, ok := lp.loggers[t]; ok {
		return l
	}
	return lp.loggers[TypeApp]
}

func (lp *LogProvider) SetLevel(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	lp.mu.Lock()
	defer lp.mu.Unlock()
	for t, l := range lp.loggers {
		lp.loggers[t] = l.Level(lvl)
	}
	lp.level = lvl
	return nil
}

func (lp *LogProvider) Errorf(t TypeEnum, format string, args ...interface{}) {
	l := lp.logger(t)
	l.Error().Msgf(format, args...)
}

func (lp *LogProvider) Warnf(t TypeEnum, format string, args ...interface{}) {
	l := lp.logger(t)
	l.Warn().Msgf(format, args...)
}

func (lp *LogProvider) Debugf(t TypeEnum, format string, args ...interface{}) {
	l := lp.logger(t)
	l.Debug().Msgf(format, args...)
}

func (lp *LogProvider) Infof(t TypeEnum, format string, args ...interface{}) {
	l := lp.logger(t)
	l.Info().Msgf(format, args...)
}

func (lp *LogProvider) Fatalf(t TypeEnum, format string, args ...interface{}) {
	l := lp.logger(t)
	l.Fatal().Msgf(format, args...)
}

func (lp *LogProvider) Close() {
	for _, f := range lp.files {
		_ = f.Close()
	}
	lp.files = nil
}
