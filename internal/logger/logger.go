package logger

import (
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var currentLevel atomic.Int32

func init() {
	currentLevel.Store(int32(LevelInfo))
}

func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

func SetFlags(flags int) {
	log.SetFlags(flags)
}

func InitFromEnv() {
	SetLevelFromString(os.Getenv("LOG_LEVEL"))
}

func SetLevel(level Level) {
	currentLevel.Store(int32(level))
}

// ParseLevel maps a LOG_LEVEL value to a Level. Unknown values report false and LevelInfo.
func ParseLevel(level string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	default:
		return LevelInfo, false
	}
}

func SetLevelFromString(level string) {
	l, _ := ParseLevel(level)
	SetLevel(l)
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

func EnabledDebug() bool {
	return enabled(LevelDebug)
}

func Debugf(format string, args ...any) {
	if enabled(LevelDebug) {
		log.Printf("[DEBUG] "+format, args...)
	}
}

func Infof(format string, args ...any) {
	if enabled(LevelInfo) {
		log.Printf("[INFO] "+format, args...)
	}
}

func Warnf(format string, args ...any) {
	if enabled(LevelWarn) {
		log.Printf("[WARN] "+format, args...)
	}
}

func Errorf(format string, args ...any) {
	if enabled(LevelError) {
		log.Printf("[ERROR] "+format, args...)
	}
}

func Fatalf(format string, args ...any) {
	log.Fatalf("[FATAL] "+format, args...)
}

func enabled(level Level) bool {
	return level >= Level(currentLevel.Load())
}

// Scope logs on behalf of one component. Every message is prefixed with its tag.
type Scope struct {
	tag string
}

// For returns the scope of a component: For("Image") logs "[Image] ..."
func For(component string) Scope {
	return Scope{tag: component}
}

// With narrows the scope to one instance: For("CachedStorage").With("src") logs "[CachedStorage:src] ..."
func (s Scope) With(name string) Scope {
	return Scope{tag: s.tag + ":" + name}
}

func (s Scope) prefix(format string) string {
	return "[" + s.tag + "] " + format
}

func (s Scope) Debugf(format string, args ...any) {
	Debugf(s.prefix(format), args...)
}

func (s Scope) Infof(format string, args ...any) {
	Infof(s.prefix(format), args...)
}

func (s Scope) Warnf(format string, args ...any) {
	Warnf(s.prefix(format), args...)
}

func (s Scope) Errorf(format string, args ...any) {
	Errorf(s.prefix(format), args...)
}
