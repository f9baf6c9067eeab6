// Package logging provides the prefixed, leveled loggers shared by every
// subsystem of the baker.
//
// 每个子系统通过 For("Name") 获取带前缀的 logger，输出形如：
//
//	INFO [Baker] baked 120 frames
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var mu sync.Mutex

var (
	level  = log.InfoLevel
	output = io.Writer(os.Stderr)
	issued = map[string]*log.Logger{}
)

func newLogger(prefix string) *log.Logger {
	l := log.NewWithOptions(output, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          prefix,
	})
	l.SetLevel(level)
	return l
}

// For returns the logger tagged with the given subsystem name.
// Loggers are cached so SetLevel and SetOutput reach all of them.
func For(subsystem string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	prefix := "[" + subsystem + "]"
	if l, ok := issued[prefix]; ok {
		return l
	}
	l := newLogger(prefix)
	issued[prefix] = l
	return l
}

// SetLevel changes the level of every logger handed out by For.
// Unknown names fall back to info.
func SetLevel(name string) {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		lvl = log.InfoLevel
	}
	mu.Lock()
	defer mu.Unlock()
	level = lvl
	for _, l := range issued {
		l.SetLevel(lvl)
	}
}

// SetOutput redirects all loggers, mainly for tests and tools that want quiet output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	for _, l := range issued {
		l.SetOutput(w)
	}
}
