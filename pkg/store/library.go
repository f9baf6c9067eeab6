// Package store keeps exported archives in a per-user library backed by gdata.
//
// 每次导出保存为一个 gdata 对象（对象名由导出 ID 生成），库的索引以 YAML 形式
// 存放在单独的 "library/index" 属性中。
package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"

	"github.com/decker502/particle-baker/internal/logging"
	"github.com/decker502/particle-baker/pkg/export"
)

// ErrNotFound is returned when an export id is not in the library.
var ErrNotFound = errors.New("export not found")

// 存储路径常量
const (
	indexObject     = "library"
	indexProperty   = "index"
	archiveProperty = "archive"
)

// Entry describes one stored export.
type Entry struct {
	ID        uuid.UUID `yaml:"id"`
	Skeleton  string    `yaml:"skeleton"`
	Preset    string    `yaml:"preset,omitempty"`
	CreatedAt time.Time `yaml:"createdAt"`
	Bytes     int       `yaml:"bytes"`
	Keys      int       `yaml:"keys"`
}

// Library stores archives and their index.
// A Library without a gdata manager keeps everything in memory.
type Library struct {
	data     *gdata.Manager
	entries  []Entry
	archives map[uuid.UUID][]byte // 仅内存模式使用
}

// Open opens the library of the named application.
func Open(appName string) (*Library, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("open library %q: %w", appName, err)
	}
	return New(m)
}

// New wraps a gdata manager, which may be nil for an in-memory library,
// and loads the existing index.
func New(m *gdata.Manager) (*Library, error) {
	l := &Library{data: m, archives: make(map[uuid.UUID][]byte)}
	if m == nil || !m.ObjectPropExists(indexObject, indexProperty) {
		return l, nil
	}
	raw, err := m.LoadObjectProp(indexObject, indexProperty)
	if err != nil {
		return nil, fmt.Errorf("failed to load library index: %w", err)
	}
	if err := yaml.Unmarshal(raw, &l.entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal library index: %w", err)
	}
	return l, nil
}

// Save stores the archive of res under its id and records it in the index.
// preset is the source path of the preset, kept for display only.
func (l *Library) Save(res *export.Result, preset string) (Entry, error) {
	if res == nil || len(res.Archive) == 0 {
		return Entry{}, errors.New("nothing to save: empty archive")
	}
	entry := Entry{
		ID:        res.ID,
		Skeleton:  res.Skeleton,
		Preset:    preset,
		CreatedAt: res.CreatedAt,
		Bytes:     len(res.Archive),
		Keys:      res.Keys,
	}

	if l.data == nil {
		l.archives[res.ID] = append([]byte(nil), res.Archive...)
	} else if err := l.data.SaveObjectProp(objectKey(res.ID), archiveProperty, res.Archive); err != nil {
		return Entry{}, fmt.Errorf("failed to save archive: %w", err)
	}

	entries := append(l.withoutID(res.ID), entry)
	if err := l.writeIndex(entries); err != nil {
		return Entry{}, err
	}
	l.entries = entries

	logging.For("Library").Info("export stored", "id", entry.ID, "skeleton", entry.Skeleton, "bytes", entry.Bytes)
	return entry, nil
}

// Entries returns the stored exports, newest first.
func (l *Library) Entries() []Entry {
	out := append([]Entry(nil), l.entries...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Latest returns the newest stored export.
func (l *Library) Latest() (Entry, bool) {
	entries := l.Entries()
	if len(entries) == 0 {
		return Entry{}, false
	}
	return entries[0], true
}

// Load returns the archive bytes of a stored export.
func (l *Library) Load(id uuid.UUID) ([]byte, error) {
	if !l.has(id) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if l.data == nil {
		return append([]byte(nil), l.archives[id]...), nil
	}
	data, err := l.data.LoadObjectProp(objectKey(id), archiveProperty)
	if err != nil {
		return nil, fmt.Errorf("failed to load archive %s: %w", id, err)
	}
	return data, nil
}

// Forget removes an export from the index. The archive object stays on disk
// until it is overwritten.
func (l *Library) Forget(id uuid.UUID) error {
	if !l.has(id) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	entries := l.withoutID(id)
	if err := l.writeIndex(entries); err != nil {
		return err
	}
	l.entries = entries
	delete(l.archives, id)
	return nil
}

// objectKey 导出对象名只使用字母、数字和下划线
func objectKey(id uuid.UUID) string {
	return "export_" + strings.ReplaceAll(id.String(), "-", "")
}

func (l *Library) has(id uuid.UUID) bool {
	for _, e := range l.entries {
		if e.ID == id {
			return true
		}
	}
	return false
}

func (l *Library) withoutID(id uuid.UUID) []Entry {
	out := make([]Entry, 0, len(l.entries)+1)
	for _, e := range l.entries {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}

func (l *Library) writeIndex(entries []Entry) error {
	if l.data == nil {
		return nil
	}
	raw, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal library index: %w", err)
	}
	if err := l.data.SaveObjectProp(indexObject, indexProperty, raw); err != nil {
		return fmt.Errorf("failed to save library index: %w", err)
	}
	return nil
}
