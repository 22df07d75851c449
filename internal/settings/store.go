// Package settings persists the user preferences of the clock.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/alarm-clock/internal/logic"
)

// Store reads and writes the persisted settings.
type Store interface {
	// Read returns the stored settings. A store that has never been
	// written returns settings with Valid set to false.
	Read() (logic.Settings, error)
	// Write replaces the stored settings.
	Write(s logic.Settings) error
}

// DefaultFilePermissions is the mode of the settings file.
const DefaultFilePermissions = 0o600

type alarmDoc struct {
	Enabled bool `yaml:"enabled"`
	Hour    int  `yaml:"hour"`
	Minute  int  `yaml:"minute"`
	Weekend bool `yaml:"weekend"`
	Track   int  `yaml:"track"`
}

type document struct {
	Volume int      `yaml:"volume"`
	AlarmA alarmDoc `yaml:"alarm_a"`
	AlarmB alarmDoc `yaml:"alarm_b"`
}

// FileStore keeps the settings in a YAML file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: filepath.Clean(path)}
}

// Path returns the file location.
func (f *FileStore) Path() string {
	return f.path
}

// Read decodes the settings file. A missing file is not an error.
func (f *FileStore) Read() (logic.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	contents, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return logic.Settings{}, nil
		}
		return logic.Settings{}, fmt.Errorf("read settings file: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(contents, &doc); err != nil {
		return logic.Settings{}, fmt.Errorf("decode settings file: %w", err)
	}

	return logic.Settings{
		Valid:  true,
		Volume: doc.Volume,
		Alarms: [logic.AlarmCount]logic.Alarm{fromDoc(doc.AlarmA), fromDoc(doc.AlarmB)},
	}, nil
}

// Write encodes s to a temporary file and renames it over the old one, so a
// crash never leaves a half-written file behind.
func (f *FileStore) Write(s logic.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := yaml.Marshal(document{
		Volume: s.Volume,
		AlarmA: toDoc(s.Alarms[logic.AlarmA]),
		AlarmB: toDoc(s.Alarms[logic.AlarmB]),
	})
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}

func fromDoc(d alarmDoc) logic.Alarm {
	return logic.Alarm{Enabled: d.Enabled, Hour: d.Hour, Minute: d.Minute, Weekend: d.Weekend, Track: d.Track}
}

func toDoc(a logic.Alarm) alarmDoc {
	return alarmDoc{Enabled: a.Enabled, Hour: a.Hour, Minute: a.Minute, Weekend: a.Weekend, Track: a.Track}
}
