// Package registry holds the static catalogue of rooms the board displays
package registry

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/navikt/roomstatus/internal/models"
)

//go:embed rooms.yaml
var defaultCatalogue []byte

// ErrEmptyCatalogue is returned when a catalogue lists no rooms
var ErrEmptyCatalogue = errors.New("room catalogue is empty")

type catalogueFile struct {
	Rooms []roomEntry `yaml:"rooms"`
}

type roomEntry struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Classname    string `yaml:"classname"`
	Neighborhood string `yaml:"neighborhood"`
	Size         string `yaml:"size"`
	Video        bool   `yaml:"video"`
}

// Registry is an immutable, ordered set of rooms
type Registry struct {
	rooms       []models.Room
	byID        map[string]int
	byClassname map[string]int
}

// Default returns the catalogue compiled into the binary
func Default() (*Registry, error) {
	return Parse(bytes.NewReader(defaultCatalogue))
}

// Load reads a catalogue from path, or the built-in one when path is empty
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open room catalogue: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a YAML catalogue. IDs and classnames must be unique.
func Parse(r io.Reader) (*Registry, error) {
	var file catalogueFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyCatalogue
		}
		return nil, fmt.Errorf("decode room catalogue: %w", err)
	}
	if len(file.Rooms) == 0 {
		return nil, ErrEmptyCatalogue
	}

	reg := &Registry{
		rooms:       make([]models.Room, 0, len(file.Rooms)),
		byID:        make(map[string]int, len(file.Rooms)),
		byClassname: make(map[string]int, len(file.Rooms)),
	}
	for i, e := range file.Rooms {
		if e.ID == "" || e.Classname == "" {
			return nil, fmt.Errorf("room %d: id and classname are required", i)
		}
		if _, dup := reg.byID[e.ID]; dup {
			return nil, fmt.Errorf("duplicate room id %q", e.ID)
		}
		if _, dup := reg.byClassname[e.Classname]; dup {
			return nil, fmt.Errorf("duplicate room classname %q", e.Classname)
		}
		name := e.Name
		if name == "" {
			name = e.Classname
		}
		reg.byID[e.ID] = len(reg.rooms)
		reg.byClassname[e.Classname] = len(reg.rooms)
		reg.rooms = append(reg.rooms, models.Room{
			ID:                   e.ID,
			Name:                 name,
			Classname:            e.Classname,
			Neighborhood:         e.Neighborhood,
			Size:                 e.Size,
			HasVideoConferencing: e.Video,
			FreeBusy:             []models.FreeBusyInterval{},
		})
	}
	return reg, nil
}

// Rooms returns a copy of the catalogue in declaration order, each with an empty interval list
func (r *Registry) Rooms() []models.Room {
	out := make([]models.Room, len(r.rooms))
	for i := range r.rooms {
		out[i] = *r.rooms[i].Clone()
	}
	return out
}

// ByID looks a room up by its calendar identity
func (r *Registry) ByID(id string) (models.Room, bool) {
	i, ok := r.byID[id]
	if !ok {
		return models.Room{}, false
	}
	return *r.rooms[i].Clone(), true
}

// ByClassname looks a room up by its short key
func (r *Registry) ByClassname(classname string) (models.Room, bool) {
	i, ok := r.byClassname[classname]
	if !ok {
		return models.Room{}, false
	}
	return *r.rooms[i].Clone(), true
}

// Len returns the number of rooms
func (r *Registry) Len() int {
	return len(r.rooms)
}
