package identity

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"modmigrate/pkg/models"
)

// Roster is the identity set known before the run starts (typically the
// guild's moderators). It backs both id lookups and the exact-match tag
// index used by the creator heuristic; the index is built once, not scanned
// per lookup.
type Roster struct {
	byID  map[int64]*models.Identity
	byTag map[string]*models.Identity
}

// NewRoster builds a roster and its tag index from the given identities.
func NewRoster(ids []models.Identity) *Roster {
	r := &Roster{
		byID:  make(map[int64]*models.Identity, len(ids)),
		byTag: make(map[string]*models.Identity, len(ids)),
	}
	for i := range ids {
		id := ids[i]
		r.byID[id.ID] = &id
		r.byTag[id.Tag()] = &id
	}
	return r
}

type rosterEntry struct {
	ID            int64  `yaml:"id"`
	Name          string `yaml:"name"`
	Discriminator string `yaml:"discriminator"`
	AvatarURL     string `yaml:"avatar_url"`
}

// LoadRoster reads a roster YAML file: a list of
// {id, name, discriminator, avatar_url} entries.
func LoadRoster(path string) (*Roster, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster %s: %w", path, err)
	}
	var entries []rosterEntry
	if err := yaml.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("parse roster %s: %w", path, err)
	}
	ids := make([]models.Identity, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, models.Identity{
			ID:            e.ID,
			Name:          e.Name,
			Discriminator: e.Discriminator,
			AvatarURL:     e.AvatarURL,
		})
	}
	return NewRoster(ids), nil
}

// Get returns the roster identity for id, or nil.
func (r *Roster) Get(id int64) *models.Identity {
	if r == nil {
		return nil
	}
	return r.byID[id]
}

// ByTag returns the roster identity with the exact tag, or nil.
func (r *Roster) ByTag(tag string) *models.Identity {
	if r == nil {
		return nil
	}
	return r.byTag[tag]
}

// Len reports the roster size.
func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byID)
}
