package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"modmigrate/pkg/models"
)

const defaultFetchTimeout = 10 * time.Second

// RESTDirectory is a Directory backed by a user-lookup HTTP API plus a
// local roster. Remote lookups hit GET <base>/users/<id>; the roster serves
// Get and the tag index.
type RESTDirectory struct {
	base   string
	roster *Roster
	httpc  *http.Client
}

// NewRESTDirectory returns a directory bound to the given base URL. roster
// may be nil; timeout <= 0 uses the default.
func NewRESTDirectory(base string, roster *Roster, timeout time.Duration) *RESTDirectory {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &RESTDirectory{
		base:   strings.TrimRight(base, "/"),
		roster: roster,
		httpc:  &http.Client{Timeout: timeout},
	}
}

func (d *RESTDirectory) Get(id int64) *models.Identity { return d.roster.Get(id) }

func (d *RESTDirectory) ByTag(tag string) *models.Identity { return d.roster.ByTag(tag) }

// Fetch looks a user up remotely. 404 is a permanent miss (ErrNotFound);
// any other non-200 status or transport failure is transient. Without a
// configured endpoint every id not on the roster is a permanent miss.
func (d *RESTDirectory) Fetch(ctx context.Context, id int64) (*models.Identity, error) {
	if d.base == "" {
		return nil, ErrNotFound
	}
	url := fmt.Sprintf("%s/users/%d", d.base, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build identity request: %w", err)
	}
	resp, err := d.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity lookup %d: %w", id, err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("identity lookup %d: status %d", id, resp.StatusCode)
	}
	var out struct {
		Name          string `json:"username"`
		Discriminator string `json:"discriminator"`
		AvatarURL     string `json:"avatar_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode identity %d: %w", id, err)
	}
	ident := &models.Identity{
		ID:            id,
		Name:          out.Name,
		Discriminator: out.Discriminator,
		AvatarURL:     out.AvatarURL,
	}
	return ident, nil
}
