package models

import "fmt"

// Identity is a resolved participant reference. A nil *Identity is the
// canonical "unresolvable" state (deleted account, unknown id) and is a
// valid value everywhere an identity is referenced.
type Identity struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Discriminator string `json:"discriminator"`
	AvatarURL     string `json:"avatar_url"`
}

// Tag returns the name#discriminator form used by the creator heuristic
// and by the directory tag index.
func (i *Identity) Tag() string {
	return fmt.Sprintf("%s#%s", i.Name, i.Discriminator)
}
