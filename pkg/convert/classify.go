package convert

import (
	"context"
	"fmt"
	"regexp"

	"modmigrate/pkg/identity"
	"modmigrate/pkg/models"
	"modmigrate/pkg/source"
)

// attachmentPattern matches attachment links the legacy bot embedded in
// message bodies: an HTTP URL with a dotted numeric host, a numeric port
// and an /attachments/<id>/<name> path.
var attachmentPattern = regexp.MustCompile(`http://[0-9.]+:[0-9]+/attachments/[0-9]+/\S+`)

// ExtractAttachments splits a raw message body into visible content and the
// embedded attachment links, in order of appearance. When at least one link
// is present the content is the prefix of the body up to the first link;
// otherwise the content is the body verbatim. Pure function of body.
func ExtractAttachments(body string) (string, []string) {
	locs := attachmentPattern.FindAllStringIndex(body, -1)
	if len(locs) == 0 {
		return body, nil
	}
	urls := make([]string, 0, len(locs))
	for _, loc := range locs {
		urls = append(urls, body[loc[0]:loc[1]])
	}
	return body[:locs[0][0]], urls
}

// Classifier turns raw message rows into typed thread messages.
type Classifier struct {
	resolver *identity.Resolver
}

// NewClassifier returns a classifier resolving authors through resolver.
func NewClassifier(resolver *identity.Resolver) *Classifier {
	return &Classifier{resolver: resolver}
}

// Classify maps one raw row into a ThreadMessage. The message-type table is
// closed: any unknown code fails with ErrUnknownMessageType. A row without
// an author id yields a nil author without a lookup.
func (c *Classifier) Classify(ctx context.Context, row source.MessageRow) (models.ThreadMessage, error) {
	typ, ok := models.MessageTypes[row.Type]
	if !ok {
		return models.ThreadMessage{}, fmt.Errorf("%w: code %d (message %d)", ErrUnknownMessageType, row.Type, row.ID)
	}

	var author *models.Identity
	if row.UserID != 0 {
		resolved, err := c.resolver.Resolve(ctx, row.UserID)
		if err != nil {
			return models.ThreadMessage{}, fmt.Errorf("resolve author of message %d: %w", row.ID, err)
		}
		author = resolved
	}

	content, urls := ExtractAttachments(row.Body)
	return models.ThreadMessage{
		ID:          row.ID,
		Type:        typ,
		Author:      author,
		Body:        row.Body,
		Content:     content,
		Attachments: urls,
		Anonymous:   row.Anonymous,
		DMMessageID: row.DMMessageID,
		CreatedAt:   row.CreatedAt,
	}, nil
}
