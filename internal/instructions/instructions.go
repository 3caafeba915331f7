// Package instructions holds the labeling guidance shown to every labeler.
// Each save creates a new version; readers always see the latest one.
package instructions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/yuin/goldmark"

	"github.com/TobiSchelling/clicklabel/internal/database"
)

// DefaultBody is served until an administrator saves instructions.
const DefaultBody = `Default labeling instructions:
1. Watch the video title and thumbnail carefully
2. Determine if it's clickbait based on misleading content
3. Rate your confidence level from 1-4`

// ErrStaleVersion means another editor saved first.
var ErrStaleVersion = errors.New("instructions changed since they were read")

var md = goldmark.New()

// Instructions is one version of the guidance text.
type Instructions struct {
	Version   int       `json:"version"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Backend persists instruction versions. *database.DB implements it.
type Backend interface {
	LatestInstructions(ctx context.Context) (*database.InstructionsRecord, error)
	SaveInstructions(ctx context.Context, body string, expectedVersion int, now time.Time) (*database.InstructionsRecord, error)
}

// Store reads and writes instructions.
type Store struct {
	backend Backend
	now     func() time.Time
}

// NewStore creates a Store over backend.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend, now: time.Now}
}

// Get returns the latest instructions, or DefaultBody as version 0 when
// nothing has been saved.
func (s *Store) Get(ctx context.Context) (*Instructions, error) {
	rec, err := s.backend.LatestInstructions(ctx)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &Instructions{Version: 0, Body: DefaultBody}, nil
	}
	return &Instructions{Version: rec.Version, Body: rec.Body, UpdatedAt: rec.UpdatedAt}, nil
}

// Set saves body as the next version. A non-negative expectedVersion must
// match the version the caller last read, otherwise ErrStaleVersion is
// returned and nothing is saved. Pass -1 to overwrite unconditionally.
func (s *Store) Set(ctx context.Context, body string, expectedVersion int) (*Instructions, error) {
	rec, err := s.backend.SaveInstructions(ctx, body, expectedVersion, s.now())
	if errors.Is(err, database.ErrVersionMismatch) {
		return nil, fmt.Errorf("%w: %w", ErrStaleVersion, err)
	}
	if err != nil {
		return nil, err
	}
	return &Instructions{Version: rec.Version, Body: rec.Body, UpdatedAt: rec.UpdatedAt}, nil
}

// RenderHTML converts the markdown body to HTML. Text that fails to convert
// is returned escaped.
func (i *Instructions) RenderHTML() template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(i.Body), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(i.Body))
	}
	return template.HTML(buf.String()) //nolint: gosec
}
