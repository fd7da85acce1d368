package outbound

import (
	"context"

	"github.com/Lerfilm/opendrama-sub004/domain"
)

// CharacterResolverPort fetches a script's character reference material from
// the platform's script service.
type CharacterResolverPort interface {
	Resolve(ctx context.Context, scriptID string) (*domain.CharacterRefs, error)
}
