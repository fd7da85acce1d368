package mock_backend

import (
	"context"

	"github.com/Lerfilm/opendrama-sub004/application/ports/outbound"
	"github.com/Lerfilm/opendrama-sub004/domain"
)

// FakeCharacterResolver serves a fixed set of character refs.
type FakeCharacterResolver struct {
	Refs *domain.CharacterRefs
	Err  error
}

func NewFakeCharacterResolver(refs *domain.CharacterRefs) *FakeCharacterResolver {
	return &FakeCharacterResolver{Refs: refs}
}

var _ outbound.CharacterResolverPort = (*FakeCharacterResolver)(nil)

func (r *FakeCharacterResolver) Resolve(ctx context.Context, scriptID string) (*domain.CharacterRefs, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	if r.Refs == nil {
		return &domain.CharacterRefs{}, nil
	}
	return r.Refs, nil
}
