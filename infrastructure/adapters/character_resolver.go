package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Lerfilm/opendrama-sub004/application/ports/outbound"
	"github.com/Lerfilm/opendrama-sub004/domain"
)

type scriptCharacter struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	ReferenceURLs []string `json:"reference_image_urls"`
}

type scriptCharactersResponse struct {
	Characters []scriptCharacter `json:"characters"`
}

type characterResolver struct {
	logger       outbound.LoggerPort
	fetcher      ContentFetcher
	authorizer   Authorizer
	scriptApiUrl string
}

// NewCharacterResolver reads a script's cast from the platform's script
// service, authorized with a client-credentials token.
func NewCharacterResolver(logger outbound.LoggerPort, fetcher ContentFetcher, authorizer Authorizer, scriptApiUrl string) outbound.CharacterResolverPort {
	return &characterResolver{
		logger:       logger,
		fetcher:      fetcher,
		authorizer:   authorizer,
		scriptApiUrl: scriptApiUrl,
	}
}

func (r *characterResolver) Resolve(ctx context.Context, scriptID string) (*domain.CharacterRefs, error) {
	token, err := r.authorizer.Authorize(ctx)
	if err != nil {
		r.logger.Error(err, "Failed to authorize against the script service")
		return nil, err
	}

	url := fmt.Sprintf("%s/internal/scripts/%s/characters", r.scriptApiUrl, scriptID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		r.logger.Error(err, "Failed to create the characters request")
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	body, err := r.fetcher.FetchContent(req)
	if err != nil {
		return nil, err
	}

	var res scriptCharactersResponse
	err = json.Unmarshal(body, &res)
	if err != nil {
		r.logger.Error(err, "Failed to unmarshal the characters response")
		return nil, err
	}

	refs := &domain.CharacterRefs{}
	for _, ch := range res.Characters {
		if ch.Description != "" {
			refs.Descriptions = append(refs.Descriptions, ch.Name+": "+ch.Description)
		}
		refs.ImageURLs = append(refs.ImageURLs, ch.ReferenceURLs...)
	}
	return refs, nil
}
