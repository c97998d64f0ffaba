package app

import (
	"strings"

	"reviewhound/internal/domain"
)

// APIKeys maps provider name to the key of its enabled API configuration.
type APIKeys map[string]string

func EnabledAPIKeys(cfgs []domain.APIConfig) APIKeys {
	keys := APIKeys{}
	for _, c := range cfgs {
		if c.Enabled && strings.TrimSpace(c.APIKey) != "" {
			keys[c.Provider] = strings.TrimSpace(c.APIKey)
		}
	}
	return keys
}

// SelectSources resolves the sources to ingest for b. A provider API is
// preferred when both its key and the business's identifier exist; Yelp then
// falls back to its web page. Sources that are set but unusable come back as
// ConfigErrors and are left out of the targets.
func SelectSources(b domain.Business, keys APIKeys) ([]domain.Target, []*domain.ConfigError) {
	var (
		out  []domain.Target
		errs []*domain.ConfigError
	)
	web := func(src domain.Source, url *string) {
		out = append(out, domain.Target{Source: src, Kind: domain.KindWeb, Locator: strings.TrimSpace(*url)})
	}
	api := func(src domain.Source, id *string, key string) {
		out = append(out, domain.Target{Source: src, Kind: domain.KindAPI, Locator: strings.TrimSpace(*id), APIKey: key})
	}

	if domain.Configured(b.TrustpilotURL) {
		web(domain.SourceTrustpilot, b.TrustpilotURL)
	}
	if domain.Configured(b.BBBURL) {
		web(domain.SourceBBB, b.BBBURL)
	}

	yelpKey, hasYelpKey := keys[domain.ProviderYelpFusion]
	switch {
	case hasYelpKey && domain.Configured(b.YelpBusinessID):
		api(domain.SourceYelp, b.YelpBusinessID, yelpKey)
	case domain.Configured(b.YelpURL):
		web(domain.SourceYelp, b.YelpURL)
	case domain.Configured(b.YelpBusinessID):
		errs = append(errs, &domain.ConfigError{Source: domain.SourceYelp, Reason: "yelp business id set but no enabled " + domain.ProviderYelpFusion + " key"})
	}

	if domain.Configured(b.GooglePlaceID) {
		if key, ok := keys[domain.ProviderGooglePlaces]; ok {
			api(domain.SourceGoogle, b.GooglePlaceID, key)
		} else {
			errs = append(errs, &domain.ConfigError{Source: domain.SourceGoogle, Reason: "place id set but no enabled " + domain.ProviderGooglePlaces + " key"})
		}
	}
	return out, errs
}
