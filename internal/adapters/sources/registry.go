package sources

import (
	"reviewhound/internal/domain"
)

type Config struct {
	MaxPages          int
	BBBComplaints     bool
	RequestsPerSecond float64
	UserAgent         string
	GooglePlacesBase  string
	YelpFusionBase    string
}

type key struct {
	src  domain.Source
	kind domain.SourceKind
}

// Registry maps each (source, kind) pair to its adapter.
type Registry struct {
	adapters map[key]domain.SourceAdapter
}

// NewRegistry wires every built-in adapter onto one shared client.
func NewRegistry(cfg Config) *Registry {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 3
	}
	c := NewClient(cfg.RequestsPerSecond, cfg.UserAgent)
	r := &Registry{adapters: map[key]domain.SourceAdapter{}}
	r.Register(domain.SourceTrustpilot, domain.KindWeb, NewTrustpilot(c, cfg.MaxPages))
	r.Register(domain.SourceBBB, domain.KindWeb, NewBBB(c, cfg.MaxPages, cfg.BBBComplaints))
	r.Register(domain.SourceYelp, domain.KindWeb, NewYelpWeb(c, cfg.MaxPages))
	r.Register(domain.SourceYelp, domain.KindAPI, NewYelpFusion(c, cfg.YelpFusionBase))
	r.Register(domain.SourceGoogle, domain.KindAPI, NewGooglePlaces(c, cfg.GooglePlacesBase))
	return r
}

func (r *Registry) Register(src domain.Source, kind domain.SourceKind, a domain.SourceAdapter) {
	r.adapters[key{src, kind}] = a
}

func (r *Registry) Adapter(t domain.Target) (domain.SourceAdapter, bool) {
	a, ok := r.adapters[key{t.Source, t.Kind}]
	return a, ok
}
