package app

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"reviewhound/internal/domain"
)

// ManagementService backs the CLI and HTTP surfaces that edit businesses,
// alert rules and settings. The ingestion pipeline never calls it.
type ManagementService struct {
	store domain.Store
}

func NewManagementService(st domain.Store) *ManagementService {
	return &ManagementService{store: st}
}

func (s *ManagementService) AddBusiness(ctx context.Context, b domain.Business) (domain.Business, error) {
	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" {
		return domain.Business{}, fmt.Errorf("%w: business name is required", domain.ErrInvalidInput)
	}
	normalizeBusiness(&b)
	id, err := s.store.CreateBusiness(ctx, b)
	if err != nil {
		return domain.Business{}, err
	}
	b.ID = id
	return b, nil
}

func (s *ManagementService) UpdateBusiness(ctx context.Context, b domain.Business) error {
	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" {
		return fmt.Errorf("%w: business name is required", domain.ErrInvalidInput)
	}
	normalizeBusiness(&b)
	return s.store.UpdateBusiness(ctx, b)
}

// ResolveBusiness looks a business up by numeric id, else by name fragment.
func (s *ManagementService) ResolveBusiness(ctx context.Context, ident string) (domain.Business, error) {
	ident = strings.TrimSpace(ident)
	if id, err := strconv.ParseInt(ident, 10, 64); err == nil {
		return s.store.GetBusiness(ctx, id)
	}
	if ident == "" {
		return domain.Business{}, domain.ErrNotFound
	}
	return s.store.FindBusiness(ctx, ident)
}

func (s *ManagementService) ListBusinesses(ctx context.Context) ([]domain.Business, error) {
	return s.store.ListBusinesses(ctx)
}

// ConfigureAlert creates or updates the rule for (business, email). With
// disable set, an existing rule is switched off; a missing one is an error.
// The returned action is "Created", "Updated" or "Disabled".
func (s *ManagementService) ConfigureAlert(ctx context.Context, businessID int64, email string, threshold float64, disable bool) (domain.NotificationRule, string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return domain.NotificationRule{}, "", fmt.Errorf("%w: invalid email %q", domain.ErrInvalidInput, email)
	}
	if _, err := s.store.GetBusiness(ctx, businessID); err != nil {
		return domain.NotificationRule{}, "", err
	}

	rule, err := s.store.GetRuleByEmail(ctx, businessID, addr.Address)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if disable {
			return domain.NotificationRule{}, "", fmt.Errorf("%w: no alert rule to disable", domain.ErrNotFound)
		}
		rule = domain.NotificationRule{BusinessID: businessID, Email: addr.Address, Threshold: threshold, Enabled: true}
		rule.ID, err = s.store.SaveRule(ctx, rule)
		return rule, "Created", err
	case err != nil:
		return domain.NotificationRule{}, "", err
	}

	rule.Enabled = !disable
	rule.Threshold = threshold
	action := "Updated"
	if disable {
		action = "Disabled"
	}
	_, err = s.store.SaveRule(ctx, rule)
	return rule, action, err
}

func (s *ManagementService) ListAlerts(ctx context.Context, businessID *int64) ([]domain.NotificationRule, error) {
	return s.store.ListRules(ctx, businessID)
}

func (s *ManagementService) SetSentimentPolicy(ctx context.Context, p domain.SentimentPolicy) error {
	if p.RatingWeight < 0 || p.TextWeight < 0 || p.Threshold < 0 || p.Threshold >= 1 {
		return fmt.Errorf("%w: weights must be >= 0 and threshold within [0, 1)", domain.ErrInvalidInput)
	}
	return s.store.SaveSentimentPolicy(ctx, p)
}

func (s *ManagementService) SetAPIConfig(ctx context.Context, c domain.APIConfig) error {
	switch c.Provider {
	case domain.ProviderGooglePlaces, domain.ProviderYelpFusion:
	default:
		return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, c.Provider)
	}
	c.APIKey = strings.TrimSpace(c.APIKey)
	if c.Enabled && c.APIKey == "" {
		return fmt.Errorf("%w: an enabled provider needs an api key", domain.ErrInvalidInput)
	}
	return s.store.SaveAPIConfig(ctx, c)
}

func normalizeBusiness(b *domain.Business) {
	for _, p := range []**string{&b.Address, &b.TrustpilotURL, &b.BBBURL, &b.YelpURL, &b.YelpBusinessID, &b.GooglePlaceID} {
		if !domain.Configured(*p) {
			*p = nil
			continue
		}
		v := strings.TrimSpace(**p)
		*p = &v
	}
}
