package settings

import (
	"context"
	"strings"
	"time"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) Get(ctx context.Context, tenantID string) (Settings, error) {
	return s.store.Get(ctx, tenantID)
}

func (s *Service) Update(ctx context.Context, tenantID string, in Settings) (Settings, error) {
	in.WorkDayStart = strings.TrimSpace(in.WorkDayStart)
	in.EmailFrom = strings.TrimSpace(in.EmailFrom)
	if _, err := in.LateAfter(time.Now()); err != nil {
		return Settings{}, err
	}
	if err := s.store.Upsert(ctx, tenantID, in); err != nil {
		return Settings{}, err
	}
	return s.store.Get(ctx, tenantID)
}
