// Package application lists the user's scholarship applications.
package application

import (
	"context"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/scholarhub/client/api/backend"
	"github.com/scholarhub/client/api/transport"
	"github.com/scholarhub/client/domain"
)

type UseCase struct {
	api    *backend.Client
	logger *zap.Logger
}

func New(api *backend.Client, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		api:    api,
		logger: logger,
	}
}

// List returns the user's application records.
func (uc *UseCase) List(ctx context.Context) ([]domain.Application, error) {
	body, err := uc.api.Do(ctx, fasthttp.MethodGet, backend.EndpointApplications, nil, true)
	if err != nil {
		return nil, err
	}
	var items []domain.Application
	if err := transport.DecodeList(body, &items); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "decode applications", err)
	}
	return items, nil
}
