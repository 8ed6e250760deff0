// Package saved manages the user's bookmarked scholarships. All operations
// require an authenticated session.
package saved

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

// List returns the user's saved-scholarship records.
func (uc *UseCase) List(ctx context.Context) ([]domain.SavedScholarship, error) {
	body, err := uc.api.Do(ctx, fasthttp.MethodGet, backend.EndpointSaved, nil, true)
	if err != nil {
		return nil, err
	}
	var items []domain.SavedScholarship
	if err := transport.DecodeList(body, &items); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "decode saved scholarships", err)
	}
	return items, nil
}

// Save bookmarks a scholarship and returns the created record.
func (uc *UseCase) Save(ctx context.Context, scholarshipID int64) (*domain.SavedScholarship, error) {
	var record domain.SavedScholarship
	err := uc.api.Post(ctx, backend.EndpointSaved, transport.SaveScholarshipRequest{Scholarship: scholarshipID}, true, &record)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Remove deletes a saved record by its own id.
func (uc *UseCase) Remove(ctx context.Context, savedID int64) error {
	return uc.api.Delete(ctx, backend.EndpointSaved+domain.FormatID(savedID)+"/", true)
}

// RemoveByScholarship finds the record bookmarking the given scholarship and
// deletes it. The listing round trip is unavoidable: the delete endpoint is
// keyed by the record id, not the scholarship id.
func (uc *UseCase) RemoveByScholarship(ctx context.Context, scholarshipID int64) error {
	records, err := uc.List(ctx)
	if err != nil {
		return err
	}
	for _, record := range records {
		if record.Scholarship.ID == scholarshipID {
			return uc.Remove(ctx, record.ID)
		}
	}
	return domain.ErrSavedNotFound
}

// IsSaved reports whether the scholarship is bookmarked.
func (uc *UseCase) IsSaved(ctx context.Context, scholarshipID int64) (bool, error) {
	records, err := uc.List(ctx)
	if err != nil {
		return false, err
	}
	for _, record := range records {
		if record.Scholarship.ID == scholarshipID {
			return true, nil
		}
	}
	return false, nil
}
