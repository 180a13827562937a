package upload

import (
	"context"
	"io"
	"mime/multipart"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/streamhive/user-service/internal/domain/user/apperr"
	"github.com/streamhive/user-service/internal/domain/user/model"
)

// ObjectStore is the storage collaborator: one durable write per file.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (model.UploadedFile, error)
}

type Service struct {
	store ObjectStore
}

func New(store ObjectStore) *Service {
	return &Service{store: store}
}

// UploadAll pushes every file to the object store concurrently and joins
// the results. Any single failure fails the whole request; files already
// stored are not rolled back.
func (s *Service) UploadAll(ctx context.Context, files []*multipart.FileHeader) ([]model.UploadedFile, error) {
	if len(files) == 0 {
		return nil, apperr.New(apperr.Validation, "no files supplied")
	}

	results := make([]model.UploadedFile, len(files))
	g, ctx := errgroup.WithContext(ctx)

	for i, fh := range files {
		g.Go(func() error {
			f, err := fh.Open()
			if err != nil {
				return apperr.Wrap(apperr.Internal, "open upload", err)
			}
			defer f.Close()

			key := uuid.NewString() + filepath.Ext(fh.Filename)
			uploaded, err := s.store.Put(ctx, key, fh.Header.Get("Content-Type"), f, fh.Size)
			if err != nil {
				return err
			}
			results[i] = uploaded
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
