package animals

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/google/uuid"

	"github.com/bryanwahyu/animal-aid/internal/application"
	"github.com/bryanwahyu/animal-aid/internal/domain/animals"
	"github.com/bryanwahyu/animal-aid/internal/domain/apperr"
)

const imagePrefix = "animal_images/"

type Service struct {
	Repo   animals.Repository
	Blobs  animals.BlobStore
	Tagger animals.Tagger
	Clock  application.Clock
}

type UploadCommand struct {
	Image       []byte
	ImageName   string
	ContentType string
	Details     string
}

// Upload stores the image, tags the details and saves the animal.
func (s *Service) Upload(ctx context.Context, cmd UploadCommand) (*animals.Animal, error) {
	if len(cmd.Image) == 0 {
		return nil, apperr.Validation("no image uploaded")
	}
	details := strings.TrimSpace(cmd.Details)
	if details == "" {
		return nil, apperr.Validation("details are required")
	}

	key := fmt.Sprintf("%s%s%s", imagePrefix, uuid.NewString(), strings.ToLower(filepath.Ext(cmd.ImageName)))
	url, err := s.Blobs.Put(ctx, key, cmd.Image, cmd.ContentType)
	if err != nil {
		return nil, apperr.Persistence("failed to store image", err)
	}

	tagger := s.Tagger
	if tagger == nil {
		tagger = animals.DefaultTagger
	}
	a := &animals.Animal{
		ImageKey:   key,
		ImageURL:   url,
		Tags:       tagger.Tags(details),
		Details:    details,
		UploadedAt: s.Clock.Now().UTC(),
	}
	if err := s.Repo.Save(ctx, a); err != nil {
		if derr := s.Blobs.Delete(context.WithoutCancel(ctx), key); derr != nil {
			log.WithError(derr).WithField("image_key", key).Error("failed to remove orphaned image")
		}
		return nil, apperr.Persistence("failed to save animal", err)
	}
	return a, nil
}

func (s *Service) List(ctx context.Context) ([]*animals.Animal, error) {
	list, err := s.Repo.List(ctx)
	if err != nil {
		return nil, apperr.Persistence("failed to fetch animal list", err)
	}
	return list, nil
}

// Delete removes the record first and the image only once that is committed,
// so a failed delete never leaves a row pointing at a missing file.
func (s *Service) Delete(ctx context.Context, id animals.AnimalID) error {
	a, err := s.Repo.Get(ctx, id)
	if err != nil {
		return apperr.Persistence("failed to load animal", err)
	}
	if a == nil {
		return apperr.NotFound("animal not found")
	}

	ok, err := s.Repo.Delete(ctx, id)
	if err != nil {
		return apperr.Persistence("error deleting animal", err)
	}
	if !ok {
		return apperr.NotFound("animal not found")
	}

	if err := s.Blobs.Delete(context.WithoutCancel(ctx), a.ImageKey); err != nil {
		log.WithError(err).WithFields(log.Fields{"animal_id": id, "image_key": a.ImageKey}).
			Warn("animal deleted but image removal failed")
	}
	return nil
}
