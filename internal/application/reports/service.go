package reports

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"

	"github.com/bryanwahyu/animal-aid/internal/application"
	"github.com/bryanwahyu/animal-aid/internal/domain/ai"
	"github.com/bryanwahyu/animal-aid/internal/domain/apperr"
	domain "github.com/bryanwahyu/animal-aid/internal/domain/reports"
	"github.com/bryanwahyu/animal-aid/internal/infra/ai/prompt"
)

const (
	msgMissingFields   = "missing required fields"
	msgInvalidLocation = "invalid location format"
	maxSubmitterLen    = 255
	imagePrefix        = "injury_reports/"
)

// Recorder receives submission outcomes. Optional.
type Recorder interface {
	Submission(outcome string)
	Analysis(d time.Duration, ok bool)
}

// Service implements report use-cases. Safe for concurrent use; the only
// in-process state is the last issued timestamp.
type Service struct {
	Repo             domain.Repository
	Blobs            domain.BlobStore
	Analyzer         ai.Analyzer
	Clock            application.Clock
	Recorder         Recorder
	DefaultSubmitter string

	mu   sync.Mutex
	last time.Time
}

// SubmitCommand is one report submission as received from the client.
type SubmitCommand struct {
	Image       []byte
	ImageName   string
	ContentType string
	Location    string
	SubmitterID string
}

// Submit validates the payload, stores the image, runs the analysis once and
// persists the report. Nothing is persisted when analysis fails; the stored
// image is removed again.
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (*domain.InjuryReport, error) {
	if len(cmd.Image) == 0 || strings.TrimSpace(cmd.Location) == "" {
		s.record("validation")
		return nil, apperr.Validation(msgMissingFields)
	}
	loc, err := domain.ParseLocation(cmd.Location)
	if err != nil {
		s.record("validation")
		return nil, apperr.Validation(msgInvalidLocation)
	}

	id := domain.ReportID(uuid.NewString())
	entry := log.WithField("report_id", id)
	key := imagePrefix + string(id) + imageExt(cmd.ImageName)
	contentType := cmd.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}

	url, err := s.Blobs.Put(ctx, key, cmd.Image, contentType)
	if err != nil {
		entry.WithError(err).Error("failed to store image")
		s.record("persistence")
		return nil, apperr.Persistence("failed to store image", err)
	}

	start := time.Now()
	res := s.Analyzer.Analyze(ctx, cmd.Image)
	if s.Recorder != nil {
		s.Recorder.Analysis(time.Since(start), res.OK)
	}
	if !res.OK {
		entry.WithField("reason", res.Message).Warn("analysis failed, discarding image")
		s.discard(ctx, key)
		s.record("analysis")
		return nil, apperr.Analysis(res.Message)
	}
	if _, perr := prompt.ParseAssessment(res.Text); perr != nil {
		// stored anyway, clients render the raw text
		entry.WithError(perr).Warn("analysis text does not follow the injury schema")
	}

	rep := &domain.InjuryReport{
		ID:          id,
		SubmitterID: s.submitter(cmd.SubmitterID),
		ImageKey:    key,
		ImageURL:    url,
		LocationRaw: loc.Raw,
		Latitude:    loc.Latitude,
		Longitude:   loc.Longitude,
		Analysis:    res.Text,
		CreatedAt:   s.now(),
	}
	if err := s.Repo.Save(ctx, rep); err != nil {
		entry.WithError(err).Error("failed to save report, discarding image")
		s.discard(ctx, key)
		s.record("persistence")
		return nil, apperr.Persistence("failed to save report", err)
	}

	entry.WithFields(log.Fields{"user_id": rep.SubmitterID, "lat": rep.Latitude, "lon": rep.Longitude}).Info("report created")
	s.record("created")
	return rep, nil
}

// ListAll ambil semua report, terbaru dulu
func (s *Service) ListAll(ctx context.Context) ([]*domain.InjuryReport, error) {
	list, err := s.Repo.ListAll(ctx)
	if err != nil {
		return nil, apperr.Persistence("failed to list reports", err)
	}
	return list, nil
}

// Get ambil 1 report by id
func (s *Service) Get(ctx context.Context, id domain.ReportID) (*domain.InjuryReport, error) {
	rep, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, apperr.Persistence("failed to load report", err)
	}
	if rep == nil {
		return nil, apperr.NotFound("report not found")
	}
	return rep, nil
}

// discard removes an image whose report will never be written.
func (s *Service) discard(ctx context.Context, key string) {
	if err := s.Blobs.Delete(context.WithoutCancel(ctx), key); err != nil {
		log.WithError(err).WithField("image_key", key).Error("failed to remove orphaned image")
	}
}

// now never goes backwards across reports issued by this service.
func (s *Service) now() time.Time {
	t := s.Clock.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.Before(s.last) {
		t = s.last
	}
	s.last = t
	return t
}

func (s *Service) submitter(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		if s.DefaultSubmitter != "" {
			return s.DefaultSubmitter
		}
		return domain.DefaultSubmitterID
	}
	if r := []rune(id); len(r) > maxSubmitterLen {
		id = string(r[:maxSubmitterLen])
	}
	return id
}

func (s *Service) record(outcome string) {
	if s.Recorder != nil {
		s.Recorder.Submission(outcome)
	}
}

func imageExt(name string) string {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif", ".heic":
		return ext
	default:
		return ".jpg"
	}
}
