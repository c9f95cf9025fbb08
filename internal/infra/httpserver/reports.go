package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	appreports "github.com/bryanwahyu/animal-aid/internal/application/reports"
	"github.com/bryanwahyu/animal-aid/internal/domain/apperr"
	domain "github.com/bryanwahyu/animal-aid/internal/domain/reports"
	"github.com/bryanwahyu/animal-aid/internal/middleware"
)

// POST /animal/test-gemini/ and /v1/reports
// multipart: image (file), location (JSON string), user_id (optional)
func (r *Router) handleSubmitReport(w http.ResponseWriter, req *http.Request) error {
	if err := r.parseMultipart(w, req); err != nil {
		return err
	}
	img, err := formFile(req, "image")
	if err != nil {
		return err
	}

	rep, err := r.reports.Submit(req.Context(), appreports.SubmitCommand{
		Image:       img.Data,
		ImageName:   img.Name,
		ContentType: img.ContentType,
		Location:    formValue(req, "location"),
		SubmitterID: middleware.SanitizeString(formValue(req, "user_id")),
	})
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Image analyzed and report saved successfully",
		"report":  rep,
	})
}

// GET /animal/injury-reports/ and /v1/reports
func (r *Router) handleListReports(w http.ResponseWriter, req *http.Request) error {
	list, err := r.reports.ListAll(req.Context())
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.InjuryReport{}
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/reports/{id}
func (r *Router) handleGetReport(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateReportID(id); err != nil {
		// not a uuid, so it cannot exist
		return apperr.NotFound("report not found")
	}
	rep, err := r.reports.Get(req.Context(), domain.ReportID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rep)
}
