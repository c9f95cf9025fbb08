package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	appanimals "github.com/bryanwahyu/animal-aid/internal/application/animals"
	"github.com/bryanwahyu/animal-aid/internal/domain/animals"
	"github.com/bryanwahyu/animal-aid/internal/domain/apperr"
	"github.com/bryanwahyu/animal-aid/internal/middleware"
)

// POST /animal/upload/
// multipart: image (file), details (text)
func (r *Router) handleUploadAnimal(w http.ResponseWriter, req *http.Request) error {
	if err := r.parseMultipart(w, req); err != nil {
		return err
	}
	img, err := formFile(req, "image")
	if err != nil {
		return err
	}

	a, err := r.animals.Upload(req.Context(), appanimals.UploadCommand{
		Image:       img.Data,
		ImageName:   img.Name,
		ContentType: img.ContentType,
		Details:     middleware.SanitizeString(formValue(req, "details")),
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Image uploaded successfully",
		"animal":  a,
	})
}

// GET /animal/image-list/
func (r *Router) handleListAnimals(w http.ResponseWriter, req *http.Request) error {
	list, err := r.animals.List(req.Context())
	if err != nil {
		return err
	}
	if list == nil {
		list = []*animals.Animal{}
	}
	return writeJSON(w, http.StatusOK, list)
}

// DELETE|POST /animal/animal/delete/{id}/
func (r *Router) handleDeleteAnimal(w http.ResponseWriter, req *http.Request) error {
	id, err := middleware.ParseAnimalID(chi.URLParam(req, "id"))
	if err != nil {
		return apperr.NotFound("animal not found")
	}
	if err := r.animals.Delete(req.Context(), animals.AnimalID(id)); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"message": "Animal deleted successfully"})
}
