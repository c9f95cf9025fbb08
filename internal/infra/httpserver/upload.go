package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/bryanwahyu/animal-aid/internal/domain/apperr"
)

// upload is one multipart file part read fully into memory.
type upload struct {
	Data        []byte
	Name        string
	ContentType string
}

// parseMultipart caps the body at the configured size and parses the form.
// A request that is not multipart yields an empty form rather than an error,
// so missing-field validation stays in the services.
func (r *Router) parseMultipart(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)
	err := req.ParseMultipartForm(r.maxUpload)
	var tooBig *http.MaxBytesError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &tooBig), req.ContentLength > r.maxUpload:
		return errTooLarge
	case errors.Is(err, http.ErrNotMultipart):
		return nil
	default:
		return apperr.Validation("invalid multipart form")
	}
}

// formFile returns the named part, or an empty upload when it is absent.
func formFile(req *http.Request, field string) (upload, error) {
	f, hdr, err := req.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return upload{}, nil
	}
	if err != nil {
		return upload{}, apperr.Validation("invalid multipart form")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return upload{}, errTooLarge
	}
	if err != nil {
		return upload{}, apperr.Validation("failed to read image")
	}
	return upload{Data: data, Name: hdr.Filename, ContentType: hdr.Header.Get("Content-Type")}, nil
}

func formValue(req *http.Request, key string) string {
	if req.MultipartForm != nil {
		if vs := req.MultipartForm.Value[key]; len(vs) > 0 {
			return vs[0]
		}
	}
	return req.PostFormValue(key)
}
