package httpserver

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/bryanwahyu/animal-aid/internal/application"
	appanimals "github.com/bryanwahyu/animal-aid/internal/application/animals"
	appreports "github.com/bryanwahyu/animal-aid/internal/application/reports"
	"github.com/bryanwahyu/animal-aid/internal/infra/ai/stub"
	"github.com/bryanwahyu/animal-aid/internal/infra/db/memory"
	"github.com/bryanwahyu/animal-aid/internal/infra/storage"
	"github.com/bryanwahyu/animal-aid/internal/middleware"
)

type testServer struct {
	handler  http.Handler
	mediaDir string
	reports  *memory.ReportStore
}

func newTestServer(t *testing.T, failAnalysis bool) *testServer {
	t.Helper()
	dir := t.TempDir()
	blobs, err := storage.NewLocalStore(dir, "/media/")
	if err != nil {
		t.Fatal(err)
	}
	reportStore := memory.NewReportStore()
	h := NewRouter(Options{
		Reports: &appreports.Service{
			Repo:     reportStore,
			Blobs:    blobs,
			Analyzer: stub.NewClient(failAnalysis),
			Clock:    application.SystemClock{},
		},
		Animals: &appanimals.Service{
			Repo:  memory.NewAnimalStore(),
			Blobs: blobs,
			Clock: application.SystemClock{},
		},
		Metrics:        middleware.NewMetrics(),
		MaxUploadBytes: 1 << 20,
		MediaDir:       dir,
		MediaPrefix:    "/media/",
	})
	return &testServer{handler: h, mediaDir: dir, reports: reportStore}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func multipartRequest(t *testing.T, method, path string, image []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if image != nil {
		fw, err := mw.CreateFormFile("image", "dog.jpg")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(image)
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body["error"]
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			n++
		}
		return nil
	})
	return n
}

func TestSubmitReportCreated(t *testing.T) {
	s := newTestServer(t, false)
	rec := s.do(multipartRequest(t, http.MethodPost, "/animal/test-gemini/", []byte("jpeg-bytes"), map[string]string{
		"location": `{"latitude": 12.9, "longitude": 77.6}`,
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Message string `json:"message"`
		Report  struct {
			ID         string    `json:"report_id"`
			UserID     string    `json:"user_id"`
			ImageURL   string    `json:"image_url"`
			Latitude   float64   `json:"latitude"`
			Longitude  float64   `json:"longitude"`
			ReportData string    `json:"report_data"`
			CreatedAt  time.Time `json:"created_at"`
		} `json:"report"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Message != "Image analyzed and report saved successfully" {
		t.Errorf("message = %q", body.Message)
	}
	if body.Report.UserID != "demo_user" || body.Report.Latitude != 12.9 || body.Report.Longitude != 77.6 {
		t.Errorf("unexpected report %+v", body.Report)
	}
	if body.Report.ReportData == "" || body.Report.CreatedAt.IsZero() {
		t.Errorf("report data or timestamp missing: %+v", body.Report)
	}

	get := s.do(httptest.NewRequest(http.MethodGet, "/v1/reports/"+body.Report.ID, nil))
	if get.Code != http.StatusOK {
		t.Fatalf("get status = %d", get.Code)
	}

	img := s.do(httptest.NewRequest(http.MethodGet, body.Report.ImageURL, nil))
	if img.Code != http.StatusOK || img.Body.String() != "jpeg-bytes" {
		t.Fatalf("image fetch status = %d body = %q", img.Code, img.Body.String())
	}
}

func TestSubmitReportCustomUser(t *testing.T) {
	s := newTestServer(t, false)
	rec := s.do(multipartRequest(t, http.MethodPost, "/v1/reports", []byte("img"), map[string]string{
		"location": `{"latitude": -33.86, "longitude": 151.2, "accuracy": 5}`,
		"user_id":  "rescuer-7\x00",
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Report struct {
			UserID   string `json:"user_id"`
			Location string `json:"location"`
		} `json:"report"`
	}
	json.NewDecoder(rec.Body).Decode(&body)
	if body.Report.UserID != "rescuer-7" {
		t.Errorf("user_id = %q", body.Report.UserID)
	}
	if !strings.Contains(body.Report.Location, `"accuracy": 5`) {
		t.Errorf("location extras lost: %s", body.Report.Location)
	}
}

func TestSubmitReportValidation(t *testing.T) {
	cases := []struct {
		name   string
		image  []byte
		fields map[string]string
		want   string
	}{
		{"bad location", []byte("img"), map[string]string{"location": "not-json"}, "Invalid location format"},
		{"string latitude", []byte("img"), map[string]string{"location": `{"latitude":"12.9","longitude":77.6}`}, "Invalid location format"},
		{"missing image", nil, map[string]string{"location": `{"latitude":1,"longitude":2}`}, "Missing required fields: image or location"},
		{"missing location", []byte("img"), nil, "Missing required fields: image or location"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, false)
			rec := s.do(multipartRequest(t, http.MethodPost, "/animal/test-gemini/", tc.image, tc.fields))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rec.Code)
			}
			if got := decodeError(t, rec); got != tc.want {
				t.Fatalf("error = %q, want %q", got, tc.want)
			}
			if countFiles(t, s.mediaDir) != 0 {
				t.Fatal("image stored for a rejected submission")
			}
		})
	}
}

func TestSubmitReportNotMultipart(t *testing.T) {
	s := newTestServer(t, false)
	req := httptest.NewRequest(http.MethodPost, "/v1/reports", strings.NewReader(`{"location":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := s.do(req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeError(t, rec); got != "Missing required fields: image or location" {
		t.Fatalf("error = %q", got)
	}
}

func TestSubmitReportAnalysisFailure(t *testing.T) {
	s := newTestServer(t, true)
	rec := s.do(multipartRequest(t, http.MethodPost, "/animal/test-gemini/", []byte("img"), map[string]string{
		"location": `{"latitude": 12.9, "longitude": 77.6}`,
	}))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeError(t, rec); got != "stub analysis provider unavailable" {
		t.Fatalf("error = %q", got)
	}

	list := s.do(httptest.NewRequest(http.MethodGet, "/animal/injury-reports/", nil))
	if strings.TrimSpace(list.Body.String()) != "[]" {
		t.Fatalf("reports after failure = %s", list.Body.String())
	}
	if countFiles(t, s.mediaDir) != 0 {
		t.Fatal("orphaned image left behind")
	}
}

func TestSubmitReportTooLarge(t *testing.T) {
	s := newTestServer(t, false)
	rec := s.do(multipartRequest(t, http.MethodPost, "/v1/reports", bytes.Repeat([]byte("x"), 2<<20), map[string]string{
		"location": `{"latitude": 1, "longitude": 2}`,
	}))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestListReportsStable(t *testing.T) {
	s := newTestServer(t, false)
	for i := 0; i < 3; i++ {
		rec := s.do(multipartRequest(t, http.MethodPost, "/v1/reports", []byte{byte(i)}, map[string]string{
			"location": `{"latitude": 10, "longitude": 20}`,
		}))
		if rec.Code != http.StatusCreated {
			t.Fatalf("submit %d status = %d", i, rec.Code)
		}
	}

	first := s.do(httptest.NewRequest(http.MethodGet, "/v1/reports", nil)).Body.String()
	second := s.do(httptest.NewRequest(http.MethodGet, "/animal/injury-reports/", nil)).Body.String()
	if first != second {
		t.Fatalf("listing changed between calls:\n%s\n%s", first, second)
	}

	var list []struct {
		CreatedAt time.Time `json:"created_at"`
	}
	if err := json.Unmarshal([]byte(first), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].CreatedAt.After(list[i-1].CreatedAt) {
			t.Fatalf("not newest first at %d", i)
		}
	}
}

func TestGetReportNotFound(t *testing.T) {
	s := newTestServer(t, false)
	for _, id := range []string{"0b9f3a8e-6a43-4a4c-9a64-2b8f3c1d2e11", "not-a-uuid"} {
		rec := s.do(httptest.NewRequest(http.MethodGet, "/v1/reports/"+id, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d", id, rec.Code)
		}
	}
}

func TestReportsGeoJSON(t *testing.T) {
	s := newTestServer(t, false)
	s.do(multipartRequest(t, http.MethodPost, "/v1/reports", []byte("img"), map[string]string{
		"location": `{"latitude": 12.9, "longitude": 77.6}`,
	}))

	rec := s.do(httptest.NewRequest(http.MethodGet, "/v1/reports.geojson", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&fc); err != nil {
		t.Fatal(err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 1 {
		t.Fatalf("unexpected collection %+v", fc)
	}
	g := fc.Features[0].Geometry
	if g.Type != "Point" || !reflect.DeepEqual(g.Coordinates, []float64{77.6, 12.9}) {
		t.Fatalf("geometry = %+v", g)
	}
	if fc.Features[0].Properties["user_id"] != "demo_user" {
		t.Fatalf("properties = %v", fc.Features[0].Properties)
	}
}

func TestAnimalLifecycle(t *testing.T) {
	s := newTestServer(t, false)

	up := s.do(multipartRequest(t, http.MethodPost, "/animal/upload/", []byte("cat"), map[string]string{
		"details": "Injured cat near the market",
	}))
	if up.Code != http.StatusCreated {
		t.Fatalf("upload status = %d body = %s", up.Code, up.Body.String())
	}
	var created struct {
		Animal struct {
			ID   int64    `json:"animal_id"`
			Tags []string `json:"tags"`
		} `json:"animal"`
	}
	json.NewDecoder(up.Body).Decode(&created)
	if !reflect.DeepEqual(created.Animal.Tags, []string{"urgent", "help-needed"}) {
		t.Fatalf("tags = %v", created.Animal.Tags)
	}

	list := s.do(httptest.NewRequest(http.MethodGet, "/animal/image-list/", nil))
	if !strings.Contains(list.Body.String(), "Injured cat near the market") {
		t.Fatalf("list = %s", list.Body.String())
	}

	path := "/animal/animal/delete/" + jsonNumber(created.Animal.ID) + "/"
	del := s.do(httptest.NewRequest(http.MethodDelete, path, nil))
	if del.Code != http.StatusOK {
		t.Fatalf("delete status = %d", del.Code)
	}
	if countFiles(t, s.mediaDir) != 0 {
		t.Fatal("image still on disk after delete")
	}

	again := s.do(httptest.NewRequest(http.MethodPost, path, nil))
	if again.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", again.Code)
	}
}

func TestAnimalUploadValidation(t *testing.T) {
	s := newTestServer(t, false)
	rec := s.do(multipartRequest(t, http.MethodPost, "/animal/upload/", nil, map[string]string{"details": "x"}))
	if rec.Code != http.StatusBadRequest || decodeError(t, rec) != "No image uploaded" {
		t.Fatalf("status = %d", rec.Code)
	}
	rec = s.do(multipartRequest(t, http.MethodPost, "/animal/upload/", []byte("img"), nil))
	if rec.Code != http.StatusBadRequest || decodeError(t, rec) != "Details are required" {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, false)
	if rec := s.do(httptest.NewRequest(http.MethodGet, "/health", nil)); rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
	if rec := s.do(httptest.NewRequest(http.MethodGet, "/livez", nil)); rec.Code != http.StatusOK {
		t.Fatalf("livez status = %d", rec.Code)
	}
	rec := s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "animal_aid_http_requests_total") {
		t.Fatalf("metrics status = %d", rec.Code)
	}
}

func jsonNumber(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
