package httpserver

import (
	"net/http"

	geojson "github.com/paulmach/go.geojson"
)

// GET /v1/reports.geojson
// Every report becomes a Point feature ([lon, lat]) for map clients.
func (r *Router) handleReportsGeoJSON(w http.ResponseWriter, req *http.Request) error {
	list, err := r.reports.ListAll(req.Context())
	if err != nil {
		return err
	}

	fc := geojson.NewFeatureCollection()
	for _, rep := range list {
		f := geojson.NewPointFeature([]float64{rep.Longitude, rep.Latitude})
		f.ID = string(rep.ID)
		f.SetProperty("report_id", string(rep.ID))
		f.SetProperty("user_id", rep.SubmitterID)
		f.SetProperty("image_url", rep.ImageURL)
		f.SetProperty("created_at", rep.CreatedAt)
		fc.AddFeature(f)
	}

	body, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(body)
	return err
}
