package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHandlerUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(InstrumentHandler)
	r.Get("/images/user/{userId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/images/user/{userId}", "418"))
	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images/user/"+id, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/images/user/{userId}", "418"))
	assert.Equal(t, 2.0, after-before)
}

func TestInstrumentHandlerDefaultsStatus(t *testing.T) {
	r := chi.NewRouter()
	r.Use(InstrumentHandler)
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/ok", "200"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/ok", "200"))-before)
}

func TestRecordGenerationAndCredits(t *testing.T) {
	before := testutil.ToFloat64(generations.WithLabelValues("pet", OutcomeSuccess))
	RecordGeneration("pet", OutcomeSuccess)
	assert.Equal(t, 1.0, testutil.ToFloat64(generations.WithLabelValues("pet", OutcomeSuccess))-before)

	credits := testutil.ToFloat64(creditsDeducted)
	RecordCreditsDeducted(1)
	RecordCreditsDeducted(0)
	assert.Equal(t, 1.0, testutil.ToFloat64(creditsDeducted)-credits)
}

func TestHandlerExposesCollectors(t *testing.T) {
	RecordGeneration("art", OutcomeUploadFailed)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "astro_images_images_generations_total"))
	assert.Contains(t, body, `outcome="upload_failed"`)
}
