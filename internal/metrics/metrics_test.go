package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMetadataFetch(t *testing.T) {
	beforeOK := testutil.ToFloat64(metadataFetchTotal.WithLabelValues("vimeo", StatusSuccess))
	beforeErr := testutil.ToFloat64(metadataFetchTotal.WithLabelValues("vimeo", StatusError))

	RecordMetadataFetch("vimeo", 100*time.Millisecond, nil)
	RecordMetadataFetch("vimeo", 200*time.Millisecond, errors.New("boom"))

	assert.Equal(t, beforeOK+1, testutil.ToFloat64(metadataFetchTotal.WithLabelValues("vimeo", StatusSuccess)))
	assert.Equal(t, beforeErr+1, testutil.ToFloat64(metadataFetchTotal.WithLabelValues("vimeo", StatusError)))
	assert.Positive(t, testutil.CollectAndCount(metadataFetchDuration))
}

func TestRecordThumbnailJob(t *testing.T) {
	before := testutil.ToFloat64(thumbnailJobsTotal.WithLabelValues(StatusError))
	RecordThumbnailJob(time.Second, errors.New("resize failed"))
	assert.Equal(t, before+1, testutil.ToFloat64(thumbnailJobsTotal.WithLabelValues(StatusError)))

	SetQueueDepth(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(thumbnailQueueDepth))
	SetQueueDepth(0)
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordThumbnailJob(time.Millisecond, nil)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "mediabundle_thumbnail_jobs_total"))
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unmatched", "404"))
	RecordHTTPRequest("GET", "", http.StatusNotFound, time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	beforeLimited := testutil.ToFloat64(rateLimitedTotal.WithLabelValues("media.create"))
	RecordRateLimited("media.create")
	assert.Equal(t, beforeLimited+1, testutil.ToFloat64(rateLimitedTotal.WithLabelValues("media.create")))
}
