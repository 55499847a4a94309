package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveStageDuration(StageSanitize, 150*time.Millisecond)
	pr.IncStageResult(StageSanitize, ResultSuccess)
	pr.IncStageResult(StageRender, ResultFailed)
	pr.ObservePipelineDuration(2 * time.Second)
	pr.IncPipelineOutcome(ResultFailed)
	pr.ObserveCloneDuration(time.Second, true)
	pr.AddRemovedPaths(3)
	pr.AddRemovedPaths(0)
	pr.IncEventPublished("notification_requested")
	pr.IncEventDropped("notification_requested")
	pr.IncEventDropped("notification_requested")
	pr.IncEventHandled("docs_generation_requested", ResultSuccess)
	pr.SetQueueDepth(7)

	assert.InDelta(t, 1, testutil.ToFloat64(pr.stageResults.WithLabelValues(StageRender, string(ResultFailed))), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(pr.removedPaths), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(pr.eventsDropped.WithLabelValues("notification_requested")), 0)
	assert.InDelta(t, 7, testutil.ToFloat64(pr.queueDepth), 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestPrometheusRecorder_HTTPHandler(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncEventPublished("notification_requested")

	srv := httptest.NewServer(pr.HTTPHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "codelens_events_published_total")
}

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration(StageMaterialize, time.Second)
	r.IncEventDropped("x")
	r.SetQueueDepth(1)
}
