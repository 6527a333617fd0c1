package handlers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nijaru/yt-channel-text/archive"
	"github.com/nijaru/yt-channel-text/db"
	apperrors "github.com/nijaru/yt-channel-text/errors"
	"github.com/nijaru/yt-channel-text/jobs"
	"github.com/nijaru/yt-channel-text/middleware"
	"github.com/nijaru/yt-channel-text/models"
	"github.com/nijaru/yt-channel-text/transcription"
	"github.com/nijaru/yt-channel-text/youtube"
)

type stubFinder struct {
	videos []youtube.VideoRef
}

func (f *stubFinder) Find(_ context.Context, query string, _ youtube.DurationFilter, _ youtube.FindProgress) ([]youtube.VideoRef, error) {
	if query == "xyz-nonexistent-123" {
		return nil, apperrors.ChannelNotFound("stub", query)
	}
	return f.videos, nil
}

type stubUploader struct {
	name string
	size int
}

func (u *stubUploader) UploadArchive(_ context.Context, name string, data []byte) (string, error) {
	u.name, u.size = name, len(data)
	return "transcripts/" + name, nil
}

type testServer struct {
	router   http.Handler
	uploader *stubUploader
}

func newTestServer(t *testing.T, start bool, limiter *middleware.RateLimiter) *testServer {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	store, err := db.Open(fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	fetcher := transcription.FetcherFunc(func(_ context.Context, videoID string, _ []string) (*transcription.Transcript, error) {
		if strings.HasPrefix(videoID, "nocap") {
			return nil, apperrors.NoTranscriptAvailable("stub", videoID, nil)
		}
		return &transcription.Transcript{VideoID: videoID, Language: "pt", Segments: []transcription.Segment{{Text: "fala de " + videoID}}}, nil
	})
	finder := &stubFinder{videos: []youtube.VideoRef{{ID: "chvid1", Title: "Primeiro"}, {ID: "nocap2"}, {ID: "chvid3"}}}

	runner := jobs.NewRunner(store, finder, transcription.NewService(fetcher, nil, transcription.Config{}), jobs.Config{Workers: 1})
	if start {
		runner.Start()
		t.Cleanup(runner.Close)
	}

	uploader := &stubUploader{}
	h := New(runner, archive.NewBuilder(archive.Template{}), uploader, store)
	return &testServer{router: h.Router(limiter), uploader: uploader}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) submit(t *testing.T, path, body string) models.Job {
	t.Helper()
	rr := s.do(t, http.MethodPost, path, body)
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	var job models.Job
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &job))
	require.NotEmpty(t, job.ID)
	return job
}

func (s *testServer) waitFinished(t *testing.T, id string) models.Job {
	t.Helper()
	var job models.Job
	require.Eventually(t, func() bool {
		rr := s.do(t, http.MethodGet, "/api/jobs/"+id, "")
		if rr.Code != http.StatusOK {
			return false
		}
		job = models.Job{}
		if err := json.Unmarshal(rr.Body.Bytes(), &job); err != nil {
			return false
		}
		return job.Status == models.StatusCompleted || job.Status == models.StatusFailed
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

func TestVideoJobDocument(t *testing.T) {
	srv := newTestServer(t, true, nil)

	job := srv.submit(t, "/api/video", `{"url":"https://youtu.be/vid001"}`)
	assert.Equal(t, models.JobKindVideo, job.Kind)

	done := srv.waitFinished(t, job.ID)
	assert.Equal(t, models.StatusCompleted, done.Status)
	require.Len(t, done.Results, 1)
	assert.Equal(t, "vid001", done.Results[0].VideoID)
	assert.True(t, done.Results[0].OK)

	rr := srv.do(t, http.MethodGet, "/api/jobs/"+job.ID+"/document", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `attachment; filename="transcricao_vid001.txt"`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "Vídeo: https://www.youtube.com/watch?v=vid001\nURL: https://www.youtube.com/watch?v=vid001\n\nfala de vid001", rr.Body.String())
}

func TestChannelJobManifestAndArchive(t *testing.T) {
	srv := newTestServer(t, true, nil)

	job := srv.submit(t, "/api/channel", `{"channel":"@canal","filter":"long"}`)
	assert.Equal(t, "longer:3600", job.Filter)

	done := srv.waitFinished(t, job.ID)
	assert.Equal(t, models.StatusCompleted, done.Status)
	assert.Equal(t, 3, done.Total)
	require.Len(t, done.Results, 3)
	assert.Equal(t, "Primeiro", done.Results[0].Title)
	assert.False(t, done.Results[1].OK)
	assert.NotEmpty(t, done.Results[1].Error)

	rr := srv.do(t, http.MethodGet, "/api/jobs/"+job.ID+"/document", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), archive.DocumentName)
	assert.Len(t, strings.Split(rr.Body.String(), archive.DefaultSeparator), 2)

	rr = srv.do(t, http.MethodGet, "/api/jobs/"+job.ID+"/archive", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/zip", rr.Header().Get("Content-Type"))

	zr, err := zip.NewReader(bytes.NewReader(rr.Body.Bytes()), int64(rr.Body.Len()))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"transcricao_chvid1.txt", "transcricao_chvid3.txt"}, names)

	rr = srv.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/upload", "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, job.ID+"/"+archive.ArchiveName, srv.uploader.name)
	assert.Contains(t, rr.Body.String(), "transcripts/"+job.ID)
}

func TestChannelNotFoundFailsJob(t *testing.T) {
	srv := newTestServer(t, true, nil)

	job := srv.submit(t, "/api/channel", `{"channel":"xyz-nonexistent-123"}`)
	done := srv.waitFinished(t, job.ID)
	assert.Equal(t, models.StatusFailed, done.Status)
	assert.Contains(t, done.Error, "channel not found")

	rr := srv.do(t, http.MethodGet, "/api/jobs/"+job.ID+"/archive", "")
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestSubmitErrors(t *testing.T) {
	srv := newTestServer(t, false, nil)

	tests := []struct {
		name     string
		path     string
		body     string
		wantCode int
		wantKind apperrors.Kind
	}{
		{"invalid url", "/api/video", `{"url":"not a url"}`, http.StatusBadRequest, apperrors.KindInvalidURL},
		{"empty url", "/api/video", `{"url":""}`, http.StatusBadRequest, apperrors.KindInvalidInput},
		{"bad json", "/api/video", `{`, http.StatusBadRequest, apperrors.KindInvalidInput},
		{"bad filter", "/api/channel", `{"channel":"@canal","filter":"medium"}`, http.StatusBadRequest, apperrors.KindInvalidInput},
		{"blank channel", "/api/channel", `{"channel":"  "}`, http.StatusBadRequest, apperrors.KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := srv.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, rr.Code)

			var body apperrors.Error
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.wantKind, body.Kind)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestJobLookupErrors(t *testing.T) {
	srv := newTestServer(t, false, nil)

	rr := srv.do(t, http.MethodGet, "/api/jobs/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	job := srv.submit(t, "/api/video", `{"url":"https://youtu.be/queued1"}`)
	rr = srv.do(t, http.MethodGet, "/api/jobs/"+job.ID+"/document", "")
	assert.Equal(t, http.StatusConflict, rr.Code, "queued jobs have nothing to export")

	rr = srv.do(t, http.MethodDelete, "/api/jobs/"+job.ID, "")
	assert.Equal(t, http.StatusConflict, rr.Code, "queued jobs are not running")

	rr = srv.do(t, http.MethodGet, "/api/jobs?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = srv.do(t, http.MethodGet, "/api/jobs", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list []models.Job
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rr = srv.do(t, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = srv.do(t, http.MethodPut, "/api/video", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestUploadNotConfigured(t *testing.T) {
	store, err := db.Open("file:handlers_upload?mode=memory&cache=shared")
	require.NoError(t, err)
	defer store.Close()

	runner := jobs.NewRunner(store, nil, transcription.NewService(nil, nil, transcription.Config{}), jobs.Config{})
	router := New(runner, archive.NewBuilder(archive.Template{}), nil, store).Router(nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/jobs/any/upload", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, false, middleware.NewRateLimiter(time.Hour, 1))

	rr := srv.do(t, http.MethodPost, "/api/video", `{"url":"https://youtu.be/rate001"}`)
	assert.Equal(t, http.StatusAccepted, rr.Code)

	rr = srv.do(t, http.MethodPost, "/api/video", `{"url":"https://youtu.be/rate002"}`)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	rr = srv.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code, "reads are not rate limited")
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, false, nil)

	rr := srv.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
}
