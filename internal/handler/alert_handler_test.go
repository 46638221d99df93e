package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wedding-dispatch-api/internal/dto"
	"github.com/noah-isme/wedding-dispatch-api/internal/service"
	"github.com/noah-isme/wedding-dispatch-api/pkg/clock"
	appErrors "github.com/noah-isme/wedding-dispatch-api/pkg/errors"
)

type alertServiceMock struct {
	lastQuery dto.AlertQuery
	feed      dto.AlertFeed
	keepalive dto.KeepaliveStatus
	err       error
}

func (m *alertServiceMock) Board(ctx context.Context, q dto.AlertQuery) (dto.AlertBoard, error) {
	m.lastQuery = q
	return dto.AlertBoard{From: "2026-05-02", To: "2026-05-09", Only: q.OnlyOverdue}, m.err
}

func (m *alertServiceMock) Feed(ctx context.Context) (dto.AlertFeed, error) {
	return m.feed, m.err
}

func (m *alertServiceMock) Keepalive(ctx context.Context) (dto.KeepaliveStatus, error) {
	return m.keepalive, m.err
}

type exporterMock struct {
	format string
}

func (m *exporterMock) Export(ctx context.Context, q dto.AlertQuery, format string) (service.ExportFile, error) {
	m.format = format
	if format == "xls" {
		return service.ExportFile{}, appErrors.Clone(appErrors.ErrValidation, "unsupported format")
	}
	return service.ExportFile{Name: "alerts_2026-05-02_2026-05-09.csv", ContentType: "text/csv; charset=utf-8", Data: []byte("a,b\n")}, nil
}

func TestAlertBoardParsesQuery(t *testing.T) {
	alerts := &alertServiceMock{}
	h := NewAlertHandler(alerts, &exporterMock{})

	c, rec := newContext(http.MethodGet, "/admin/alerts?only=1&from=2026-05-02&to=2026-05-04", nil, nil)
	h.Board(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, alerts.lastQuery.OnlyOverdue)
	require.NotNil(t, alerts.lastQuery.From)
	assert.Equal(t, "2026-05-02", alerts.lastQuery.From.Format(dateLayout))
	assert.Equal(t, "2026-05-04", alerts.lastQuery.To.Format(dateLayout))

	c, rec = newContext(http.MethodGet, "/admin/alerts", nil, nil)
	h.Board(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, alerts.lastQuery.OnlyOverdue)
	assert.Nil(t, alerts.lastQuery.From)
}

func TestAlertBoardRejectsBadDate(t *testing.T) {
	h := NewAlertHandler(&alertServiceMock{}, &exporterMock{})

	c, rec := newContext(http.MethodGet, "/admin/alerts?from=05/02/2026", nil, nil)
	h.Board(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAlertFeedIsBare(t *testing.T) {
	alerts := &alertServiceMock{feed: dto.AlertFeed{OK: true, Count: 1, Alerts: []dto.AlertFeedItem{{Key: "7:Kim:main", WakeOverdue: true}}}}
	h := NewAlertHandler(alerts, &exporterMock{})

	c, rec := newContext(http.MethodGet, "/admin/alerts/feed", nil, nil)
	h.Feed(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var feed dto.AlertFeed
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	assert.True(t, feed.OK)
	require.Len(t, feed.Alerts, 1)
	assert.Equal(t, "7:Kim:main", feed.Alerts[0].Key)
}

func TestAlertFeedError(t *testing.T) {
	h := NewAlertHandler(&alertServiceMock{err: appErrors.Internal(assert.AnError, "failed")}, &exporterMock{})

	c, rec := newContext(http.MethodGet, "/admin/alerts/feed", nil, nil)
	h.Feed(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAlertExportSendsAttachment(t *testing.T) {
	exporter := &exporterMock{}
	h := NewAlertHandler(&alertServiceMock{}, exporter)

	c, rec := newContext(http.MethodGet, "/admin/alerts/export?format=csv", nil, nil)
	h.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", exporter.format)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "alerts_2026-05-02_2026-05-09.csv")
	assert.Equal(t, "a,b\n", rec.Body.String())

	c, rec = newContext(http.MethodGet, "/admin/alerts/export?format=xls", nil, nil)
	h.Export(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestKeepalive(t *testing.T) {
	h := NewAlertHandler(&alertServiceMock{keepalive: dto.KeepaliveStatus{Keepalive: true, InWindow: true, HasWedding: true, Today: "2026-05-02"}}, &exporterMock{})

	c, rec := newContext(http.MethodGet, "/api/keepalive_needed", nil, nil)
	h.Keepalive(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var status dto.KeepaliveStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Keepalive)
	assert.Equal(t, "2026-05-02", status.Today)
}

type photoBoardMock struct {
	start, end time.Time
	path       string
	openErr    error
}

func (m *photoBoardMock) List(ctx context.Context, start, end time.Time) ([]dto.PhotoItem, error) {
	m.start, m.end = start, end
	return []dto.PhotoItem{{URL: "/photos/abc"}}, nil
}

func (m *photoBoardMock) Open(ctx context.Context, token string) (*os.File, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	return os.Open(m.path)
}

func TestPhotoListDefaultsWindow(t *testing.T) {
	kst := time.FixedZone("KST", 9*3600)
	photos := &photoBoardMock{}
	h := NewPhotoHandler(photos, clock.NewManual(time.Date(2026, 5, 2, 9, 30, 0, 0, kst)), 7)

	c, rec := newContext(http.MethodGet, "/admin/photos", nil, nil)
	h.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-05-01", photos.start.Format(dateLayout))
	assert.Equal(t, "2026-05-09", photos.end.Format(dateLayout))
	env := decodeEnvelope(t, rec, nil)
	assert.Equal(t, float64(1), env.Meta["count"])
}

func TestPhotoServeStreamsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Kim_a.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg-bytes"), 0o600))
	h := NewPhotoHandler(&photoBoardMock{path: path}, clock.NewManual(time.Now()), 7)

	c, rec := newContext(http.MethodGet, "/photos/tok", nil, nil)
	c.Params = gin.Params{{Key: "token", Value: "tok"}}
	h.Serve(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jpeg-bytes", rec.Body.String())
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
}

func TestPhotoServeExpiredLink(t *testing.T) {
	h := NewPhotoHandler(&photoBoardMock{openErr: appErrors.ErrLinkExpired}, clock.NewManual(time.Now()), 7)

	c, rec := newContext(http.MethodGet, "/photos/tok", nil, nil)
	h.Serve(c)

	assert.Equal(t, http.StatusGone, rec.Code)
}
