package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wedding-dispatch-api/internal/models"
	appErrors "github.com/noah-isme/wedding-dispatch-api/pkg/errors"
	"github.com/noah-isme/wedding-dispatch-api/pkg/jobs"
	"github.com/noah-isme/wedding-dispatch-api/pkg/storage"
)

type queueStub struct {
	tasks []jobs.Task
}

func (q *queueStub) Enqueue(task jobs.Task) error {
	q.tasks = append(q.tasks, task)
	return nil
}

func newPhotoFixture(t *testing.T) (*PhotoService, *checkinStoreStub, *fileStoreStub) {
	schedules := newScheduleStore(models.Schedule{ID: 1, WeddingDate: day(2026, 5, 2), Venue: "Grand Hall", MainName: strPtr("Kim")})
	checkins := newCheckinStore(schedules)
	files := newFileStore()
	files.dir = t.TempDir()
	svc := NewPhotoService(checkins, files, storage.NewPhotoLinkSigner("secret", time.Hour), nil, nil, nil, PhotoServiceConfig{TTL: time.Hour})
	return svc, checkins, files
}

func TestPhotoListSignsLinksThatOpen(t *testing.T) {
	svc, checkins, files := newPhotoFixture(t)
	ref, err := svc.Save("Kim", "arrive.jpg", []byte("jpeg-bytes"))
	require.NoError(t, err)
	arrive := at(10, 40)
	checkins.rows[checkinKey{scheduleID: 1, name: "Kim"}] = &models.Checkin{ID: 7, ScheduleID: 1, PhotographerName: "Kim", ArriveTime: &arrive, ArrivePhotoPath: &ref}

	items, err := svc.List(context.Background(), day(2026, 5, 1), day(2026, 5, 3))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(7), items[0].CheckinID)
	require.True(t, strings.HasPrefix(items[0].URL, "/photos/"))

	file, err := svc.Open(context.Background(), strings.TrimPrefix(items[0].URL, "/photos/"))
	require.NoError(t, err)
	defer file.Close()
	body, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(body))

	replaced := "Kim_other.jpg"
	files.saved[replaced] = []byte("x")
	checkins.rows[checkinKey{scheduleID: 1, name: "Kim"}].ArrivePhotoPath = &replaced
	_, err = svc.Open(context.Background(), strings.TrimPrefix(items[0].URL, "/photos/"))
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestPhotoOpenRejectsTamperedToken(t *testing.T) {
	svc, _, _ := newPhotoFixture(t)

	_, err := svc.Open(context.Background(), "1.2.3.4")
	assert.Error(t, err)
}

func TestPhotoCleanupClearsReferences(t *testing.T) {
	svc, checkins, files := newPhotoFixture(t)
	old, kept := "Kim_old.jpg", "Kim_new.jpg"
	checkins.rows[checkinKey{scheduleID: 1, name: "Kim"}] = &models.Checkin{ID: 1, ScheduleID: 1, PhotographerName: "Kim", ArrivePhotoPath: &old}
	checkins.rows[checkinKey{scheduleID: 2, name: "Kim"}] = &models.Checkin{ID: 2, ScheduleID: 2, PhotographerName: "Kim", ArrivePhotoPath: &kept}
	files.expired = []string{old}

	n, err := svc.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Nil(t, checkins.get(1, "Kim").ArrivePhotoPath)
	assert.Equal(t, kept, *checkins.get(2, "Kim").ArrivePhotoPath)

	files.expired = nil
	files.cleanupErr = errors.New("permission denied")
	_, err = svc.Cleanup(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestPhotoDeleteGoesThroughQueue(t *testing.T) {
	queue := &queueStub{}
	files := newFileStore()
	svc := NewPhotoService(nil, files, nil, queue, nil, nil, PhotoServiceConfig{})

	require.NoError(t, svc.Delete("Kim_a.jpg"))
	require.NoError(t, svc.Delete(""))
	require.Len(t, queue.tasks, 1)
	assert.Empty(t, files.deleted)

	require.NoError(t, svc.HandleTask(context.Background(), queue.tasks[0]))
	assert.Equal(t, []string{"Kim_a.jpg"}, files.deleted)
}
