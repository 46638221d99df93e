package service

import (
	"context"
	"database/sql"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/wedding-dispatch-api/internal/models"
)

// Write paths of the in-memory stores used by the admin services.

func (s *scheduleStoreStub) Create(ctx context.Context, exec sqlx.ExtContext, sched *models.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var max int64
	for id := range s.schedules {
		if id > max {
			max = id
		}
	}
	sched.ID = max + 1
	sched.CreatedAt = time.Now().UTC()
	s.schedules[sched.ID] = *sched
	return nil
}

func (s *scheduleStoreStub) Update(ctx context.Context, exec sqlx.ExtContext, sched *models.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[sched.ID]; !ok {
		return sql.ErrNoRows
	}
	s.schedules[sched.ID] = *sched
	return nil
}

func (s *scheduleStoreStub) Delete(ctx context.Context, exec sqlx.ExtContext, ids []int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := s.schedules[id]; ok {
			delete(s.schedules, id)
			n++
		}
	}
	return n, nil
}

func (s *scheduleStoreStub) DuplicateExists(ctx context.Context, sched *models.Schedule) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := duplicateKey(sched)
	for _, existing := range s.schedules {
		existing := existing
		if duplicateKey(&existing) == key {
			return true, nil
		}
	}
	return false, nil
}

func (s *scheduleStoreStub) ReferencesPhotographer(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sched := range s.schedules {
		if sched.HasPhotographer(name) {
			return true, nil
		}
	}
	return false, nil
}

func (s *scheduleStoreStub) RenamePhotographer(ctx context.Context, exec sqlx.ExtContext, oldName, newName string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, sched := range s.schedules {
		for _, slot := range []**string{&sched.MainName, &sched.SubName} {
			if *slot != nil && **slot == oldName {
				v := newName
				*slot = &v
				n++
			}
		}
		s.schedules[id] = sched
	}
	return n, nil
}

func (s *scheduleStoreStub) SetVenueAddress(ctx context.Context, exec sqlx.ExtContext, venue string, address *string) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for _, sched := range s.sorted() {
		if sched.Venue != venue || derefString(sched.VenueAddress) == derefString(address) {
			continue
		}
		v := *address
		sched.VenueAddress = &v
		s.schedules[sched.ID] = sched
		ids = append(ids, sched.ID)
	}
	return ids, nil
}

func (s *scheduleStoreStub) RenameVenue(ctx context.Context, exec sqlx.ExtContext, oldName, newName string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, sched := range s.schedules {
		if sched.Venue == oldName {
			sched.Venue = newName
			s.schedules[id] = sched
			n++
		}
	}
	return n, nil
}

func (s *checkinStoreStub) PhotoRefsForSchedules(ctx context.Context, exec sqlx.ExtContext, scheduleIDs []int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[int64]bool, len(scheduleIDs))
	for _, id := range scheduleIDs {
		wanted[id] = true
	}
	seen := map[string]bool{}
	var refs []string
	for _, c := range s.all() {
		if wanted[c.ScheduleID] && c.ArrivePhotoPath != nil && !seen[*c.ArrivePhotoPath] {
			seen[*c.ArrivePhotoPath] = true
			refs = append(refs, *c.ArrivePhotoPath)
		}
	}
	return refs, nil
}

func (s *checkinStoreStub) RenamePhotographer(ctx context.Context, exec sqlx.ExtContext, oldName, newName string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key, c := range s.rows {
		if c.PhotographerName == oldName {
			delete(s.rows, key)
			c.PhotographerName = newName
			s.rows[checkinKey{scheduleID: c.ScheduleID, name: newName}] = c
			n++
		}
	}
	return n, nil
}

func (s *checkinStoreStub) DeleteByPhotographer(ctx context.Context, exec sqlx.ExtContext, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key, c := range s.rows {
		if c.PhotographerName == name {
			delete(s.rows, key)
			n++
		}
	}
	return n, nil
}

func (s *checkinStoreStub) ListPhotos(ctx context.Context, start, end time.Time) ([]models.CheckinPhoto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CheckinPhoto
	for _, c := range s.all() {
		if c.ArrivePhotoPath == nil {
			continue
		}
		sched, err := s.schedule.FindByID(ctx, c.ScheduleID)
		if err != nil {
			continue
		}
		out = append(out, models.CheckinPhoto{
			CheckinID:        c.ID,
			ScheduleID:       c.ScheduleID,
			PhotographerName: c.PhotographerName,
			PhotoRef:         *c.ArrivePhotoPath,
			ArriveTime:       c.ArriveTime,
			WeddingDate:      sched.WeddingDate,
			Venue:            sched.Venue,
		})
	}
	return out, nil
}

func (s *checkinStoreStub) FindPhotoRef(ctx context.Context, checkinID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.rows {
		if c.ID == checkinID && c.ArrivePhotoPath != nil {
			return *c.ArrivePhotoPath, nil
		}
	}
	return "", sql.ErrNoRows
}

func (s *checkinStoreStub) ClearPhotoRefs(ctx context.Context, refs []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	drop := make(map[string]bool, len(refs))
	for _, ref := range refs {
		drop[ref] = true
	}
	var n int64
	for _, c := range s.rows {
		if c.ArrivePhotoPath != nil && drop[*c.ArrivePhotoPath] {
			c.ArrivePhotoPath = nil
			n++
		}
	}
	return n, nil
}

func (s *routeStoreStub) DeleteForSchedules(ctx context.Context, exec sqlx.ExtContext, scheduleIDs []int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[int64]bool, len(scheduleIDs))
	for _, id := range scheduleIDs {
		wanted[id] = true
	}
	var n int64
	for key := range s.rows {
		if wanted[key.scheduleID] {
			delete(s.rows, key)
			n++
		}
	}
	return n, nil
}

func (s *routeStoreStub) DeleteForPhotographer(ctx context.Context, exec sqlx.ExtContext, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key := range s.rows {
		if key.name == name {
			delete(s.rows, key)
			n++
		}
	}
	return n, nil
}

func (s *routeStoreStub) RenamePhotographer(ctx context.Context, exec sqlx.ExtContext, oldName, newName string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key, est := range s.rows {
		if key.name == oldName {
			delete(s.rows, key)
			est.PhotographerName = newName
			s.rows[checkinKey{scheduleID: key.scheduleID, name: newName}] = est
			n++
		}
	}
	return n, nil
}

func (s *routeStoreStub) has(scheduleID int64, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rows[checkinKey{scheduleID: scheduleID, name: name}]
	return ok
}

type hallStoreStub struct {
	halls map[string]*models.WeddingHall
}

func newHallStore(halls ...models.WeddingHall) *hallStoreStub {
	store := &hallStoreStub{halls: make(map[string]*models.WeddingHall)}
	for i := range halls {
		h := halls[i]
		store.halls[h.Name] = &h
	}
	return store
}

func (s *hallStoreStub) List(ctx context.Context) ([]models.WeddingHall, error) {
	out := make([]models.WeddingHall, 0, len(s.halls))
	for _, h := range s.halls {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *hallStoreStub) FindByID(ctx context.Context, id int64) (*models.WeddingHall, error) {
	for _, h := range s.halls {
		if h.ID == id {
			copied := *h
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *hallStoreStub) FindByName(ctx context.Context, name string) (*models.WeddingHall, error) {
	h, ok := s.halls[name]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *h
	return &copied, nil
}

func (s *hallStoreStub) Upsert(ctx context.Context, exec sqlx.ExtContext, hall *models.WeddingHall) error {
	if existing, ok := s.halls[hall.Name]; ok {
		existing.Address = hall.Address
		hall.ID = existing.ID
		return nil
	}
	hall.ID = int64(len(s.halls) + 1)
	copied := *hall
	s.halls[hall.Name] = &copied
	return nil
}

func (s *hallStoreStub) Update(ctx context.Context, exec sqlx.ExtContext, hall *models.WeddingHall) error {
	for name, h := range s.halls {
		if h.ID == hall.ID {
			delete(s.halls, name)
			copied := *hall
			s.halls[hall.Name] = &copied
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *hallStoreStub) Delete(ctx context.Context, id int64) error {
	for name, h := range s.halls {
		if h.ID == id {
			delete(s.halls, name)
			return nil
		}
	}
	return sql.ErrNoRows
}

type photographerRepoStub struct {
	byID   map[int64]*models.Photographer
	nextID int64
}

func newPhotographerRepo(seed ...models.Photographer) *photographerRepoStub {
	repo := &photographerRepoStub{byID: make(map[int64]*models.Photographer)}
	for i := range seed {
		p := seed[i]
		repo.nextID++
		if p.ID == 0 {
			p.ID = repo.nextID
		}
		repo.byID[p.ID] = &p
	}
	return repo
}

func (r *photographerRepoStub) List(ctx context.Context) ([]models.Photographer, error) {
	out := make([]models.Photographer, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *photographerRepoStub) FindByID(ctx context.Context, id int64) (*models.Photographer, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *p
	return &copied, nil
}

func (r *photographerRepoStub) FindByName(ctx context.Context, name string) (*models.Photographer, error) {
	for _, p := range r.byID {
		if p.Name == name {
			copied := *p
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *photographerRepoStub) UsernameExists(ctx context.Context, username string) (bool, error) {
	for _, p := range r.byID {
		if strings.EqualFold(p.Username, username) {
			return true, nil
		}
	}
	return false, nil
}

func (r *photographerRepoStub) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	for _, p := range r.byID {
		if p.Name == name && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *photographerRepoStub) Create(ctx context.Context, exec sqlx.ExtContext, p *models.Photographer) error {
	r.nextID++
	p.ID = r.nextID
	copied := *p
	r.byID[p.ID] = &copied
	return nil
}

func (r *photographerRepoStub) Update(ctx context.Context, exec sqlx.ExtContext, p *models.Photographer) error {
	existing, ok := r.byID[p.ID]
	if !ok {
		return sql.ErrNoRows
	}
	copied := *p
	copied.PasswordHash = existing.PasswordHash
	r.byID[p.ID] = &copied
	return nil
}

func (r *photographerRepoStub) UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error {
	if p, ok := r.byID[id]; ok {
		p.PasswordHash = passwordHash
	}
	return nil
}

func (r *photographerRepoStub) Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.byID, id)
	return nil
}

type fileStoreStub struct {
	saved      map[string][]byte
	deleted    []string
	expired    []string
	cleanupErr error
	dir        string
}

func newFileStore() *fileStoreStub {
	return &fileStoreStub{saved: make(map[string][]byte)}
}

func (f *fileStoreStub) SavePhoto(prefix, originalName string, data []byte) (string, error) {
	ref := prefix + "_" + originalName
	f.saved[ref] = data
	return ref, nil
}

func (f *fileStoreStub) Open(ref string) (*os.File, error) {
	if _, ok := f.saved[ref]; !ok || f.dir == "" {
		return nil, os.ErrNotExist
	}
	path := f.dir + "/" + ref
	if err := os.WriteFile(path, f.saved[ref], 0o644); err != nil {
		return nil, err
	}
	return os.Open(path)
}

func (f *fileStoreStub) Delete(ref string) error {
	f.deleted = append(f.deleted, ref)
	delete(f.saved, ref)
	return nil
}

func (f *fileStoreStub) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	return f.expired, f.cleanupErr
}
