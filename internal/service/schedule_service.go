package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/wedding-dispatch-api/internal/dto"
	"github.com/noah-isme/wedding-dispatch-api/internal/models"
	"github.com/noah-isme/wedding-dispatch-api/pkg/database"
	appErrors "github.com/noah-isme/wedding-dispatch-api/pkg/errors"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, error)
	FindByID(ctx context.Context, id int64) (*models.Schedule, error)
	Create(ctx context.Context, exec sqlx.ExtContext, s *models.Schedule) error
	Update(ctx context.Context, exec sqlx.ExtContext, s *models.Schedule) error
	Delete(ctx context.Context, exec sqlx.ExtContext, ids []int64) (int64, error)
	DuplicateExists(ctx context.Context, s *models.Schedule) (bool, error)
}

type hallLookup interface {
	FindByName(ctx context.Context, name string) (*models.WeddingHall, error)
	Upsert(ctx context.Context, exec sqlx.ExtContext, hall *models.WeddingHall) error
}

type scheduleRouteInvalidator interface {
	DeleteForSchedules(ctx context.Context, exec sqlx.ExtContext, scheduleIDs []int64) (int64, error)
}

type schedulePhotoIndex interface {
	PhotoRefsForSchedules(ctx context.Context, exec sqlx.ExtContext, scheduleIDs []int64) ([]string, error)
}

type photoRemover interface {
	Delete(ref string) error
}

// photographerEnsurer creates a roster entry for a name seen on an import.
type photographerEnsurer interface {
	EnsureByName(ctx context.Context, exec sqlx.ExtContext, name string) (bool, error)
}

// ScheduleService manages wedding schedules for administrators.
type ScheduleService struct {
	repo      scheduleRepository
	halls     hallLookup
	routes    scheduleRouteInvalidator
	photos    schedulePhotoIndex
	files     photoRemover
	roster    photographerEnsurer
	tx        database.TxBeginner
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(repo scheduleRepository, halls hallLookup, routes scheduleRouteInvalidator, photos schedulePhotoIndex, files photoRemover, roster photographerEnsurer, tx database.TxBeginner, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		repo:      repo,
		halls:     halls,
		routes:    routes,
		photos:    photos,
		files:     files,
		roster:    roster,
		tx:        tx,
		validator: validate,
		logger:    logger,
	}
}

// List returns schedules matching filter.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}
	schedules, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list schedules")
	}
	return schedules, nil
}

// Get returns one schedule.
func (s *ScheduleService) Get(ctx context.Context, id int64) (*models.Schedule, error) {
	sched, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Internal(err, "failed to load schedule")
	}
	return sched, nil
}

// Create validates and stores a new schedule, deriving blank times and
// filling the venue address from the hall directory.
func (s *ScheduleService) Create(ctx context.Context, req dto.ScheduleRequest) (*models.Schedule, error) {
	sched, err := s.build(req)
	if err != nil {
		return nil, err
	}
	err = database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.resolveVenue(ctx, tx, sched); err != nil {
			return err
		}
		return s.repo.Create(ctx, tx, sched)
	})
	if err != nil {
		return nil, translateError(err, "failed to create schedule")
	}
	return sched, nil
}

// Update replaces a schedule. Stored route estimates are dropped when the
// venue address changes.
func (s *ScheduleService) Update(ctx context.Context, id int64, req dto.ScheduleRequest) (*models.Schedule, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sched, err := s.build(req)
	if err != nil {
		return nil, err
	}
	sched.ID = existing.ID
	sched.CreatedAt = existing.CreatedAt

	err = database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.resolveVenue(ctx, tx, sched); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, tx, sched); err != nil {
			return err
		}
		if existing.Address() == sched.Address() {
			return nil
		}
		cleared, err := s.routes.DeleteForSchedules(ctx, tx, []int64{sched.ID})
		if err != nil {
			return err
		}
		s.logger.Debug("route estimates invalidated", zap.Int64("schedule_id", sched.ID), zap.Int64("cleared", cleared))
		return nil
	})
	if err != nil {
		return nil, translateError(err, "failed to update schedule")
	}
	return sched, nil
}

// Delete removes one schedule with its checkins, estimates and photo files.
func (s *ScheduleService) Delete(ctx context.Context, id int64) error {
	n, err := s.BulkDelete(ctx, dto.BulkDeleteRequest{ScheduleIDs: []int64{id}})
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
	}
	return nil
}

// BulkDelete removes the given schedules and returns how many existed.
// Photo files are removed after the rows are gone; file errors are logged.
func (s *ScheduleService) BulkDelete(ctx context.Context, req dto.BulkDeleteRequest) (int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid delete payload")
	}

	var (
		refs    []string
		deleted int64
	)
	err := database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		var err error
		if refs, err = s.photos.PhotoRefsForSchedules(ctx, tx, req.ScheduleIDs); err != nil {
			return err
		}
		deleted, err = s.repo.Delete(ctx, tx, req.ScheduleIDs)
		return err
	})
	if err != nil {
		return 0, appErrors.Internal(err, "failed to delete schedules")
	}

	for _, ref := range refs {
		if err := s.files.Delete(ref); err != nil {
			s.logger.Warn("failed to remove arrival photo", zap.String("ref", ref), zap.Error(err))
		}
	}
	return deleted, nil
}

// Import stores normalised spreadsheet rows. Rows identical on date, time,
// venue, couple and crew to a stored or earlier row are skipped; unknown
// photographer names are added to the roster.
func (s *ScheduleService) Import(ctx context.Context, req dto.ScheduleImportRequest) (dto.ImportResult, error) {
	var result dto.ImportResult
	if err := s.validator.Struct(req); err != nil {
		return result, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid import payload")
	}

	seen := make(map[string]struct{}, len(req.Rows))
	for i, row := range req.Rows {
		sched, err := s.build(importRowRequest(row))
		if err != nil {
			return result, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("row %d: %s", i+1, appErrors.FromError(err).Message))
		}

		key := duplicateKey(sched)
		if _, ok := seen[key]; ok {
			result.Skipped++
			continue
		}
		seen[key] = struct{}{}

		dup, err := s.repo.DuplicateExists(ctx, sched)
		if err != nil {
			return result, appErrors.Internal(err, "failed to check duplicate schedule")
		}
		if dup {
			result.Skipped++
			continue
		}

		created := 0
		err = database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
			created = 0
			for _, slot := range sched.Assignments() {
				ok, err := s.roster.EnsureByName(ctx, tx, slot.Name)
				if err != nil {
					return err
				}
				if ok {
					created++
				}
			}
			if err := s.resolveVenue(ctx, tx, sched); err != nil {
				return err
			}
			return s.repo.Create(ctx, tx, sched)
		})
		if err != nil {
			return result, translateError(err, fmt.Sprintf("failed to import row %d", i+1))
		}
		result.Inserted++
		result.PhotographersCreated += created
	}

	s.logger.Info("schedules imported",
		zap.Int("inserted", result.Inserted),
		zap.Int("skipped", result.Skipped),
		zap.Int("photographers_created", result.PhotographersCreated),
	)
	return result, nil
}

func (s *ScheduleService) build(req dto.ScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	date, err := time.Parse("2006-01-02", req.WeddingDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "wedding_date must be YYYY-MM-DD")
	}

	sched := &models.Schedule{
		WeddingDate:          date,
		Venue:                strings.TrimSpace(req.Venue),
		VenueAddress:         models.StringPtr(req.VenueAddress),
		Couple:               models.StringPtr(req.Couple),
		TravelMinutesDefault: req.TravelMinutesDefault,
		MainName:             models.StringPtr(req.MainName),
		SubName:              models.StringPtr(req.SubName),
	}
	if sched.Venue == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "venue is required")
	}
	for _, field := range []struct {
		name string
		raw  string
		dst  **models.TimeOfDay
	}{
		{"wedding_time", req.WeddingTime, &sched.WeddingTime},
		{"shoot_start_time", req.ShootStartTime, &sched.ShootStartTime},
		{"arrival_target_time", req.ArrivalTargetTime, &sched.ArrivalTargetTime},
	} {
		parsed, err := models.ParseOptionalTimeOfDay(field.raw)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, field.name+" must be HH:MM")
		}
		*field.dst = parsed
	}
	if sched.MainName != nil && sched.SubName != nil && *sched.MainName == *sched.SubName {
		return nil, appErrors.Clone(appErrors.ErrValidation, "main and sub photographer must differ")
	}
	sched.DeriveTimes()
	return sched, nil
}

// resolveVenue fills a blank venue address from the hall directory, or
// registers the typed address when the hall has none.
func (s *ScheduleService) resolveVenue(ctx context.Context, exec sqlx.ExtContext, sched *models.Schedule) error {
	hall, err := s.halls.FindByName(ctx, sched.Venue)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	hallAddress := ""
	if hall != nil && hall.Address != nil {
		hallAddress = strings.TrimSpace(*hall.Address)
	}

	if sched.Address() == "" {
		if hallAddress != "" {
			sched.VenueAddress = &hallAddress
		}
		return nil
	}
	if hallAddress != "" {
		return nil
	}
	return s.halls.Upsert(ctx, exec, &models.WeddingHall{Name: sched.Venue, Address: sched.VenueAddress})
}

func importRowRequest(row dto.ScheduleImportRow) dto.ScheduleRequest {
	return dto.ScheduleRequest{
		WeddingDate:       row.WeddingDate,
		WeddingTime:       row.WeddingTime,
		ShootStartTime:    row.ShootStartTime,
		ArrivalTargetTime: row.ArrivalTargetTime,
		Venue:             row.Venue,
		VenueAddress:      row.VenueAddress,
		Couple:            row.Couple,
		MainName:          row.MainName,
		SubName:           row.SubName,
	}
}

func duplicateKey(s *models.Schedule) string {
	wedding := ""
	if s.WeddingTime != nil {
		wedding = s.WeddingTime.String()
	}
	parts := []string{
		s.WeddingDate.Format("2006-01-02"),
		wedding,
		s.Venue,
		derefString(s.Couple),
		derefString(s.MainName),
		derefString(s.SubName),
	}
	return strings.Join(parts, "\x1f")
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// translateError keeps typed errors raised inside a transaction and wraps
// anything else as internal.
func translateError(err error, message string) error {
	var typed *appErrors.Error
	if errors.As(err, &typed) {
		return typed
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "record not found")
	}
	return appErrors.Internal(err, message)
}
