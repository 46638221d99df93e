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

type photographerRepository interface {
	List(ctx context.Context) ([]models.Photographer, error)
	FindByID(ctx context.Context, id int64) (*models.Photographer, error)
	FindByName(ctx context.Context, name string) (*models.Photographer, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	NameExists(ctx context.Context, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, exec sqlx.ExtContext, p *models.Photographer) error
	Update(ctx context.Context, exec sqlx.ExtContext, p *models.Photographer) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error
}

type photographerScheduleRefs interface {
	ReferencesPhotographer(ctx context.Context, name string) (bool, error)
	RenamePhotographer(ctx context.Context, exec sqlx.ExtContext, oldName, newName string) (int64, error)
}

type photographerCheckins interface {
	RenamePhotographer(ctx context.Context, exec sqlx.ExtContext, oldName, newName string) (int64, error)
	DeleteByPhotographer(ctx context.Context, exec sqlx.ExtContext, name string) (int64, error)
}

type photographerRoutes interface {
	RenamePhotographer(ctx context.Context, exec sqlx.ExtContext, oldName, newName string) (int64, error)
	DeleteForPhotographer(ctx context.Context, exec sqlx.ExtContext, name string) (int64, error)
}

// PhotographerServiceConfig holds roster defaults.
type PhotographerServiceConfig struct {
	DefaultPassword string
}

// PhotographerService manages the photographer roster. Schedules, checkins
// and route estimates refer to photographers by name, so renames and deletes
// touch all of them in one transaction.
type PhotographerService struct {
	repo      photographerRepository
	schedules photographerScheduleRefs
	checkins  photographerCheckins
	routes    photographerRoutes
	tx        database.TxBeginner
	validator *validator.Validate
	logger    *zap.Logger
	cfg       PhotographerServiceConfig
}

// NewPhotographerService constructs the roster service.
func NewPhotographerService(repo photographerRepository, schedules photographerScheduleRefs, checkins photographerCheckins, routes photographerRoutes, tx database.TxBeginner, validate *validator.Validate, logger *zap.Logger, cfg PhotographerServiceConfig) *PhotographerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultPassword == "" {
		cfg.DefaultPassword = "1234"
	}
	return &PhotographerService{
		repo:      repo,
		schedules: schedules,
		checkins:  checkins,
		routes:    routes,
		tx:        tx,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// List returns the roster ordered by name.
func (s *PhotographerService) List(ctx context.Context) ([]models.Photographer, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list photographers")
	}
	return out, nil
}

// Get returns one photographer.
func (s *PhotographerService) Get(ctx context.Context, id int64) (*models.Photographer, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "photographer not found")
		}
		return nil, appErrors.Internal(err, "failed to load photographer")
	}
	return p, nil
}

// Create adds a photographer. The username is the name, suffixed with a
// number when taken; a blank password falls back to the default.
func (s *PhotographerService) Create(ctx context.Context, req dto.PhotographerRequest) (*models.Photographer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid photographer payload")
	}
	p := &models.Photographer{}
	if err := applyProfile(p, req); err != nil {
		return nil, err
	}

	taken, err := s.repo.NameExists(ctx, p.Name, 0)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check photographer name")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "photographer name already exists")
	}

	password := req.Password
	if password == "" {
		password = s.cfg.DefaultPassword
	}
	if err := s.create(ctx, nil, p, password); err != nil {
		return nil, err
	}
	return p, nil
}

// EnsureByName adds a bare roster entry for name unless one exists. It
// reports whether a photographer was created.
func (s *PhotographerService) EnsureByName(ctx context.Context, exec sqlx.ExtContext, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, nil
	}
	_, err := s.repo.FindByName(ctx, name)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}
	p := &models.Photographer{Name: name, Status: models.PhotographerActive}
	if err := s.create(ctx, exec, p, s.cfg.DefaultPassword); err != nil {
		return false, err
	}
	return true, nil
}

// Update edits a photographer. A rename is carried over to schedules,
// checkins and route estimates; an address change drops that photographer's
// stored estimates.
func (s *PhotographerService) Update(ctx context.Context, id int64, req dto.PhotographerRequest) (*models.Photographer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid photographer payload")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := *existing
	if err := applyProfile(&updated, req); err != nil {
		return nil, err
	}

	oldName, newName := existing.Name, updated.Name
	if oldName != newName {
		taken, err := s.repo.NameExists(ctx, newName, id)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to check photographer name")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "photographer name already exists")
		}
	}

	err = database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.repo.Update(ctx, tx, &updated); err != nil {
			return err
		}
		if oldName != newName {
			if err := s.rename(ctx, tx, oldName, newName); err != nil {
				return err
			}
		}
		if existing.AddressValue() != updated.AddressValue() {
			if _, err := s.routes.DeleteForPhotographer(ctx, tx, newName); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err, "failed to update photographer")
	}

	if req.Password != "" {
		hash, err := hashPassword(req.Password)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to hash password")
		}
		if err := s.repo.UpdatePassword(ctx, id, hash, time.Now().UTC()); err != nil {
			return nil, appErrors.Internal(err, "failed to update password")
		}
	}
	return &updated, nil
}

func (s *PhotographerService) rename(ctx context.Context, tx sqlx.ExtContext, oldName, newName string) error {
	schedules, err := s.schedules.RenamePhotographer(ctx, tx, oldName, newName)
	if err != nil {
		return err
	}
	checkins, err := s.checkins.RenamePhotographer(ctx, tx, oldName, newName)
	if err != nil {
		return err
	}
	routes, err := s.routes.RenamePhotographer(ctx, tx, oldName, newName)
	if err != nil {
		return err
	}
	s.logger.Info("photographer renamed",
		zap.String("from", oldName),
		zap.String("to", newName),
		zap.Int64("schedules", schedules),
		zap.Int64("checkins", checkins),
		zap.Int64("route_estimates", routes),
	)
	return nil
}

// Delete removes a photographer that no schedule references, together with
// their checkins and route estimates.
func (s *PhotographerService) Delete(ctx context.Context, id int64) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	referenced, err := s.schedules.ReferencesPhotographer(ctx, p.Name)
	if err != nil {
		return appErrors.Internal(err, "failed to check photographer references")
	}
	if referenced {
		return appErrors.Clone(appErrors.ErrReferenced, "photographer is still assigned to schedules")
	}

	err = database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if _, err := s.checkins.DeleteByPhotographer(ctx, tx, p.Name); err != nil {
			return err
		}
		if _, err := s.routes.DeleteForPhotographer(ctx, tx, p.Name); err != nil {
			return err
		}
		return s.repo.Delete(ctx, tx, id)
	})
	if err != nil {
		return translateError(err, "failed to delete photographer")
	}
	return nil
}

// Import upserts roster rows by name. Existing photographers get their
// non-blank fields refreshed; new ones are created with the default password.
func (s *PhotographerService) Import(ctx context.Context, req dto.PhotographerImportRequest) (dto.ImportResult, error) {
	var result dto.ImportResult
	if err := s.validator.Struct(req); err != nil {
		return result, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid roster payload")
	}

	for i, row := range req.Rows {
		name := strings.TrimSpace(row.Name)
		existing, err := s.repo.FindByName(ctx, name)
		switch {
		case err == nil:
			updated := *existing
			if err := mergeRoster(&updated, row); err != nil {
				return result, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("row %d: %s", i+1, appErrors.FromError(err).Message))
			}
			if err := s.repo.Update(ctx, nil, &updated); err != nil {
				return result, appErrors.Internal(err, "failed to update photographer")
			}
			if existing.AddressValue() != updated.AddressValue() {
				if _, err := s.routes.DeleteForPhotographer(ctx, nil, name); err != nil {
					return result, appErrors.Internal(err, "failed to clear route estimates")
				}
			}
			result.Updated++
		case errors.Is(err, sql.ErrNoRows):
			p := &models.Photographer{Name: name, Status: models.PhotographerActive}
			if err := mergeRoster(p, row); err != nil {
				return result, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("row %d: %s", i+1, appErrors.FromError(err).Message))
			}
			if err := s.create(ctx, nil, p, s.cfg.DefaultPassword); err != nil {
				return result, err
			}
			result.Inserted++
			result.PhotographersCreated++
		default:
			return result, appErrors.Internal(err, "failed to load photographer")
		}
	}
	return result, nil
}

func (s *PhotographerService) create(ctx context.Context, exec sqlx.ExtContext, p *models.Photographer, password string) error {
	username, err := s.uniqueUsername(ctx, p.Name)
	if err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return appErrors.Internal(err, "failed to hash password")
	}
	p.Username = username
	p.PasswordHash = hash
	if err := s.repo.Create(ctx, exec, p); err != nil {
		return appErrors.Internal(err, "failed to create photographer")
	}
	return nil
}

// uniqueUsername returns base, or base followed by the smallest number >= 2
// that is not taken yet.
func (s *PhotographerService) uniqueUsername(ctx context.Context, base string) (string, error) {
	base = strings.TrimSpace(base)
	candidate := base
	for n := 2; ; n++ {
		taken, err := s.repo.UsernameExists(ctx, candidate)
		if err != nil {
			return "", appErrors.Internal(err, "failed to check username")
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, n)
	}
}

func applyProfile(p *models.Photographer, req dto.PhotographerRequest) error {
	p.Name = strings.TrimSpace(req.Name)
	if p.Name == "" {
		return appErrors.Clone(appErrors.ErrValidation, "name is required")
	}
	start, err := parseOptionalDate(req.StartDate)
	if err != nil {
		return err
	}
	p.Phone = models.StringPtr(req.Phone)
	p.Gender = models.StringPtr(req.Gender)
	p.Role = models.StringPtr(req.Role)
	p.Address = models.StringPtr(req.Address)
	p.Region = models.StringPtr(req.Region)
	p.HasCar = req.HasCar
	p.StartDate = start
	p.Memo = models.StringPtr(req.Memo)
	if req.Status != "" {
		p.Status = req.Status
	}
	if p.Status == "" {
		p.Status = models.PhotographerActive
	}
	return nil
}

func mergeRoster(p *models.Photographer, row dto.PhotographerImportRow) error {
	start, err := parseOptionalDate(row.StartDate)
	if err != nil {
		return err
	}
	for _, field := range []struct {
		dst **string
		raw string
	}{
		{&p.Phone, row.Phone},
		{&p.Gender, row.Gender},
		{&p.Role, row.Role},
		{&p.Address, row.Address},
		{&p.Region, row.Region},
	} {
		if v := models.StringPtr(field.raw); v != nil {
			*field.dst = v
		}
	}
	if row.HasCar != nil {
		p.HasCar = row.HasCar
	}
	if start != nil {
		p.StartDate = start
	}
	return nil
}

func parseOptionalDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be YYYY-MM-DD")
	}
	return &t, nil
}
