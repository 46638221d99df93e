package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/wedding-dispatch-api/internal/dto"
	"github.com/noah-isme/wedding-dispatch-api/internal/models"
	"github.com/noah-isme/wedding-dispatch-api/pkg/database"
	appErrors "github.com/noah-isme/wedding-dispatch-api/pkg/errors"
)

type weddingHallRepository interface {
	List(ctx context.Context) ([]models.WeddingHall, error)
	FindByID(ctx context.Context, id int64) (*models.WeddingHall, error)
	Upsert(ctx context.Context, exec sqlx.ExtContext, hall *models.WeddingHall) error
	Update(ctx context.Context, exec sqlx.ExtContext, hall *models.WeddingHall) error
	Delete(ctx context.Context, id int64) error
}

type venueScheduleWriter interface {
	SetVenueAddress(ctx context.Context, exec sqlx.ExtContext, venue string, address *string) ([]int64, error)
	RenameVenue(ctx context.Context, exec sqlx.ExtContext, oldName, newName string) (int64, error)
}

// WeddingHallService maintains the venue directory and keeps schedule
// addresses in line with it.
type WeddingHallService struct {
	repo      weddingHallRepository
	schedules venueScheduleWriter
	routes    scheduleRouteInvalidator
	tx        database.TxBeginner
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWeddingHallService constructs the hall directory service.
func NewWeddingHallService(repo weddingHallRepository, schedules venueScheduleWriter, routes scheduleRouteInvalidator, tx database.TxBeginner, validate *validator.Validate, logger *zap.Logger) *WeddingHallService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeddingHallService{repo: repo, schedules: schedules, routes: routes, tx: tx, validator: validate, logger: logger}
}

// List returns all halls.
func (s *WeddingHallService) List(ctx context.Context) ([]models.WeddingHall, error) {
	halls, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list wedding halls")
	}
	return halls, nil
}

// Save creates the hall or replaces the address of the hall with that name,
// then pushes the address to the hall's schedules.
func (s *WeddingHallService) Save(ctx context.Context, req dto.WeddingHallRequest) (*models.WeddingHall, dto.HallPropagation, error) {
	var result dto.HallPropagation
	if err := s.validator.Struct(req); err != nil {
		return nil, result, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid wedding hall payload")
	}
	hall := &models.WeddingHall{Name: strings.TrimSpace(req.Name), Address: models.StringPtr(req.Address)}

	err := database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.repo.Upsert(ctx, tx, hall); err != nil {
			return err
		}
		var err error
		result, err = s.propagate(ctx, tx, hall)
		return err
	})
	if err != nil {
		return nil, dto.HallPropagation{}, translateError(err, "failed to save wedding hall")
	}
	return hall, result, nil
}

// Update renames a hall and changes its address. A rename is applied to the
// venue of existing schedules before the address is propagated.
func (s *WeddingHallService) Update(ctx context.Context, id int64, req dto.WeddingHallRequest) (*models.WeddingHall, dto.HallPropagation, error) {
	var result dto.HallPropagation
	if err := s.validator.Struct(req); err != nil {
		return nil, result, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid wedding hall payload")
	}
	existing, err := s.get(ctx, id)
	if err != nil {
		return nil, result, err
	}
	hall := *existing
	hall.Name = strings.TrimSpace(req.Name)
	hall.Address = models.StringPtr(req.Address)

	err = database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.repo.Update(ctx, tx, &hall); err != nil {
			return err
		}
		renamed := int64(0)
		if existing.Name != hall.Name {
			var err error
			if renamed, err = s.schedules.RenameVenue(ctx, tx, existing.Name, hall.Name); err != nil {
				return err
			}
		}
		var err error
		result, err = s.propagate(ctx, tx, &hall)
		result.SchedulesRenamed = renamed
		return err
	})
	if err != nil {
		return nil, dto.HallPropagation{}, translateError(err, "failed to update wedding hall")
	}
	return &hall, result, nil
}

// PropagateAddress re-applies a hall's address to its schedules.
func (s *WeddingHallService) PropagateAddress(ctx context.Context, id int64) (dto.HallPropagation, error) {
	hall, err := s.get(ctx, id)
	if err != nil {
		return dto.HallPropagation{}, err
	}
	var result dto.HallPropagation
	err = database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		var err error
		result, err = s.propagate(ctx, tx, hall)
		return err
	})
	if err != nil {
		return dto.HallPropagation{}, appErrors.Internal(err, "failed to propagate hall address")
	}
	return result, nil
}

// Delete removes a hall. Schedules keep their venue name and address.
func (s *WeddingHallService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "wedding hall not found")
		}
		return appErrors.Internal(err, "failed to delete wedding hall")
	}
	return nil
}

func (s *WeddingHallService) get(ctx context.Context, id int64) (*models.WeddingHall, error) {
	hall, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "wedding hall not found")
		}
		return nil, appErrors.Internal(err, "failed to load wedding hall")
	}
	return hall, nil
}

// propagate writes the hall address to schedules at that venue whose address
// differs and drops their route estimates. A blank address changes nothing.
func (s *WeddingHallService) propagate(ctx context.Context, tx sqlx.ExtContext, hall *models.WeddingHall) (dto.HallPropagation, error) {
	var result dto.HallPropagation
	if hall.Address == nil {
		return result, nil
	}
	ids, err := s.schedules.SetVenueAddress(ctx, tx, hall.Name, hall.Address)
	if err != nil {
		return result, err
	}
	result.SchedulesUpdated = len(ids)
	if len(ids) == 0 {
		return result, nil
	}
	if result.EstimatesCleared, err = s.routes.DeleteForSchedules(ctx, tx, ids); err != nil {
		return result, err
	}
	s.logger.Info("hall address propagated",
		zap.String("hall", hall.Name),
		zap.Int("schedules", result.SchedulesUpdated),
		zap.Int64("estimates_cleared", result.EstimatesCleared),
	)
	return result, nil
}
