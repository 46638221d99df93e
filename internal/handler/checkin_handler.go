package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/wedding-dispatch-api/internal/dto"
	"github.com/noah-isme/wedding-dispatch-api/internal/models"
	appErrors "github.com/noah-isme/wedding-dispatch-api/pkg/errors"
	"github.com/noah-isme/wedding-dispatch-api/pkg/response"
	"github.com/noah-isme/wedding-dispatch-api/pkg/storage"
)

const photoField = "photo"

type checkinService interface {
	Confirm(ctx context.Context, req dto.ConfirmRequest) (dto.ConfirmResult, error)
	Skip(req dto.ConfirmRequest, reason string) dto.ConfirmResult
	MyWeek(ctx context.Context, name string) (dto.MyWeek, error)
}

type photoSaver interface {
	Save(name, filename string, data []byte) (string, error)
	Delete(ref string) error
}

// CheckinHandler serves the photographer-facing confirmation endpoints.
type CheckinHandler struct {
	checkins checkinService
	photos   photoSaver
	maxBytes int64
	logger   *zap.Logger
}

// NewCheckinHandler constructs the handler. maxBytes caps arrival photo size.
func NewCheckinHandler(checkins checkinService, photos photoSaver, maxBytes int64, logger *zap.Logger) *CheckinHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &CheckinHandler{checkins: checkins, photos: photos, maxBytes: maxBytes, logger: logger}
}

// Confirm godoc
// @Summary Confirm wake, depart or arrive for a schedule
// @Description Applies to every schedule of the same trip. Arrive takes a multipart photo.
// @Tags Checkins
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Schedule ID"
// @Param kind path string true "wake, depart or arrive"
// @Param photo formData file false "Arrival photo"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /api/checkins/{id}/{kind} [post]
func (h *CheckinHandler) Confirm(c *gin.Context) {
	claims, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	kind := models.CheckinKind(c.Param("kind"))
	if !kind.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "kind must be wake, depart or arrive"))
		return
	}
	req := dto.ConfirmRequest{ScheduleID: id, PhotographerName: claims.Name, Kind: kind}

	if kind == models.CheckinArrive {
		ref, reason, err := h.savePhoto(c, claims.Name)
		if err != nil {
			response.Error(c, err)
			return
		}
		if reason != "" {
			response.JSON(c, http.StatusOK, h.checkins.Skip(req, reason))
			return
		}
		req.PhotoRef = ref
	}

	result, err := h.checkins.Confirm(c.Request.Context(), req)
	if err != nil || !result.Applied {
		h.discard(req.PhotoRef)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// savePhoto stores the uploaded arrival photo. A non-empty reason means the
// upload was rejected and the confirmation must be skipped.
func (h *CheckinHandler) savePhoto(c *gin.Context, name string) (string, string, error) {
	header, err := c.FormFile(photoField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", dto.SkipMissingPhoto, nil
		}
		return "", "", invalidPayload(err, "invalid photo upload")
	}
	if _, ok := storage.NormalizePhotoExtension(header.Filename); !ok {
		return "", dto.SkipUnsupportedPhoto, nil
	}
	if header.Size > h.maxBytes {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "photo is too large")
	}

	file, err := header.Open()
	if err != nil {
		return "", "", appErrors.Internal(err, "failed to read photo")
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		return "", "", appErrors.Internal(err, "failed to read photo")
	}
	if int64(len(data)) > h.maxBytes {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "photo is too large")
	}

	ref, err := h.photos.Save(name, header.Filename, data)
	if err != nil {
		if errors.Is(err, appErrors.ErrUnsupportedPhoto) {
			return "", dto.SkipUnsupportedPhoto, nil
		}
		return "", "", err
	}
	return ref, "", nil
}

func (h *CheckinHandler) discard(ref string) {
	if ref == "" {
		return
	}
	if err := h.photos.Delete(ref); err != nil {
		h.logger.Warn("failed to discard unused photo", zap.String("ref", ref), zap.Error(err))
	}
}

// MyWeek godoc
// @Summary Own schedules for the current week
// @Tags Checkins
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/my [get]
func (h *CheckinHandler) MyWeek(c *gin.Context) {
	claims, err := currentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	week, err := h.checkins.MyWeek(c.Request.Context(), claims.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, week)
}
