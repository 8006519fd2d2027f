package handler

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/landsat-go/internal/datastore"
	"github.com/jengzang/landsat-go/internal/models"
	"github.com/jengzang/landsat-go/internal/service"
	"github.com/jengzang/landsat-go/pkg/response"
)

const (
	defaultSampleLimit = 5000
	maxSampleLimit     = 100000
)

// SampleHandler handles HTTP requests for the sample store
type SampleHandler struct {
	sampleService *service.SampleService
}

// NewSampleHandler creates a new sample handler
func NewSampleHandler(sampleService *service.SampleService) *SampleHandler {
	return &SampleHandler{
		sampleService: sampleService,
	}
}

// parseBound reads an optional float query parameter
func parseBound(c *gin.Context, name string, def float64) (float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("Invalid " + name + " parameter")
	}
	return v, nil
}

// parseRect reads lat1, lat2, lon1, lon2. Missing bounds leave that side of
// the rectangle open; corners may come in either order.
func parseRect(c *gin.Context) (datastore.Rect, error) {
	var bounds [4]float64
	names := [4]string{"lat1", "lat2", "lon1", "lon2"}
	defaults := [4]float64{-math.MaxFloat64, math.MaxFloat64, -math.MaxFloat64, math.MaxFloat64}
	for i, name := range names {
		v, err := parseBound(c, name, defaults[i])
		if err != nil {
			return datastore.Rect{}, err
		}
		bounds[i] = v
	}
	return datastore.NewRect(bounds[0], bounds[1], bounds[2], bounds[3]), nil
}

// ListBodies handles GET /api/v1/bodies
func (h *SampleHandler) ListBodies(c *gin.Context) {
	response.Success(c, h.sampleService.ListBodies())
}

// GetBody handles GET /api/v1/bodies/:body
func (h *SampleHandler) GetBody(c *gin.Context) {
	response.Success(c, h.sampleService.CountForBody(c.Param("body")))
}

// GetAverage handles GET /api/v1/bodies/:body/average
func (h *SampleHandler) GetAverage(c *gin.Context) {
	rect, err := parseRect(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, h.sampleService.Average(c.Param("body"), rect))
}

// GetSamples handles GET /api/v1/bodies/:body/samples
func (h *SampleHandler) GetSamples(c *gin.Context) {
	rect, err := parseRect(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultSampleLimit)))
	if err != nil || limit <= 0 {
		response.BadRequest(c, "Invalid limit parameter")
		return
	}
	if limit > maxSampleLimit {
		limit = maxSampleLimit
	}

	response.Success(c, h.sampleService.Samples(c.Param("body"), rect, limit))
}

// GetSummary handles GET /api/v1/bodies/:body/summary
func (h *SampleHandler) GetSummary(c *gin.Context) {
	response.Success(c, h.sampleService.Summary(c.Param("body")))
}

// GetStoreStatus handles GET /api/v1/store
func (h *SampleHandler) GetStoreStatus(c *gin.Context) {
	response.Success(c, h.sampleService.Status())
}

// IngestSamples handles POST /api/v1/samples
func (h *SampleHandler) IngestSamples(c *gin.Context) {
	var req models.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.sampleService.Ingest(req.Readings)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, result)
}

// PruneStore handles POST /api/v1/store/prune
func (h *SampleHandler) PruneStore(c *gin.Context) {
	result, err := h.sampleService.Prune(c.Request.Context(), c.Query("policy"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, result)
}

// SaveStore handles POST /api/v1/store/save
func (h *SampleHandler) SaveStore(c *gin.Context) {
	if err := h.sampleService.Save(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, h.sampleService.Status())
}

// writeError maps service errors to status codes
func (h *SampleHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		response.BadRequest(c, err.Error())
	case errors.Is(err, datastore.ErrAlreadyFrozen), errors.Is(err, datastore.ErrNotFrozen):
		response.Conflict(c, err.Error())
	default:
		response.InternalError(c, err.Error())
	}
}
