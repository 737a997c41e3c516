package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mood-map/api-go/apperrors"
	"github.com/mood-map/api-go/models"
	"github.com/mood-map/api-go/services"
	"github.com/mood-map/api-go/types"
	"github.com/mood-map/api-go/utils"
)

type PinController struct {
	Engine ModerationEngine
}

func NewPinController(engine ModerationEngine) *PinController {
	return &PinController{Engine: engine}
}

// CreatePin godoc
// @Summary Drop a mood pin
// @Description Screens the message, consumes one slot of the daily quota and stores the pin
// @Tags pins
// @Accept json
// @Produce json
// @Param pin body types.CreatePinRequest true "Pin"
// @Success 201 {object} StandardResponse
// @Router /pins [post]
func (pc *PinController) CreatePin(c *gin.Context) {
	identity := utils.GetIdentity(c)
	var req types.CreatePinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.HandleError(c, apperrors.Wrap(apperrors.ErrValidation, "Invalid pin", err))
		return
	}

	result, err := pc.Engine.SubmitPost(c.Request.Context(), services.SubmitPostInput{
		AuthorID:  identity.IdentityID,
		Mood:      models.Mood(req.Mood),
		Note:      req.Message,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	}, time.Now())
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, StandardResponse{
		Success: true,
		Data:    result.Post,
		Meta:    gin.H{"remaining": result.Remaining},
		Message: "Pin created",
	})
}

func (pc *PinController) ListPins(c *gin.Context) {
	var query types.PinListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		apperrors.HandleError(c, apperrors.Wrap(apperrors.ErrValidation, "Invalid query", err))
		return
	}

	q := services.PinQuery{Since: query.Since, Limit: query.Limit}
	if query.Radius > 0 {
		if query.Latitude == nil || query.Longitude == nil {
			apperrors.HandleError(c, apperrors.New(apperrors.ErrValidation, "radius requires lat and lng"))
			return
		}
		q.Latitude, q.Longitude, q.RadiusKm = *query.Latitude, *query.Longitude, query.Radius
	}

	pins, err := pc.Engine.VisiblePins(c.Request.Context(), q)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	if pins == nil {
		pins = []models.Post{}
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    types.PinListResponse{Pins: pins, Count: len(pins)},
	})
}

func (pc *PinController) GetPin(c *gin.Context) {
	postID, ok := pinID(c)
	if !ok {
		return
	}
	pin, err := pc.Engine.Pin(c.Request.Context(), postID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: pin})
}

// ReportPin files one report from the caller against a pin.
func (pc *PinController) ReportPin(c *gin.Context) {
	identity := utils.GetIdentity(c)
	postID, ok := pinID(c)
	if !ok {
		return
	}

	result, err := pc.Engine.FileReport(c.Request.Context(), identity.IdentityID, postID, time.Now())
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    result,
		Message: "Report submitted",
	})
}

func pinID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		apperrors.HandleError(c, apperrors.New(apperrors.ErrValidation, "Invalid pin ID"))
		return 0, false
	}
	return uint(id), true
}
