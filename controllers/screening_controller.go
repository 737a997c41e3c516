package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mood-map/api-go/apperrors"
	"github.com/mood-map/api-go/types"
)

type ScreeningController struct {
	Engine ModerationEngine
}

func NewScreeningController(engine ModerationEngine) *ScreeningController {
	return &ScreeningController{Engine: engine}
}

// CheckText is the interactive pre-submit check. It never writes anything.
func (sc *ScreeningController) CheckText(c *gin.Context) {
	var req types.CheckTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.HandleError(c, apperrors.Wrap(apperrors.ErrValidation, "Invalid request", err))
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: sc.Engine.ScreenText(req.Text)})
}
