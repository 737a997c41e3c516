package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mood-map/api-go/apperrors"
	"github.com/mood-map/api-go/types"
	"github.com/mood-map/api-go/utils"
)

type IdentityController struct {
	Engine ModerationEngine
}

func NewIdentityController(engine ModerationEngine) *IdentityController {
	return &IdentityController{Engine: engine}
}

func (ic *IdentityController) GetMe(c *gin.Context) {
	identity := utils.GetIdentity(c)
	status, err := ic.Engine.Status(c.Request.Context(), identity.IdentityID, time.Now())
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: status})
}

func (ic *IdentityController) GetStreak(c *gin.Context) {
	identity := utils.GetIdentity(c)
	streak, err := ic.Engine.ComputeStreak(c.Request.Context(), identity.IdentityID, time.Now())
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: types.StreakResponse{Streak: streak}})
}
