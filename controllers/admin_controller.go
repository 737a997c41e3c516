package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mood-map/api-go/apperrors"
	"github.com/mood-map/api-go/utils"
)

type AdminController struct {
	Engine ModerationEngine
}

func NewAdminController(engine ModerationEngine) *AdminController {
	return &AdminController{Engine: engine}
}

// ResetModeration clears an identity's moderation level and lifts its suspension.
func (ac *AdminController) ResetModeration(c *gin.Context) {
	actor := utils.GetIdentity(c)
	identityID := c.Param("id")
	if identityID == "" {
		apperrors.HandleError(c, apperrors.New(apperrors.ErrValidation, "identity id is required"))
		return
	}

	if err := ac.Engine.ResetModeration(c.Request.Context(), identityID, actor.IdentityID, time.Now()); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "Moderation reset"})
}
