package controller

import (
	"ai_tutor_backend/internal/service"
	"ai_tutor_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PreferenceController struct {
	PreferenceService *service.PreferenceService
}

func NewPreferenceController(preferenceService *service.PreferenceService) *PreferenceController {
	return &PreferenceController{PreferenceService: preferenceService}
}

// @Summary 通知偏好
// @Description 获取当前用户的通知偏好，未设置时返回默认值
// @Tags 通知偏好
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/preferences [get]
func (c *PreferenceController) GetPreferences(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	prefs, err := c.PreferenceService.GetPreferences(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, prefs)
}

// @Summary 更新通知偏好
// @Description 部分更新，未提交的字段保持原值
// @Tags 通知偏好
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param preference body service.PreferenceInput true "偏好设置"
// @Success 200 {object} util.Response
// @Router /api/preferences [put]
func (c *PreferenceController) UpdatePreferences(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var input service.PreferenceInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	prefs, err := c.PreferenceService.UpdatePreferences(claims.UserID, input)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, prefs)
}
