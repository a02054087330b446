package controller

import (
	"ai_tutor_backend/internal/service"
	"ai_tutor_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type LearningPlanController struct {
	PlanService *service.LearningPlanService
}

func NewLearningPlanController(planService *service.LearningPlanService) *LearningPlanController {
	return &LearningPlanController{PlanService: planService}
}

// @Summary 创建学习计划
// @Tags 学习计划
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param plan body service.PlanInput true "计划信息"
// @Success 201 {object} util.Response
// @Router /api/plans [post]
func (c *LearningPlanController) CreatePlan(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var input service.PlanInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	plan, err := c.PlanService.CreatePlan(claims.UserID, input)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, plan)
}

// @Summary 当前学习计划
// @Description 获取当前用户进行中的学习计划
// @Tags 学习计划
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/plans/active [get]
func (c *LearningPlanController) GetActivePlan(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	plan, err := c.PlanService.GetActivePlan(claims.UserID)
	if errors.Is(err, util.ErrPlanNotFound) {
		util.NotFound(ctx)
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, plan)
}

// @Summary 完成学习计划
// @Tags 学习计划
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "计划ID"
// @Success 200 {object} util.Response
// @Router /api/plans/{id}/complete [put]
func (c *LearningPlanController) CompletePlan(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	planID, ok := parseIDParam(ctx)
	if !ok {
		return
	}

	err := c.PlanService.CompletePlan(claims.UserID, planID)
	switch {
	case errors.Is(err, util.ErrPlanNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case err != nil:
		util.LogInternalError(ctx, err)
	default:
		util.Success(ctx, gin.H{"message": "计划已完成"})
	}
}
