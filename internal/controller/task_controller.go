package controller

import (
	"ai_tutor_backend/internal/service"
	"ai_tutor_backend/internal/util"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

type TaskController struct {
	TaskService *service.TaskService
}

func NewTaskController(taskService *service.TaskService) *TaskController {
	return &TaskController{TaskService: taskService}
}

// @Summary 创建任务
// @Description 创建学习任务并按用户活跃画像调度提醒
// @Tags 任务
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param task body service.TaskInput true "任务信息"
// @Success 201 {object} util.Response
// @Router /api/tasks [post]
func (c *TaskController) CreateTask(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var input service.TaskInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	task, err := c.TaskService.CreateTask(claims.UserID, input)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, task)
}

// @Summary 任务列表
// @Description 获取当前用户的全部任务
// @Tags 任务
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/tasks [get]
func (c *TaskController) GetTasks(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	tasks, err := c.TaskService.GetUserTasks(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, tasks)
}

// @Summary 任务详情
// @Tags 任务
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "任务ID"
// @Success 200 {object} util.Response
// @Router /api/tasks/{id} [get]
func (c *TaskController) GetTask(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	taskID, ok := parseIDParam(ctx)
	if !ok {
		return
	}

	task, err := c.TaskService.GetTask(claims.UserID, taskID)
	if err != nil {
		respondTaskError(ctx, err)
		return
	}

	util.Success(ctx, task)
}

// @Summary 更新任务
// @Description 更新任务信息，截止时间变化时自动重排提醒
// @Tags 任务
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "任务ID"
// @Param task body service.TaskInput true "任务信息"
// @Success 200 {object} util.Response
// @Router /api/tasks/{id} [put]
func (c *TaskController) UpdateTask(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	taskID, ok := parseIDParam(ctx)
	if !ok {
		return
	}

	var input service.TaskInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	task, err := c.TaskService.UpdateTask(claims.UserID, taskID, input)
	if err != nil {
		respondTaskError(ctx, err)
		return
	}

	util.Success(ctx, task)
}

// @Summary 完成任务
// @Description 标记任务完成，记录学习时长并撤回剩余提醒
// @Tags 任务
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "任务ID"
// @Success 200 {object} util.Response
// @Router /api/tasks/{id}/complete [put]
func (c *TaskController) CompleteTask(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	taskID, ok := parseIDParam(ctx)
	if !ok {
		return
	}

	var req struct {
		MinutesSpent int `json:"minutesSpent"`
	}
	// 请求体可省略
	ctx.ShouldBindJSON(&req)

	task, err := c.TaskService.CompleteTask(claims.UserID, taskID, req.MinutesSpent)
	if err != nil {
		respondTaskError(ctx, err)
		return
	}

	util.Success(ctx, task)
}

// @Summary 删除任务
// @Tags 任务
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "任务ID"
// @Success 200 {object} util.Response
// @Router /api/tasks/{id} [delete]
func (c *TaskController) DeleteTask(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	taskID, ok := parseIDParam(ctx)
	if !ok {
		return
	}

	if err := c.TaskService.DeleteTask(claims.UserID, taskID); err != nil {
		respondTaskError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"message": "任务已删除"})
}

func parseIDParam(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "无效的ID")
		return 0, false
	}
	return uint(id), true
}

func respondTaskError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrTaskNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}
