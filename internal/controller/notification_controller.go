package controller

import (
	"ai_tutor_backend/internal/model"
	"ai_tutor_backend/internal/service"
	"ai_tutor_backend/internal/util"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	NotificationService *service.NotificationService
	DispatchService     *service.DispatchService
}

func NewNotificationController(notificationService *service.NotificationService, dispatchService *service.DispatchService) *NotificationController {
	return &NotificationController{
		NotificationService: notificationService,
		DispatchService:     dispatchService,
	}
}

// @Summary 通知列表
// @Description 获取当前用户的通知，可按状态过滤
// @Tags 通知
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "通知状态" Enums(pending,sent,failed,cancelled,read)
// @Param limit query int false "返回条数，默认50"
// @Success 200 {object} util.Response
// @Router /api/notifications [get]
func (c *NotificationController) GetNotifications(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	status := model.NotificationStatus(ctx.Query("status"))
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		util.BadRequest(ctx, "无效的limit")
		return
	}

	notifications, err := c.NotificationService.GetUserNotifications(claims.UserID, status, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, notifications)
}

// @Summary 未读数量
// @Tags 通知
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/notifications/unread-count [get]
func (c *NotificationController) GetUnreadCount(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	count, err := c.NotificationService.GetUnreadCount(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"count": count})
}

// @Summary 标记已读
// @Description 将单条已送达的站内通知标记为已读
// @Tags 通知
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "通知ID"
// @Success 200 {object} util.Response
// @Router /api/notifications/{id}/read [put]
func (c *NotificationController) MarkRead(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	notificationID, ok := parseIDParam(ctx)
	if !ok {
		return
	}

	err := c.NotificationService.MarkRead(claims.UserID, notificationID)
	if errors.Is(err, util.ErrNotificationNotFound) {
		util.NotFound(ctx)
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"message": "已标记为已读"})
}

// @Summary 全部已读
// @Tags 通知
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/notifications/read-all [put]
func (c *NotificationController) MarkAllRead(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	updated, err := c.NotificationService.MarkAllRead(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"updated": updated})
}

// @Summary 手动触发投递
// @Description 管理员手动执行一轮到期通知投递
// @Tags 管理
// @Produce json
// @Security ApiKeyAuth
// @Param batch query int false "批量大小，默认100"
// @Success 200 {object} util.Response
// @Router /api/admin/notifications/dispatch [post]
func (c *NotificationController) TriggerDispatch(ctx *gin.Context) {
	batch, err := strconv.Atoi(ctx.DefaultQuery("batch", "100"))
	if err != nil || batch <= 0 {
		util.BadRequest(ctx, "无效的batch")
		return
	}

	result, err := c.DispatchService.ProcessDue(batch)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 待投递队列深度
// @Tags 管理
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/admin/notifications/queue-depth [get]
func (c *NotificationController) GetQueueDepth(ctx *gin.Context) {
	depth, err := c.DispatchService.PendingDepth()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"depth": depth})
}
