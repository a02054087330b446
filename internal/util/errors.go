package util

import "errors"

var (
	ErrUserNotFound         = errors.New("用户不存在")
	ErrEmailRegistered      = errors.New("该邮箱已被注册")
	ErrInvalidCredentials   = errors.New("邮箱或密码错误")
	ErrPermissionDenied     = errors.New("无权访问")
	ErrTaskNotFound         = errors.New("任务不存在")
	ErrPlanNotFound         = errors.New("学习计划不存在")
	ErrNotificationNotFound = errors.New("通知不存在")
)
