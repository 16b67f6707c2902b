package service

import (
	"errors"
	"fmt"
)

// ErrValidation 计划请求不合法
var ErrValidation = errors.New("invalid exam plan request")

// FieldError 字段级错误
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// GenerationUpstreamError 文本生成服务调用失败（网络、超时、模型错误）
type GenerationUpstreamError struct {
	Err error
}

func (e *GenerationUpstreamError) Error() string {
	return fmt.Sprintf("text generation upstream: %v", e.Err)
}

func (e *GenerationUpstreamError) Unwrap() error {
	return e.Err
}

// GenerationParseError 生成结果无法按计划结构解析
type GenerationParseError struct {
	Reason string
	Err    error
}

func (e *GenerationParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse generated plan: %s: %v", e.Reason, e.Err)
	}
	return "parse generated plan: " + e.Reason
}

func (e *GenerationParseError) Unwrap() error {
	return e.Err
}
