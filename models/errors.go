package models

import "errors"

// 錯誤分類，各層以 fmt.Errorf("%w: ...") 包裝後往上傳
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrTransient       = errors.New("temporarily unavailable")
)
