package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RegisterRequest 結構體用於處理註冊請求
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Pic      string `json:"pic"`
}

// LoginRequest 結構體用於處理登入請求，Kind 決定查詢 users 或 lawyers
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Kind     Kind   `json:"participantModel" validate:"omitempty,oneof=User Lawyer"`
}

// ErrorResponse 結構體用於返回 JSON 格式的錯誤訊息
type ErrorResponse struct {
	Message string `json:"message"`
}

// Credentials 是登入時讀取的主體資料，包含哈希後的密碼
type Credentials struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Name     string             `bson:"name"`
	Email    string             `bson:"email"`
	Pic      string             `bson:"pic,omitempty"`
	Password string             `bson:"password"`
}

// User 結構體定義了使用者資料的欄位
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"`
	Pic      string             `bson:"pic,omitempty" json:"pic,omitempty"`
	Password string             `bson:"password" json:"-"` // 儲存哈希後的密碼，JSON 輸出時忽略
}
