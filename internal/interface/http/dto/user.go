package dto

// RegisterRequest HTTP层注册请求
// 密码强度由领域层校验
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email" example:"reader@example.com"`
	Password    string `json:"password" binding:"required" example:"secret123"`
	DisplayName string `json:"display_name" binding:"omitempty,max=50" example:"Reader"`
}

// LoginRequest 邮箱密码登录
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"reader@example.com"`
	Password string `json:"password" binding:"required" example:"secret123"`
}

// FederatedLoginRequest 第三方登录，id_token由身份提供方签发
type FederatedLoginRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

// RefreshRequest 刷新Access Token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}
