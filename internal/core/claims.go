package core

import "github.com/golang-jwt/jwt/v4"

// Claims 管理端（控制平面）JWT
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

const AdminRoleOperator = "operator"
