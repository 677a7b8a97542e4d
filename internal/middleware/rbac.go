package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduplatforme/exam-backend/internal/model"
	"github.com/eduplatforme/exam-backend/internal/response"
)

// RequireRole lets the request through when the JWT role is one of roles.
// Must run after RequireJWT or RequireWSAuth.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		for _, r := range roles {
			if claims.Role == r {
				c.Next()
				return
			}
		}

		response.AbortFail(c, http.StatusForbidden, roleErrCode(roles))
	}
}

func roleErrCode(roles []model.Role) response.ErrCode {
	if len(roles) != 1 {
		return response.ErrRoleNotAllowed
	}
	switch roles[0] {
	case model.RoleStudent:
		return response.ErrStudentOnly
	case model.RoleTeacher:
		return response.ErrTeacherOnly
	default:
		return response.ErrRoleNotAllowed
	}
}
