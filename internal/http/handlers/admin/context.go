package admin

import (
	handlershared "github.com/lumimall/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, "admin_id", "error.user_id_invalid", "error.user_id_type_invalid")
}
