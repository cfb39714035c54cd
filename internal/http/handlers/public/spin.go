package public

import (
	"github.com/lumimall/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetSpinPrizes 奖池列表（权重已归一化为 100）
func (h *Handler) GetSpinPrizes(c *gin.Context) {
	response.Success(c, gin.H{"prizes": h.SpinService.Prizes()})
}

// Spin 消耗一次抽奖机会并返回结果
func (h *Handler) Spin(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	result, err := h.SpinService.Spin(uid)
	if err != nil {
		respondSpinError(c, err)
		return
	}
	response.Success(c, result)
}
