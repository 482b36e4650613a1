package public

import (
	"errors"

	"github.com/bakehouse-api/internal/constants"
	"github.com/bakehouse-api/internal/http/response"
	"github.com/bakehouse-api/internal/service"

	"github.com/gin-gonic/gin"
)

// GetCaptchaConfig 获取验证码公开配置
func (h *Handler) GetCaptchaConfig(c *gin.Context) {
	provider := constants.CaptchaProviderNone
	checkoutEnabled := false
	if h.CaptchaService != nil {
		provider = h.CaptchaService.Provider()
		checkoutEnabled = h.CaptchaService.SceneEnabled(constants.CaptchaSceneCheckout)
	}
	response.Success(c, gin.H{
		"provider": provider,
		"scenes": gin.H{
			"checkout": checkoutEnabled,
		},
	})
}

// GetImageCaptcha 获取图片验证码挑战
func (h *Handler) GetImageCaptcha(c *gin.Context) {
	if h.CaptchaService == nil {
		respondError(c, response.CodeInternal, "error.captcha_config_invalid", service.ErrCaptchaConfigInvalid)
		return
	}

	challenge, err := h.CaptchaService.GenerateImageChallenge()
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCaptchaConfigInvalid):
			respondError(c, response.CodeBadRequest, "error.captcha_config_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}

	response.Success(c, gin.H{
		"captcha_id":   challenge.CaptchaID,
		"image_base64": challenge.ImageBase64,
	})
}
