package service

import (
	"errors"
	"testing"

	"github.com/bakehouse-api/internal/config"
	"github.com/bakehouse-api/internal/constants"
)

func TestCaptchaSceneDisabledByDefault(t *testing.T) {
	svc := NewCaptchaService(config.CaptchaConfig{})
	if svc.Provider() != constants.CaptchaProviderNone {
		t.Fatalf("expected provider none, got: %s", svc.Provider())
	}
	if svc.SceneEnabled(constants.CaptchaSceneCheckout) {
		t.Fatalf("checkout scene must be disabled without provider")
	}
	if err := svc.Verify(constants.CaptchaSceneCheckout, CaptchaVerifyPayload{}); err != nil {
		t.Fatalf("disabled scene must verify without payload, got: %v", err)
	}
}

func TestCaptchaImageVerify(t *testing.T) {
	cfg := config.CaptchaConfig{Provider: constants.CaptchaProviderImage}
	cfg.Scenes.Checkout = true
	svc := NewCaptchaService(cfg)

	if !svc.SceneEnabled(constants.CaptchaSceneCheckout) {
		t.Fatalf("checkout scene must be enabled")
	}

	if err := svc.Verify(constants.CaptchaSceneCheckout, CaptchaVerifyPayload{}); !errors.Is(err, ErrCaptchaRequired) {
		t.Fatalf("expected ErrCaptchaRequired for empty payload, got: %v", err)
	}

	challenge, err := svc.GenerateImageChallenge()
	if err != nil {
		t.Fatalf("generate challenge failed: %v", err)
	}
	if challenge.CaptchaID == "" || challenge.ImageBase64 == "" {
		t.Fatalf("expected challenge payload, got: %+v", challenge)
	}

	err = svc.Verify(constants.CaptchaSceneCheckout, CaptchaVerifyPayload{
		CaptchaID:   challenge.CaptchaID,
		CaptchaCode: "wrong",
	})
	if !errors.Is(err, ErrCaptchaInvalid) {
		t.Fatalf("expected ErrCaptchaInvalid for wrong code, got: %v", err)
	}
}

func TestCaptchaUnknownSceneNeverRequired(t *testing.T) {
	cfg := config.CaptchaConfig{Provider: constants.CaptchaProviderImage}
	cfg.Scenes.Checkout = true
	svc := NewCaptchaService(cfg)

	if svc.SceneEnabled("unknown_scene") {
		t.Fatalf("unknown scene must not require captcha")
	}
	if err := svc.Verify("unknown_scene", CaptchaVerifyPayload{}); err != nil {
		t.Fatalf("unknown scene must verify without payload, got: %v", err)
	}
}
