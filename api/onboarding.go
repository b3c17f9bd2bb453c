package api

import (
	"net/http"

	"bitwise74/bucket-panel/internal/service"
	"bitwise74/bucket-panel/pkg/security"

	"github.com/gin-gonic/gin"
)

const onboardingCookieAge = 365 * 24 * 60 * 60

func (a *API) OnboardingStatus(c *gin.Context) {
	done, err := a.Onboarding.Completed(c.Request.Context())
	if err != nil {
		fail(c, err, "Failed to check onboarding state")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"completed": done,
	})
}

func (a *API) OnboardingComplete(c *gin.Context) {
	var data service.OnboardingRequest
	if !bindJSON(c, &data) {
		return
	}

	res, err := a.Onboarding.Complete(c.Request.Context(), data)
	if err != nil {
		fail(c, err, "Failed to complete onboarding")
		return
	}

	// The new admin has to log in with the credentials they just chose
	a.Cookies.ClearSessionCookie(c)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(security.OnboardingCookie, "1", onboardingCookieAge, "/", a.Cookies.Domain, a.Cookies.Secure, false)

	c.JSON(http.StatusOK, gin.H{
		"completed": true,
		"admin":     res.Admin,
		"settings":  service.Sanitize(res.Settings),
	})
}
