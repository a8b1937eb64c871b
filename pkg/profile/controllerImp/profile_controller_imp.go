package controllerImp

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"krishi/pkg/apperr"
	"krishi/pkg/middleware"
	"krishi/pkg/profile/controller"
	"krishi/pkg/profile/service"
)

type profileCtrl struct{ svc service.ProfileService }

func NewProfileController(svc service.ProfileService) controller.ProfileController {
	return &profileCtrl{svc: svc}
}

func (h *profileCtrl) Get(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return apperr.Auth("Unauthorized - Invalid or missing token")
	}
	p, err := h.svc.Get(c.Request().Context(), u.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Profile data retrieved successfully", "data": p})
}

func (h *profileCtrl) Update(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return apperr.Auth("Unauthorized - Invalid or missing token")
	}
	var in service.UpdateInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("Invalid profile payload")
	}
	p, err := h.svc.Update(c.Request().Context(), u.UserID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Profile updated successfully", "data": p})
}
