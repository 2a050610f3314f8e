package controller

import (
	"net/http"

	httpdto "github.com/campuslink/auth-service/app/dto/http"
	"github.com/campuslink/auth-service/app/entity"
	"github.com/campuslink/auth-service/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type UserController struct {
	authService service.AuthService
}

func NewUserController(authService service.AuthService) *UserController {
	return &UserController{authService: authService}
}

func (c *UserController) Me(ctx echo.Context) error {
	user, ok := ctx.Get("user").(*entity.User)
	if !ok {
		logrus.Warn("Me failed: missing user in context")
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
	}

	return ctx.JSON(http.StatusOK, httpdto.NewUserResponse(user))
}

func (c *UserController) Search(ctx echo.Context) error {
	user, ok := ctx.Get("user").(*entity.User)
	if !ok {
		logrus.Warn("Search failed: missing user in context")
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
	}

	query := ctx.QueryParam("q")
	users, err := c.authService.SearchUsers(ctx.Request().Context(), query, user.ID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Search failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, httpdto.NewUserSummaries(users))
}
