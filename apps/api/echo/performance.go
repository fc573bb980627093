package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/walimuhq/walimu/core/performance"
)

type performanceApi struct {
	svc      performance.ServiceInterface
	jwt      *jwtHelper
	validate *validator.Validate
}

func registerPerformanceAPI(
	g *echo.Group,
	jwtmw echo.MiddlewareFunc,
	h *jwtHelper,
	svc performance.ServiceInterface,
	validate *validator.Validate,
) {
	api := performanceApi{svc: svc, jwt: h, validate: validate}

	pg := g.Group("/performance", jwtmw, h.adminMiddleware())
	pg.POST("/calculate", api.calculate)
	pg.POST("/recalculate", api.recalculate)
	pg.POST("/override-tier", api.overrideTier)

	// tutors may read their own snapshot; admins anyone's
	g.GET("/tutors/:id/performance", api.snapshot, jwtmw)
}

// Handlers

func (api *performanceApi) calculate(ctx echo.Context) error {
	var data CalculateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CalculateRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	res, err := api.svc.Calculate(ctx.Request().Context(), data.TutorID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *performanceApi) recalculate(ctx echo.Context) error {
	var data RecalculateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RecalculateRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	res, err := api.svc.Recalculate(ctx.Request().Context(), data.Tutor)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *performanceApi) overrideTier(ctx echo.Context) error {
	var data performance.OverrideTier
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to OverrideTier")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	// record who did it
	claims, err := api.jwt.getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if data.AdminID == "" {
		data.AdminID = claims.Subject
	}

	res, err := api.svc.Override(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *performanceApi) snapshot(ctx echo.Context) error {
	claims, err := api.jwt.getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	tutor, err := api.svc.GetSnapshot(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if !claims.IsAdmin && tutor.UserID != claims.Subject {
		return errHttpForbidden
	}
	return ctx.JSON(http.StatusOK, tutor)
}
