package patient

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/pdms/pdms/internal/platform/httpx"
	"github.com/pdms/pdms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the record API. writeMW guards the mutating
// endpoints.
func (h *Handler) RegisterRoutes(e *echo.Echo, writeMW ...echo.MiddlewareFunc) {
	e.GET("/", h.Home)
	e.GET("/about", h.About)
	e.GET("/health", h.Health)
	e.GET("/view", h.View)
	e.GET("/patient/:id", h.GetPatient)
	e.GET("/sort", h.SortPatients)

	e.POST("/create", h.CreatePatient, writeMW...)
	e.PUT("/edit/:id", h.UpdatePatient, writeMW...)
	e.DELETE("/delete/:id", h.DeletePatient, writeMW...)
}

type messageResponse struct {
	Message string `json:"message"`
}

type updateResponse struct {
	Message string  `json:"message"`
	BMI     float64 `json:"bmi"`
	Verdict string  `json:"verdict"`
}

func (h *Handler) Home(c echo.Context) error {
	return c.JSON(http.StatusOK, messageResponse{Message: "Patient data management system"})
}

func (h *Handler) About(c echo.Context) error {
	return c.JSON(http.StatusOK, messageResponse{Message: "An API for managing patient data"})
}

type healthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
	Error  string `json:"error,omitempty"`
}

func (h *Handler) Health(c echo.Context) error {
	resp := healthResponse{Status: "ok", Store: h.svc.StoreName()}
	if err := h.svc.Health(c.Request().Context()); err != nil {
		resp.Status = "unavailable"
		resp.Error = err.Error()
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) View(c echo.Context) error {
	store, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, store)
}

func (h *Handler) GetPatient(c echo.Context) error {
	p, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) SortPatients(c echo.Context) error {
	sorted, err := h.svc.Sort(c.Request().Context(), c.QueryParam("sort_by"), c.QueryParam("order"))
	if err != nil {
		if errors.Is(err, ErrInvalidArgument) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}

	if pg, ok := pagination.Requested(c); ok {
		c.Response().Header().Set("X-Total-Count", strconv.Itoa(len(sorted)))
		c.Response().Header().Set("X-Has-More", strconv.FormatBool(pg.HasNext(len(sorted))))
		sorted = pagination.Slice(sorted, pg)
	}
	return c.JSON(http.StatusOK, sorted)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var req CreateRequest
	if err := httpx.BindJSON(c, &req); err != nil {
		return err
	}
	p, err := req.Patient()
	if err != nil {
		return err
	}

	if err := h.svc.Create(c.Request().Context(), p); err != nil {
		if errors.Is(err, ErrConflict) {
			return echo.NewHTTPError(http.StatusBadRequest, "patient already exists")
		}
		return err
	}
	return c.JSON(http.StatusCreated, messageResponse{Message: "new record created successfully"})
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	var u PatientUpdate
	if err := httpx.BindJSON(c, &u); err != nil {
		return err
	}

	res, err := h.svc.Update(c.Request().Context(), c.Param("id"), u)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, "patient not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, updateResponse{
		Message: "updated successfully",
		BMI:     res.BMI,
		Verdict: res.Verdict,
	})
}

func (h *Handler) DeletePatient(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, "patient not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "deleted successfully"})
}
