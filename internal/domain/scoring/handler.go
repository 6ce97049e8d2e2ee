package scoring

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pdms/pdms/internal/platform/httpx"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Home)
	e.GET("/health", h.Health)
	e.POST("/predict", h.Predict)
	e.POST("/features", h.Features)
}

type statusResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
	ModelVersion string `json:"model_version"`
}

func (h *Handler) Home(c echo.Context) error {
	return c.JSON(http.StatusOK, statusResponse{
		Status:       "ok",
		Message:      "Insurance premium category prediction API",
		ModelVersion: h.svc.ModelVersion(),
	})
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, statusResponse{Status: "ok", ModelVersion: h.svc.ModelVersion()})
}

func (h *Handler) Predict(c echo.Context) error {
	var in UserInput
	if err := httpx.BindJSON(c, &in); err != nil {
		return err
	}
	requestID, _ := c.Get("request_id").(string)
	res, err := h.svc.Predict(c.Request().Context(), requestID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Features(c echo.Context) error {
	var in UserInput
	if err := httpx.BindJSON(c, &in); err != nil {
		return err
	}
	f, err := h.svc.Features(in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, f)
}
