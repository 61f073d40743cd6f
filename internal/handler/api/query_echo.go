package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"PriceQuery/internal/domain/models"
	"PriceQuery/internal/usecase"
	xhttp "PriceQuery/pkg/http"
	xlogger "PriceQuery/pkg/logger"
	xutil "PriceQuery/pkg/util"
)

// HealthCheck is one dependency probed by /healthz.
type HealthCheck struct {
	Name  string
	Check func(context.Context) error
}

// QueryEchoHandler serves the query and admin endpoints.
type QueryEchoHandler struct {
	logger  *xlogger.Logger
	price   *usecase.PriceUseCase
	ref     *usecase.ReferenceUseCase
	refresh *usecase.RefreshUseCase
	export  *usecase.ExportUseCase
	checks  []HealthCheck
}

// NewQueryEchoHandler builds the handler. export may be nil, in which case
// the export endpoint is not registered.
func NewQueryEchoHandler(
	logger *xlogger.Logger,
	price *usecase.PriceUseCase,
	ref *usecase.ReferenceUseCase,
	refresh *usecase.RefreshUseCase,
	export *usecase.ExportUseCase,
	checks ...HealthCheck,
) *QueryEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &QueryEchoHandler{logger: logger, price: price, ref: ref, refresh: refresh, export: export, checks: checks}
}

func (h *QueryEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/price", h.Price)
	g.GET("/security", h.Security)
	g.GET("/securities", h.Securities)
	g.GET("/trade_days", h.TradeDays)

	admin := g.Group("/admin")
	admin.POST("/refresh", h.Refresh)
	if h.export != nil {
		admin.POST("/export", h.Export)
	}
}

func (h *QueryEchoHandler) Price(c echo.Context) error {
	req := &models.PriceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	q, err := priceQuery(req)
	if err != nil {
		return h.fail(c, "price", err)
	}

	res, err := h.price.GetPrice(c.Request().Context(), q)
	if err != nil {
		return h.fail(c, "price", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *QueryEchoHandler) Security(c echo.Context) error {
	req := &models.SecurityInfoRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	date, err := timeArg("date", req.Date)
	if err != nil {
		return h.fail(c, "security", err)
	}

	sec, err := h.ref.GetSecurityInfo(c.Request().Context(), req.Code, date)
	if err != nil {
		return h.fail(c, "security", err)
	}
	return xhttp.SuccessResponse(c, newSecurityView(sec))
}

func (h *QueryEchoHandler) Securities(c echo.Context) error {
	req := &models.SecuritiesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	types, err := models.ParseSecurityTypes(xhttp.SplitList(req.Types))
	if err != nil {
		return h.fail(c, "securities", err)
	}
	date, err := timeArg("date", req.Date)
	if err != nil {
		return h.fail(c, "securities", err)
	}

	secs, err := h.ref.GetAllSecurities(c.Request().Context(), types, date)
	if err != nil {
		return h.fail(c, "securities", err)
	}
	rows := make([]securityView, len(secs))
	for i, s := range secs {
		rows[i] = newSecurityView(s)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *QueryEchoHandler) TradeDays(c echo.Context) error {
	req := &models.TradeDaysRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	var (
		q   models.TradeDaysQuery
		err error
	)
	if q.Start, err = timeArg("start_date", req.StartDate); err != nil {
		return h.fail(c, "trade_days", err)
	}
	if q.End, err = timeArg("end_date", req.EndDate); err != nil {
		return h.fail(c, "trade_days", err)
	}
	if q.Count, err = count(req.Count); err != nil {
		return h.fail(c, "trade_days", err)
	}

	days, err := h.ref.GetTradeDays(c.Request().Context(), q)
	if err != nil {
		return h.fail(c, "trade_days", err)
	}
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.In(models.Exchange).Format(time.DateOnly)
	}
	return xhttp.ListResponse(c, out, int64(len(out)))
}

func (h *QueryEchoHandler) Refresh(c echo.Context) error {
	req := &models.RefreshRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.refresh.Refresh(c.Request().Context(), req.Kind, req.Code); err != nil {
		return h.fail(c, "refresh", err)
	}
	return xhttp.SuccessResponse(c, map[string]string{"kind": req.Kind, "code": req.Code})
}

func (h *QueryEchoHandler) Export(c echo.Context) error {
	req := &models.ExportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	start, err := timeArg("start_date", req.StartDate)
	if err != nil {
		return h.fail(c, "export", err)
	}
	end, err := timeArg("end_date", req.EndDate)
	if err != nil {
		return h.fail(c, "export", err)
	}
	to := end.Time
	if end.DateOnly {
		to = to.Add(24*time.Hour - time.Nanosecond)
	}

	export := h.export.Export
	if req.Incremental {
		export = h.export.ExportNew
	}
	report, err := export(c.Request().Context(), req.Security, models.Unit(req.Unit), start.Time, to)
	if err != nil {
		return h.fail(c, "export", err)
	}
	return xhttp.SuccessResponse(c, report)
}

// Health reports 503 when any dependency check fails.
func (h *QueryEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	out := make(map[string]string, len(h.checks))
	for _, hc := range h.checks {
		if err := hc.Check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			out[hc.Name] = err.Error()
			continue
		}
		out[hc.Name] = "ok"
	}
	return xhttp.DataResponse(c, status, out)
}

func (h *QueryEchoHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err).WithParam("op", op)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(op+" usecase error", xlogger.Error(err))
	} else {
		h.logger.Debug(op+" rejected", xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

// toAppError maps domain errors to HTTP statuses.
func toAppError(err error) *xhttp.AppError {
	msg := err.Error()
	switch {
	case errors.Is(err, models.ErrUnknownSecurity):
		return xhttp.NotFoundError(msg)
	case errors.Is(err, models.ErrNoCalendarData):
		return xhttp.UnprocessableError(msg)
	case errors.Is(err, models.ErrInvalidArgument),
		errors.Is(err, models.ErrInvalidCode),
		errors.Is(err, models.ErrUnsupportedField),
		errors.Is(err, models.ErrIncompatibleOptions):
		appErr := xhttp.BadRequestError(msg)
		appErr.Code = "ERR_" + strings.ToUpper(usecase.ErrorKind(err))
		return appErr
	default:
		return xhttp.InternalError("query failed").WithError(err)
	}
}

func priceQuery(req *models.PriceRequest) (models.PriceQuery, error) {
	q := models.NewPriceQuery(xhttp.SplitList(req.Security)...)
	var err error
	if q.Start, err = timeArg("start_date", req.StartDate); err != nil {
		return q, err
	}
	if q.End, err = timeArg("end_date", req.EndDate); err != nil {
		return q, err
	}
	if q.Count, err = count(req.Count); err != nil {
		return q, err
	}
	if q.Frequency, err = models.ParseFrequency(req.Frequency); err != nil {
		return q, err
	}
	if q.Adjust, err = models.ParseAdjustMode(req.FQ); err != nil {
		return q, err
	}
	if fields := xhttp.SplitList(req.Fields); len(fields) > 0 {
		q.Fields = fields
	}
	q.SkipPaused = xutil.ParseBoolDefault(req.SkipPaused, false)
	q.FillPaused = xutil.ParseBoolDefault(req.FillPaused, true)
	q.Shape = models.OutputShape(req.Shape)
	return q, nil
}

func timeArg(name, s string) (*models.TimeArg, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, dateOnly, err := xhttp.ParseDate(s, models.Exchange)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrInvalidArgument, name, err)
	}
	return &models.TimeArg{Time: t, DateOnly: dateOnly}, nil
}

func count(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: count %q", models.ErrInvalidArgument, s)
	}
	return &n, nil
}

type securityView struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
	Name        string `json:"name"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Type        string `json:"type"`
	Parent      string `json:"parent,omitempty"`
}

func newSecurityView(s models.Security) securityView {
	return securityView{
		Code:        s.Code,
		DisplayName: s.DisplayName,
		Name:        s.Name,
		StartDate:   s.StartDate.In(models.Exchange).Format(time.DateOnly),
		EndDate:     s.EndDate.In(models.Exchange).Format(time.DateOnly),
		Type:        string(s.Type),
		Parent:      s.Parent,
	}
}
