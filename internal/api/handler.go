package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gmendes/carteira/internal/domain/dto"
	"github.com/gmendes/carteira/internal/domain/models"
	"github.com/gmendes/carteira/internal/fees"
	"github.com/gmendes/carteira/internal/ingestion"
	"github.com/gmendes/carteira/internal/service"
)

// Handler provides HTTP handlers for the position and cost endpoints.
//
// Responsibilities:
//   - Validate incoming HTTP query parameters
//   - Interact with the service layer
//   - Translate service results into response DTOs
//   - Return structured JSON responses with appropriate HTTP status codes
type Handler struct {
	positions service.PositionService
	costs     service.CostService
}

// NewHandler constructs a new Handler instance.
func NewHandler(positions service.PositionService, costs service.CostService) *Handler {
	return &Handler{positions: positions, costs: costs}
}

// GetPositions handles GET /api/v1/positions requests.
//
// Query Parameters:
//   - ticker (string, optional): Restrict the replay to one ticker (e.g., "PETR4").
//   - data_inicio (string, optional): First trade date in YYYY-MM-DD format.
//   - data_fim (string, optional): Last trade date in YYYY-MM-DD format.
//
// When no dates are given the replay covers the last 7 Brazilian
// business days ending yesterday.
//
// GetPositions godoc
// @Summary      Replay trades into positions
// @Description  Replays the stored trades of the range through the position ledger and returns per-ticker positions plus cumulative realized P&L
// @Tags         positions
// @Accept       json
// @Produce      json
// @Param        ticker       query     string  false  "Stock ticker" example(PETR4)
// @Param        data_inicio  query     string  false  "Start date in YYYY-MM-DD" example(2025-06-02)
// @Param        data_fim     query     string  false  "End date in YYYY-MM-DD" example(2025-06-30)
// @Success      200          {object}  dto.PositionsResponse  "Success"
// @Failure      400          {object}  dto.ErrorResponse      "Bad Request"
// @Failure      500          {object}  dto.ErrorResponse      "Internal Error"
// @Router       /api/v1/positions [get]
func (h *Handler) GetPositions(c *gin.Context) {
	ticker := strings.ToUpper(strings.TrimSpace(c.Query("ticker")))

	startDate, endDate, err := dateRange(c.Query("data_inicio"), c.Query("data_fim"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid date format, expected YYYY-MM-DD", err))
		return
	}

	positions, realized, err := h.positions.GetPositions(c.Request.Context(), ticker, startDate, endDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to replay positions", err))
		return
	}

	resp := dto.PositionsResponse{
		Positions:   positions,
		RealizedPnL: realized,
	}
	if startDate != nil {
		resp.From = startDate.Format("2006-01-02")
	}
	if endDate != nil {
		resp.To = endDate.Format("2006-01-02")
	}

	c.JSON(http.StatusOK, resp)
}

// GetCosts handles GET /api/v1/costs requests.
//
// Query Parameters:
//   - cnpj (string, required): Fund CNPJ, punctuation tolerated.
//   - period (string, optional): Reference month in YYYY-MM format.
//   - meses (int, optional): Number of past reference months (default 12).
//
// With "period" a single breakdown is returned; otherwise the series of
// the last "meses" months (months without a filed snapshot omitted).
//
// GetCosts godoc
// @Summary      Administration-cost breakdown
// @Description  Computes the three-level administration-cost breakdown of a fund for one reference month or a series of months
// @Tags         costs
// @Accept       json
// @Produce      json
// @Param        cnpj    query     string  true   "Fund CNPJ" example(11.222.333/0001-44)
// @Param        period  query     string  false  "Reference month in YYYY-MM" example(2025-06)
// @Param        meses   query     int     false  "Number of past months" example(12)
// @Success      200     {object}  dto.CostSeriesResponse  "Success"
// @Failure      400     {object}  dto.ErrorResponse       "Bad Request"
// @Failure      404     {object}  dto.ErrorResponse       "Not Found"
// @Failure      500     {object}  dto.ErrorResponse       "Internal Error"
// @Router       /api/v1/costs [get]
func (h *Handler) GetCosts(c *gin.Context) {
	cnpj := onlyDigits(c.Query("cnpj"))
	if cnpj == "" {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("cnpj is required", nil))
		return
	}

	if period := c.Query("period"); period != "" {
		if !ingestion.ValidPeriod(period) {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid period format, expected YYYY-MM", nil))
			return
		}
		bd, err := h.costs.GetBreakdown(c.Request.Context(), cnpj, period)
		if err != nil {
			if isNotFound(err) {
				c.JSON(http.StatusNotFound, dto.NewErrorResponse("no snapshot for period", err))
				return
			}
			c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to compute costs", err))
			return
		}
		c.JSON(http.StatusOK, toCostResponse(bd))
		return
	}

	months := 12
	if s := c.Query("meses"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid meses, expected a positive integer", err))
			return
		}
		months = n
	}

	series, err := h.costs.GetSeries(c.Request.Context(), cnpj, months)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to compute cost series", err))
		return
	}

	resp := dto.CostSeriesResponse{CNPJ: cnpj, Periods: make([]dto.CostResponse, 0, len(series))}
	for _, bd := range series {
		resp.Periods = append(resp.Periods, toCostResponse(bd))
	}
	c.JSON(http.StatusOK, resp)
}

// dateRange parses the optional date params. When both are absent it
// defaults to the last 7 Brazilian business days ending yesterday,
// matching the trade-note ingestion window.
func dateRange(startStr, endStr string) (*time.Time, *time.Time, error) {
	var startDate, endDate *time.Time
	if startStr != "" {
		parsed, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			return nil, nil, err
		}
		startDate = &parsed
	}
	if endStr != "" {
		parsed, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			return nil, nil, err
		}
		endDate = &parsed
	}
	if startDate == nil && endDate == nil {
		days := ingestion.LastNBusinessDays(7, time.Now())
		first, last := days[len(days)-1], days[0]
		startDate, endDate = &first, &last
	}
	return startDate, endDate, nil
}

func toCostResponse(bd models.CostBreakdown) dto.CostResponse {
	return dto.CostResponse{
		CNPJ:        bd.CNPJ,
		Period:      bd.Period,
		Nivel1:      bd.Nivel1,
		Nivel2:      bd.Nivel2,
		Nivel3:      bd.Nivel3,
		WeightedFee: bd.WeightedFee,
		TotalValue:  bd.TotalValue,
		Pct:         bd.Pct,
		Annualized:  bd.Annualized,
	}
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isNotFound(err error) bool {
	return errors.Is(err, fees.ErrSnapshotNotFound)
}
