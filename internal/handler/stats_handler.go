package handler

import (
	"net/http"
	"time"

	"github.com/dafibh/walletwise/walletwise-backend/internal/domain"
	"github.com/dafibh/walletwise/walletwise-backend/internal/middleware"
	"github.com/dafibh/walletwise/walletwise-backend/internal/service"
	"github.com/dafibh/walletwise/walletwise-backend/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// StatsHandler handles statistics HTTP requests
type StatsHandler struct {
	statsService *service.StatsService
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
	}
}

// CategoryTotalResponse represents one category total in API responses
type CategoryTotalResponse struct {
	Category string `json:"category"`
	Total    string `json:"total"`
	Count    int    `json:"count"`
}

// StatsSummaryResponse represents the stats summary API response
type StatsSummaryResponse struct {
	TotalBalance      string                  `json:"totalBalance"`
	TotalIncome       string                  `json:"totalIncome"`
	TotalExpense      string                  `json:"totalExpense"`
	Net               string                  `json:"net"`
	WalletCount       int                     `json:"walletCount"`
	TransactionCount  int                     `json:"transactionCount"`
	ExpenseByCategory []CategoryTotalResponse `json:"expenseByCategory"`
	IncomeByCategory  []CategoryTotalResponse `json:"incomeByCategory"`
}

// GetSummary godoc
// @Summary Get stats summary
// @Description Totals and per-category sums. Accepts from/to (YYYY-MM-DD) or month (YYYY-MM).
// @Tags stats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param month query string false "Month (YYYY-MM)"
// @Success 200 {object} StatsSummaryResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /stats/summary [get]
func (h *StatsHandler) GetSummary(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var from, to *time.Time
	if raw := c.QueryParam("month"); raw != "" {
		if c.QueryParam("from") != "" || c.QueryParam("to") != "" {
			return NewValidationError(c, "Use either month or from/to", []ValidationError{{Field: "month", Message: "Cannot be combined with from or to"}})
		}
		first, last, err := util.ParseYearMonth(raw)
		if err != nil {
			return NewValidationError(c, "Invalid month", []ValidationError{{Field: "month", Message: "Must be in YYYY-MM format"}})
		}
		from, to = &first, &last
	}
	if raw := c.QueryParam("from"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return NewValidationError(c, "Invalid from date", []ValidationError{{Field: "from", Message: "Must be in YYYY-MM-DD format"}})
		}
		from = &parsed
	}
	if raw := c.QueryParam("to"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return NewValidationError(c, "Invalid to date", []ValidationError{{Field: "to", Message: "Must be in YYYY-MM-DD format"}})
		}
		to = &parsed
	}
	if from != nil && to != nil && to.Before(*from) {
		return NewValidationError(c, "Invalid date range", []ValidationError{{Field: "to", Message: "Must not be before from"}})
	}

	summary, err := h.statsService.GetSummary(c.Request().Context(), userID, from, to)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to get stats summary")
		return NewInternalError(c, "Failed to get stats summary")
	}

	return c.JSON(http.StatusOK, StatsSummaryResponse{
		TotalBalance:      summary.TotalBalance.StringFixed(2),
		TotalIncome:       summary.TotalIncome.StringFixed(2),
		TotalExpense:      summary.TotalExpense.StringFixed(2),
		Net:               summary.Net.StringFixed(2),
		WalletCount:       summary.WalletCount,
		TransactionCount:  summary.TransactionCount,
		ExpenseByCategory: toCategoryTotalResponses(summary.ExpenseByCategory),
		IncomeByCategory:  toCategoryTotalResponses(summary.IncomeByCategory),
	})
}

func toCategoryTotalResponses(totals []*domain.CategoryTotal) []CategoryTotalResponse {
	response := make([]CategoryTotalResponse, len(totals))
	for i, t := range totals {
		response[i] = CategoryTotalResponse{
			Category: t.Category,
			Total:    t.Total.StringFixed(2),
			Count:    t.Count,
		}
	}
	return response
}
