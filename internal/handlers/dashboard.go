package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/projectflow/backend/internal/services"
	"github.com/projectflow/backend/pkg/response"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
	holidays         *services.HolidayService
}

func NewDashboardHandler(dashboardService *services.DashboardService, holidays *services.HolidayService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, holidays: holidays}
}

// Get returns the executive dashboard
// GET /api/dashboard
func (h *DashboardHandler) Get(c *gin.Context) {
	resp, err := h.dashboardService.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// HolidayCountries lists the calendars deadlines can be computed against
// GET /api/dashboard/holiday-countries
func (h *DashboardHandler) HolidayCountries(c *gin.Context) {
	response.Success(c, gin.H{
		"current":   h.holidays.Country(),
		"countries": h.holidays.SupportedCountries(),
	})
}
