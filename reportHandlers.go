package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/models/reports"
	"github.com/mmdatafocus/pos_backend/utils"
)

// reportParams collects every query value any report understands.
func reportParams(c *gin.Context) (*reports.ReportParams, error) {
	params := &reports.ReportParams{
		Limit:     reports.DefaultTopProductsLimit,
		Threshold: reports.DefaultLowRotationThreshold,
	}
	var err error
	// the daily reports read ?date=, so it is not folded into the range here
	if params.From, params.To, err = utils.ParseRange("", c.Query("from"), c.Query("to"), config.Location(), false); err != nil {
		return nil, err
	}
	if params.Date, err = queryDay(c); err != nil {
		return nil, err
	}
	if params.Limit, err = queryInt(c, "limit", reports.DefaultTopProductsLimit); err != nil {
		return nil, err
	}
	if params.Limit == 0 {
		params.Limit = reports.DefaultTopProductsLimit
	}
	if value := c.Query("threshold"); value != "" {
		threshold, err := utils.ParseDecimal(value)
		if err != nil || threshold.IsNegative() {
			return nil, utils.NewValidationError("invalid threshold")
		}
		params.Threshold = threshold
	}
	return params, nil
}

// reportHandler runs one report with the parsed params and writes it as JSON.
func reportHandler[T any](run func(c *gin.Context, params *reports.ReportParams) (T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		params, err := reportParams(c)
		if err != nil {
			respondError(c, err)
			return
		}
		result, err := run(c, params)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func topProductsHandler() gin.HandlerFunc {
	return reportHandler(func(c *gin.Context, p *reports.ReportParams) ([]*reports.TopProductResponse, error) {
		return reports.GetTopProductsReport(c.Request.Context(), p.From, p.To, p.Limit)
	})
}

func salesByHourHandler() gin.HandlerFunc {
	return reportHandler(func(c *gin.Context, p *reports.ReportParams) ([]*reports.SalesByHourResponse, error) {
		return reports.GetSalesByHourReport(c.Request.Context(), p.Date)
	})
}

func inventoryValuationHandler() gin.HandlerFunc {
	return reportHandler(func(c *gin.Context, _ *reports.ReportParams) (*reports.InventoryValuationResponse, error) {
		return reports.GetInventoryValuationReport(c.Request.Context())
	})
}

func lowRotationHandler() gin.HandlerFunc {
	return reportHandler(func(c *gin.Context, p *reports.ReportParams) ([]*reports.LowRotationResponse, error) {
		return reports.GetLowRotationReport(c.Request.Context(), p.From, p.To, p.Threshold)
	})
}

func employeesSalesHandler() gin.HandlerFunc {
	return reportHandler(func(c *gin.Context, p *reports.ReportParams) ([]*reports.EmployeeSalesResponse, error) {
		return reports.GetEmployeesSalesReport(c.Request.Context(), p.From, p.To)
	})
}

func financialSummaryHandler() gin.HandlerFunc {
	return reportHandler(func(c *gin.Context, p *reports.ReportParams) (*reports.FinancialSummaryResponse, error) {
		return reports.GetFinancialSummaryReport(c.Request.Context(), p.From, p.To)
	})
}

func dailySummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, err := queryRange(c, false)
		if err != nil {
			respondError(c, err)
			return
		}
		rows, err := reports.GetDailySummaryReport(c.Request.Context(), from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func exportReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		params, err := reportParams(c)
		if err != nil {
			respondError(c, err)
			return
		}
		data, filename, err := reports.ExportReport(c.Request.Context(), c.Param("name"), *params)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Disposition", contentDisposition("attachment", filename))
		c.Data(http.StatusOK, reports.ExcelContentType, data)
	}
}
