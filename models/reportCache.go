package models

import "github.com/mmdatafocus/pos_backend/config"

// ReportCachePrefix namespaces cached report results in Redis.
const ReportCachePrefix = "Report:"

// InvalidateReportCache drops every cached report. Called after sales, stock or expense writes.
func InvalidateReportCache() {
	if err := config.RemoveRedisPattern(ReportCachePrefix + "*"); err != nil {
		config.LogError(config.GetLogger(), "reportCache.go", "InvalidateReportCache", "removing report cache", nil, err)
	}
}
