package reports

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/models"
	"github.com/mmdatafocus/pos_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("pos_backend/reports")

func reportCacheEnabled() bool {
	v := strings.TrimSpace(os.Getenv("REPORT_CACHE_ENABLED"))
	if v == "" {
		return true
	}
	return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes") || strings.EqualFold(v, "on")
}

func reportCacheTTL() time.Duration {
	// Env: REPORT_CACHE_TTL_SECONDS (default 60s)
	ttl := 60
	if v := strings.TrimSpace(os.Getenv("REPORT_CACHE_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = n
		}
	}
	return time.Duration(ttl) * time.Second
}

func reportSlowMs() int64 {
	// Env: REPORT_SLOW_MS (default 500ms)
	ms := int64(500)
	if v := strings.TrimSpace(os.Getenv("REPORT_SLOW_MS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			ms = n
		}
	}
	return ms
}

func logSlowReport(ctx context.Context, name string, started time.Time, extra map[string]any) {
	d := time.Since(started)
	if d.Milliseconds() < reportSlowMs() {
		return
	}
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	config.GetLogger().WithFields(logrus.Fields{
		"report":         name,
		"ms":             d.Milliseconds(),
		"correlation_id": cid,
		"extra":          extra,
	}).Warn("slow report")
}

func cacheGet[T any](key string, dest *T) (bool, error) {
	return config.GetRedisObject(key, dest)
}

func cacheSet(key string, obj any, ttl time.Duration) error {
	return config.SetRedisObject(key, obj, ttl)
}

func formatKeyTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

// cacheKey builds Report:<name>:<part>:<part>...
func cacheKey(name string, parts ...any) string {
	var b strings.Builder
	b.WriteString(models.ReportCachePrefix)
	b.WriteString(name)
	for _, p := range parts {
		b.WriteString(":")
		switch v := p.(type) {
		case *time.Time:
			b.WriteString(formatKeyTime(v))
		default:
			b.WriteString(fmt.Sprint(v))
		}
	}
	return b.String()
}

// cachedReport serves name+params from Redis, or runs load and stores its result.
func cachedReport[T any](ctx context.Context, name string, keyParts []any, load func(ctx context.Context) (T, error)) (result T, err error) {
	ctx, span := tracer.Start(ctx, "reports."+name)
	started := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		logSlowReport(ctx, name, started, map[string]any{"params": keyParts})
	}()

	key := cacheKey(name, keyParts...)
	if reportCacheEnabled() {
		var cached T
		if ok, err := cacheGet(key, &cached); err == nil && ok {
			span.SetAttributes(attribute.Bool("report.cache_hit", true))
			return cached, nil
		}
	}
	span.SetAttributes(attribute.Bool("report.cache_hit", false))

	result, err = load(ctx)
	if err != nil {
		return result, err
	}
	if reportCacheEnabled() {
		if err := cacheSet(key, result, reportCacheTTL()); err != nil {
			config.LogError(config.GetLogger(), "reportCache.go", "cachedReport", "caching report", key, err)
		}
	}
	return result, nil
}
