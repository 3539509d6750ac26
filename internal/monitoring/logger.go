package monitoring

import (
	"log/slog"
	"os"
	"time"
)

// Logger provides structured logging with scoring-domain helpers.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a JSON slog logger at the given level.
func NewLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{Logger: slog.New(handler)}
}

// ScoringLogger logs an individual scoring operation.
func (l *Logger) ScoringLogger(responseID string, composite int, tier string, confidence float64, fallback bool, duration time.Duration) {
	l.Info("individual scored",
		"response_id", responseID,
		"overall_hseg_score", composite,
		"overall_risk_tier", tier,
		"confidence", confidence,
		"heuristic_fallback", fallback,
		"duration_ms", duration.Milliseconds(),
	)
}

// TextRiskLogger logs a text classification operation. Crisis results are
// logged at warn so intervention tooling can alert on them.
func (l *Logger) TextRiskLogger(tier string, keywordScore float64, crisisCount int, duration time.Duration) {
	attrs := []any{
		"text_risk_tier", tier,
		"keyword_score", keywordScore,
		"crisis_phrase_count", crisisCount,
		"duration_ms", duration.Milliseconds(),
	}
	if tier == "Crisis" {
		l.Warn("text classified", attrs...)
		return
	}
	l.Info("text classified", attrs...)
}

// AggregationLogger logs an organizational snapshot computation.
func (l *Logger) AggregationLogger(orgID string, sampleSize int, orgTier string, turnover float64, duration time.Duration) {
	l.Info("organization aggregated",
		"org_id", orgID,
		"sample_size", sampleSize,
		"org_risk_tier", orgTier,
		"predicted_turnover_rate", turnover,
		"duration_ms", duration.Milliseconds(),
	)
}

// ArtifactLogger logs model bundle lifecycle events (load, hot reload).
func (l *Logger) ArtifactLogger(event, version string, err error) {
	if err != nil {
		l.Error("artifact event failed", "event", event, "version", version, "error", err)
		return
	}
	l.Info("artifact event", "event", event, "version", version)
}
