package logger

import (
	"go.uber.org/zap"

	"github.com/aliskhannn/certprep/internal/config"
)

func New(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Env == "production" {
		return zap.NewProduction()
	}

	return zap.NewDevelopment()
}

// ForLearner tags every entry of l with the learner identity.
// A nil logger yields a no-op one.
func ForLearner(l *zap.Logger, learnerID string) *zap.Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return l.With(zap.String("learner_id", learnerID))
}
