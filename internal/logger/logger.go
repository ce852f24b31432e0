package logger

import (
	"go.uber.org/zap"

	"github.com/safar/go-food-order/internal/config"
)

// New builds a sugared logger: JSON output in production, console otherwise.
func New(env string) (*zap.SugaredLogger, error) {
	var (
		log *zap.Logger
		err error
	)

	if env == config.EnvProduction {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}

	return log.Sugar().With("env", env), nil
}
