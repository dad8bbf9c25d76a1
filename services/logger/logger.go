package logsvc

import (
	"log"

	"github.com/trezcool/masomo-offline/core"
)

// New returns the logger selected by conf.Logger.
func New(std *log.Logger, conf *core.Config) (core.Logger, error) {
	if conf.Logger == "zap" {
		zl, err := NewZapLogger(conf)
		if err != nil {
			return nil, err
		}
		return zl, nil
	}
	return NewRollbarLogger(std, conf), nil
}
