package env

import (
	"github.com/thatsimonsguy/sprinkler-controller/internal/config"
)

var Cfg *config.Config
