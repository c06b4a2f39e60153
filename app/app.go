package app

import (
	"github.com/go-chi/oauth"
	"github.com/mbolis/survey-desk/config"
	"github.com/mbolis/survey-desk/metrics"
	"github.com/mbolis/survey-desk/repository"
)

// App holds what the controllers need. Its parts are built in main and
// handed over explicitly.
type App struct {
	*repository.Store
	*oauth.BearerServer
	*metrics.Metrics
	config.Config
}
