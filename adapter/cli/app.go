package cli

import (
	"github.com/felixgeelhaar/daysync/internal/identity"
	"github.com/felixgeelhaar/daysync/internal/tracker/application"
)

// App holds the CLI application dependencies.
type App struct {
	Engine *application.Engine
	Tokens *identity.TokenProvider
}

var appInstance *App

// SetApp sets the global app instance for CLI commands.
func SetApp(app *App) {
	appInstance = app
}

// GetApp returns the global app instance.
func GetApp() *App {
	return appInstance
}
