package logger

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"os"
)

const (
	ComponentField = "component"
	SessionIDField = "session"
	ActorIDField   = "actor"
	NodeField      = "node"
	DomainField    = "domain"
	ToolIDField    = "tool"
	AttemptField   = "attempt"
	CategoryField  = "category"
	StatusField    = "status"
)

func NewGlobal(level string, pretty bool) error {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}

	zerolog.SetGlobalLevel(l)

	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return nil
}

// For returns a sub-logger of the global logger tagged with the component name.
func For(component string) zerolog.Logger {
	return log.With().Str(ComponentField, component).Logger()
}
