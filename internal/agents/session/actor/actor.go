package actor

import (
	"context"
	"errors"
	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go-toolrouter/internal/workflow"
	"go-toolrouter/pkg/logger"
	"go-toolrouter/pkg/memory/buffer"
	"go-toolrouter/pkg/messages"
	"go-toolrouter/pkg/models"
)

var ErrSessionClosed = errors.New("session is closed")

// Runner runs one query through the workflow.
type Runner interface {
	Run(ctx context.Context, query string, history []models.ChatMessage) workflow.Result
}

// Session owns the chat history of one conversation. The actor mailbox serialises its
// queries, so a run always sees the history of every earlier run.
type Session struct {
	id      uuid.UUID
	runner  Runner
	history *buffer.History
	state   models.State
}

func New(id uuid.UUID, runner Runner) *Session {
	return &Session{
		id:      id,
		runner:  runner,
		history: buffer.New(),
		state:   models.Init,
	}
}

// Producer adapts New for actor.PropsFromProducer.
func Producer(id uuid.UUID, runner Runner) actor.Producer {
	return func() actor.Actor {
		return New(id, runner)
	}
}

func (s *Session) Receive(ac actor.Context) {
	l := log.With().Fields(map[string]interface{}{logger.ActorIDField: ac.Self().GetId(), logger.SessionIDField: s.id.String()}).Logger()
	switch msg := ac.Message().(type) {
	case *actor.Started:
		l.Debug().Msg("starting session")
		s.state = models.Idle
	case *actor.Stopping:
		l.Debug().Msg("stopping session")
	case *actor.Stopped:
		l.Debug().Msg("stopped session")
	case *actor.Restarting:
		l.Debug().Msg("restarting session")
	case messages.Query:
		if s.state == models.Finished {
			ac.Respond(messages.ReportError{Error: ErrSessionClosed.Error()})
			return
		}
		l.Debug().Str("request", msg.RequestID.String()).Msg("query received")
		s.state = models.Thinking

		res := s.runner.Run(context.Background(), msg.Text, s.history.Snapshot())
		s.history.Add(models.RoleUser, msg.Text)
		s.history.Add(models.RoleAssistant, res.FinalResponse)

		s.state = models.Idle
		if res.Failed {
			s.state = models.Failed
		}
		ac.Respond(messages.QueryResult{RequestID: msg.RequestID, Result: res})
	case messages.GetHistory:
		ac.Respond(messages.History{State: s.state, Messages: s.history.Snapshot()})
	case messages.Close:
		l.Info().Int("turns", s.history.Len()/2).Msg("session closed")
		s.state = models.Finished
		ac.Respond(messages.Closed{})
	default:
		l.Warn().Msgf("unknown message: %v", msg)
	}
}
