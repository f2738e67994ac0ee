// Package sim hosts the penalty engine in a simulated game server. It
// provides the players, clock, effect registry, world rules and chat the
// engine needs, and drives it from text commands.
package sim

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/nathoo/deathpenalty/engine"
	"github.com/nathoo/deathpenalty/engine/effects"
	"github.com/nathoo/deathpenalty/engine/pending"
	"github.com/nathoo/deathpenalty/logging"
	"github.com/nathoo/deathpenalty/render"
	"github.com/nathoo/deathpenalty/types"
)

// Options configure a Server.
type Options struct {
	Store   pending.Store  // persisted document
	Economy engine.Economy // provider registered by "economy on"; may be nil
	Level   zerolog.Level
	Mirror  io.Writer // optional JSON copy of every log line
}

// loggerSetter is implemented by stores that can log through the server.
type loggerSetter interface {
	SetLogger(zerolog.Logger)
}

// Server is a simulated game server.
type Server struct {
	opts     Options
	engine   *engine.Engine
	clock    *Clock
	registry *Registry
	renderer *render.Renderer

	players map[string]*Player
	byID    map[types.PlayerID]*Player
	order   []string

	economyOn     bool
	keepInventory bool

	logBuf bytes.Buffer
	log    zerolog.Logger
	inbox  []string
}

// New starts a server. The engine loads the document immediately, writing
// the defaults if there is none.
func New(opts Options) (*Server, error) {
	s := &Server{
		opts:     opts,
		clock:    &Clock{},
		registry: NewRegistry(),
		renderer: render.New(),
		players:  map[string]*Player{},
		byID:     map[types.PlayerID]*Player{},
	}
	var w io.Writer = logging.ConsoleWriter(&s.logBuf, true)
	if opts.Mirror != nil {
		w = zerolog.MultiLevelWriter(w, opts.Mirror)
	}
	s.log = logging.New(w, opts.Level)
	if ls, ok := opts.Store.(loggerSetter); ok {
		ls.SetLogger(s.log)
	}

	if err := s.boot(); err != nil {
		return nil, err
	}
	return s, nil
}

// boot creates a fresh engine over the persisted document.
func (s *Server) boot() error {
	s.engine = engine.New(engine.Deps{
		Store:      s.opts.Store,
		Experience: s,
		Effects:    s,
		Registry:   s.registry,
		Scheduler:  s.clock,
		World:      s,
		Renderer:   s.renderer,
		Messenger:  s,
		Log:        s.log,
	})
	if err := s.engine.Start(); err != nil {
		return err
	}
	if s.economyOn {
		s.engine.OnServiceChange(types.ServiceChange{Service: engine.ServiceEconomy, Provider: s.opts.Economy})
	}
	return nil
}

// Logger returns the server's console logger.
func (s *Server) Logger() zerolog.Logger {
	return s.log
}

// Engine returns the running engine.
func (s *Server) Engine() *engine.Engine {
	return s.engine
}

// Clock returns the server clock.
func (s *Server) Clock() *Clock {
	return s.clock
}

// Registry returns the effect registry.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Player looks up an online player by name.
func (s *Server) Player(name string) (*Player, bool) {
	p, ok := s.players[name]
	return p, ok
}

// Players returns online players in join order.
func (s *Server) Players() []*Player {
	out := make([]*Player, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.players[name])
	}
	return out
}

// PendingNames lists the players owed a penalty. Players that are not
// online are shown by ID.
func (s *Server) PendingNames() ([]string, error) {
	ids, err := s.engine.Pending()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.byID[id]; ok {
			names = append(names, p.Name)
		} else {
			names = append(names, id.String())
		}
	}
	return names, nil
}

// EconomyOn reports whether the economy service is registered.
func (s *Server) EconomyOn() bool {
	return s.economyOn
}

// KeepInventory implements engine.WorldRules.
func (s *Server) KeepInventory(string) bool {
	return s.keepInventory
}

// TotalExperience implements engine.Experience.
func (s *Server) TotalExperience(id types.PlayerID) (int, error) {
	p, ok := s.byID[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	return p.XP, nil
}

// SetTotalExperience implements engine.Experience.
func (s *Server) SetTotalExperience(id types.PlayerID, xp int) error {
	p, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	p.XP = xp
	return nil
}

// EffectContainer implements effects.Containers.
func (s *Server) EffectContainer(id types.PlayerID) (effects.Container, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	if p.Dead {
		return nil, ErrPlayerDead
	}
	if p.respawnedAt == s.clock.Now() {
		return nil, ErrContainerBusy
	}
	return &container{p: p, clock: s.clock}, nil
}

// SendMessage implements engine.Messenger.
func (s *Server) SendMessage(id types.PlayerID, text string) error {
	p, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	s.inbox = append(s.inbox, fmt.Sprintf("to %s: %s", p.Name, text))
	return nil
}

// Step runs one command line and returns its output together with the log
// lines and chat messages it produced.
func (s *Server) Step(line string) types.Result {
	var res types.Result
	res.Output = s.dispatch(context.Background(), line)
	res.Logs = s.DrainLogs()
	res.Messages = s.inbox
	s.inbox = nil
	return res
}

// DrainLogs returns and clears log lines written since the last step.
func (s *Server) DrainLogs() []string {
	var lines []string
	sc := bufio.NewScanner(&s.logBuf)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	s.logBuf.Reset()
	return lines
}
