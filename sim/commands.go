package sim

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nathoo/deathpenalty/engine"
	"github.com/nathoo/deathpenalty/engine/effects"
	"github.com/nathoo/deathpenalty/types"
)

// HelpLines describes the server commands.
var HelpLines = []string{
	"Server commands:",
	"  join <name> [balance] [xp]             Bring a player online",
	"  die <name> [by <killer>|self|<cause>]  Kill a player or a mob",
	"  respawn <name>                         Respawn a dead player",
	"  tick [n]                               Advance the clock (default 1)",
	"  economy on|off                         Register or remove the economy service",
	"  keepinv on|off                         Set the keepInventory game rule",
	"  reload                                 Reload the penalty config",
	"  restart                                Restart the plugin from the saved config",
	"  status [name]                          Show server or player state",
	"  help                                   Show this help",
}

// dispatch parses and runs one command.
func (s *Server) dispatch(ctx context.Context, line string) []string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	verb, args := strings.ToLower(fields[0]), fields[1:]

	switch verb {
	case "join":
		return s.cmdJoin(ctx, args)
	case "die", "kill":
		return s.cmdDie(ctx, args)
	case "respawn":
		return s.cmdRespawn(ctx, args)
	case "tick", "wait":
		return s.cmdTick(args)
	case "economy":
		return s.cmdEconomy(args)
	case "keepinv", "keepinventory":
		return s.cmdKeepInventory(args)
	case "reload":
		if err := s.engine.OnReload(); err != nil {
			return []string{fmt.Sprintf("Reload failed: %v", err)}
		}
		return []string{"Config reloaded."}
	case "restart":
		return s.cmdRestart()
	case "status":
		return s.cmdStatus(ctx, args)
	case "help", "?":
		return append([]string(nil), HelpLines...)
	default:
		return []string{fmt.Sprintf("Unknown command %q. Type help for a list of commands.", verb)}
	}
}

func (s *Server) cmdJoin(ctx context.Context, args []string) []string {
	if len(args) == 0 || len(args) > 3 {
		return []string{"Usage: join <name> [balance] [xp]"}
	}
	name := args[0]
	if _, ok := s.players[name]; ok {
		return []string{fmt.Sprintf("%s is already online.", name)}
	}

	p := newPlayer(name)
	var balance *decimal.Decimal
	if len(args) > 1 {
		d, err := decimal.NewFromString(args[1])
		if err != nil || d.IsNegative() {
			return []string{fmt.Sprintf("Invalid balance %q.", args[1])}
		}
		if s.opts.Economy == nil {
			return []string{"No economy provider is configured."}
		}
		balance = &d
	}
	if len(args) > 2 {
		xp, err := strconv.Atoi(args[2])
		if err != nil || xp < 0 {
			return []string{fmt.Sprintf("Invalid experience %q.", args[2])}
		}
		p.XP = xp
	}

	if balance != nil {
		acct, err := s.opts.Economy.GetOrCreateAccount(ctx, p.ID)
		if err == nil {
			err = acct.SetBalance(ctx, s.opts.Economy.DefaultCurrency(), *balance, types.Cause{Plugin: "sim"})
		}
		if err != nil {
			return []string{fmt.Sprintf("Can't set balance: %v", err)}
		}
	}

	s.players[name] = p
	s.byID[p.ID] = p
	s.order = append(s.order, name)
	return []string{fmt.Sprintf("%s joined the game.", name)}
}

func (s *Server) cmdDie(ctx context.Context, args []string) []string {
	if len(args) == 0 {
		return []string{"Usage: die <name> [by <killer>|self|<cause>]"}
	}
	name := args[0]
	cause, desc, err := s.parseCause(name, args[1:])
	if err != nil {
		return []string{err.Error()}
	}

	p, ok := s.players[name]
	if !ok {
		// Any other name is a mob.
		ev := types.DeathEvent{
			Target: types.Entity{ID: uuid.NewSHA1(uuid.NameSpaceOID, []byte("entity:"+name)), Kind: types.KindMob, Name: name, World: DefaultWorld},
			Cause:  cause,
		}
		if err := s.engine.OnDeath(ctx, ev); err != nil {
			return []string{fmt.Sprintf("Error: %v", err)}
		}
		return []string{fmt.Sprintf("%s %s.", name, desc)}
	}
	if p.Dead {
		return []string{fmt.Sprintf("%s is already dead.", name)}
	}

	p.die(s.keepInventory)
	ev := types.DeathEvent{
		Target: types.Entity{ID: p.ID, Kind: types.KindPlayer, Name: p.Name, World: p.World},
		Cause:  cause,
	}
	if err := s.engine.OnDeath(ctx, ev); err != nil {
		return []string{fmt.Sprintf("%s %s.", name, desc), fmt.Sprintf("Error: %v", err)}
	}
	return []string{fmt.Sprintf("%s %s.", name, desc)}
}

// parseCause reads the optional "by <killer>", "self" or "<cause>" suffix
// of a die command.
func (s *Server) parseCause(victim string, args []string) (types.CauseSource, string, error) {
	switch {
	case len(args) == 0:
		return types.CauseSource{Kind: types.CauseEnvironment, Name: "generic"}, "died", nil
	case len(args) == 1 && strings.EqualFold(args[0], "self"):
		v, ok := s.players[victim]
		if !ok {
			return types.CauseSource{}, "", errors.New("Only players can kill themselves.")
		}
		return types.CauseSource{Kind: types.CausePlayer, Player: v.ID, Name: v.Name}, "killed themselves", nil
	case len(args) == 2 && strings.EqualFold(args[0], "by"):
		killer := args[1]
		if k, ok := s.players[killer]; ok {
			return types.CauseSource{Kind: types.CausePlayer, Player: k.ID, Name: k.Name}, "was slain by " + killer, nil
		}
		return types.CauseSource{Kind: types.CauseEntity, Name: killer}, "was slain by " + killer, nil
	case len(args) == 1:
		return types.CauseSource{Kind: types.CauseEnvironment, Name: args[0]}, "died of " + args[0], nil
	default:
		return types.CauseSource{}, "", errors.New("Usage: die <name> [by <killer>|self|<cause>]")
	}
}

func (s *Server) cmdRespawn(ctx context.Context, args []string) []string {
	if len(args) != 1 {
		return []string{"Usage: respawn <name>"}
	}
	p, ok := s.players[args[0]]
	if !ok {
		return []string{fmt.Sprintf("%s is not online.", args[0])}
	}
	if !p.Dead {
		return []string{fmt.Sprintf("%s is not dead.", p.Name)}
	}

	p.Dead = false
	p.respawnedAt = s.clock.Now()
	out, err := s.engine.OnRespawn(ctx, types.RespawnEvent{Player: p.ID, Name: p.Name, World: p.World})

	lines := []string{fmt.Sprintf("%s respawned.", p.Name)}
	if out.Resolved {
		lines = append(lines, describeOutcome(p.Name, out)...)
	}
	if err != nil {
		lines = append(lines, fmt.Sprintf("Error: %v", err))
	}
	return lines
}

// describeOutcome summarizes a resolved penalty.
func describeOutcome(name string, out types.Outcome) []string {
	params := engine.MessageParams(name, out)
	var parts []string
	if v, ok := params[engine.ParamMoneyLost]; ok {
		parts = append(parts, fmt.Sprintf("lost %s %s", v, params[engine.ParamCurrency]))
	}
	if v, ok := params[engine.ParamXPLost]; ok {
		parts = append(parts, fmt.Sprintf("lost %s XP", v))
	}
	if v, ok := params[engine.ParamEffects]; ok {
		parts = append(parts, fmt.Sprintf("effects in %d ticks: %s", effects.DelayTicks, v))
	}

	var lines []string
	if len(parts) == 0 {
		lines = append(lines, "Penalty resolved, nothing applied.")
	} else {
		lines = append(lines, "Penalty: "+strings.Join(parts, "; ")+".")
	}
	for _, err := range out.Skipped {
		lines = append(lines, fmt.Sprintf("Skipped: %v", err))
	}
	return lines
}

func (s *Server) cmdTick(args []string) []string {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			return []string{fmt.Sprintf("Invalid tick count %q.", args[0])}
		}
		n = v
	}
	ran := s.clock.Advance(n)
	if ran == 0 {
		return []string{fmt.Sprintf("Tick %d.", s.clock.Now())}
	}
	return []string{fmt.Sprintf("Tick %d (%d scheduled task(s) ran).", s.clock.Now(), ran)}
}

func (s *Server) cmdEconomy(args []string) []string {
	on, ok := onOff(args)
	if !ok {
		return []string{"Usage: economy on|off"}
	}
	if on && s.opts.Economy == nil {
		return []string{"No economy provider is configured."}
	}
	s.economyOn = on
	if on {
		s.engine.OnServiceChange(types.ServiceChange{Service: engine.ServiceEconomy, Provider: s.opts.Economy})
		return []string{fmt.Sprintf("Economy service registered (%s).", s.opts.Economy.DefaultCurrency())}
	}
	s.engine.OnServiceChange(types.ServiceChange{Service: engine.ServiceEconomy})
	return []string{"Economy service removed."}
}

func (s *Server) cmdKeepInventory(args []string) []string {
	on, ok := onOff(args)
	if !ok {
		return []string{"Usage: keepinv on|off"}
	}
	s.keepInventory = on
	return []string{fmt.Sprintf("Game rule keepInventory is now %t.", on)}
}

func (s *Server) cmdRestart() []string {
	dropped := s.clock.Reset()
	if err := s.boot(); err != nil {
		return []string{fmt.Sprintf("Restart failed: %v", err)}
	}
	lines := []string{"Plugin restarted."}
	if dropped > 0 {
		lines = append(lines, fmt.Sprintf("%d scheduled task(s) were lost.", dropped))
	}
	return lines
}

func (s *Server) cmdStatus(ctx context.Context, args []string) []string {
	if len(args) > 0 {
		p, ok := s.players[args[0]]
		if !ok {
			return []string{fmt.Sprintf("%s is not online.", args[0])}
		}
		return s.playerStatus(ctx, p)
	}

	econ := "off"
	if s.economyOn {
		econ = "on (" + s.opts.Economy.DefaultCurrency() + ")"
	}
	lines := []string{
		fmt.Sprintf("Tick: %d (%d task(s) scheduled)", s.clock.Now(), s.clock.Pending()),
		fmt.Sprintf("Economy: %s", econ),
		fmt.Sprintf("keepInventory: %t", s.keepInventory),
	}
	lines = append(lines, "Online: "+listOrNone(s.order))

	pend, err := s.PendingNames()
	if err != nil {
		lines = append(lines, fmt.Sprintf("Pending: error: %v", err))
	} else {
		lines = append(lines, "Pending: "+listOrNone(pend))
	}
	return lines
}

func (s *Server) playerStatus(ctx context.Context, p *Player) []string {
	state := "alive"
	if p.Dead {
		state = "dead"
	}
	lines := []string{fmt.Sprintf("%s (%s) %s, %d XP", p.Name, p.ID, state, p.XP)}
	if s.opts.Economy != nil {
		currency := s.opts.Economy.DefaultCurrency()
		acct, err := s.opts.Economy.GetOrCreateAccount(ctx, p.ID)
		if err == nil {
			var bal decimal.Decimal
			if bal, err = acct.Balance(ctx, currency); err == nil {
				lines = append(lines, fmt.Sprintf("Balance: %s %s", bal.StringFixed(2), currency))
			}
		}
		if err != nil {
			lines = append(lines, fmt.Sprintf("Balance: error: %v", err))
		}
	}
	lines = append(lines, "Effects: "+listOrNone(p.ActiveEffects(s.clock.Now())))
	return lines
}

func onOff(args []string) (on, ok bool) {
	if len(args) != 1 {
		return false, false
	}
	switch strings.ToLower(args[0]) {
	case "on", "true", "yes":
		return true, true
	case "off", "false", "no":
		return false, true
	}
	return false, false
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
