package engine

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nathoo/deathpenalty/types"
)

// Message template parameters.
const (
	ParamPlayer    = "player"
	ParamMoneyLost = "money_lost"
	ParamCurrency  = "currency"
	ParamXPLost    = "xp_lost"
	ParamEffects   = "effects"
)

var printer = message.NewPrinter(language.English)

// MessageParams collects template parameters for the penalties that were
// applied. Keys of skipped penalties are absent.
func MessageParams(name string, out types.Outcome) map[string]string {
	params := map[string]string{ParamPlayer: name}
	if out.MoneyLost != nil {
		params[ParamMoneyLost] = formatMoney(*out.MoneyLost)
		params[ParamCurrency] = out.Currency
	}
	if out.XPLost != nil {
		params[ParamXPLost] = printer.Sprintf("%d", *out.XPLost)
	}
	if len(out.Effects) > 0 {
		names := make([]string, 0, len(out.Effects))
		for _, a := range out.Effects {
			names = append(names, a.Name)
		}
		params[ParamEffects] = strings.Join(names, ", ")
	}
	return params
}

func formatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	d = d.Round(2)
	whole := d.Truncate(0)
	s := sign + printer.Sprintf("%d", whole.IntPart())
	if d.IsInteger() {
		return s
	}
	// "0.50" -> ".50"
	return s + d.Sub(whole).StringFixed(2)[1:]
}

// notify renders and delivers the outcome message. Nothing is sent when
// messages are disabled. Parameters of penalties that did not apply are
// absent from the template data.
func (e *Engine) notify(ev types.RespawnEvent, cfg types.PenaltyConfig, out *types.Outcome) error {
	if !cfg.SendMessage || e.deps.Renderer == nil || e.deps.Messenger == nil {
		return nil
	}
	text, err := e.deps.Renderer.Render(cfg.Message, MessageParams(ev.Name, *out))
	if err != nil {
		e.log.Error().Err(err).Msg("Config: Invalid 'message' template!")
		return fmt.Errorf("%w: message: %w", ErrConfigParse, err)
	}
	if err := e.deps.Messenger.SendMessage(ev.Player, text); err != nil {
		e.log.Warn().Err(err).Stringer("player", ev.Player).Msg("can't deliver death message")
		return fmt.Errorf("sending message: %w", err)
	}
	out.Message = text
	return nil
}
