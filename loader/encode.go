package loader

import (
	"fmt"
	"strings"

	"github.com/nathoo/deathpenalty/types"
)

const header = `-- DeathPenalty configuration.
--
-- Reductions are a whole number ("25" subtracts 25) or a percentage ("40%").
-- Use "0" or "0%" to disable a reduction.
-- Potion effect durations are in seconds.
-- recently_died_players is maintained by the server; edit with care.
`

// Encode renders doc as a Lua document that Parse reads back.
func Encode(doc *types.Document) string {
	p := doc.Penalty
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\nDeathPenalty {\n")
	fmt.Fprintf(&b, "  %s = %s,\n", keyXPReduction, quote(p.XPReduction))
	fmt.Fprintf(&b, "  %s = %s,\n", keyMoneyReduction, quote(p.MoneyReduction))

	if len(p.PotionEffects) == 0 {
		fmt.Fprintf(&b, "  %s = {},\n", keyPotionEffects)
	} else {
		fmt.Fprintf(&b, "  %s = {\n", keyPotionEffects)
		for _, e := range p.PotionEffects {
			fmt.Fprintf(&b, "    Effect %s { %s = %d, %s = %d, %s = %t },\n",
				quote(e.ID),
				keyDuration, e.Duration,
				keyAmplifier, e.Amplifier,
				keyShowParticles, e.ShowParticles)
		}
		b.WriteString("  },\n")
	}

	fmt.Fprintf(&b, "  %s = %t,\n", keySendMessage, p.SendMessage)
	fmt.Fprintf(&b, "  %s = %s,\n", keyMessage, quote(p.Message))
	fmt.Fprintf(&b, "  %s = { %s = %t },\n", keyDeathTypeFilter, keyAllowPvp, p.DeathTypeFilter.AllowPvp)
	fmt.Fprintf(&b, "  %s = %t,\n", keyLogDeath, p.LogDeath)

	if len(doc.RecentlyDied) == 0 {
		fmt.Fprintf(&b, "  %s = {},\n", keyRecentlyDied)
	} else {
		fmt.Fprintf(&b, "  %s = {\n", keyRecentlyDied)
		for _, id := range doc.RecentlyDied {
			fmt.Fprintf(&b, "    %s,\n", quote(id.String()))
		}
		b.WriteString("  },\n")
	}
	b.WriteString("}\n")
	return b.String()
}

// quote returns s as a double-quoted Lua string literal. Control bytes use
// Lua's decimal escapes; other bytes are written as is.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 || c == 0x7f {
				fmt.Fprintf(&b, `\%03d`, c)
				continue
			}
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
