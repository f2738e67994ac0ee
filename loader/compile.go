package loader

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/deathpenalty/types"
)

// Document keys.
const (
	keyXPReduction     = "xp_reduction"
	keyMoneyReduction  = "money_reduction"
	keyPotionEffects   = "potion_effects"
	keySendMessage     = "send_message"
	keyMessage         = "message"
	keyDeathTypeFilter = "death_type_filter"
	keyAllowPvp        = "allow_pvp"
	keyLogDeath        = "log_death"
	keyRecentlyDied    = "recently_died_players"

	keyID            = "id"
	keyDuration      = "duration"
	keyAmplifier     = "amplifier"
	keyShowParticles = "show_particles"
)

var knownKeys = map[string]bool{
	keyXPReduction: true, keyMoneyReduction: true, keyPotionEffects: true,
	keySendMessage: true, keyMessage: true, keyDeathTypeFilter: true,
	keyLogDeath: true, keyRecentlyDied: true,
}

var knownEffectKeys = map[string]bool{
	keyID: true, keyDuration: true, keyAmplifier: true, keyShowParticles: true,
}

// compile converts the DeathPenalty{} table into a document. Missing or
// mistyped fields fall back to defaults with a warning.
func compile(tbl *lua.LTable) (*types.Document, *ValidationError) {
	ve := &ValidationError{}
	def := DefaultPenalty()

	for _, k := range unknownKeys(tbl, knownKeys) {
		ve.Warnings = append(ve.Warnings, fmt.Sprintf("unknown key %q ignored", k))
	}

	p := types.PenaltyConfig{
		XPReduction:    getReduction(tbl, keyXPReduction, def.XPReduction, ve),
		MoneyReduction: getReduction(tbl, keyMoneyReduction, def.MoneyReduction, ve),
		SendMessage:    getBool(tbl, keySendMessage, def.SendMessage, ve),
		Message:        getString(tbl, keyMessage, def.Message, ve),
		LogDeath:       getBool(tbl, keyLogDeath, def.LogDeath, ve),
	}

	switch v := tbl.RawGetString(keyPotionEffects).(type) {
	case *lua.LNilType:
		p.PotionEffects = def.PotionEffects
	case *lua.LTable:
		p.PotionEffects = compileEffects(v, ve)
	default:
		ve.Warnings = append(ve.Warnings, fmt.Sprintf("%s must be a list, using default", keyPotionEffects))
		p.PotionEffects = def.PotionEffects
	}

	p.DeathTypeFilter = def.DeathTypeFilter
	if ft := getTable(tbl, keyDeathTypeFilter, ve); ft != nil {
		p.DeathTypeFilter.AllowPvp = getBool(ft, keyAllowPvp, def.DeathTypeFilter.AllowPvp, ve)
	}

	doc := &types.Document{Penalty: p}
	if lt := getTable(tbl, keyRecentlyDied, ve); lt != nil {
		doc.RecentlyDied = compilePlayers(lt, ve)
	}

	validate(doc, ve)
	return doc, ve
}

func compileEffects(list *lua.LTable, ve *ValidationError) []types.StatusEffectSpec {
	effects := []types.StatusEffectSpec{}
	for i := 1; i <= list.MaxN(); i++ {
		et, ok := list.RawGetInt(i).(*lua.LTable)
		if !ok {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("%s[%d] is not a table, skipped", keyPotionEffects, i))
			continue
		}
		for _, k := range unknownKeys(et, knownEffectKeys) {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("%s[%d]: unknown key %q ignored", keyPotionEffects, i, k))
		}
		spec := types.StatusEffectSpec{
			ID:            getString(et, keyID, "", ve),
			Duration:      getInt(et, keyDuration, 0, ve),
			Amplifier:     getInt(et, keyAmplifier, 0, ve),
			ShowParticles: getBool(et, keyShowParticles, true, ve),
		}
		if spec.ID == "" {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("%s[%d] has no id, skipped", keyPotionEffects, i))
			continue
		}
		effects = append(effects, spec)
	}
	return effects
}

func compilePlayers(list *lua.LTable, ve *ValidationError) []types.PlayerID {
	var ids []types.PlayerID
	for i := 1; i <= list.MaxN(); i++ {
		s, ok := list.RawGetInt(i).(lua.LString)
		if !ok {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("%s[%d] is not a string, dropped", keyRecentlyDied, i))
			continue
		}
		id, err := uuid.Parse(string(s))
		if err != nil {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("%s[%d] %q is not a UUID, dropped", keyRecentlyDied, i, string(s)))
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// getString returns a string field, or def if missing or mistyped.
func getString(tbl *lua.LTable, key, def string, ve *ValidationError) string {
	switch v := tbl.RawGetString(key).(type) {
	case lua.LString:
		return string(v)
	case lua.LNumber:
		// xp_reduction = 25 is as good as "25".
		return v.String()
	case *lua.LNilType:
		return def
	default:
		ve.Warnings = append(ve.Warnings, fmt.Sprintf("%s must be a string, using default", key))
		return def
	}
}

// getReduction returns a reduction field as text. A mistyped value is kept
// as written so that saving the document does not replace it.
func getReduction(tbl *lua.LTable, key, def string, ve *ValidationError) string {
	switch v := tbl.RawGetString(key).(type) {
	case lua.LString:
		return string(v)
	case lua.LNumber:
		return v.String()
	case *lua.LNilType:
		return def
	default:
		ve.Warnings = append(ve.Warnings, fmt.Sprintf("%s must be a string, kept as written", key))
		return v.String()
	}
}

// getBool returns a bool field, or def if missing or mistyped.
func getBool(tbl *lua.LTable, key string, def bool, ve *ValidationError) bool {
	switch v := tbl.RawGetString(key).(type) {
	case lua.LBool:
		return bool(v)
	case *lua.LNilType:
		return def
	default:
		ve.Warnings = append(ve.Warnings, fmt.Sprintf("%s must be true or false, using default", key))
		return def
	}
}

// getInt returns an integer field, or def if missing or mistyped.
func getInt(tbl *lua.LTable, key string, def int, ve *ValidationError) int {
	switch v := tbl.RawGetString(key).(type) {
	case lua.LNumber:
		return int(v)
	case *lua.LNilType:
		return def
	default:
		ve.Warnings = append(ve.Warnings, fmt.Sprintf("%s must be a number, using default", key))
		return def
	}
}

// getTable returns a table field, or nil if missing or mistyped.
func getTable(tbl *lua.LTable, key string, ve *ValidationError) *lua.LTable {
	switch v := tbl.RawGetString(key).(type) {
	case *lua.LTable:
		return v
	case *lua.LNilType:
		return nil
	default:
		ve.Warnings = append(ve.Warnings, fmt.Sprintf("%s must be a table, ignored", key))
		return nil
	}
}

// unknownKeys returns the sorted string keys of tbl not in known.
func unknownKeys(tbl *lua.LTable, known map[string]bool) []string {
	var out []string
	tbl.ForEach(func(k, _ lua.LValue) {
		if ks, ok := k.(lua.LString); ok && !known[string(ks)] {
			out = append(out, string(ks))
		}
	})
	sort.Strings(out)
	return out
}
