package downloader

import (
	"fmt"
	"sort"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
)

// Tier is a canonical quality rung such as "1080p", or the audio-only "mp3".
type Tier string

const (
	Tier144p  Tier = "144p"
	Tier240p  Tier = "240p"
	Tier360p  Tier = "360p"
	Tier480p  Tier = "480p"
	Tier720p  Tier = "720p"
	Tier1080p Tier = "1080p"
	Tier1440p Tier = "1440p"
	Tier2160p Tier = "2160p"
	Tier4320p Tier = "4320p"
	TierMP3   Tier = "mp3"

	// StreamMax is the default-stream sentinel meaning "highest available video tier".
	StreamMax = "max"
)

// Candidate is one pair of remote stream ids that together satisfy a tier.
// Video == 0 means audio only; Audio == 0 means Video is a progressive stream.
type Candidate struct {
	Video int
	Audio int
	Ext   string
	HDR   bool
}

func (c Candidate) Progressive() bool { return c.Video != 0 && c.Audio == 0 }
func (c Candidate) AudioOnly() bool   { return c.Video == 0 }

// TierSpec is the static description of one tier.
type TierSpec struct {
	Tier       Tier
	Aliases    []string
	Label      string
	Display    string
	Candidates []Candidate
}

// tierTable is ordered from highest to lowest video tier, with mp3 last.
// Candidates are listed most preferred first.
var tierTable = []TierSpec{
	{
		Tier: Tier4320p, Aliases: []string{"8k", "4320", "4320p"}, Label: "8k", Display: "4320p (8K)",
		Candidates: []Candidate{{Video: 702, Audio: 140, Ext: "mp4", HDR: true}, {Video: 571, Audio: 140, Ext: "mp4"}},
	},
	{
		Tier: Tier2160p, Aliases: []string{"4k", "2160", "2160p"}, Label: "4k", Display: "2160p (4K)",
		Candidates: []Candidate{{Video: 701, Audio: 140, Ext: "mp4", HDR: true}, {Video: 315, Audio: 251, Ext: "webm"}, {Video: 313, Audio: 251, Ext: "webm"}},
	},
	{
		Tier: Tier1440p, Aliases: []string{"2k", "1440", "1440p"}, Label: "2k", Display: "1440p (2K)",
		Candidates: []Candidate{{Video: 700, Audio: 140, Ext: "mp4", HDR: true}, {Video: 308, Audio: 251, Ext: "webm"}, {Video: 271, Audio: 251, Ext: "webm"}},
	},
	{
		Tier: Tier1080p, Aliases: []string{"fhd", "1080", "1080p"}, Label: "1080p", Display: "1080p (FHD)",
		Candidates: []Candidate{{Video: 699, Audio: 140, Ext: "mp4", HDR: true}, {Video: 299, Audio: 140, Ext: "mp4"}, {Video: 137, Audio: 140, Ext: "mp4"}},
	},
	{
		Tier: Tier720p, Aliases: []string{"hd", "720", "720p"}, Label: "720p", Display: "720p (HD)",
		Candidates: []Candidate{{Video: 698, Audio: 140, Ext: "mp4", HDR: true}, {Video: 298, Audio: 140, Ext: "mp4"}, {Video: 136, Audio: 140, Ext: "mp4"}},
	},
	{
		Tier: Tier480p, Aliases: []string{"480", "480p"}, Label: "480p", Display: "480p (SD)",
		Candidates: []Candidate{{Video: 135, Audio: 140, Ext: "mp4"}},
	},
	{
		Tier: Tier360p, Aliases: []string{"360", "360p"}, Label: "360p", Display: "360p (SD)",
		Candidates: []Candidate{{Video: 18, Ext: "mp4"}},
	},
	{
		Tier: Tier240p, Aliases: []string{"240", "240p"}, Label: "240p", Display: "240p (LD)",
		Candidates: []Candidate{{Video: 133, Audio: 139, Ext: "mp4"}},
	},
	{
		Tier: Tier144p, Aliases: []string{"144", "144p"}, Label: "144p", Display: "144p (LD)",
		Candidates: []Candidate{{Video: 160, Audio: 139, Ext: "mp4"}},
	},
	{
		Tier: TierMP3, Aliases: []string{"mp3"}, Label: "audio", Display: "mp3 (Audio)",
		Candidates: []Candidate{{Audio: 140, Ext: "mp3"}},
	},
}

var aliasIndex = buildAliasIndex(tierTable)

func buildAliasIndex(table []TierSpec) map[string]Tier {
	index := make(map[string]Tier)
	for _, spec := range table {
		for _, alias := range spec.Aliases {
			if owner, dup := index[alias]; dup {
				panic(fmt.Sprintf("alias %q declared for both %s and %s", alias, owner, spec.Tier))
			}
			index[alias] = spec.Tier
		}
	}
	return index
}

// Tiers returns every tier, highest video tier first and mp3 last.
func Tiers() []Tier {
	return lo.Map(tierTable, func(spec TierSpec, _ int) Tier { return spec.Tier })
}

// VideoTiers returns the video tiers ordered from highest to lowest.
func VideoTiers() []Tier {
	return lo.FilterMap(tierTable, func(spec TierSpec, _ int) (Tier, bool) {
		return spec.Tier, spec.Tier != TierMP3
	})
}

// Spec returns the static description of t.
func Spec(t Tier) (TierSpec, bool) {
	return lo.Find(tierTable, func(spec TierSpec) bool { return spec.Tier == t })
}

// AliasesFor returns the accepted user tokens for t.
func AliasesFor(t Tier) []string {
	spec, ok := Spec(t)
	if !ok {
		return nil
	}
	return append([]string(nil), spec.Aliases...)
}

// TierFor maps a user token to its tier. Tokens are case-sensitive.
func TierFor(alias string) (Tier, bool) {
	t, ok := aliasIndex[alias]
	return t, ok
}

// IsValidDefaultStream reports whether value may be stored as the default stream.
func IsValidDefaultStream(value string) bool {
	if value == StreamMax {
		return true
	}
	_, ok := Spec(Tier(value))
	return ok
}

// CandidatesFor returns the candidates of t whose ids all resolve in catalog,
// in declared preference order.
func CandidatesFor(t Tier, catalog *Catalog) []Candidate {
	spec, ok := Spec(t)
	if !ok || catalog == nil {
		return nil
	}
	return lo.Filter(spec.Candidates, func(c Candidate, _ int) bool {
		return catalog.Has(c.Video) && catalog.Has(c.Audio)
	})
}

// AllowedTiers returns the tiers downloadable from catalog: every video tier at
// or below maxres with at least one resolvable candidate, plus mp3 when its
// audio stream exists.
func AllowedTiers(catalog *Catalog) []Tier {
	if catalog == nil {
		return nil
	}
	var allowed []Tier
	if maxres, ok := catalog.MaxRes.Get(); ok {
		below := false
		for _, t := range VideoTiers() {
			if t == maxres {
				below = true
			}
			if below && len(CandidatesFor(t, catalog)) > 0 {
				allowed = append(allowed, t)
			}
		}
	}
	if len(CandidatesFor(TierMP3, catalog)) > 0 {
		allowed = append(allowed, TierMP3)
	}
	return allowed
}

// AllowedAliases is the set of user tokens that can be downloaded from catalog.
func AllowedAliases(catalog *Catalog) map[string]struct{} {
	out := make(map[string]struct{})
	for _, t := range AllowedTiers(catalog) {
		for _, alias := range AliasesFor(t) {
			out[alias] = struct{}{}
		}
	}
	return out
}

// Selection is the concrete outcome of matching a tier against a catalog.
type Selection struct {
	Tier      Tier
	Candidate Candidate
	Ext       string
	Caption   string
}

// Select validates alias against catalog and picks the first surviving candidate.
func Select(alias string, catalog *Catalog) (Selection, error) {
	t, ok := TierFor(alias)
	if !ok {
		return Selection{}, wrapCategory(CategoryStreamUnavailable, unknownAliasError(alias))
	}
	if _, allowed := AllowedAliases(catalog)[alias]; !allowed {
		return Selection{}, wrapCategory(CategoryStreamUnavailable, fmt.Errorf("stream %s is not available for this video", alias))
	}
	candidates := CandidatesFor(t, catalog)
	if len(candidates) == 0 {
		return Selection{}, wrapCategory(CategoryStreamUnavailable, fmt.Errorf("no known stream ids for %s in this video", t))
	}
	chosen := candidates[0]
	return Selection{Tier: t, Candidate: chosen, Ext: chosen.Ext}, nil
}

func unknownAliasError(alias string) error {
	if suggestion := Suggest(alias); suggestion != "" {
		return fmt.Errorf("unknown stream %q (did you mean %q?)", alias, suggestion)
	}
	return fmt.Errorf("unknown stream %q", alias)
}

// Suggest returns the known alias closest to input, or "" when nothing is close.
func Suggest(input string) string {
	if input == "" {
		return ""
	}
	aliases := lo.Keys(aliasIndex)
	sort.Strings(aliases)

	ranks := fuzzy.RankFindNormalizedFold(input, aliases)
	if len(ranks) > 0 {
		sort.Stable(ranks)
		return ranks[0].Target
	}

	best, bestDistance := "", 3
	for _, alias := range aliases {
		if d := levenshtein.Distance(input, alias); d < bestDistance {
			best, bestDistance = alias, d
		}
	}
	return best
}
