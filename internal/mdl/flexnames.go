package mdl

import (
	"regexp"
	"strings"

	"mdl-decompiler/internal/names"
)

// Side hints extracted from flex/controller names.
const (
	SideNone  = 0
	SideLeft  = -1
	SideRight = 1
)

// Raw FACS-style code names (AU12, AD96L, f04 ...) make poor display names.
var rawCodePattern = regexp.MustCompile(`(?i)^(au|ad)[0-9]|^f[0-9]+$`)

func looksLikeRawCode(name string) bool {
	return rawCodePattern.MatchString(name)
}

func SideHint(name string) int {
	n := strings.ToLower(name)
	if strings.Contains(n, "left") || strings.HasSuffix(n, "_l") || strings.HasPrefix(n, "l_") {
		return SideLeft
	}
	if strings.Contains(n, "right") || strings.HasSuffix(n, "_r") || strings.HasPrefix(n, "r_") {
		return SideRight
	}
	// Raw codes mark sides with a trailing letter: AU12L / AU12R.
	if looksLikeRawCode(name) {
		switch {
		case strings.HasSuffix(n, "l"):
			return SideLeft
		case strings.HasSuffix(n, "r"):
			return SideRight
		}
	}
	return SideNone
}

type displayCandidate struct {
	name string
	side int
}

// resolveFlexNames maps each flex descriptor to the friendliest controller UI
// name reachable through the rules. Candidates are scored: raw code names
// lose 4 points and human names gain 4; a left/right hint agreeing with the
// descriptor gains 3 and a conflicting one loses 4; containing a separator
// gains 1. Ties keep the raw descriptor name. Results are deduplicated by
// suffixing the raw name, then a counter.
func resolveFlexNames(f *File) {
	if len(f.FlexDescs) == 0 {
		return
	}

	// controller index -> UI display candidate
	byController := make(map[int32]displayCandidate)
	for _, ui := range f.FlexControllerUIs {
		if ui.Stereo {
			if ui.LeftIndex >= 0 {
				byController[ui.LeftIndex] = displayCandidate{ui.Name, SideLeft}
			}
			if ui.RightIndex >= 0 {
				byController[ui.RightIndex] = displayCandidate{ui.Name, SideRight}
			}
		} else if ui.ControllerIndex >= 0 {
			byController[ui.ControllerIndex] = displayCandidate{ui.Name, SideNone}
		}
	}

	for _, rule := range f.FlexRules {
		if rule.Flex < 0 || int(rule.Flex) >= len(f.FlexDescs) {
			continue
		}
		desc := &f.FlexDescs[rule.Flex]
		raw := desc.Name
		rawSide := SideHint(raw)

		best := ""
		bestScore := 0 // anything <= 0 keeps the raw name
		tied := false
		for _, op := range rule.Ops {
			if op.Op != FlexOpFetch {
				continue
			}
			cand, ok := byController[op.Index]
			if !ok || cand.name == "" {
				continue
			}
			score := 0
			if looksLikeRawCode(cand.name) {
				score -= 4
			} else {
				score += 4
			}
			if rawSide != SideNone && cand.side != SideNone {
				if rawSide == cand.side {
					score += 3
				} else {
					score -= 4
				}
			}
			if strings.ContainsAny(cand.name, "_- ") {
				score++
			}
			if score > bestScore {
				bestScore = score
				best = cand.name
				tied = false
			} else if score == bestScore && best != "" && cand.name != best {
				tied = true
			}
		}
		if best != "" && !tied {
			name := best
			if rawSide == SideLeft && SideHint(best) == SideNone {
				name = best + "_L"
			} else if rawSide == SideRight && SideHint(best) == SideNone {
				name = best + "_R"
			}
			desc.DisplayName = name
		}
	}

	dedup := names.NewDedup()
	for i := range f.FlexDescs {
		desc := &f.FlexDescs[i]
		if dedup.Has(desc.DisplayName) {
			withRaw := desc.DisplayName + "_" + desc.Name
			if !dedup.Has(withRaw) {
				desc.DisplayName = dedup.Take(withRaw)
				continue
			}
		}
		desc.DisplayName = dedup.Take(desc.DisplayName)
	}
}
