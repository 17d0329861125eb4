package source

import (
	"math"
	"path/filepath"

	"mercator-hq/thinout/pkg/config"
	"mercator-hq/thinout/pkg/thinout"
)

const mebibyte = 1 << 20

// SizeWeigher weighs items by file size: an empty file weighs 1 and the
// weight falls logarithmically with every MiB, so large files are cheaper
// to remove under product scoring. Items missing from sizes weigh 1.
func SizeWeigher(sizes map[string]int64) thinout.Weigher {
	return func(items []thinout.Item, index int) float64 {
		size, ok := sizes[items[index].ID]
		if !ok || size <= 0 {
			return 1
		}
		return 1 / (1 + math.Log1p(float64(size)/mebibyte))
	}
}

// PatternWeigher gives items whose base name matches any of patterns the
// weight factor, and every other item weight 1.
func PatternWeigher(patterns []string, factor float64) thinout.Weigher {
	return func(items []thinout.Item, index int) float64 {
		name := filepath.Base(items[index].ID)
		for _, p := range patterns {
			if ok, _ := filepath.Match(p, name); ok {
				return factor
			}
		}
		return 1
	}
}

// Combine multiplies the weights of weighers. Nil weighers are skipped;
// with none left Combine returns nil, the constant weight 1.
func Combine(weighers ...thinout.Weigher) thinout.Weigher {
	var ws []thinout.Weigher
	for _, w := range weighers {
		if w != nil {
			ws = append(ws, w)
		}
	}
	switch len(ws) {
	case 0:
		return nil
	case 1:
		return ws[0]
	}
	return func(items []thinout.Item, index int) float64 {
		product := 1.0
		for _, w := range ws {
			product *= w(items, index)
		}
		return product
	}
}

// WeigherFromConfig builds the weigher configured for a target.
func WeigherFromConfig(cfg config.WeightsConfig, files []File) thinout.Weigher {
	var size, pattern thinout.Weigher
	if cfg.Size {
		sizes := make(map[string]int64, len(files))
		for _, f := range files {
			sizes[f.Path] = f.Size
		}
		size = SizeWeigher(sizes)
	}
	if len(cfg.Patterns) > 0 {
		factor := cfg.PatternFactor
		if factor == 0 {
			factor = config.DefaultPatternFactor
		}
		pattern = PatternWeigher(cfg.Patterns, factor)
	}
	return Combine(size, pattern)
}
