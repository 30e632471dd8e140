package programs

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// BaseAlnum keeps only letters and digits of the file name.
func BaseAlnum(path string) string {
	base := path[strings.LastIndex(path, "/")+1:]
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, base)
}

// ParseBatch maps an input file to its batch. "1.a.in" belongs to batch
// "1", while "00.sample.in" is a batch of its own.
func ParseBatch(input string) string {
	name := filepath.Base(input)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if strings.HasSuffix(name, "sample") {
		return name
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i]
	}
	return name
}

// ValidatorArgs splits the input file name, "00.sample.a.in" gives
// ["00", "sample", "a", "in"].
func ValidatorArgs(input string) []string {
	return strings.Split(filepath.Base(input), ".")
}

func IsValidatorName(path string) bool {
	return strings.HasPrefix(BaseAlnum(path), "val")
}

func IsSolutionName(path string) bool {
	return strings.HasPrefix(BaseAlnum(path), "sol")
}

func isRelevantName(path string) bool {
	_, isChecker := CheckerFormatOf(path)
	return IsSolutionName(path) || IsValidatorName(path) || isChecker
}

// Discover expands directories into the solution, validator and checker
// files they contain. Plain file arguments are kept as they are.
func Discover(candidates []string) ([]string, error) {
	var res []string
	for _, c := range candidates {
		info, err := os.Stat(c)
		if err != nil || !info.IsDir() {
			res = append(res, c)
			continue
		}
		entries, err := os.ReadDir(c)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.Type().IsRegular() && isRelevantName(e.Name()) {
				res = append(res, filepath.Clean(filepath.Join(c, e.Name())))
			}
		}
	}
	return res, nil
}

// Dedup removes repeated paths keeping the first occurrence.
func Dedup(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	res := make([]string, 0, len(paths))
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		res = append(res, p)
	}
	return res
}

// CompareMask orders programs in the summary. Larger masks go first.
type CompareMask struct {
	Class  int
	Score  int
	Ranked string
}

func (m CompareMask) Less(o CompareMask) bool {
	if m.Class != o.Class {
		return m.Class < o.Class
	}
	if m.Score != o.Score {
		return m.Score < o.Score
	}
	return m.Ranked < o.Ranked
}

func solutionMask(name string) CompareMask {
	file := filepath.Base(name)
	stem := strings.TrimSuffix(file, filepath.Ext(file))
	parts := strings.Split(stem, "-")

	score := 0
	for _, p := range parts {
		if p == "vzor" || p == "vzorak" {
			score += 2000
			break
		}
	}
	if stem == "sol" {
		score += 1000
	}
	if strings.HasPrefix(stem, "sol") && len(parts) > 1 {
		if n, err := strconv.Atoi(parts[1]); err == nil {
			score += n
		} else if parts[1] == "wa" {
			score -= 100
		}
	}

	lang := LangFromExt(strings.TrimPrefix(filepath.Ext(file), "."))
	ranked := string(rune('9'-lang.rank())) + "_" + name
	return CompareMask{Class: 1, Score: score, Ranked: ranked}
}

func validatorMask(name string) CompareMask {
	return CompareMask{Class: 2, Ranked: name}
}

// SortByMask sorts best first. The sort is stable.
func SortByMask[T interface{ CompareMask() CompareMask }](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[j].CompareMask().Less(items[i].CompareMask())
	})
}
