package programs

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeLimits maps extensions and languages to time limits. Zero means
// unlimited.
type TimeLimits struct {
	byExt  map[string]time.Duration
	byLang map[Lang]time.Duration
	def    time.Duration
}

// ParseTimeLimits reads "3,cpp=1,py=5": a bare number is the default,
// ext=seconds entries apply to the extension and its language.
func ParseTimeLimits(s string) (TimeLimits, error) {
	tl := TimeLimits{
		byExt:  make(map[string]time.Duration),
		byLang: make(map[Lang]time.Duration),
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ext, val, found := strings.Cut(part, "=")
		if !found {
			ext, val = "", part
		}
		secs, err := strconv.ParseFloat(val, 64)
		if err != nil || secs < 0 {
			return TimeLimits{}, fmt.Errorf("invalid time limit %q", part)
		}
		d := time.Duration(secs * float64(time.Second))
		if ext == "" {
			tl.def = d
			continue
		}
		tl.byExt[ext] = d
		if lang := LangFromExt(ext); lang != LangUnknown {
			tl.byLang[lang] = d
		}
	}
	return tl, nil
}

// ParseWarnLimits accepts "auto" for a third of every hard limit.
func ParseWarnLimits(s string, hard TimeLimits) (TimeLimits, error) {
	if s != "auto" {
		return ParseTimeLimits(s)
	}
	return hard.Div(3), nil
}

func (tl TimeLimits) Div(n int64) TimeLimits {
	d := time.Duration(n)
	res := TimeLimits{
		byExt:  make(map[string]time.Duration, len(tl.byExt)),
		byLang: make(map[Lang]time.Duration, len(tl.byLang)),
		def:    tl.def / d,
	}
	for k, v := range tl.byExt {
		res.byExt[k] = v / d
	}
	for k, v := range tl.byLang {
		res.byLang[k] = v / d
	}
	return res
}

// WithDefault returns a copy with the default limit replaced.
func (tl TimeLimits) WithDefault(d time.Duration) TimeLimits {
	res := tl.Div(1)
	res.def = d
	return res
}

// For looks the limit up by extension, then language, then default.
func (tl TimeLimits) For(ext string, lang Lang) time.Duration {
	if d, ok := tl.byExt[ext]; ok && ext != "" {
		return d
	}
	if d, ok := tl.byLang[lang]; ok {
		return d
	}
	return tl.def
}

func (tl TimeLimits) Default() time.Duration { return tl.def }
