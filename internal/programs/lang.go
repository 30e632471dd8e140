package programs

type Lang int

const (
	LangUnknown Lang = iota
	LangC
	LangCpp
	LangPascal
	LangJava
	LangPython2
	LangPython3
	LangRust
)

var langExts = map[Lang][]string{
	LangC:       {"c"},
	LangCpp:     {"cpp", "cxx", "c++", "cp", "cc"},
	LangPascal:  {"pas"},
	LangJava:    {"java"},
	LangPython3: {"py", "py3"},
	LangPython2: {"py2"},
	LangRust:    {"rs"},
}

// probe order for extension-less program names
var (
	compiledLangs = []Lang{LangC, LangCpp, LangPascal, LangJava, LangRust}
	scriptLangs   = []Lang{LangPython3, LangPython2}
)

// performanceRanking lists languages from the fastest.
var performanceRanking = []Lang{
	LangCpp, LangC, LangRust, LangPascal, LangJava, LangPython3, LangPython2, LangUnknown,
}

func LangFromExt(ext string) Lang {
	for lang, exts := range langExts {
		for _, e := range exts {
			if e == ext {
				return lang
			}
		}
	}
	return LangUnknown
}

func (l Lang) Compiled() bool {
	switch l {
	case LangC, LangCpp, LangPascal, LangJava, LangRust:
		return true
	}
	return false
}

func (l Lang) Script() bool {
	return l == LangPython2 || l == LangPython3
}

func (l Lang) rank() int {
	for i, r := range performanceRanking {
		if r == l {
			return i
		}
	}
	return len(performanceRanking)
}

func (l Lang) String() string {
	switch l {
	case LangC:
		return "c"
	case LangCpp:
		return "cpp"
	case LangPascal:
		return "pas"
	case LangJava:
		return "java"
	case LangPython2:
		return "py2"
	case LangPython3:
		return "py3"
	case LangRust:
		return "rs"
	}
	return "unknown"
}
