package i18n

import (
	"sort"
	"strings"
	"sync/atomic"
)

// Translator retrieves localized messages for issue codes.
// data carries optional details embedded in the message ("expected", "got",
// "name", "value").
type Translator interface {
	Message(code string, data map[string]string) string
}

var catalogs = map[string]map[string]string{
	"en": {
		"invalid_type":       "expected {expected}, got {got}",
		"required":           "required field {name} missing",
		"invalid_enum":       "{got} is not a value of enum {name}",
		"literal_mismatch":   "expected literal {expected}, got {got}",
		"union_no_match":     "no union variant matched",
		"assert_failed":      "assert {name} failed",
		"check_failed":       "check {name} failed",
		"truncated":          "structure incomplete",
		"parse_error":        "parse error",
		"duplicate_key":      "duplicate key",
		"circular_reference": "circular reference through {name}",
		"unknown_type":       "unknown type {name}",
		"invalid_schema":     "invalid schema",
		"invalid_argument":   "invalid argument",
	},
	"ja": {
		"invalid_type":       "型が不正です ({expected} を期待、{got} を受信)",
		"required":           "必須フィールド {name} が不足しています",
		"invalid_enum":       "{got} は列挙型 {name} の値ではありません",
		"literal_mismatch":   "リテラル {expected} を期待しましたが {got} でした",
		"union_no_match":     "共用体のどの候補にも一致しません",
		"assert_failed":      "アサート {name} が失敗しました",
		"check_failed":       "チェック {name} が失敗しました",
		"truncated":          "構造が不完全です",
		"parse_error":        "解析エラー",
		"duplicate_key":      "キーが重複しています",
		"circular_reference": "{name} を経由する循環参照です",
		"unknown_type":       "未知の型 {name} です",
		"invalid_schema":     "スキーマが不正です",
		"invalid_argument":   "引数が不正です",
	},
}

// dictTranslator is the built-in catalog-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	tmpl, ok := catalogs[t.lang][code]
	if !ok {
		return code
	}
	return render(tmpl, data)
}

// render substitutes {key} placeholders. Keys without data collapse to "?".
func render(tmpl string, data map[string]string) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", data[k])
	}
	out := strings.NewReplacer(pairs...).Replace(tmpl)
	for {
		i := strings.IndexByte(out, '{')
		if i < 0 {
			return out
		}
		j := strings.IndexByte(out[i:], '}')
		if j < 0 {
			return out
		}
		out = out[:i] + "?" + out[i+j+1:]
	}
}

var current atomic.Value

func init() { current.Store(Translator(dictTranslator{lang: "en"})) }

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if _, ok := catalogs[lang]; !ok {
		lang = "en"
	}
	current.Store(Translator(dictTranslator{lang: lang}))
}

// SetTranslator replaces the Translator implementation. nil restores the
// English catalog.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	current.Store(tr)
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	return current.Load().(Translator).Message(code, data)
}
