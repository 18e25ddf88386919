package feedback

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

// MsgProfanity is shown when a submission trips the filter.
const MsgProfanity = "Сообщение содержит запрещённые слова и не может быть отправлено."

// homoglyphs maps each Cyrillic letter to the character class of its common
// visual substitutes, so "привет" still matches "пp1вeт" and friends.
var homoglyphs = map[rune]string{
	'а': "[аa@4]", 'б': "[бb6]", 'в': "[вvbw]", 'г': "[гg]",
	'д': "[дd]", 'е': "[еeё3]", 'ё': "[ёe3]", 'ж': "[жz]",
	'з': "[з3z]", 'и': "[иi1|!ї]", 'й': "[йиi]", 'к': "[кkqκ]",
	'л': "[лl]", 'м': "[мm]", 'н': "[нh]", 'о': "[оo0]",
	'п': "[пpπ]", 'р': "[рpr]", 'с': "[сsc$]", 'т': "[тt]",
	'у': "[уyu]", 'ф': "[фf]", 'х': "[хxh%]", 'ц': "[цc]",
	'ч': "[чc4]", 'ш': "[шs]", 'щ': "[щs]", 'ь': "[ьb']",
	'ы': "[ыb]", 'ъ': "[ъb]", 'э': "[эe]", 'ю': "[юu]",
	'я': "[яy]",
}

// separator tolerates punctuation, underscores and spacing squeezed between
// letters to dodge the filter. Word characters stay excluded so the pattern
// cannot bridge two unrelated words.
const separator = `[^\p{L}\p{N}]*`

// ProfanityFilter detects obfuscated bad words via per-word regular
// expressions. Zero words means permissive: the bot degrades to no filtering
// rather than refusing to start.
type ProfanityFilter struct {
	patterns []*regexp.Regexp
}

// NewProfanityFilter compiles patterns for the given words.
func NewProfanityFilter(words []string) *ProfanityFilter {
	f := &ProfanityFilter{}
	for _, w := range words {
		w = strings.TrimSpace(strings.ToLower(w))
		if w == "" {
			continue
		}
		if p, err := regexp.Compile("(?i)" + obfuscationPattern(w)); err == nil {
			f.patterns = append(f.patterns, p)
		}
	}
	return f
}

// LoadProfanityFilter reads one word per line from the given file. A missing
// file yields an empty, permissive filter.
func LoadProfanityFilter(path string) (*ProfanityFilter, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewProfanityFilter(nil), nil
		}
		return nil, err
	}
	defer file.Close()

	var words []string
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		if w := strings.TrimSpace(sc.Text()); w != "" {
			words = append(words, w)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return NewProfanityFilter(words), nil
}

// Contains reports whether the text holds a (possibly obfuscated) bad word.
func (f *ProfanityFilter) Contains(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	for _, p := range f.patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// Check returns a *ValidationError when the text trips the filter.
func (f *ProfanityFilter) Check(text string) error {
	if f.Contains(text) {
		return &ValidationError{Message: MsgProfanity}
	}
	return nil
}

// obfuscationPattern expands a word into its homoglyph classes joined by
// separator runs. A trailing vowel of longer words may repeat ("сукааа") or
// be dropped entirely.
func obfuscationPattern(word string) string {
	runes := []rune(word)
	base := runes
	var suffix rune

	if len(runes) > 4 && strings.ContainsRune("аеиоуыэюяё", runes[len(runes)-1]) {
		base = runes[:len(runes)-1]
		suffix = runes[len(runes)-1]
	}

	var sb strings.Builder
	for _, r := range base {
		sb.WriteString(runeClass(r))
		sb.WriteString(separator)
	}
	if suffix != 0 {
		sb.WriteString("(?:")
		sb.WriteString(runeClass(suffix))
		sb.WriteString(separator)
		sb.WriteString(")*")
	}
	return sb.String()
}

func runeClass(r rune) string {
	if cls, ok := homoglyphs[r]; ok {
		return cls
	}
	return regexp.QuoteMeta(string(r))
}
