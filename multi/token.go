package multi

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bodgit/dms/sign"
)

// Kind is the type of a token.
type Kind int

// Token kinds.
const (
	Text Kind = iota
	Tag
)

// Missing marks an optional tag argument that was not given.
const Missing = -1

// Token is a run of text or a single tag.
type Token struct {
	Kind Kind
	// Offset is the byte offset of the token within the MULTI string.
	Offset int
	// Name is the lower-case tag name, empty for text.
	Name string
	// Text is the text run with bracket escapes resolved, or the raw tag
	// body following the name.
	Text string
	// Args are the numeric tag arguments, Missing where an optional
	// argument was left out.
	Args []int
}

func (t Token) String() string {
	if t.Kind == Text {
		return fmt.Sprintf("%q@%d", t.Text, t.Offset)
	}
	return fmt.Sprintf("[%s%s]@%d", t.Name, t.Text, t.Offset)
}

// Tag names.
const (
	TagColorBackground = "cb"
	TagColorForeground = "cf"
	TagColorRectangle  = "cr"
	TagFont            = "f"
	TagFlash           = "fl"
	TagFlashEnd        = "fo"
	TagFlashEndSlash   = "/fl"
	TagGraphic         = "g"
	TagHexCharacter    = "hc"
	TagJustifyLine     = "jl"
	TagJustifyPage     = "jp"
	TagNewLine         = "nl"
	TagNewPage         = "np"
	TagPageBackground  = "pb"
	TagPageTime        = "pt"
	TagSpacing         = "sc"
	TagSpacingEnd      = "/sc"
	TagTextRectangle   = "tr"
)

type argParser func(string) ([]int, error)

var tagTable = map[string]argParser{
	TagColorBackground: colorArgs(0),
	TagColorForeground: colorArgs(0),
	TagColorRectangle:  colorArgs(4),
	TagFont:            fontArgs,
	TagFlash:           flashArgs,
	TagFlashEnd:        noArgs,
	TagFlashEndSlash:   noArgs,
	TagGraphic:         graphicArgs,
	TagHexCharacter:    hexCharArgs,
	TagJustifyLine:     optionalArg,
	TagJustifyPage:     optionalArg,
	TagNewLine:         optionalArg,
	TagNewPage:         noArgs,
	TagPageBackground:  colorArgs(0),
	TagPageTime:        pageTimeArgs,
	TagSpacing:         fixedArgs(1),
	TagSpacingEnd:      noArgs,
	TagTextRectangle:   fixedArgs(4),
}

// tagNames is sorted longest first so the first prefix match wins.
var tagNames = func() []string {
	names := make([]string, 0, len(tagTable))
	for name := range tagTable {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}()

func badValue(format string, a ...interface{}) error {
	return sign.Errorf(sign.ErrUnsupportedTagValue, format, a...)
}

// maxDigits bounds numeric arguments so they cannot overflow.
const maxDigits = 5

func parseNumber(s string, base int) (int, error) {
	if s == "" || len(s) > maxDigits {
		return 0, badValue("invalid number %q", s)
	}
	for _, c := range s {
		if base == 10 && (c < '0' || c > '9') {
			return 0, badValue("invalid number %q", s)
		}
	}
	n, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, badValue("invalid number %q", s)
	}
	return int(n), nil
}

// splitArgs parses comma separated decimal arguments. Empty arguments are
// Missing when allowEmpty is set.
func splitArgs(s string, allowEmpty bool) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	args := make([]int, 0, len(fields))
	for _, f := range fields {
		if f == "" && allowEmpty {
			args = append(args, Missing)
			continue
		}
		n, err := parseNumber(f, 10)
		if err != nil {
			return nil, err
		}
		args = append(args, n)
	}
	return args, nil
}

func noArgs(s string) ([]int, error) {
	if s != "" {
		return nil, badValue("unexpected arguments %q", s)
	}
	return nil, nil
}

func optionalArg(s string) ([]int, error) {
	args, err := splitArgs(s, false)
	if err != nil {
		return nil, err
	}
	if len(args) > 1 {
		return nil, badValue("%d arguments", len(args))
	}
	return args, nil
}

func fixedArgs(n int) argParser {
	return func(s string) ([]int, error) {
		args, err := splitArgs(s, false)
		if err != nil {
			return nil, err
		}
		if len(args) != n {
			return nil, badValue("%d arguments, want %d", len(args), n)
		}
		return args, nil
	}
}

// colorArgs accepts prefix leading arguments followed by either nothing,
// one color argument or an R,G,B triple. The empty form is only valid when
// there is no prefix.
func colorArgs(prefix int) argParser {
	return func(s string) ([]int, error) {
		args, err := splitArgs(s, false)
		if err != nil {
			return nil, err
		}
		switch len(args) - prefix {
		case 0:
			if prefix == 0 {
				return args, nil
			}
		case 1, 3:
			return args, nil
		}
		return nil, badValue("%d arguments", len(args))
	}
}

func fontArgs(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	if len(fields) > 2 {
		return nil, badValue("%d arguments", len(fields))
	}
	n, err := parseNumber(fields[0], 10)
	if err != nil {
		return nil, err
	}
	args := []int{n}
	if len(fields) == 2 {
		v, err := parseNumber(fields[1], 16)
		if err != nil || len(fields[1]) > 4 {
			return nil, badValue("invalid version ID %q", fields[1])
		}
		args = append(args, v)
	}
	return args, nil
}

func graphicArgs(s string) ([]int, error) {
	args, err := splitArgs(s, false)
	if err != nil {
		return nil, err
	}
	switch len(args) {
	case 1, 3, 4, 6:
		return args, nil
	}
	return nil, badValue("%d arguments", len(args))
}

func hexCharArgs(s string) ([]int, error) {
	if len(s) > 4 {
		return nil, badValue("invalid character code %q", s)
	}
	n, err := parseNumber(s, 16)
	if err != nil {
		return nil, err
	}
	return []int{n}, nil
}

// lettered parses the "t5o5" style of the flash and page time tags. The
// result maps each letter to its value, Missing where only the letter was
// given, and records the letter order.
func lettered(s string, letters string) (map[byte]int, []byte, error) {
	values := make(map[byte]int)
	var order []byte
	for s != "" {
		l := s[0] | 0x20
		if strings.IndexByte(letters, l) < 0 {
			return nil, nil, badValue("unexpected %q", s[0])
		}
		if _, ok := values[l]; ok {
			return nil, nil, badValue("repeated %q", s[0])
		}
		s = s[1:]
		i := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		values[l] = Missing
		if i > 0 {
			n, err := parseNumber(s[:i], 10)
			if err != nil {
				return nil, nil, err
			}
			values[l] = n
		}
		order = append(order, l)
		s = s[i:]
	}
	return values, order, nil
}

// flashArgs returns visible-first (1 or 0), on time and off time. Both the
// lettered form [flt5o5] and the comma form [fl1,5,5] are accepted.
func flashArgs(s string) ([]int, error) {
	if s == "" {
		return []int{1, Missing, Missing}, nil
	}
	if c := s[0] | 0x20; c == 't' || c == 'o' {
		values, order, err := lettered(s, "to")
		if err != nil {
			return nil, err
		}
		first := 1
		if order[0] == 'o' {
			first = 0
		}
		args := []int{first, Missing, Missing}
		if v, ok := values['t']; ok {
			args[1] = v
		}
		if v, ok := values['o']; ok {
			args[2] = v
		}
		return args, nil
	}
	args, err := fixedArgs(3)(s)
	if err != nil {
		return nil, err
	}
	if args[0] > 1 {
		return nil, badValue("invalid flash order %d", args[0])
	}
	return args, nil
}

// pageTimeArgs returns on and off time from either [pt30o5] or [pt30,5].
func pageTimeArgs(s string) ([]int, error) {
	if strings.IndexByte(s, ',') >= 0 {
		args, err := splitArgs(s, true)
		if err != nil {
			return nil, err
		}
		if len(args) != 2 {
			return nil, badValue("%d arguments", len(args))
		}
		return args, nil
	}

	args := []int{Missing, Missing}
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 {
		n, err := parseNumber(s[:i], 10)
		if err != nil {
			return nil, err
		}
		args[0] = n
	}
	if s = s[i:]; s != "" {
		values, _, err := lettered(s, "o")
		if err != nil {
			return nil, err
		}
		args[1] = values['o']
	}
	return args, nil
}

func parseTag(body string) (Token, error) {
	if strings.ContainsAny(body, " \t\r\n\f\v") {
		return Token{}, badValue("white space in tag %q", body)
	}
	lower := strings.ToLower(body)
	for _, name := range tagNames {
		if !strings.HasPrefix(lower, name) {
			continue
		}
		rest := body[len(name):]
		args, err := tagTable[name](rest)
		if err != nil {
			return Token{}, fmt.Errorf("[%s]: %w", name, err)
		}
		return Token{Kind: Tag, Name: name, Text: rest, Args: args}, nil
	}
	return Token{}, sign.Errorf(sign.ErrUnsupportedTag, "[%s]", body)
}

// Tokenize splits a MULTI string into text runs and tags. Adjacent text,
// including escaped brackets, is returned as a single run. Errors carry the
// byte offset of the offending tag or character.
func Tokenize(ms string) ([]Token, error) {
	var (
		tokens []Token
		text   strings.Builder
		start  = -1
	)

	flush := func() {
		if start >= 0 {
			tokens = append(tokens, Token{Kind: Text, Offset: start, Text: text.String()})
			text.Reset()
			start = -1
		}
	}
	literal := func(i int, s string) {
		if start < 0 {
			start = i
		}
		text.WriteString(s)
	}

	for i := 0; i < len(ms); {
		switch c := ms[i]; {
		case c == '[' && i+1 < len(ms) && ms[i+1] == '[':
			literal(i, "[")
			i += 2
		case c == ']' && i+1 < len(ms) && ms[i+1] == ']':
			literal(i, "]")
			i += 2
		case c == '[':
			flush()
			end := strings.IndexByte(ms[i+1:], ']')
			if end < 0 {
				return nil, sign.AtOffset(i, sign.Errorf(sign.ErrUnsupportedTag, "unterminated tag"))
			}
			body := ms[i+1 : i+1+end]
			if strings.IndexByte(body, '[') >= 0 {
				return nil, sign.AtOffset(i, sign.Errorf(sign.ErrUnsupportedTag, "unterminated tag"))
			}
			t, err := parseTag(body)
			if err != nil {
				return nil, sign.AtOffset(i, err)
			}
			t.Offset = i
			tokens = append(tokens, t)
			i += end + 2
		case c == ']':
			return nil, sign.AtOffset(i, sign.Errorf(sign.ErrUnsupportedTag, "unexpected ]"))
		default:
			r, size := utf8.DecodeRuneInString(ms[i:])
			if r < 0x20 || r == 0x7f || (r == utf8.RuneError && size == 1) {
				return nil, sign.AtOffset(i, sign.Errorf(sign.ErrCharacterNotDefined, "character %#x", r))
			}
			literal(i, ms[i:i+size])
			i += size
		}
	}
	flush()

	return tokens, nil
}
