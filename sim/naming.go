package sim

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidName is reported for names that break the naming convention.
var ErrInvalidName = errors.New("invalid name")

// A Named object is an object that has a name.
type Named interface {
	Name() string
}

// A NameToken is one dot-separated element of a hierarchical name, such as
// "Conn[2]" in "Cache.Conn[2].ReqBuf".
type NameToken struct {
	ElemName string
	Index    []int
}

var (
	elemNameRe = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*`)
	indexRe    = regexp.MustCompile(`^\[([0-9]+)\]`)
)

// ParseName splits a name into its tokens. Every token is a capitalized
// CamelCase element name followed by any number of bracketed indices.
func ParseName(name string) ([]NameToken, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidName)
	}

	parts := strings.Split(name, ".")
	tokens := make([]NameToken, 0, len(parts))

	for _, part := range parts {
		token, err := parseNameToken(part)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidName, name, err)
		}

		tokens = append(tokens, token)
	}

	return tokens, nil
}

func parseNameToken(s string) (NameToken, error) {
	elem := elemNameRe.FindString(s)
	if elem == "" {
		return NameToken{}, fmt.Errorf(
			"element %q must start with a capital letter", s)
	}

	token := NameToken{ElemName: elem}

	for rest := s[len(elem):]; rest != ""; {
		m := indexRe.FindStringSubmatch(rest)
		if m == nil {
			return NameToken{}, fmt.Errorf(
				"element %q has an unexpected %q", s, rest)
		}

		index, err := strconv.Atoi(m[1])
		if err != nil {
			return NameToken{}, err
		}

		token.Index = append(token.Index, index)
		rest = rest[len(m[0]):]
	}

	return token, nil
}

// NameMustBeValid panics if the name does not follow the naming convention.
func NameMustBeValid(name string) {
	if _, err := ParseName(name); err != nil {
		log.Panic(err)
	}
}

// BuildName builds a name from a parent name and an element name.
func BuildName(parentName, elementName string) string {
	if parentName == "" {
		return elementName
	}

	return parentName + "." + elementName
}

// BuildNameWithIndex builds a name from a parent name, an element name and an
// index.
func BuildNameWithIndex(parentName, elementName string, index int) string {
	return BuildName(parentName, elementName) + "[" + strconv.Itoa(index) + "]"
}
