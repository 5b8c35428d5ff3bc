// Package numspace описывает допустимые номера для каждого класса игры
// и редукцию тройки в одну цифру.
package numspace

import (
	"errors"
	"fmt"
	"numbers_backend/internal/model"
	"strconv"
)

// Reduction - сумма цифр тройки и ее остаток от деления на 10
type Reduction struct {
	Sum    int
	Single int
}

var (
	singles []string
	triples []string
	classOf map[string]model.GameClass
	order   map[model.Space]map[string]int
)

func init() {
	singles = make([]string, 0, 10)
	for d := 0; d <= 9; d++ {
		singles = append(singles, strconv.Itoa(d))
	}

	// Цифры в тройке идут по неубыванию, 0 считается старше 9
	digits := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 0}
	classOf = make(map[string]model.GameClass, 220)
	for i, a := range digits {
		for j := i; j < len(digits); j++ {
			for k := j; k < len(digits); k++ {
				b, c := digits[j], digits[k]
				n := fmt.Sprintf("%d%d%d", a, b, c)
				triples = append(triples, n)
				classOf[n] = classify(a, b, c)
			}
		}
	}

	order = map[model.Space]map[string]int{
		model.SpaceSingle: indexOf(singles),
		model.SpaceTriple: indexOf(triples),
	}
}

func classify(a, b, c int) model.GameClass {
	switch {
	case a == b && b == c:
		return model.ClassTriplePanna
	case a == b || b == c || a == c:
		return model.ClassDoublePanna
	default:
		return model.ClassSinglePanna
	}
}

func indexOf(list []string) map[string]int {
	m := make(map[string]int, len(list))
	for i, n := range list {
		m[n] = i
	}
	return m
}

// Reduce - сумма цифр и сумма по модулю 10 для любой строки 000-999
func Reduce(triple string) (Reduction, error) {
	if len(triple) != 3 {
		return Reduction{}, errors.New("triple must have exactly 3 digits")
	}
	sum := 0
	for _, r := range triple {
		if r < '0' || r > '9' {
			return Reduction{}, fmt.Errorf("triple %q contains a non-digit", triple)
		}
		sum += int(r - '0')
	}
	return Reduction{Sum: sum, Single: sum % 10}, nil
}

// SingleOf - редукция тройки в виде номера пространства single
func SingleOf(triple string) (string, error) {
	red, err := Reduce(triple)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(red.Single), nil
}

// IsLegal - допустим ли номер для класса
func IsLegal(class model.GameClass, number string) bool {
	if class == model.ClassSingle {
		_, ok := order[model.SpaceSingle][number]
		return ok
	}
	c, ok := classOf[number]
	return ok && c == class
}

// ClassOfTriple - класс допустимой тройки
func ClassOfTriple(number string) (model.GameClass, bool) {
	c, ok := classOf[number]
	return c, ok
}

// IsLegalTriple - тройка входит в один из классов panna
func IsLegalTriple(number string) bool {
	_, ok := classOf[number]
	return ok
}

// Universe - все номера пространства в каноническом порядке
func Universe(space model.Space) []string {
	src := triples
	if space == model.SpaceSingle {
		src = singles
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Numbers - все допустимые номера класса в каноническом порядке
func Numbers(class model.GameClass) []string {
	if class == model.ClassSingle {
		return Universe(model.SpaceSingle)
	}
	var out []string
	for _, n := range triples {
		if classOf[n] == class {
			out = append(out, n)
		}
	}
	return out
}

// Order - позиция номера в каноническом порядке пространства, -1 если номера нет
func Order(space model.Space, number string) int {
	i, ok := order[space][number]
	if !ok {
		return -1
	}
	return i
}
