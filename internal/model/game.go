package model

import "strconv"

// GameClass - категория ставки со своим набором допустимых номеров и коэффициентом
type GameClass string

const (
	ClassSingle      GameClass = "single"
	ClassSinglePanna GameClass = "single_panna"
	ClassDoublePanna GameClass = "double_panna"
	ClassTriplePanna GameClass = "triple_panna"
)

// Classes - все классы в каноническом порядке
var Classes = []GameClass{ClassSingle, ClassSinglePanna, ClassDoublePanna, ClassTriplePanna}

// Space - пространство номеров, в котором действует блокировка
type Space string

const (
	SpaceSingle Space = "single"
	SpaceTriple Space = "triple"
)

func (c GameClass) Space() Space {
	if c == ClassSingle {
		return SpaceSingle
	}
	return SpaceTriple
}

func (c GameClass) Valid() bool {
	switch c {
	case ClassSingle, ClassSinglePanna, ClassDoublePanna, ClassTriplePanna:
		return true
	}
	return false
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
