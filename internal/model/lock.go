package model

import "github.com/google/uuid"

type LockedNumber struct {
	RoundID uuid.UUID
	Space   Space
	Number  string
}

// LockSet - номера, которые не могут быть объявлены результатом раунда
type LockSet struct {
	Singles []string
	Triples []string
}

func (l LockSet) Empty() bool {
	return len(l.Singles) == 0 && len(l.Triples) == 0
}

func (l LockSet) Contains(space Space, number string) bool {
	list := l.Triples
	if space == SpaceSingle {
		list = l.Singles
	}
	for _, n := range list {
		if n == number {
			return true
		}
	}
	return false
}
