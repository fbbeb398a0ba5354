package domain

import "time"

// Clock abstrai o relógio de parede para tornar a aritmética das janelas testável.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

var SystemClock Clock = ClockFunc(time.Now)
