// Package vector реализует насыщающую сумму квадратов для векторов int16.
package vector

import "encoding/binary"

const (
	maxResult = 32767
	minResult = -32768
)

// SumOfSquares возвращает сумму квадратов элементов, ограниченную диапазоном int16.
// Пустой вектор даёт 0.
func SumOfSquares(elements []int16) int16 {
	var acc Accumulator
	for _, v := range elements {
		if acc.Add(v) {
			break
		}
	}
	return acc.Result()
}

// Accumulator считает сумму квадратов потоково, по мере чтения элементов.
// Нулевое значение готово к использованию.
//
// После каждого слагаемого сумма проверяется на выход за [-32768, 32767];
// при выходе результат фиксируется и дальнейшие элементы игнорируются.
// Квадраты неотрицательны, нижняя граница недостижима.
type Accumulator struct {
	sum       int64
	result    int16
	saturated bool
}

// Add добавляет квадрат v. Возвращает true, если сумма насытилась.
func (a *Accumulator) Add(v int16) bool {
	if a.saturated {
		return true
	}
	a.sum += int64(v) * int64(v)
	return a.clamp()
}

// AddBytes добавляет элементы, закодированные в b в порядке order.
// Хвост короче двух байт игнорируется.
func (a *Accumulator) AddBytes(b []byte, order binary.ByteOrder) bool {
	for i := 0; i+2 <= len(b); i += 2 {
		if a.Add(int16(order.Uint16(b[i:]))) {
			return true
		}
	}
	return a.saturated
}

func (a *Accumulator) clamp() bool {
	switch {
	case a.sum > maxResult:
		a.result, a.saturated = maxResult, true
	case a.sum < minResult:
		a.result, a.saturated = minResult, true
	}
	return a.saturated
}

// Saturated сообщает, сработало ли ограничение.
func (a *Accumulator) Saturated() bool {
	return a.saturated
}

// Result возвращает текущий результат.
func (a *Accumulator) Result() int16 {
	if a.saturated {
		return a.result
	}
	return int16(a.sum)
}

// Reset сбрасывает состояние для следующего вектора.
func (a *Accumulator) Reset() {
	*a = Accumulator{}
}
