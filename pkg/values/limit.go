package values

import "fmt"

// Limit tracks how many of a page's declared values have been consumed.
// Decoders embed it and call [Limit.Next] before producing each value.
type Limit struct {
	total       int
	consumed    int
	initialized bool
}

// Init declares the page's value count. Init may only be called once.
func (l *Limit) Init(valueCount int) error {
	if l.initialized {
		return ErrAlreadyInitialized
	}
	if valueCount < 0 {
		return Formatf("negative value count %d", valueCount)
	}
	l.total = valueCount
	l.initialized = true
	return nil
}

// Shrink lowers the declared count to n if n is smaller. Encodings that
// record their own value count in-stream use it to stop at whichever count
// is smaller.
func (l *Limit) Shrink(n int) {
	if n < l.total {
		l.total = n
	}
}

// Next reserves the next value, failing with [ErrExhausted] once the
// declared count has been consumed.
func (l *Limit) Next() error {
	if !l.initialized {
		return ErrNotInitialized
	}
	if l.consumed >= l.total {
		return fmt.Errorf("%w: all %d values consumed", ErrExhausted, l.total)
	}
	l.consumed++
	return nil
}

// Take reserves up to n values and returns how many could be reserved. It
// fails with [ErrExhausted] only when fewer than n values were available, in
// which case the available ones are still reserved.
func (l *Limit) Take(n int) (int, error) {
	if !l.initialized {
		return 0, ErrNotInitialized
	}
	if n <= 0 {
		return 0, nil
	}
	avail := l.total - l.consumed
	if n <= avail {
		l.consumed += n
		return n, nil
	}
	l.consumed = l.total
	return avail, fmt.Errorf("%w: requested %d values, %d remaining", ErrExhausted, n, avail)
}

// Release returns n reserved values to the count. Batch reads that stop
// on a fault release the values after the failing one, leaving the count
// where the equivalent sequence of single reads would have left it.
func (l *Limit) Release(n int) {
	if n > 0 {
		l.consumed -= min(n, l.consumed)
	}
}

// Remaining returns the number of values not yet consumed.
func (l *Limit) Remaining() int { return l.total - l.consumed }

// Initialized reports whether Init has been called.
func (l *Limit) Initialized() bool { return l.initialized }
