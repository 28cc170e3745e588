package orderbook

// PriceLevel is the FIFO queue of resting orders at one price. Orders link
// into the queue intrusively, so front removal never shifts the remainder.
// TotalQty caches the sum of remaining quantities for O(1) depth reporting.
type PriceLevel struct {
	Price    int64
	TotalQty int64
	Count    int

	head *Order
	tail *Order
}

// push appends an order at the back of the queue (newest).
func (l *PriceLevel) push(o *Order) {
	if l.tail == nil {
		l.head = o
		l.tail = o
	} else {
		l.tail.next = o
		o.prev = l.tail
		l.tail = o
	}
	l.TotalQty += o.Qty
	l.Count++
}

// front returns the oldest resting order, nil if the level is empty.
func (l *PriceLevel) front() *Order {
	return l.head
}

// unlinkFront removes the head order. Its remaining quantity must already
// have been drained to zero by matching.
func (l *PriceLevel) unlinkFront() *Order {
	o := l.head
	if o == nil {
		return nil
	}
	l.head = o.next
	if l.head != nil {
		l.head.prev = nil
	} else {
		l.tail = nil
	}
	o.next = nil
	l.Count--
	return o
}

// reduce records a partial execution against an order on this level.
func (l *PriceLevel) reduce(qty int64) {
	l.TotalQty -= qty
}

func (l *PriceLevel) empty() bool { return l.head == nil }

// restingSum recomputes the aggregate from the queue. Used only by the
// integrity check, never on the hot path.
func (l *PriceLevel) restingSum() int64 {
	var sum int64
	for o := l.head; o != nil; o = o.next {
		sum += o.Qty
	}
	return sum
}
