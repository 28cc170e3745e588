package orderbook

// BookSide holds the price levels for one direction of the book in a
// red-black tree keyed by price. Bids treat the maximum price as best,
// asks the minimum; that direction parameter is the only asymmetry.
// Lookup, insert and delete are O(log n) in the number of distinct levels.
type BookSide struct {
	side Side
	root *levelNode
	sent *levelNode // shared black sentinel standing in for nil leaves
	size int
}

func NewBookSide(side Side) *BookSide {
	s := &levelNode{} // zero value is black
	return &BookSide{side: side, root: s, sent: s}
}

// Len returns the number of non-empty price levels.
func (b *BookSide) Len() int { return b.size }

// Best returns the level at the most aggressive price, nil when empty:
// highest price for bids, lowest for asks.
func (b *BookSide) Best() *PriceLevel {
	if b.root == b.sent {
		return nil
	}
	n := b.root
	if b.side == Buy {
		for n.right != b.sent {
			n = n.right
		}
	} else {
		for n.left != b.sent {
			n = n.left
		}
	}
	return n.level
}

// Level returns the level at an exact price, nil if absent.
func (b *BookSide) Level(price int64) *PriceLevel {
	if n := b.lookup(price); n != b.sent {
		return n.level
	}
	return nil
}

// InsertOrAppend rests an order at its price, creating the level if needed.
func (b *BookSide) InsertOrAppend(o *Order) {
	b.upsert(o.Price).push(o)
}

// RemoveLevel deletes the level at price. The level must be empty; no empty
// level may persist in the tree.
func (b *BookSide) RemoveLevel(price int64) bool {
	n := b.lookup(price)
	if n == b.sent {
		return false
	}
	b.remove(n)
	b.size--
	return true
}

// EachBestFirst walks levels from best to worst price until fn returns false.
func (b *BookSide) EachBestFirst(fn func(*PriceLevel) bool) {
	if b.side == Buy {
		b.walkDesc(b.root, fn)
	} else {
		b.walkAsc(b.root, fn)
	}
}

func (b *BookSide) walkAsc(n *levelNode, fn func(*PriceLevel) bool) bool {
	if n == b.sent {
		return true
	}
	return b.walkAsc(n.left, fn) && fn(n.level) && b.walkAsc(n.right, fn)
}

func (b *BookSide) walkDesc(n *levelNode, fn func(*PriceLevel) bool) bool {
	if n == b.sent {
		return true
	}
	return b.walkDesc(n.right, fn) && fn(n.level) && b.walkDesc(n.left, fn)
}

// ---- red-black internals ----

type levelNode struct {
	price  int64
	level  *PriceLevel
	isRed  bool
	left   *levelNode
	right  *levelNode
	parent *levelNode
}

func (b *BookSide) lookup(price int64) *levelNode {
	n := b.root
	for n != b.sent {
		switch {
		case price < n.price:
			n = n.left
		case price > n.price:
			n = n.right
		default:
			return n
		}
	}
	return b.sent
}

// upsert returns the level at price, creating and rebalancing if absent.
func (b *BookSide) upsert(price int64) *PriceLevel {
	parent := b.sent
	n := b.root
	for n != b.sent {
		parent = n
		switch {
		case price < n.price:
			n = n.left
		case price > n.price:
			n = n.right
		default:
			return n.level
		}
	}
	lvl := &PriceLevel{Price: price}
	z := &levelNode{
		price:  price,
		level:  lvl,
		isRed:  true,
		left:   b.sent,
		right:  b.sent,
		parent: parent,
	}
	switch {
	case parent == b.sent:
		b.root = z
	case price < parent.price:
		parent.left = z
	default:
		parent.right = z
	}
	b.insertFixup(z)
	b.size++
	return lvl
}

func (b *BookSide) rotateLeft(x *levelNode) {
	y := x.right
	x.right = y.left
	if y.left != b.sent {
		y.left.parent = x
	}
	y.parent = x.parent
	switch {
	case x.parent == b.sent:
		b.root = y
	case x == x.parent.left:
		x.parent.left = y
	default:
		x.parent.right = y
	}
	y.left = x
	x.parent = y
}

func (b *BookSide) rotateRight(y *levelNode) {
	x := y.left
	y.left = x.right
	if x.right != b.sent {
		x.right.parent = y
	}
	x.parent = y.parent
	switch {
	case y.parent == b.sent:
		b.root = x
	case y == y.parent.right:
		y.parent.right = x
	default:
		y.parent.left = x
	}
	x.right = y
	y.parent = x
}

func (b *BookSide) insertFixup(z *levelNode) {
	for z.parent.isRed {
		if z.parent == z.parent.parent.left {
			uncle := z.parent.parent.right
			if uncle.isRed {
				z.parent.isRed = false
				uncle.isRed = false
				z.parent.parent.isRed = true
				z = z.parent.parent
			} else {
				if z == z.parent.right {
					z = z.parent
					b.rotateLeft(z)
				}
				z.parent.isRed = false
				z.parent.parent.isRed = true
				b.rotateRight(z.parent.parent)
			}
		} else {
			uncle := z.parent.parent.left
			if uncle.isRed {
				z.parent.isRed = false
				uncle.isRed = false
				z.parent.parent.isRed = true
				z = z.parent.parent
			} else {
				if z == z.parent.left {
					z = z.parent
					b.rotateRight(z)
				}
				z.parent.isRed = false
				z.parent.parent.isRed = true
				b.rotateLeft(z.parent.parent)
			}
		}
	}
	b.root.isRed = false
}

func (b *BookSide) transplant(u, v *levelNode) {
	switch {
	case u.parent == b.sent:
		b.root = v
	case u == u.parent.left:
		u.parent.left = v
	default:
		u.parent.right = v
	}
	v.parent = u.parent
}

func (b *BookSide) subtreeMin(n *levelNode) *levelNode {
	for n.left != b.sent {
		n = n.left
	}
	return n
}

func (b *BookSide) remove(z *levelNode) {
	y := z
	yWasRed := y.isRed
	var x *levelNode

	switch {
	case z.left == b.sent:
		x = z.right
		b.transplant(z, z.right)
	case z.right == b.sent:
		x = z.left
		b.transplant(z, z.left)
	default:
		y = b.subtreeMin(z.right)
		yWasRed = y.isRed
		x = y.right
		if y.parent == z {
			x.parent = y
		} else {
			b.transplant(y, y.right)
			y.right = z.right
			y.right.parent = y
		}
		b.transplant(z, y)
		y.left = z.left
		y.left.parent = y
		y.isRed = z.isRed
	}
	if !yWasRed {
		b.removeFixup(x)
	}
}

func (b *BookSide) removeFixup(x *levelNode) {
	for x != b.root && !x.isRed {
		if x == x.parent.left {
			w := x.parent.right
			if w.isRed {
				w.isRed = false
				x.parent.isRed = true
				b.rotateLeft(x.parent)
				w = x.parent.right
			}
			if !w.left.isRed && !w.right.isRed {
				w.isRed = true
				x = x.parent
			} else {
				if !w.right.isRed {
					w.left.isRed = false
					w.isRed = true
					b.rotateRight(w)
					w = x.parent.right
				}
				w.isRed = x.parent.isRed
				x.parent.isRed = false
				w.right.isRed = false
				b.rotateLeft(x.parent)
				x = b.root
			}
		} else {
			w := x.parent.left
			if w.isRed {
				w.isRed = false
				x.parent.isRed = true
				b.rotateRight(x.parent)
				w = x.parent.left
			}
			if !w.right.isRed && !w.left.isRed {
				w.isRed = true
				x = x.parent
			} else {
				if !w.left.isRed {
					w.right.isRed = false
					w.isRed = true
					b.rotateLeft(w)
					w = x.parent.left
				}
				w.isRed = x.parent.isRed
				x.parent.isRed = false
				w.left.isRed = false
				b.rotateRight(x.parent)
				x = b.root
			}
		}
	}
	x.isRed = false
}
