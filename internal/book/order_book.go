package book

import "orderbook/internal/common"

// node is a resting order inside a level's FIFO queue. A node whose level is
// nil has been removed and any Handle pointing at it is stale.
type node struct {
	order common.Order
	level *level
	prev  *node
	next  *node
}

// level holds every order resting at one price, oldest first. quantity is
// kept equal to the sum of the remaining quantity of its nodes.
type level struct {
	price    common.Ticks
	quantity common.Quantity
	count    int
	head     *node
	tail     *node
	ladder   *Ladder
}

// pushBack appends n at the tail of the queue, lowest time priority.
func (lvl *level) pushBack(n *node) {
	n.level = lvl
	n.next = nil
	n.prev = lvl.tail
	if lvl.tail != nil {
		lvl.tail.next = n
	} else {
		lvl.head = n
	}
	lvl.tail = n

	lvl.quantity += n.order.Quantity
	lvl.count++
}

// unlink removes n from anywhere in the queue. The relative order of the
// remaining nodes is unchanged.
func (lvl *level) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		lvl.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		lvl.tail = n.prev
	}

	lvl.quantity -= n.order.Quantity
	lvl.count--

	n.prev = nil
	n.next = nil
	n.level = nil
}

func (lvl *level) view() common.Level {
	return common.Level{
		Price:    lvl.price,
		Quantity: lvl.quantity,
		Orders:   lvl.count,
	}
}
