package view

// Point is a cell on the screen.
type Point struct {
	X, Y int
}

// Rect is an area on the screen.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Contains reports whether p lies within r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Pointer dispatches pointer-down events to listeners. It is not safe for concurrent use; it
// belongs to the UI loop.
type Pointer struct {
	next      int
	listeners []listener
}

type listener struct {
	id int
	fn func(Point)
}

// NewPointer returns a dispatcher without listeners.
func NewPointer() *Pointer {
	return &Pointer{}
}

// Add registers fn and returns the function that removes it again.
func (p *Pointer) Add(fn func(Point)) (remove func()) {
	id := p.next
	p.next++
	p.listeners = append(p.listeners, listener{id: id, fn: fn})
	return func() {
		for i, l := range p.listeners {
			if l.id == id {
				p.listeners = append(p.listeners[:i:i], p.listeners[i+1:]...)
				return
			}
		}
	}
}

// Press delivers a pointer-down at pt to all listeners registered when it is called.
func (p *Pointer) Press(pt Point) {
	listeners := append([]listener(nil), p.listeners...)
	for _, l := range listeners {
		l.fn(pt)
	}
}

// Len returns the number of registered listeners.
func (p *Pointer) Len() int {
	return len(p.listeners)
}

// Overlay is a popup over a dimmed backdrop. A press outside of its content closes it.
type Overlay struct {
	bounds  Rect
	onClose func()
	remove  func()
}

// NewOverlay returns an overlay that calls onClose when it is dismissed.
func NewOverlay(onClose func()) *Overlay {
	return &Overlay{onClose: onClose}
}

// SetBounds sets the area of the content. The renderer calls it whenever it has laid out the
// content.
func (o *Overlay) SetBounds(r Rect) {
	o.bounds = r
}

// Bounds returns the area of the content.
func (o *Overlay) Bounds() Rect {
	return o.bounds
}

// Mount starts listening for presses on p. Mounting twice has no effect.
func (o *Overlay) Mount(p *Pointer) {
	if o.remove != nil {
		return
	}
	o.remove = p.Add(func(pt Point) {
		if !o.bounds.Contains(pt) {
			o.onClose()
		}
	})
}

// Unmount stops listening.
func (o *Overlay) Unmount() {
	if o.remove == nil {
		return
	}
	o.remove()
	o.remove = nil
}

// Mounted reports whether the overlay is listening.
func (o *Overlay) Mounted() bool {
	return o.remove != nil
}
