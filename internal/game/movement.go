package game

// AdvanceSnake prepends the next head in direction d and returns it.
// The caller decides whether to drop the tail.
func AdvanceSnake(s *Snake, d Direction) Position {
	head := Step(s.Head(), d)
	s.Body = append(s.Body, Position{})
	copy(s.Body[1:], s.Body[:len(s.Body)-1])
	s.Body[0] = head
	s.Direction = d
	return head
}

// DropTail removes the last segment
func DropTail(s *Snake) {
	s.Body = s.Body[:len(s.Body)-1]
}

// AdvanceTransient steps the entity one cell along its fixed direction and
// latches HasEnteredScreen the first time it becomes visible
func AdvanceTransient(b Board, e *TransientEntity) {
	e.Pos = Step(e.Pos, e.Direction)
	if !e.HasEnteredScreen && b.IsOnScreen(e.Pos) {
		e.HasEnteredScreen = true
	}
}
