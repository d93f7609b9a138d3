package game

import "testing"

func TestNewSnakeLayout(t *testing.T) {
	s := NewSnake(1, Position{15, 15}, DirRight, 3)

	want := body(15, 15, 15, 14, 15, 13)
	for i, p := range want {
		if s.Body[i] != p {
			t.Errorf("segment %d = %v, want %v", i, s.Body[i], p)
		}
	}
	if s.Direction != DirRight || s.Next != DirRight {
		t.Errorf("Expected heading right, got %s/%s", s.Direction, s.Next)
	}
}

func TestAdvanceSnake(t *testing.T) {
	s := &Snake{Player: 1, Body: body(10, 10, 10, 9, 10, 8), Direction: DirRight}

	head := AdvanceSnake(s, DirUp)
	if head != (Position{9, 10}) {
		t.Errorf("Expected head (9,10), got %v", head)
	}
	if s.Len() != 4 || s.Head() != head || s.Body[1] != (Position{10, 10}) {
		t.Errorf("Head should be prepended, got %v", s.Body)
	}
	if s.Direction != DirUp {
		t.Errorf("Direction should follow the move, got %s", s.Direction)
	}

	DropTail(s)
	if s.Len() != 3 || s.Tail() != (Position{10, 9}) {
		t.Errorf("DropTail should remove the last segment, got %v", s.Body)
	}
}

func TestAdvanceTransientLatchesEntry(t *testing.T) {
	b := testBoard()
	e := &TransientEntity{Pos: Position{26, 10}, Direction: DirUp}

	AdvanceTransient(b, e)
	if e.Pos.Row != 25 || e.HasEnteredScreen {
		t.Fatalf("Row 25 is still off-screen, got %+v", e)
	}

	AdvanceTransient(b, e)
	if e.Pos.Row != 24 || !e.HasEnteredScreen {
		t.Fatalf("Row 24 is on-screen, entity should have entered: %+v", e)
	}

	for i := 0; i < 20; i++ {
		AdvanceTransient(b, e)
	}
	if !e.HasEnteredScreen {
		t.Error("HasEnteredScreen must never reset after leaving the window")
	}
}
