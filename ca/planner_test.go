package ca

import (
	"errors"
	"testing"
)

func TestPlanViewport_BasicCoverage(t *testing.T) {
	vp := Viewport{OffsetX: 0, OffsetY: 0, CellSize: 4}
	plan, err := PlanViewport(vp, 1024, 256, 256)
	if err != nil {
		t.Fatalf("PlanViewport error: %v", err)
	}
	if plan.VisibleCellsX != 256 {
		t.Errorf("VisibleCellsX = %d, want 256", plan.VisibleCellsX)
	}
	if plan.VisibleCellsY != 64 {
		t.Errorf("VisibleCellsY = %d, want 64", plan.VisibleCellsY)
	}
	if plan.TileXStart != 0 || plan.TileXEnd != 0 {
		t.Errorf("tile x range = [%d,%d], want [0,0]", plan.TileXStart, plan.TileXEnd)
	}
	if plan.TileYStart != 0 || plan.TileYEnd != 0 {
		t.Errorf("tile y range = [%d,%d], want [0,0]", plan.TileYStart, plan.TileYEnd)
	}
}

func TestPlanViewport_CeilsPartialCells(t *testing.T) {
	vp := Viewport{CellSize: 10}
	plan, err := PlanViewport(vp, 105, 25, 256)
	if err != nil {
		t.Fatalf("PlanViewport error: %v", err)
	}
	if plan.VisibleCellsX != 11 {
		t.Errorf("VisibleCellsX = %d, want 11 (ceil(105/10))", plan.VisibleCellsX)
	}
	if plan.VisibleCellsY != 3 {
		t.Errorf("VisibleCellsY = %d, want 3 (ceil(25/10))", plan.VisibleCellsY)
	}
}

func TestPlanViewport_NegativeOffsetTilesFloorCorrectly(t *testing.T) {
	vp := Viewport{OffsetX: -300, OffsetY: 0, CellSize: 1}
	plan, err := PlanViewport(vp, 100, 10, 256)
	if err != nil {
		t.Fatalf("PlanViewport error: %v", err)
	}
	// world x range [-300, -200) spans tile -2 ([-512,-256)) and tile -1 ([-256,0))
	if plan.TileXStart != -2 {
		t.Errorf("TileXStart = %d, want -2", plan.TileXStart)
	}
	if plan.TileXEnd != -1 {
		t.Errorf("TileXEnd = %d, want -1", plan.TileXEnd)
	}
}

func TestPlanViewport_ClampsNegativeOffsetY(t *testing.T) {
	vp := Viewport{OffsetY: -50, CellSize: 4}
	plan, err := PlanViewport(vp, 100, 100, 256)
	if err != nil {
		t.Fatalf("PlanViewport error: %v", err)
	}
	if plan.ViewportYStart != 0 {
		t.Errorf("ViewportYStart = %d, want 0", plan.ViewportYStart)
	}
}

func TestPlanViewport_RejectsCellSizeBelowMinimum(t *testing.T) {
	vp := Viewport{CellSize: 0}
	_, err := PlanViewport(vp, 100, 100, 256)
	if !errors.Is(err, ErrSizeLimitExceeded) {
		t.Fatalf("error = %v, want wrapping ErrSizeLimitExceeded", err)
	}
}

func TestPlanViewport_RejectsExcessiveCellCount(t *testing.T) {
	vp := Viewport{CellSize: 1}
	_, err := PlanViewport(vp, MaxCellsX+1, 100, 256)
	if !errors.Is(err, ErrSizeLimitExceeded) {
		t.Fatalf("error = %v, want wrapping ErrSizeLimitExceeded for oversized width", err)
	}

	_, err = PlanViewport(vp, 100, MaxCellsY+1, 256)
	if !errors.Is(err, ErrSizeLimitExceeded) {
		t.Fatalf("error = %v, want wrapping ErrSizeLimitExceeded for oversized height", err)
	}
}

func TestPlanViewport_RejectsExcessiveTotalCellBudget(t *testing.T) {
	vp := Viewport{CellSize: 1}
	// both dimensions individually legal, but their product * 3 overflows MaxTotalCells
	_, err := PlanViewport(vp, MaxCellsX, MaxCellsY, 256)
	if !errors.Is(err, ErrSizeLimitExceeded) {
		t.Fatalf("error = %v, want wrapping ErrSizeLimitExceeded for total cell budget", err)
	}
}
