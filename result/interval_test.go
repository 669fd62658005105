package result

import (
	"errors"
	"testing"
)

func TestNewIntervalCheckedValid(t *testing.T) {
	iv, err := NewIntervalChecked(NewInt32(1), NewInt32(5), true, true, nil, Compare)
	if err != nil {
		t.Fatalf("NewIntervalChecked: %v", err)
	}
	if iv.Low.GolangValue().(int32) != 1 || iv.High.GolangValue().(int32) != 5 {
		t.Errorf("NewIntervalChecked endpoints = [%v, %v], want [1, 5]", iv.Low, iv.High)
	}
}

func TestNewIntervalCheckedInvalid(t *testing.T) {
	_, err := NewIntervalChecked(NewInt32(5), NewInt32(1), true, true, nil, Compare)
	if !errors.Is(err, ErrInvalidInterval) {
		t.Errorf("NewIntervalChecked(5, 1) error = %v, want ErrInvalidInterval", err)
	}
}

func TestNewIntervalCheckedUnboundedEndpointsAllowed(t *testing.T) {
	iv, err := NewIntervalChecked(NewNull(nil), NewInt32(5), false, true, nil, Compare)
	if err != nil {
		t.Fatalf("NewIntervalChecked with unbounded low: %v", err)
	}
	if !iv.Low.IsNull() {
		t.Error("unbounded low endpoint should remain Null")
	}
}

func TestIntervalEqual(t *testing.T) {
	a := Interval{Low: NewInt32(1), High: NewInt32(5), LowClosed: true, HighClosed: true}
	b := Interval{Low: NewInt32(1), High: NewInt32(5), LowClosed: true, HighClosed: true}
	c := Interval{Low: NewInt32(1), High: NewInt32(5), LowClosed: false, HighClosed: true}
	if !a.Equal(b) {
		t.Error("Interval.Equal(identical) = false, want true")
	}
	if a.Equal(c) {
		t.Error("Interval.Equal(different closedness) = true, want false")
	}
}
