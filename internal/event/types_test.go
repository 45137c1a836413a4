package event

import (
	"errors"
	"testing"
)

func TestPriority_String(t *testing.T) {
	tests := []struct {
		priority Priority
		expected string
	}{
		{PriorityLow, "low"},
		{PriorityHigh, "high"},
		{Priority(42), "low"},
	}

	for _, tt := range tests {
		if got := tt.priority.String(); got != tt.expected {
			t.Errorf("Priority(%d).String() = %q, want %q", tt.priority, got, tt.expected)
		}
	}
}

func TestPriority_ZeroValueIsLow(t *testing.T) {
	var p Priority
	if p != PriorityLow {
		t.Errorf("expected zero Priority to be PriorityLow, got %v", p)
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		input    string
		expected Priority
		wantErr  bool
	}{
		{"", PriorityLow, false},
		{"low", PriorityLow, false},
		{"HIGH", PriorityHigh, false},
		{" high ", PriorityHigh, false},
		{"urgent", PriorityLow, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePriority(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPriority) {
					t.Errorf("expected ErrInvalidPriority, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("ParsePriority(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestListenerFunc(t *testing.T) {
	var gotCode, gotParam int
	l := ListenerFunc(func(code, param int) {
		gotCode, gotParam = code, param
	})

	l.HandleEvent(3, 4)

	if gotCode != 3 || gotParam != 4 {
		t.Errorf("expected (3, 4), got (%d, %d)", gotCode, gotParam)
	}
}

func TestCodeName(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{EventNone, "none"},
		{EventKeyPress, "keypress"},
		{EventTimer0, "timer0"},
		{EventPaint, "paint"},
		{EventUser9, "user9"},
		{1000, "1000"},
		{-1, "-1"},
	}

	for _, tt := range tests {
		if got := CodeName(tt.code); got != tt.expected {
			t.Errorf("CodeName(%d) = %q, want %q", tt.code, got, tt.expected)
		}
	}
}

func TestParseCode(t *testing.T) {
	tests := []struct {
		input    string
		expected int
		wantErr  bool
	}{
		{"timer0", EventTimer0, false},
		{"User3", EventUser3, false},
		{"42", 42, false},
		{"-7", -7, false},
		{"bogus", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCode(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownCode) {
					t.Errorf("expected ErrUnknownCode, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("ParseCode(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}
