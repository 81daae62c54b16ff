package memory

import (
	"testing"

	"github.com/farmstay/farmstay/internal/store"
)

func TestShouldSummarize(t *testing.T) {
	tests := []struct {
		name  string
		count int
		flag  bool
		want  bool
	}{
		{"zero messages", 0, false, false},
		{"below interval", 5, false, false},
		{"at interval", 6, false, true},
		{"just past interval", 7, false, false},
		{"second interval", 12, false, true},
		{"third interval", 18, false, true},
		{"flag forces refresh", 7, true, true},
		{"flag with zero messages", 0, true, true},
		{"flag at interval", 6, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &store.Session{NeedsSummarization: tt.flag}
			if got := ShouldSummarize(tt.count, 6, sess, nil); got != tt.want {
				t.Errorf("ShouldSummarize(%d, flag=%v) = %v, want %v", tt.count, tt.flag, got, tt.want)
			}
		})
	}
}

func TestShouldSummarizeDefaultInterval(t *testing.T) {
	sess := &store.Session{}
	if !ShouldSummarize(6, 0, sess, nil) {
		t.Error("interval 0 should fall back to the default interval of 6")
	}
	if ShouldSummarize(4, 0, sess, nil) {
		t.Error("4 messages should not trigger with the default interval")
	}
}

func TestShouldSummarizeNilSession(t *testing.T) {
	if ShouldSummarize(5, 6, nil, nil) {
		t.Error("nil session without interval hit should not trigger")
	}
	if !ShouldSummarize(6, 6, nil, nil) {
		t.Error("interval rule should fire even for a nil session")
	}
}
