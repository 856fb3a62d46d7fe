package model

import "testing"

func TestDeriveStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		accepted bool
		rejected bool
		isRead   bool
		want     string
	}{
		{name: "untouched", want: StatusNew},
		{name: "read only", isRead: true, want: StatusPending},
		{name: "accepted", accepted: true, want: StatusUnderEvaluation},
		{name: "accepted and read", accepted: true, isRead: true, want: StatusUnderEvaluation},
		{name: "rejected", rejected: true, want: StatusRejected},
		{name: "rejected wins over accepted", accepted: true, rejected: true, want: StatusRejected},
		{name: "rejected wins over read", rejected: true, isRead: true, want: StatusRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DeriveStatus(tt.accepted, tt.rejected, tt.isRead); got != tt.want {
				t.Fatalf("DeriveStatus(%v, %v, %v) = %q, want %q",
					tt.accepted, tt.rejected, tt.isRead, got, tt.want)
			}
		})
	}
}
