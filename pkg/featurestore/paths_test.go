package featurestore

import "testing"

func TestJoinPath(t *testing.T) {
	tests := []struct {
		base string
		elem []string
		want string
	}{
		{"/Projects/demo/td_1", []string{"train"}, "/Projects/demo/td_1/train"},
		{"/Projects/demo/td_1/", []string{"td"}, "/Projects/demo/td_1/td"},
		{"s3://bucket/td_1", []string{"test"}, "s3://bucket/td_1/test"},
		{"s3://bucket/td_1", []string{"td", "part-0000.csv"}, "s3://bucket/td_1/td/part-0000.csv"},
	}
	for _, tt := range tests {
		if got := JoinPath(tt.base, tt.elem...); got != tt.want {
			t.Errorf("JoinPath(%q, %v) = %q, want %q", tt.base, tt.elem, got, tt.want)
		}
	}
}
