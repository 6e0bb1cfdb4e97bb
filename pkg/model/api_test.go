package model

import "testing"

func TestListOptions_Clamp(t *testing.T) {
	tests := []struct {
		name       string
		input      ListOptions
		wantLimit  int
		wantOffset int
	}{
		{"defaults", ListOptions{Limit: 0, Offset: 0}, 20, 0},
		{"negative limit", ListOptions{Limit: -5, Offset: 0}, 20, 0},
		{"over max", ListOptions{Limit: 200, Offset: 0}, 100, 0},
		{"negative offset", ListOptions{Limit: 10, Offset: -3}, 10, 0},
		{"valid", ListOptions{Limit: 50, Offset: 10}, 50, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.input.Clamp()
			if tt.input.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", tt.input.Limit, tt.wantLimit)
			}
			if tt.input.Offset != tt.wantOffset {
				t.Errorf("Offset = %d, want %d", tt.input.Offset, tt.wantOffset)
			}
		})
	}
}

func TestDefaultListOptions(t *testing.T) {
	opts := DefaultListOptions()
	if opts.Limit != 20 {
		t.Errorf("Limit = %d, want 20", opts.Limit)
	}
	if opts.Offset != 0 {
		t.Errorf("Offset = %d, want 0", opts.Offset)
	}
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name    string
		opts    ListOptions
		n       int
		total   int
		hasMore bool
	}{
		{"first page of many", ListOptions{Limit: 2, Offset: 0}, 2, 5, true},
		{"last full page", ListOptions{Limit: 2, Offset: 3}, 2, 5, false},
		{"empty", ListOptions{Limit: 20}, 0, 0, false},
		{"filters ignored", ListOptions{Limit: 1, SpaceID: "spc_x", UserID: "usr_y"}, 1, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pg := NewPagination(tt.opts, tt.n, tt.total)
			if pg.HasMore != tt.hasMore {
				t.Errorf("HasMore = %v, want %v", pg.HasMore, tt.hasMore)
			}
			if pg.Total != tt.total || pg.Limit != tt.opts.Limit || pg.Offset != tt.opts.Offset {
				t.Errorf("pagination = %+v, want total %d limit %d offset %d", pg, tt.total, tt.opts.Limit, tt.opts.Offset)
			}
		})
	}
}
