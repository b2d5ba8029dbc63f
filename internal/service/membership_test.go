package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"siteops/internal/model"
)

func TestResolveManagerIDs(t *testing.T) {
	tests := []struct {
		name    string
		project model.Project
		want    []int
	}{
		{"list authoritative", model.Project{ManagerID: 1, ManagerIDsJSON: "[2,3]"}, []int{2, 3}},
		{"empty list falls back", model.Project{ManagerID: 1, ManagerIDsJSON: "[]"}, []int{1}},
		{"no list falls back", model.Project{ManagerID: 1}, []int{1}},
		{"malformed list falls back", model.Project{ManagerID: 1, ManagerIDsJSON: "{broken"}, []int{1}},
		{"malformed list, no legacy", model.Project{ManagerIDsJSON: "not json"}, []int{}},
		{"nothing at all", model.Project{}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveManagerIDs(&tt.project))
		})
	}
}

func TestIsProjectManager(t *testing.T) {
	p := &model.Project{ManagerID: 1, ManagerIDsJSON: "[2,3]"}

	assert.True(t, IsProjectManager(2, p))
	assert.True(t, IsProjectManager(3, p))
	assert.False(t, IsProjectManager(1, p), "legacy manager loses access once the list is set")
	assert.False(t, IsProjectManager(9, p))
}

func TestEncodeManagerIDs(t *testing.T) {
	assert.Equal(t, "", EncodeManagerIDs(nil))
	assert.Equal(t, "[4,5]", EncodeManagerIDs([]int{4, 5}))

	// round trip through resolution
	p := &model.Project{ManagerIDsJSON: EncodeManagerIDs([]int{4, 5})}
	assert.Equal(t, []int{4, 5}, ResolveManagerIDs(p))
}
