package maglev

import "testing"

func TestAssertSnapshot(t *testing.T) {
	// Skip if no `-tags maglev_debug` was given.
	if !debug {
		t.Skip("no maglev_debug buildtag")
	}
	for _, test := range []struct {
		name string
		snap *snapshot
	}{
		{
			name: "short",
			snap: &snapshot{
				size:     3,
				backends: []string{"a"},
				lookup:   []int{0, 0},
			},
		},
		{
			name: "unassigned",
			snap: &snapshot{
				size:     3,
				backends: []string{"a"},
				lookup:   []int{0, -1, 0},
			},
		},
		{
			name: "starved",
			snap: &snapshot{
				size:     3,
				backends: []string{"a", "b"},
				lookup:   []int{0, 0, 0},
			},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatalf("want panic; got nothing")
				}
			}()
			assertSnapshot(test.snap)
		})
	}
	// Complete snapshot must pass.
	assertSnapshot(&snapshot{
		size:     3,
		backends: []string{"a", "b"},
		lookup:   []int{1, 0, 1},
	})
}
