package drift_test

import (
	"reflect"
	"testing"

	"fsdrift/internal/drift"
	"fsdrift/internal/testutil"
)

func TestDiff(t *testing.T) {
	t.Parallel()

	t1 := testutil.Dir("/r", "root", 1,
		testutil.File("/r/a.txt", "a.txt", 3, 100),
		testutil.Dir("/r/sub", "sub", 5,
			testutil.File("/r/sub/b.pdf", "b.pdf", 9, 50),
		),
	)
	t2 := testutil.Dir("/r", "root", 1,
		testutil.File("/r/a.txt", "a.txt", 3, 200),
		testutil.Dir("/r/sub", "sub", 5),
		testutil.File("/r/c.txt", "c.txt", 1, 300),
	)

	report := drift.Diff(t1, t2)

	if want := []string{"root/c.txt"}; !reflect.DeepEqual(report.Added, want) {
		t.Errorf("Added = %v, want %v", report.Added, want)
	}
	if want := []string{"root/sub/b.pdf"}; !reflect.DeepEqual(report.Removed, want) {
		t.Errorf("Removed = %v, want %v", report.Removed, want)
	}
	wantModified := []drift.ModifiedEntry{{Path: "root/a.txt", OldModified: 100, NewModified: 200}}
	if !reflect.DeepEqual(report.Modified, wantModified) {
		t.Errorf("Modified = %v, want %v", report.Modified, wantModified)
	}
	if report.Empty() {
		t.Error("Empty() = true, want false")
	}
}

func TestDiff_Identity(t *testing.T) {
	t.Parallel()

	tree := testutil.SampleTree()
	report := drift.Diff(tree, tree)
	if !report.Empty() {
		t.Errorf("Diff(T, T) = %+v, want empty", report)
	}
}

func TestDiff_FilesystemRoot(t *testing.T) {
	t.Parallel()

	old := testutil.Dir("/", "/", 1,
		testutil.Dir("/etc", "etc", 2, testutil.File("/etc/hosts", "hosts", 5, 10)),
	)
	cur := testutil.Dir("/", "/", 1,
		testutil.Dir("/etc", "etc", 2, testutil.File("/etc/hosts", "hosts", 5, 20)),
		testutil.File("/swapfile", "swapfile", 8, 30),
	)

	report := drift.Diff(old, cur)
	if want := []string{"/swapfile"}; !reflect.DeepEqual(report.Added, want) {
		t.Errorf("Added = %v, want %v", report.Added, want)
	}
	wantModified := []drift.ModifiedEntry{{Path: "/etc/hosts", OldModified: 10, NewModified: 20}}
	if !reflect.DeepEqual(report.Modified, wantModified) {
		t.Errorf("Modified = %v, want %v", report.Modified, wantModified)
	}
}

func TestDiff_SizeOnlyChangeIsIgnored(t *testing.T) {
	t.Parallel()

	old := testutil.Dir("/r", "r", 1, testutil.File("/r/f", "f", 10, 7))
	cur := testutil.Dir("/r", "r", 1, testutil.File("/r/f", "f", 99, 7))

	if report := drift.Diff(old, cur); !report.Empty() {
		t.Errorf("Diff() = %+v, want empty", report)
	}
}

func TestDiff_NilTrees(t *testing.T) {
	t.Parallel()

	tree := testutil.SampleTree()
	all := []string{"root", "root/a.txt", "root/sub", "root/sub/b.pdf"}

	tests := []struct {
		name        string
		old, cur    *drift.Entry
		wantAdded   []string
		wantRemoved []string
	}{
		{name: "nil old", old: nil, cur: tree, wantAdded: all, wantRemoved: []string{}},
		{name: "nil new", old: tree, cur: nil, wantAdded: []string{}, wantRemoved: all},
		{name: "both nil", old: nil, cur: nil, wantAdded: []string{}, wantRemoved: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			report := drift.Diff(tt.old, tt.cur)
			if !reflect.DeepEqual(report.Added, tt.wantAdded) {
				t.Errorf("Added = %v, want %v", report.Added, tt.wantAdded)
			}
			if !reflect.DeepEqual(report.Removed, tt.wantRemoved) {
				t.Errorf("Removed = %v, want %v", report.Removed, tt.wantRemoved)
			}
			if len(report.Modified) != 0 {
				t.Errorf("Modified = %v, want none", report.Modified)
			}
		})
	}
}

func TestDiff_SortedOutput(t *testing.T) {
	t.Parallel()

	old := testutil.Dir("/r", "r", 1)
	cur := testutil.Dir("/r", "r", 1,
		testutil.File("/r/z", "z", 0, 1),
		testutil.File("/r/a", "a", 0, 1),
		testutil.File("/r/m", "m", 0, 1),
	)

	report := drift.Diff(old, cur)
	want := []string{"r/a", "r/m", "r/z"}
	if !reflect.DeepEqual(report.Added, want) {
		t.Errorf("Added = %v, want %v", report.Added, want)
	}
}

func TestEntry_Count(t *testing.T) {
	t.Parallel()

	if got := testutil.SampleTree().Count(); got != 4 {
		t.Errorf("Count() = %d, want 4", got)
	}
	var nilEntry *drift.Entry
	if got := nilEntry.Count(); got != 0 {
		t.Errorf("nil Count() = %d, want 0", got)
	}
}
