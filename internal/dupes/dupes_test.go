package dupes

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"dupescan/internal/walker"
)

func writeFile(t *testing.T, dir, name string, content []byte) walker.FileInfo {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return walker.FileInfo{Path: path, Size: int64(len(content))}
}

func TestGroupBySize_PrunesSingletons(t *testing.T) {
	tmpDir := t.TempDir()

	files := []walker.FileInfo{
		writeFile(t, tmpDir, "a", bytes.Repeat([]byte("x"), 10)),
		writeFile(t, tmpDir, "b", bytes.Repeat([]byte("y"), 10)),
		writeFile(t, tmpDir, "c", bytes.Repeat([]byte("z"), 20)),
	}

	groups := GroupBySize(files)

	if len(groups) != 1 {
		t.Fatalf("Expected 1 size group, got %d", len(groups))
	}
	if paths, ok := groups[10]; !ok || len(paths) != 2 {
		t.Errorf("Expected 2 files of size 10, got %v", groups)
	}
}

func TestFind_ReportsDuplicates(t *testing.T) {
	tmpDir := t.TempDir()

	contentX := bytes.Repeat([]byte("X"), 100)
	contentY := bytes.Repeat([]byte("Y"), 100)

	files := []walker.FileInfo{
		writeFile(t, tmpDir, "a", contentX),
		writeFile(t, tmpDir, "b", contentX),
		writeFile(t, tmpDir, "c", contentY),
	}

	result := Find(files, Options{})

	if len(result.Groups) != 1 {
		t.Fatalf("Expected 1 duplicate group, got %d", len(result.Groups))
	}

	group := result.Groups[0]
	if group.Size != 100 {
		t.Errorf("Expected group size 100, got %d", group.Size)
	}
	if group.Wasted() != 100 {
		t.Errorf("Expected wasted 100, got %d", group.Wasted())
	}

	want := []string{filepath.Join(tmpDir, "a"), filepath.Join(tmpDir, "b")}
	if len(group.Paths) != 2 || group.Paths[0] != want[0] || group.Paths[1] != want[1] {
		t.Errorf("Expected members %v, got %v", want, group.Paths)
	}

	for _, path := range group.Paths {
		if filepath.Base(path) == "c" {
			t.Error("Unique file c must not appear in any group")
		}
	}

	if result.TotalWasted() != 100 {
		t.Errorf("Expected total wasted 100, got %d", result.TotalWasted())
	}
}

func TestFind_AllDistinctSizes(t *testing.T) {
	tmpDir := t.TempDir()

	files := []walker.FileInfo{
		writeFile(t, tmpDir, "a", bytes.Repeat([]byte("x"), 1)),
		writeFile(t, tmpDir, "b", bytes.Repeat([]byte("x"), 2)),
		writeFile(t, tmpDir, "c", bytes.Repeat([]byte("x"), 3)),
	}

	if groups := GroupBySize(files); len(groups) != 0 {
		t.Errorf("Expected no size groups to survive pruning, got %d", len(groups))
	}

	result := Find(files, Options{})
	if len(result.Groups) != 0 {
		t.Errorf("Expected no duplicate groups, got %d", len(result.Groups))
	}
}

func TestFind_SharedPrefixDifferingTail(t *testing.T) {
	tmpDir := t.TempDir()

	contentA := bytes.Repeat([]byte{0x42}, 6000)
	contentB := bytes.Repeat([]byte{0x42}, 6000)
	contentB[5000] = 0x43

	files := []walker.FileInfo{
		writeFile(t, tmpDir, "a", contentA),
		writeFile(t, tmpDir, "b", contentB),
	}

	result := Find(files, Options{})

	if len(result.Groups) != 0 {
		t.Errorf("Files differing past the prefix must not group, got %d groups", len(result.Groups))
	}
}

func TestFind_EmptyFilesAreDuplicates(t *testing.T) {
	tmpDir := t.TempDir()

	files := []walker.FileInfo{
		writeFile(t, tmpDir, "a", nil),
		writeFile(t, tmpDir, "b", nil),
	}

	result := Find(files, Options{})

	if len(result.Groups) != 1 {
		t.Fatalf("Expected empty files to form 1 group, got %d", len(result.Groups))
	}
	if result.Groups[0].Wasted() != 0 {
		t.Errorf("Expected wasted 0 for empty files, got %d", result.Groups[0].Wasted())
	}
	if result.TotalWasted() != 0 {
		t.Errorf("Expected total wasted 0, got %d", result.TotalWasted())
	}
}

func TestFind_WastedSpaceArithmetic(t *testing.T) {
	tmpDir := t.TempDir()

	contentA := bytes.Repeat([]byte("a"), 50)
	contentB := bytes.Repeat([]byte("b"), 200)

	files := []walker.FileInfo{
		writeFile(t, tmpDir, "a1", contentA),
		writeFile(t, tmpDir, "a2", contentA),
		writeFile(t, tmpDir, "a3", contentA),
		writeFile(t, tmpDir, "b1", contentB),
		writeFile(t, tmpDir, "b2", contentB),
	}

	result := Find(files, Options{})

	if len(result.Groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(result.Groups))
	}

	// Sorted by wasted space descending: the 200-byte pair first.
	if got := result.Groups[0].Wasted(); got != 200 {
		t.Errorf("Expected first group wasted 200, got %d", got)
	}
	if got := result.Groups[1].Wasted(); got != 100 {
		t.Errorf("Expected second group wasted 100 (50 * 2), got %d", got)
	}
	if got := result.TotalWasted(); got != 300 {
		t.Errorf("Expected total wasted 300, got %d", got)
	}
}

// Every emitted group must hold files of identical size and identical
// content, checked against the filesystem rather than the grouping logic.
func TestFind_GroupInvariants(t *testing.T) {
	tmpDir := t.TempDir()

	content1 := bytes.Repeat([]byte("duplicate-content-"), 500)
	content2 := bytes.Repeat([]byte("other-bytes-here--"), 500)

	files := []walker.FileInfo{
		writeFile(t, tmpDir, "x1", content1),
		writeFile(t, tmpDir, "x2", content1),
		writeFile(t, tmpDir, "x3", content1),
		writeFile(t, tmpDir, "y1", content2),
		writeFile(t, tmpDir, "y2", content2),
	}

	result := Find(files, Options{})

	for _, group := range result.Groups {
		if len(group.Paths) < 2 {
			t.Errorf("Group with %d members emitted", len(group.Paths))
		}

		reference, err := os.ReadFile(group.Paths[0])
		if err != nil {
			t.Fatalf("Failed to read %s: %v", group.Paths[0], err)
		}

		for _, path := range group.Paths {
			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("Failed to stat %s: %v", path, err)
			}
			if info.Size() != group.Size {
				t.Errorf("Member %s has size %d, group says %d", path, info.Size(), group.Size)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("Failed to read %s: %v", path, err)
			}
			if !bytes.Equal(data, reference) {
				t.Errorf("Member %s differs byte-for-byte from %s", path, group.Paths[0])
			}
		}
	}
}

func TestFind_ConcurrencyMatchesSequential(t *testing.T) {
	tmpDir := t.TempDir()

	var files []walker.FileInfo
	for i := 0; i < 8; i++ {
		content := bytes.Repeat([]byte{byte('a' + i%4)}, 64)
		files = append(files, writeFile(t, tmpDir, string(rune('a'+i))+".bin", content))
	}

	sequential := Find(files, Options{Workers: 1})
	parallel := Find(files, Options{Workers: 4})

	if len(sequential.Groups) != len(parallel.Groups) {
		t.Fatalf("Worker count changed group count: %d vs %d",
			len(sequential.Groups), len(parallel.Groups))
	}

	for i := range sequential.Groups {
		sg, pg := sequential.Groups[i], parallel.Groups[i]
		if sg.Fingerprint != pg.Fingerprint || len(sg.Paths) != len(pg.Paths) {
			t.Errorf("Group %d differs between worker counts", i)
			continue
		}
		for j := range sg.Paths {
			if sg.Paths[j] != pg.Paths[j] {
				t.Errorf("Group %d member %d differs: %s vs %s", i, j, sg.Paths[j], pg.Paths[j])
			}
		}
	}
}

func TestFind_SkipsUnreadableFiles(t *testing.T) {
	tmpDir := t.TempDir()

	content := bytes.Repeat([]byte("z"), 30)
	files := []walker.FileInfo{
		writeFile(t, tmpDir, "a", content),
		writeFile(t, tmpDir, "b", content),
		// Same recorded size, but gone by the time it is hashed.
		{Path: filepath.Join(tmpDir, "vanished"), Size: 30},
	}

	result := Find(files, Options{})

	if len(result.Groups) != 1 {
		t.Fatalf("Expected the readable pair to group, got %d groups", len(result.Groups))
	}
	if len(result.Groups[0].Paths) != 2 {
		t.Errorf("Expected 2 members, got %d", len(result.Groups[0].Paths))
	}

	if len(result.Skipped) != 1 {
		t.Fatalf("Expected 1 skipped file, got %d", len(result.Skipped))
	}
	if result.Skipped[0].Path != filepath.Join(tmpDir, "vanished") {
		t.Errorf("Unexpected skipped path %s", result.Skipped[0].Path)
	}
	if result.Skipped[0].Err == nil {
		t.Error("Skipped file should carry its error")
	}
}
