package skills

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"resumatch/internal/types"
)

type staticJobs struct {
	jobs []types.JobRecord
	err  error
}

func (s staticJobs) List(context.Context) ([]types.JobRecord, error) {
	return s.jobs, s.err
}

func TestParseSkillList(t *testing.T) {
	got := ParseSkillList(" Python, SQL ,,aws,python ")
	assert.Equal(t, []string{"aws", "python", "sql"}, got.Sorted())
	assert.Equal(t, 0, ParseSkillList("").Len())
}

func TestBuildVocabulary(t *testing.T) {
	jobs := []types.JobRecord{
		{SkillsRequired: "Go, gRPC"},
		{SkillsRequired: "go,  Terraform "},
	}
	vocab := BuildVocabulary(jobs, []string{"Python", "SQL"})

	assert.Equal(t, []string{"go", "grpc", "python", "sql", "terraform"}, vocab.Sorted())
}

func TestDefaultSeedIsCanonicalisable(t *testing.T) {
	vocab := BuildVocabulary(nil, DefaultSeedSkills)
	assert.True(t, vocab.Has("project management"))
	assert.True(t, vocab.Has("c++"))
	assert.True(t, vocab.Has("ui/ux design"))
	assert.Greater(t, vocab.Len(), 100)
}

// Multi-word and symbol-bearing skills are matched by bounded substring
// containment on the lowercased text; single words match whole tokens.
func TestExtractFromText(t *testing.T) {
	vocab := types.NewSkillSet("python", "sql", "java", "project management", "c++", "node.js", "ui/ux design", "go")

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"word tokens", "Built ETL in Python and SQL.", []string{"python", "sql"}},
		{"case insensitive", "PYTHON developer", []string{"python"}},
		{"no partial tokens", "JavaScript and PostgreSQL", []string{}},
		{"multi word", "Led Project Management for a team", []string{"project management"}},
		{"multi word across newline", "project\n  management office", []string{"project management"}},
		{"symbols", "Wrote C++, Node.js services", []string{"c++", "node.js"}},
		{"slash skill", "Strong UI/UX design sense", []string{"ui/ux design"}},
		{"bounded substring", "xnode.jsx", []string{}},
		{"short token", "I write Go daily", []string{"go"}},
		{"empty", "   ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractFromText(tt.text, vocab).Sorted())
		})
	}
}

func TestVocabularyRebuildSwaps(t *testing.T) {
	v := NewVocabulary(types.NewSkillSet("python"))
	before := v.Load()

	n, err := v.Rebuild(context.Background(), staticJobs{jobs: []types.JobRecord{{SkillsRequired: "rust"}}}, []string{"python"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, []string{"python"}, before.Sorted(), "previously loaded set must not change")
	assert.Equal(t, []string{"python", "rust"}, v.Load().Sorted())
	assert.Equal(t, int64(1), v.Stats()["rebuilds"])
}

func TestVocabularyRebuildKeepsOldOnError(t *testing.T) {
	v := NewVocabulary(types.NewSkillSet("python"))

	_, err := v.Rebuild(context.Background(), staticJobs{err: fmt.Errorf("db down")}, nil)
	require.Error(t, err)
	assert.Equal(t, []string{"python"}, v.Load().Sorted())
}

func TestVocabularyConcurrentReadsDuringRebuild(t *testing.T) {
	v := NewVocabulary(BuildVocabulary(nil, DefaultSeedSkills))
	src := staticJobs{jobs: []types.JobRecord{{SkillsRequired: "zig"}}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			got := v.Extract("python and sql")
			assert.True(t, got.Has("python"))
		}()
		go func() {
			defer wg.Done()
			_, _ = v.Rebuild(context.Background(), src, DefaultSeedSkills)
		}()
	}
	wg.Wait()
	assert.True(t, v.Load().Has("zig"))
}

func TestSeedSkillsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.txt")
	require.NoError(t, os.WriteFile(path, []byte("# extras\nElixir\n\n  Phoenix \n"), 0o600))

	seed, err := SeedSkills(path)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultSeedSkills)+2, len(seed))
	assert.Equal(t, "Phoenix", seed[len(seed)-1])

	_, err = SeedSkills(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestWatcherTriggersOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o600))

	changed := make(chan struct{}, 1)
	w := NewWatcher([]string{path}, 50*time.Millisecond, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}, nil)
	require.NoError(t, w.Start())
	defer func() { _ = w.Stop() }()
	assert.True(t, w.IsRunning())

	require.NoError(t, os.WriteFile(path, []byte("- job_title: x\n"), 0o600))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("expected change callback")
	}

	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())
	assert.NoError(t, w.Stop())
}

func TestWatcherRecordsEveryChangedFile(t *testing.T) {
	dir := t.TempDir()
	jobsFile := filepath.Join(dir, "jobs.yaml")
	seedFile := filepath.Join(dir, "seed.txt")
	require.NoError(t, os.WriteFile(jobsFile, []byte("[]"), 0o600))
	require.NoError(t, os.WriteFile(seedFile, []byte("Go\n"), 0o600))

	w := NewWatcher([]string{jobsFile, seedFile}, time.Second, func() {}, nil)
	assert.True(t, w.hasAnyFileChanged())
	assert.False(t, w.hasAnyFileChanged())

	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(jobsFile, future, future))
	require.NoError(t, os.Chtimes(seedFile, future, future))
	assert.True(t, w.hasAnyFileChanged())
	assert.False(t, w.hasAnyFileChanged())

	require.NoError(t, os.Remove(seedFile))
	assert.True(t, w.hasAnyFileChanged())
	assert.False(t, w.hasAnyFileChanged())
}

func TestWatcherRequiresFiles(t *testing.T) {
	w := NewWatcher([]string{""}, 0, func() {}, nil)
	assert.Error(t, w.Start())
}
