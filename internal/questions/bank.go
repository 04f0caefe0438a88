package questions

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mind-engage/mindengage-cbt/internal/cbt"
)

// bankFile is the on-disk layout of a question bank. JSON files use the same keys.
//
//	document_id: bio-101
//	questions:
//	  - id: bio-1
//	    prompt: Which organelle makes ATP?
//	    options: [{label: A, text: Nucleus}, {label: B, text: Mitochondria}]
//	    correct_answer: B
//	    difficulty: easy
type bankFile struct {
	DocumentID string         `yaml:"document_id"`
	Questions  []cbt.Question `yaml:"questions"`
}

// Bank holds authored questions keyed by the document they belong to.
type Bank struct {
	mu    sync.RWMutex
	byDoc map[string][]cbt.Question
}

func NewBank() *Bank {
	return &Bank{byDoc: map[string][]cbt.Question{}}
}

// AddQuestions replaces the questions of documentID.
func (b *Bank) AddQuestions(documentID string, qs []cbt.Question) {
	cp := make([]cbt.Question, len(qs))
	for i, q := range qs {
		q.DocumentID = documentID
		if q.Points <= 0 {
			q.Points = 1
		}
		if q.TimeSeconds <= 0 {
			q.TimeSeconds = 60
		}
		cp[i] = q
	}
	b.mu.Lock()
	b.byDoc[documentID] = cp
	b.mu.Unlock()
}

func (b *Bank) Questions(documentID string) []cbt.Question {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]cbt.Question(nil), b.byDoc[documentID]...)
}

func (b *Bank) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, qs := range b.byDoc {
		n += len(qs)
	}
	return n
}

// LoadFile reads one YAML or JSON bank file.
func (b *Bank) LoadFile(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var f bankFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	if f.DocumentID == "" {
		base := filepath.Base(path)
		f.DocumentID = strings.TrimSuffix(base, filepath.Ext(base))
	}
	for i, q := range f.Questions {
		if q.ID == "" {
			f.Questions[i].ID = fmt.Sprintf("%s-%d", f.DocumentID, i+1)
		}
		f.Questions[i].Difficulty = cbt.Difficulty(strings.ToLower(string(q.Difficulty)))
	}
	b.AddQuestions(f.DocumentID, f.Questions)
	return len(f.Questions), nil
}

// LoadDir loads every .yaml, .yml and .json file directly under dir.
func (b *Bank) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
		default:
			continue
		}
		n, err := b.LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// GetQuestionsForSession draws up to count questions of the allowed
// difficulties from the given documents, in a deterministic order per request.
func (b *Bank) GetQuestionsForSession(_ context.Context, documentIDs []string, difficulty cbt.Difficulty, count int) ([]cbt.Question, error) {
	if count <= 0 {
		return nil, nil
	}
	b.mu.RLock()
	var pool []cbt.Question
	for _, id := range documentIDs {
		for _, q := range b.byDoc[id] {
			if difficulty.Allows(q.Difficulty) {
				pool = append(pool, q)
			}
		}
	}
	b.mu.RUnlock()
	if len(pool) == 0 {
		return nil, nil
	}

	ids := append([]string(nil), documentIDs...)
	sort.Strings(ids)
	rng := rand.New(rand.NewSource(seedOf(append(ids, "bank", string(difficulty), strconv.Itoa(count))...)))
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if len(pool) > count {
		pool = pool[:count]
	}
	return pool, nil
}
