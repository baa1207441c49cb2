package treesitter

import (
	"context"
	"sort"
	"sync"
	"testing"
)

func TestParsePython(t *testing.T) {
	p := NewParser()
	defer p.Close()

	tree, err := p.Parse(context.Background(), []byte("def f():\n    pass\n"), "python")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.Type() != "module" {
		t.Errorf("Expected root type 'module', got '%s'", root.Type())
	}
	if root.NamedChildCount() != 1 {
		t.Errorf("Expected 1 top-level statement, got %d", root.NamedChildCount())
	}
}

func TestParseUnsupportedLanguage(t *testing.T) {
	p := NewParser()
	defer p.Close()

	if _, err := p.Parse(context.Background(), []byte("x"), "cobol"); err == nil {
		t.Error("expected error for unsupported language")
	}
}

func TestParseConcurrent(t *testing.T) {
	p := NewParser()
	defer p.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lang := "python"
			src := []byte("def f():\n    pass\n")
			if i%2 == 1 {
				lang = "javascript"
				src = []byte("function f() {}\n")
			}
			tree, err := p.Parse(context.Background(), src, lang)
			if err != nil {
				t.Errorf("Parse failed: %v", err)
				return
			}
			tree.Close()
		}(i)
	}
	wg.Wait()
}

func TestSupportedLanguages(t *testing.T) {
	langs := SupportedLanguages()
	sort.Strings(langs)

	want := []string{"javascript", "python"}
	if len(langs) != len(want) {
		t.Fatalf("Expected %v, got %v", want, langs)
	}
	for i := range want {
		if langs[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, langs)
		}
	}
}
