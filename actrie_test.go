package actrie

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/coregx/actrie/dict"
	"github.com/coregx/actrie/matcher"
	"github.com/coregx/actrie/pattern"
)

func mustCompile(t testing.TB, src string, config Config) *Matcher {
	t.Helper()
	m, err := Compile(src, config)
	if err != nil {
		t.Fatalf("Compile(%q) error = %v", src, err)
	}
	return m
}

func TestFindAll(t *testing.T) {
	dictSrc := strings.Join([]string{
		"he\tpronoun",
		"she\tpronoun",
		"hers",
		"A.{0,3}B\tgap",
		`N\d{0,5}M` + "\tdigits",
		"中文\tcjk",
	}, "\n")

	tests := []struct {
		name  string
		input string
		want  []Match
	}{
		{
			name:  "overlapping_literals",
			input: "ushers",
			want: []Match{
				{Keyword: "she", Start: 1, End: 4, Extra: "pronoun", Tag: 1},
				{Keyword: "he", Start: 2, End: 4, Extra: "pronoun", Tag: 0},
				{Keyword: "hers", Start: 2, End: 6, Tag: 2},
			},
		},
		{
			name:  "free_gap",
			input: "xAyyyBz",
			want:  []Match{{Keyword: "A.{0,3}B", Start: 1, End: 6, Extra: "gap", Tag: 3}},
		},
		{
			name:  "free_gap_too_wide",
			input: "xAyyyyBz",
		},
		{
			name:  "numeric_gap",
			input: "N123M",
			want:  []Match{{Keyword: `N\d{0,5}M`, Start: 0, End: 5, Extra: "digits", Tag: 4}},
		},
		{
			name:  "numeric_gap_too_long",
			input: "N999999M",
		},
		{
			name:  "character_offsets",
			input: "说中文A中B",
			want: []Match{
				{Keyword: "中文", Start: 1, End: 3, Extra: "cjk", Tag: 5},
				{Keyword: "A.{0,3}B", Start: 3, End: 6, Extra: "gap", Tag: 3},
			},
		},
		{
			name:  "invalid_utf8_counts_bytes",
			input: "\xff\xfeshe",
			want: []Match{
				{Keyword: "she", Start: 2, End: 5, Extra: "pronoun", Tag: 1},
				{Keyword: "he", Start: 3, End: 5, Extra: "pronoun", Tag: 0},
			},
		},
		{
			name:  "empty_buffer",
			input: "",
		},
	}

	m := mustCompile(t, dictSrc, DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.FindAllString(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FindAllString(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFindAll_EmptyDict(t *testing.T) {
	for _, kind := range []matcher.Kind{matcher.KindDistance, matcher.KindPlain} {
		config := DefaultConfig()
		config.Kind = kind
		m := mustCompile(t, "", config)
		if got := m.FindAllString("anything at all"); got != nil {
			t.Errorf("%v: FindAllString() = %v, want nil", kind, got)
		}
		if _, ok := m.Search([]byte("x")); ok {
			t.Errorf("%v: Search() reported a match", kind)
		}
	}
}

func TestKindsAgreeOnLiterals(t *testing.T) {
	words := []string{"a", "ab", "bab", "bc", "bca", "c", "caa", "abc", "中", "中文"}
	text := "abccab中文bcaab中abcbab"

	var got [2][]Match
	for i, kind := range []matcher.Kind{matcher.KindDistance, matcher.KindPlain} {
		for _, prefilter := range []bool{false, true} {
			config := DefaultConfig()
			config.Kind = kind
			config.EnablePrefilter = prefilter
			m, err := CompileStrings(words, config)
			if err != nil {
				t.Fatalf("CompileStrings() error = %v", err)
			}
			matches := m.FindAllString(text)
			if got[i] != nil && !reflect.DeepEqual(matches, got[i]) {
				t.Errorf("%v: prefilter changed the result", kind)
			}
			got[i] = matches
		}
	}
	if len(got[0]) == 0 {
		t.Fatal("no matches")
	}
	if !reflect.DeepEqual(got[0], got[1]) {
		t.Errorf("distance = %v\nplain = %v", got[0], got[1])
	}
}

func TestPlainKindIsLiteral(t *testing.T) {
	config := DefaultConfig()
	config.Kind = matcher.KindPlain
	m := mustCompile(t, "A.{0,3}B", config)
	if got := m.FindAllString("AxB"); got != nil {
		t.Errorf("FindAllString(AxB) = %v, want nil", got)
	}
	if got := m.FindAllString("A.{0,3}B"); len(got) != 1 {
		t.Errorf("FindAllString(literal) = %v, want one match", got)
	}
	if s := m.Stats(); s.Kind != matcher.KindPlain || s.Gapped != 0 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestContextLifecycle(t *testing.T) {
	m := mustCompile(t, "ab\ncd", DefaultConfig())
	ctx, err := m.AllocContext()
	if err != nil {
		t.Fatalf("AllocContext() error = %v", err)
	}

	// Next before Reset has nothing to report.
	if _, ok := ctx.Next(); ok {
		t.Error("Next() before Reset reported a match")
	}

	buf := []byte("abcd")
	for round := 0; round < 2; round++ {
		if err := ctx.Reset(buf); err != nil {
			t.Fatalf("Reset() error = %v", err)
		}
		var got []string
		for match := range ctx.All() {
			got = append(got, match.Keyword)
		}
		if want := []string{"ab", "cd"}; !reflect.DeepEqual(got, want) {
			t.Errorf("round %d: keywords = %v, want %v", round, got, want)
		}
		if _, ok := ctx.Next(); ok {
			t.Errorf("round %d: Next() after exhaustion reported a match", round)
		}
	}

	ctx.Free()
	ctx.Free()
	if err := ctx.Reset(buf); !errors.Is(err, ErrContextFreed) {
		t.Errorf("Reset() after Free error = %v, want ErrContextFreed", err)
	}
	if _, ok := ctx.Next(); ok {
		t.Error("Next() after Free reported a match")
	}
}

func TestAll_StopsEarly(t *testing.T) {
	m := mustCompile(t, "a", DefaultConfig())
	ctx, _ := m.AllocContext()
	defer ctx.Free()
	_ = ctx.Reset([]byte("aaaa"))

	n := 0
	for range ctx.All() {
		n++
		if n == 2 {
			break
		}
	}
	if _, ok := ctx.Next(); !ok {
		t.Error("Next() after breaking out of All() should resume")
	}
}

func TestClose(t *testing.T) {
	m := mustCompile(t, "ab", DefaultConfig())
	ctx, err := m.AllocContext()
	if err != nil {
		t.Fatalf("AllocContext() error = %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if _, err := m.AllocContext(); !errors.Is(err, ErrClosed) {
		t.Errorf("AllocContext() after Close error = %v, want ErrClosed", err)
	}
	if got := m.FindAllString("ab"); got != nil {
		t.Errorf("FindAllString() after Close = %v, want nil", got)
	}

	// A context allocated earlier works until freed.
	if err := ctx.Reset([]byte("ab")); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if _, ok := ctx.Next(); !ok {
		t.Error("existing context stopped working after Close")
	}
	ctx.Free()
}

func TestNilHandles(t *testing.T) {
	var m *Matcher
	if _, err := m.AllocContext(); !errors.Is(err, ErrNilMatcher) {
		t.Errorf("AllocContext() error = %v, want ErrNilMatcher", err)
	}
	if err := m.Close(); !errors.Is(err, ErrNilMatcher) {
		t.Errorf("Close() error = %v, want ErrNilMatcher", err)
	}
	if got := m.FindAll([]byte("x")); got != nil {
		t.Errorf("FindAll() = %v, want nil", got)
	}
	if _, err := m.FindAllBatch(context.Background(), nil, 1); !errors.Is(err, ErrNilMatcher) {
		t.Errorf("FindAllBatch() error = %v, want ErrNilMatcher", err)
	}
	if m.Stats() != (Stats{}) || m.Dict() != nil {
		t.Error("nil matcher reported state")
	}

	var c *Context
	if err := c.Reset([]byte("x")); !errors.Is(err, ErrNilContext) {
		t.Errorf("Reset() error = %v, want ErrNilContext", err)
	}
	if _, ok := c.Next(); ok {
		t.Error("nil context reported a match")
	}
	c.Free()
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"default", func(*Config) {}, ""},
		{"zero_gap", func(c *Config) { c.MaxGap = 0 }, ""},
		{"max_gap", func(c *Config) { c.MaxGap = MaxGapLimit }, ""},
		{"negative_gap", func(c *Config) { c.MaxGap = -1 }, "MaxGap"},
		{"huge_gap", func(c *Config) { c.MaxGap = MaxGapLimit + 1 }, "MaxGap"},
		{"bad_kind", func(c *Config) { c.Kind = matcher.Kind(7) }, "Kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(&config)
			err := config.Validate()
			if tt.field == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			var cerr *ConfigError
			if !errors.As(err, &cerr) || cerr.Field != tt.field {
				t.Errorf("Validate() error = %v, want ConfigError on %s", err, tt.field)
			}
			if _, err := Compile("x", config); err == nil {
				t.Error("Compile() accepted an invalid config")
			}
		})
	}
}

func TestMaxGapClamp(t *testing.T) {
	config := DefaultConfig()
	config.MaxGap = 2
	m := mustCompile(t, "A.{0,10}B", config)
	if got := m.FindAllString("AxxB"); len(got) != 1 {
		t.Errorf("gap of 2: %v, want one match", got)
	}
	if got := m.FindAllString("AxxxB"); got != nil {
		t.Errorf("gap of 3: %v, want none", got)
	}
}

func TestStrictLines(t *testing.T) {
	src := "good\n\xff\xfe\nalso"
	m, err := Compile(src, DefaultConfig())
	if err != nil {
		t.Fatalf("lenient Compile() error = %v", err)
	}
	want := []Match{{Keyword: "\xff\xfe", Start: 1, End: 3, Tag: 1}}
	if got := m.FindAllString("x\xff\xfe"); !reflect.DeepEqual(got, want) {
		t.Errorf("raw keyword: FindAllString() = %+v, want %+v", got, want)
	}
	config := DefaultConfig()
	config.StrictLines = true
	if _, err := Compile(src, config); err == nil {
		t.Error("strict Compile() accepted invalid UTF-8")
	}
}

func TestCompileSources(t *testing.T) {
	src := "alpha\tone\nbeta.{0,2}gamma\ttwo\n"
	path := filepath.Join(t.TempDir(), "dict.txt")
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}

	fromFile, err := CompileFile(path, DefaultConfig())
	if err != nil {
		t.Fatalf("CompileFile() error = %v", err)
	}
	fromReader, err := CompileReader(strings.NewReader(src), DefaultConfig())
	if err != nil {
		t.Fatalf("CompileReader() error = %v", err)
	}
	fromStrings, err := CompileStrings(strings.Split(strings.TrimSpace(src), "\n"), DefaultConfig())
	if err != nil {
		t.Fatalf("CompileStrings() error = %v", err)
	}

	text := "alpha betaxgamma"
	want := []Match{
		{Keyword: "alpha", Start: 0, End: 5, Extra: "one", Tag: 0},
		{Keyword: "beta.{0,2}gamma", Start: 6, End: 16, Extra: "two", Tag: 1},
	}
	for name, m := range map[string]*Matcher{"file": fromFile, "reader": fromReader, "strings": fromStrings} {
		if got := m.FindAllString(text); !reflect.DeepEqual(got, want) {
			t.Errorf("%s: FindAllString() = %+v, want %+v", name, got, want)
		}
	}

	if _, err := CompileFile(filepath.Join(t.TempDir(), "missing.txt"), DefaultConfig()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("CompileFile(missing) error = %v, want ErrNotExist", err)
	}
}

func TestStats(t *testing.T) {
	m := mustCompile(t, "lit\nA.{0,3}B\nC\\d{0,2}D\n(x.{0,1}y", DefaultConfig())
	s := m.Stats()
	if s.Kind != matcher.KindDistance || s.Entries != 4 || s.Gapped != 2 || s.Fallbacks != 1 {
		t.Errorf("Stats() = %+v", s)
	}
	if s.Nodes == 0 {
		t.Error("Stats().Nodes = 0")
	}
	if m.Dict().Len() != 4 {
		t.Errorf("Dict().Len() = %d, want 4", m.Dict().Len())
	}
}

func TestCompileDict_InvalidTags(t *testing.T) {
	tests := []struct {
		name    string
		entries []*dict.Entry
		kind    matcher.Kind
	}{
		{"tag_beyond_len", []*dict.Entry{{Keyword: "A.{0,3}B", Tag: 7}}, matcher.KindDistance},
		{"negative_tag", []*dict.Entry{{Keyword: "A.{0,3}B", Tag: -1}}, matcher.KindDistance},
		{"plain_tag_beyond_len", []*dict.Entry{{Keyword: "lit", Tag: 3}}, matcher.KindPlain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.Kind = tt.kind
			m, err := CompileDict(&dict.Dict{Entries: tt.entries}, config)
			var terr *dict.TagError
			if !errors.As(err, &terr) {
				t.Fatalf("CompileDict() = %v, %v; want *dict.TagError", m, err)
			}
		})
	}

	// Dense tags set by hand are accepted.
	d := &dict.Dict{Entries: []*dict.Entry{{Keyword: "A.{0,3}B", Tag: 0}}}
	m, err := CompileDict(d, DefaultConfig())
	if err != nil {
		t.Fatalf("CompileDict() error = %v", err)
	}
	if got := m.FindAllString("xAyyB"); len(got) != 1 || got[0].Start != 1 || got[0].End != 5 {
		t.Errorf("FindAllString() = %+v", got)
	}
}

func TestDuplicateKeywords(t *testing.T) {
	src := "A.{0,3}B\tfirst\nA.{0,3}B\tsecond\nlit\tone\nlit\ttwo"
	for _, kind := range []matcher.Kind{matcher.KindDistance, matcher.KindPlain} {
		config := DefaultConfig()
		config.Kind = kind
		m := mustCompile(t, src, config)
		if s := m.Stats(); s.Duplicates != 2 {
			t.Errorf("%v: Stats().Duplicates = %d, want 2", kind, s.Duplicates)
		}
		want := []Match{{Keyword: "lit", Start: 0, End: 3, Extra: "one", Tag: 2}}
		if got := m.FindAllString("lit"); !reflect.DeepEqual(got, want) {
			t.Errorf("%v: FindAllString(lit) = %+v, want %+v", kind, got, want)
		}
	}

	m := mustCompile(t, src, DefaultConfig())
	want := []Match{{Keyword: "A.{0,3}B", Start: 1, End: 6, Extra: "first", Tag: 0}}
	if got := m.FindAllString("xAyyyBz"); !reflect.DeepEqual(got, want) {
		t.Errorf("FindAllString(xAyyyBz) = %+v, want %+v", got, want)
	}
}

func TestStrictPatterns(t *testing.T) {
	src := "ok\n(A.{0,3}B\tbroken"

	m := mustCompile(t, src, DefaultConfig())
	if got := m.FindAllString("(A.{0,3}B"); len(got) != 1 || got[0].Extra != "broken" {
		t.Errorf("literal fallback: FindAllString() = %+v", got)
	}

	config := DefaultConfig()
	config.StrictPatterns = true
	_, err := Compile(src, config)
	var serr *pattern.SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("strict Compile() error = %v, want *pattern.SyntaxError", err)
	}

	// Plain matchers never parse patterns.
	config.Kind = matcher.KindPlain
	if _, err := Compile(src, config); err != nil {
		t.Errorf("strict plain Compile() error = %v", err)
	}
}

func TestPrefilterStats(t *testing.T) {
	m := mustCompile(t, "spam\nbuy.{0,5}now", DefaultConfig())
	if m.Stats().PrefilterBytes <= 0 {
		t.Errorf("Stats().PrefilterBytes = %d", m.Stats().PrefilterBytes)
	}
	m.FindAllString("nothing to see")
	m.FindAllString("spam")

	ps := m.PrefilterStats()
	if !ps.Enabled || !ps.Active || ps.Checks != 2 || ps.Rejects != 1 || ps.RejectRate != 0.5 {
		t.Errorf("PrefilterStats() = %+v", ps)
	}

	config := DefaultConfig()
	config.EnablePrefilter = false
	m = mustCompile(t, "spam", config)
	m.FindAllString("spam")
	if ps := m.PrefilterStats(); ps != (PrefilterStats{}) || m.Stats().PrefilterBytes != 0 {
		t.Errorf("disabled prefilter: PrefilterStats() = %+v", ps)
	}
	if ps := (*Matcher)(nil).PrefilterStats(); ps.Enabled {
		t.Error("nil matcher reports a prefilter")
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	mustCompile(t, "(x.{0,1}y\nok", config)
	out := buf.String()
	if !strings.Contains(out, "falls back to literal") {
		t.Errorf("log lacks fallback record:\n%s", out)
	}
	if !strings.Contains(out, "matcher compiled") {
		t.Errorf("log lacks compile summary:\n%s", out)
	}
}

func TestFindAllBatch(t *testing.T) {
	m := mustCompile(t, "he\nshe\nA.{0,3}B", DefaultConfig())
	var bufs [][]byte
	for i := 0; i < 64; i++ {
		bufs = append(bufs, []byte(fmt.Sprintf("%d she said A%sB", i, strings.Repeat("x", i%6))))
	}

	got, err := m.FindAllBatch(context.Background(), bufs, 4)
	if err != nil {
		t.Fatalf("FindAllBatch() error = %v", err)
	}
	if len(got) != len(bufs) {
		t.Fatalf("len(FindAllBatch()) = %d, want %d", len(got), len(bufs))
	}
	for i, buf := range bufs {
		if want := m.FindAll(buf); !reflect.DeepEqual(got[i], want) {
			t.Errorf("buffer %d: batch = %v, want %v", i, got[i], want)
		}
	}
}

func TestFindAllBatch_Cancelled(t *testing.T) {
	m := mustCompile(t, "a", DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.FindAllBatch(ctx, [][]byte{[]byte("a")}, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("FindAllBatch() error = %v, want context.Canceled", err)
	}
}

func TestConcurrentFindAll(t *testing.T) {
	m := mustCompile(t, "he\nshe\nhers\nA.{0,3}B", DefaultConfig())
	text := []byte(strings.Repeat("ushers AxB ", 50))
	want := m.FindAll(text)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if got := m.FindAll(text); !reflect.DeepEqual(got, want) {
					t.Errorf("concurrent FindAll() diverged")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func BenchmarkFindAll(b *testing.B) {
	words := make([]string, 0, 1000)
	for i := 0; i < 1000; i++ {
		words = append(words, fmt.Sprintf("word%03d", i))
	}
	words = append(words, "alpha.{0,5}omega", `id\d{0,8}x`)
	m, err := CompileStrings(words, DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}
	text := []byte(strings.Repeat("the word042 and alpha to omega with id1234x; ", 200))

	b.SetBytes(int64(len(text)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.FindAll(text)
	}
}
