package db

import (
	"strings"
	"testing"
)

func TestIndexBuilder_KnowledgeSchema(t *testing.T) {
	idx := NewIndex("tributa-kb-idx").
		Prefix("tributa:kb:").
		Text("title").
		Text("content").
		Tag("category").
		Tag("source").
		TagWithOpts("topics", ",", false).
		Numeric("year").
		Numeric("updated_at").
		VectorHNSW("embedding", 1536, DistanceCosine, 16, 200).
		MustBuild()

	if err := idx.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Name != "tributa-kb-idx" {
		t.Errorf("name = %q, want tributa-kb-idx", idx.Name)
	}
	if idx.StorageType != StorageHash {
		t.Errorf("storage = %q, want HASH", idx.StorageType)
	}
	if len(idx.Fields) != 8 {
		t.Fatalf("fields count = %d, want 8", len(idx.Fields))
	}

	topics := idx.Fields[4]
	if topics.Name != "topics" || topics.Type != IndexFieldTag || topics.TagSeparator != "," {
		t.Errorf("topics field = %+v, want comma-separated TAG", topics)
	}

	vec := idx.Fields[7]
	if vec.Type != IndexFieldVector || vec.VectorAlgo != VectorHNSW {
		t.Errorf("embedding field = %+v, want HNSW VECTOR", vec)
	}
	if vec.VectorDim != 1536 || vec.VectorDistance != DistanceCosine {
		t.Errorf("embedding dim/distance = %d/%q", vec.VectorDim, vec.VectorDistance)
	}
	if vec.VectorM != 16 || vec.VectorEFConstruct != 200 {
		t.Errorf("HNSW params = M%d EF%d, want M16 EF200", vec.VectorM, vec.VectorEFConstruct)
	}
}

func TestIndexBuilder_VectorFlat(t *testing.T) {
	idx := NewIndex("embcache-idx").
		Prefix("tributa:emb:").
		VectorFlat("embedding", 768, DistanceCosine, 1024).
		MustBuild()

	f := idx.Fields[0]
	if f.VectorAlgo != VectorFlat {
		t.Errorf("algo = %q, want FLAT", f.VectorAlgo)
	}
	if f.VectorBlockSize != 1024 {
		t.Errorf("block size = %d, want 1024", f.VectorBlockSize)
	}
}

func TestIndexBuilder_MultiplePrefixes(t *testing.T) {
	idx := NewIndex("multi-idx").
		Prefix("tributa:kb:", "tributa:news:").
		Tag("category").
		MustBuild()

	if len(idx.Prefixes) != 2 {
		t.Errorf("prefix count = %d, want 2", len(idx.Prefixes))
	}
}

func TestIndexBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder func() (*IndexDefinition, error)
		wantErr string
	}{
		{
			name: "empty name",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("").Tag("category").Build()
			},
			wantErr: "index name is required",
		},
		{
			name: "no fields",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Build()
			},
			wantErr: "at least one field",
		},
		{
			name: "vector without dim",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Vector("embedding", 0, VectorFlat, DistanceCosine).Build()
			},
			wantErr: "positive DIM",
		},
		{
			name: "invalid characters",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx with spaces").Tag("category").Build()
			},
			wantErr: "invalid characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got error %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestIndexDefinition_DuplicateFields(t *testing.T) {
	idx := &IndexDefinition{
		Name: "dup-idx",
		Fields: []IndexField{
			{Name: "title", Type: IndexFieldText},
			{Name: "title", Type: IndexFieldTag},
		},
	}

	if err := idx.Validate(); err == nil {
		t.Fatal("expected error for duplicate fields")
	}
}

func TestIndexDefinition_String(t *testing.T) {
	idx := NewIndex("kb-idx").
		Prefix("tributa:kb:").
		Text("title").
		Vector("embedding", 512, VectorFlat, DistanceCosine).
		MustBuild()

	s := idx.String()
	if !strings.HasPrefix(s, "FT.CREATE ") {
		t.Errorf("expected FT.CREATE prefix, got %q", s)
	}
	if !strings.Contains(s, "kb-idx") {
		t.Error("missing index name in string output")
	}
}
