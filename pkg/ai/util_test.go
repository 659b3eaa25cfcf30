package ai

import "testing"

type verdict struct {
	Relevant  bool   `json:"relevant"`
	Rationale string `json:"rationale"`
}

func TestUnmarshalFlexible(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    verdict
		wantErr bool
	}{
		{
			name:  "standard json",
			input: `{"relevant": true, "rationale": "addresses the failure condition"}`,
			want:  verdict{Relevant: true, Rationale: "addresses the failure condition"},
		},
		{
			name:  "double encoded",
			input: `"{\"relevant\": false, \"rationale\": \"unrelated subpart\"}"`,
			want:  verdict{Relevant: false, Rationale: "unrelated subpart"},
		},
		{
			name:  "malformed but repairable",
			input: `{relevant: true, rationale: 'addresses the failure condition'}`,
			want:  verdict{Relevant: true, Rationale: "addresses the failure condition"},
		},
		{
			name:  "surrounding whitespace",
			input: "  \n{\"relevant\": true, \"rationale\": \"x\"}\n ",
			want:  verdict{Relevant: true, Rationale: "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got verdict
			err := UnmarshalFlexible(tt.input, &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalFlexible() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("UnmarshalFlexible() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema(&verdict{})
	if schema == nil {
		t.Fatal("GenerateSchema() returned nil")
	}
	schema2 := GenerateSchema(verdict{})
	if schema2 == nil {
		t.Fatal("GenerateSchema() on value returned nil")
	}
}
