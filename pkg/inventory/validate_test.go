package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	valid := func(id string) Extension {
		return Extension{ClassID: id, ClassName: "Class " + id, Properties: PropertySet{{Name: "Key", Type: 8}}}
	}

	tests := []struct {
		name    string
		exts    []Extension
		wantErr string
	}{
		{
			name: "valid",
			exts: []Extension{valid("A"), valid("B")},
		},
		{
			name:    "empty schema",
			exts:    nil,
			wantErr: "schema defines no extensions",
		},
		{
			name:    "missing class ID",
			exts:    []Extension{{ClassName: "NoID", Properties: PropertySet{{Name: "Key"}}}},
			wantErr: "'ClassID' failed on the 'required' tag",
		},
		{
			name:    "missing class name",
			exts:    []Extension{{ClassID: "A", Properties: PropertySet{{Name: "Key"}}}},
			wantErr: "'ClassName' failed on the 'required' tag",
		},
		{
			name:    "no properties",
			exts:    []Extension{{ClassID: "A", ClassName: "A"}},
			wantErr: "'Properties' failed on the 'min' tag",
		},
		{
			name:    "unnamed property",
			exts:    []Extension{{ClassID: "A", ClassName: "A", Properties: PropertySet{{Name: "Key"}, {Type: 8}}}},
			wantErr: "'Name' failed on the 'required' tag",
		},
		{
			name:    "duplicate class ID ignoring case",
			exts:    []Extension{valid("abc"), valid("ABC")},
			wantErr: "extension 1 (Class ABC): class ID ABC already used by extension 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.exts)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	err := Validate([]Extension{
		{ClassID: "A"},
		{ClassName: "B", Properties: PropertySet{{Name: "Key"}}},
	})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "extension 0")
		assert.Contains(t, err.Error(), "extension 1 (B)")
	}
}
