package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event struct {
	createdAt int
	Title     string
	Ref       *string
	internal  bool
}

var eventKeyPaths = []KeyPath{
	{Field: "createdAt", Key: "created_at"},
	{Field: "Title", Key: "title"},
	{Field: "Ref", Key: "ref"},
}

func TestTable_RoundTrip(t *testing.T) {
	in := &event{createdAt: 10, Title: "launch", Ref: ptr("r1"), internal: true}

	data, err := MarshalTable(in, eventKeyPaths)
	require.NoError(t, err)
	assert.Equal(t, `{"created_at":10,"title":"launch","ref":"r1"}`, string(data))

	out := &event{}
	require.NoError(t, UnmarshalTable(data, out, eventKeyPaths))
	assert.Equal(t, 10, out.createdAt)
	assert.Equal(t, "launch", out.Title)
	assert.Equal(t, ptr("r1"), out.Ref)
	assert.False(t, out.internal)
}

func TestTable_OmitsNilAndKeepsOnMalformed(t *testing.T) {
	data, err := MarshalTable(&event{Title: "t"}, eventKeyPaths)
	require.NoError(t, err)
	assert.Equal(t, `{"created_at":0,"title":"t"}`, string(data))

	out := &event{createdAt: 5, Title: "keep", Ref: ptr("x")}
	require.NoError(t, UnmarshalTable([]byte(`{"created_at":"late","ref":null}`), out, eventKeyPaths))
	assert.Equal(t, 5, out.createdAt)
	assert.Equal(t, "keep", out.Title)
	assert.Nil(t, out.Ref)
}

func TestTable_Errors(t *testing.T) {
	tests := []struct {
		name string
		run  func() error
	}{
		{"decode into value", func() error { return UnmarshalTable([]byte(`{}`), event{}, eventKeyPaths) }},
		{"not a struct", func() error { _, err := MarshalTable(ptr(3), eventKeyPaths); return err }},
		{"nil record", func() error { _, err := MarshalTable((*event)(nil), eventKeyPaths); return err }},
		{"unknown field", func() error { _, err := MarshalTable(&event{}, []KeyPath{{Field: "Nope", Key: "n"}}); return err }},
		{"unexported by value", func() error { _, err := MarshalTable(event{}, eventKeyPaths); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.run())
		})
	}
}
