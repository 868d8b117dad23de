package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSHA256_CalculateRaw(t *testing.T) {
	calc := New()

	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", calc.CalculateRaw(nil))
	assert.Len(t, calc.CalculateRaw([]byte("DROP TABLE IF EXISTS users;")), 64)
	assert.NotEqual(t,
		calc.CalculateRaw([]byte("DROP TABLE users;")),
		calc.CalculateRaw([]byte("DROP  TABLE users;")),
		"raw digest must see whitespace changes")
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"lowercases keywords", "DROP TABLE IF EXISTS Users;", "drop table if exists users;"},
		{"collapses whitespace", "SELECT   a,\n\t b\nFROM  t", "select a, b from t"},
		{"trims", "  \n SELECT 1 \n ", "select 1"},
		{"line comment", "-- leading\nSELECT 1; -- trailing", "select 1;"},
		{"block comment", "SELECT /* inline */ 1", "select 1"},
		{"nested block comment", "SELECT /* a /* b */ c */ 1", "select 1"},
		{"literal case kept", "WHERE page = 'NextSong'", "where page = 'NextSong'"},
		{"literal spacing kept", "SELECT 'a  b'", "select 'a  b'"},
		{"doubled quote in literal", "SELECT 'it''s -- not a comment'", "select 'it''s -- not a comment'"},
		{"placeholder untouched", "FROM ${LOG_DATA}", "from ${log_data}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestSHA256_CalculateNormalized_IgnoresFormatting(t *testing.T) {
	calc := New()

	a := calc.CalculateNormalized([]byte("CREATE TABLE IF NOT EXISTS users\n(\n    user_id INTEGER\n);"))
	b := calc.CalculateNormalized([]byte("-- users dimension\ncreate table if not exists users ( user_id integer );"))
	c := calc.CalculateNormalized([]byte("create table if not exists users ( user_id bigint );"))

	assert.Equal(t, a, b)
	assert.Equal(t,
		calc.CalculateNormalized([]byte("SELECT 1")),
		calc.CalculateNormalized([]byte("  select\n1 -- x")))
	assert.NotEqual(t, b, c)
}

func TestSHA256_Combine(t *testing.T) {
	calc := New()

	assert.Equal(t,
		calc.Combine([]byte("drop/01_users"), []byte("DROP TABLE users;")),
		calc.Combine([]byte("drop/01_users"), []byte("drop   table users;")))
	assert.NotEqual(t,
		calc.Combine([]byte("ab"), []byte("c")),
		calc.Combine([]byte("a"), []byte("bc")))
	assert.NotEqual(t,
		calc.Combine([]byte("a"), []byte("b")),
		calc.Combine([]byte("b"), []byte("a")))
}
