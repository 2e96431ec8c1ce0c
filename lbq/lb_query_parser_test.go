package lbq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWhere(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Where
	}{
		{
			name:     "plain value becomes eq",
			input:    `{"status":"open"}`,
			expected: Where{"status": Where{"eq": "open"}},
		},
		{
			name:     "operators",
			input:    `{"value":{"gte":10,"lt":20.5}}`,
			expected: Where{"value": Where{"gte": int64(10), "lt": 20.5}},
		},
		{
			name:     "inq",
			input:    `{"_id":{"inq":[1,"a",true]}}`,
			expected: Where{"_id": Where{"inq": []any{int64(1), "a", true}}},
		},
		{
			name:  "and",
			input: `{"and":[{"a":1},{"b":null}]}`,
			expected: Where{"and": AndOrCondition{
				Where{"a": Where{"eq": int64(1)}},
				Where{"b": Where{"eq": nil}},
			}},
		},
		{
			name:     "like with options",
			input:    `{"name":{"like":"^jo","options":"i"}}`,
			expected: Where{"name": Where{"like": "^jo", "options": "i"}},
		},
		{
			name:     "nlike",
			input:    `{"name":{"nlike":"x"}}`,
			expected: Where{"name": Where{"nlike": "x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, err := ParseWhere(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, where)
		})
	}
}

func TestParseWhereErrors(t *testing.T) {
	for _, input := range []string{
		`not json`,
		`[1,2]`,
		`{"$where":"sleep(100)"}`,
		`{"a":{"$gt":1}}`,
		`{"and":{"a":1}}`,
		`{"a":{"inq":1}}`,
		`{"or":[{"$ne":1}]}`,
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseWhere(input)
			assert.Error(t, err)
		})
	}
}

func TestParseFilter(t *testing.T) {
	filter, err := ParseFilter(`{"where":{"status":"open"},"fields":["name","status"],"limit":5}`)
	require.NoError(t, err)
	assert.Equal(t, Where{"status": Where{"eq": "open"}}, filter.Where)
	assert.Equal(t, Fields{"name": true, "status": true}, filter.Fields)
	assert.Equal(t, uint(5), filter.Limit)

	filter, err = ParseFilter(`{"fields":{"secret":false}}`)
	require.NoError(t, err)
	assert.Nil(t, filter.Where)
	assert.Equal(t, Fields{"secret": false}, filter.Fields)

	_, err = ParseFilter(`{"limit":-1}`)
	assert.Error(t, err)

	_, err = ParseFilter(`{"fields":[1]}`)
	assert.Error(t, err)

	_, err = ParseFilter(`"where"`)
	assert.Error(t, err)
}

func TestParseFields(t *testing.T) {
	fields, err := ParseFields(`["a","b"]`)
	require.NoError(t, err)
	assert.Equal(t, Fields{"a": true, "b": true}, fields)

	_, err = ParseFields(`"a"`)
	assert.Error(t, err)
}

func TestParseValue(t *testing.T) {
	value, err := ParseValue(`{"a":[1,2.5,{"b":"c"}]}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": []any{int64(1), 2.5, map[string]any{"b": "c"}}}, value)
}

func BenchmarkParseFilter(b *testing.B) {
	filter := `{"where":{"and":[{"status":"open"},{"value":{"gte":10}}],"name":{"like":"^a","options":"i"}},"fields":["name"],"limit":10}`
	for i := 0; i < b.N; i++ {
		_, _ = ParseFilter(filter)
	}
}
